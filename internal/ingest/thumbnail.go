package ingest

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/maauso/tubely-api/internal/apperr"
	"github.com/maauso/tubely-api/internal/video"
)

// ThumbnailRequest is one thumbnail upload call.
type ThumbnailRequest struct {
	VideoID   string
	OwnerID   string
	Body      io.Reader
	MediaType string
	Size      int64
}

// UploadThumbnail stores an image for a video under thumbnails/{random}.{ext}
// and records its key once the put succeeds. Thumbnails are small enough to
// be buffered in memory and are not staged on disk.
func (s *Service) UploadThumbnail(ctx context.Context, req ThumbnailRequest) (SignedVideo, error) {
	record, err := s.storeThumbnail(ctx, req)
	s.metrics.ObserveUpload("thumbnail", outcome(err))
	if err != nil {
		s.logger.Warn("thumbnail upload failed",
			slog.String("video_id", req.VideoID),
			slog.String("error", err.Error()),
		)
		return SignedVideo{}, err
	}
	return s.sign(ctx, record)
}

func (s *Service) storeThumbnail(ctx context.Context, req ThumbnailRequest) (*video.Video, error) {
	record, err := s.findRecord(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}
	ext, err := ValidateThumbnail(req.OwnerID, record, req.MediaType, req.Size)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, MaxThumbnailBytes+1))
	if err != nil {
		if aborted(ctx) {
			return nil, apperr.BadRequest("upload aborted", err)
		}
		return nil, apperr.IO("failed to read thumbnail", err)
	}
	if int64(len(data)) > MaxThumbnailBytes {
		return nil, apperr.BadRequest("too large", nil)
	}

	key, err := objectKey(ThumbnailPrefix, ext)
	if err != nil {
		return nil, apperr.IO("failed to generate key", err)
	}

	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), req.MediaType); err != nil {
		return nil, apperr.Storage("failed to upload thumbnail", err)
	}

	if err := s.recordAsset(ctx, record, key, func(v *video.Video) { v.ThumbnailKey = key }); err != nil {
		return nil, err
	}

	s.logger.Info("thumbnail stored",
		slog.String("video_id", record.ID),
		slog.String("key", key),
	)
	return record, nil
}
