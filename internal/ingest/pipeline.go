package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maauso/tubely-api/internal/apperr"
	"github.com/maauso/tubely-api/internal/media"
	"github.com/maauso/tubely-api/internal/randid"
	"github.com/maauso/tubely-api/internal/staging"
	"github.com/maauso/tubely-api/internal/video"
)

// UploadVideo runs the video pipeline for req and returns the updated record
// with signed URLs.
//
// The raw upload is staged, remuxed for fast start and the remuxed copy is
// probed and stored under {orientation}/{random}.mp4. The record is updated
// only after the object store confirms the put. Every staged file is
// removed before UploadVideo returns, whatever the outcome.
func (s *Service) UploadVideo(ctx context.Context, req UploadRequest) (SignedVideo, error) {
	record, err := s.ingestVideo(ctx, req)
	s.metrics.ObserveUpload("video", outcome(err))
	if err != nil {
		return SignedVideo{}, err
	}
	return s.sign(ctx, record)
}

func (s *Service) ingestVideo(ctx context.Context, req UploadRequest) (_ *video.Video, err error) {
	run := s.newRun(req.VideoID)
	defer func() { run.finish(err) }()

	record, err := s.findRecord(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}
	if err := ValidateUpload(req.OwnerID, record, req.MediaType, req.Size); err != nil {
		return nil, err
	}

	if err := run.enter(StageStaging); err != nil {
		return nil, err
	}
	raw, err := s.stager.Stage(ctx, req.Body, VideoExt)
	if err != nil {
		return nil, stagingError(ctx, "failed to stage upload", err)
	}
	run.track(raw)

	if err := run.enter(StageTranscoding); err != nil {
		return nil, err
	}
	processedPath, err := s.remuxer.FastStart(ctx, raw.Path())
	if err != nil {
		return nil, s.mediaError(ctx, req.VideoID, err)
	}
	processed, err := s.stager.Adopt(processedPath)
	if err != nil {
		return nil, apperr.BadRequest(media.ErrProcessedFileEmpty.Error(), err)
	}
	run.track(processed)

	if err := run.enter(StageProbing); err != nil {
		return nil, err
	}
	dims, err := s.inspector.Probe(ctx, processed.Path())
	if err != nil {
		return nil, s.mediaError(ctx, req.VideoID, err)
	}
	orientation := dims.Orientation()

	if err := run.enter(StageUploading); err != nil {
		return nil, err
	}
	key, err := objectKey(string(orientation), VideoExt)
	if err != nil {
		return nil, apperr.IO("failed to generate key", err)
	}
	if err := s.putStaged(ctx, processed, key); err != nil {
		return nil, err
	}
	s.metrics.IncOrientation(string(orientation))

	if err := run.enter(StageRecording); err != nil {
		return nil, err
	}
	if err := s.recordAsset(ctx, record, key, func(v *video.Video) { v.VideoKey = key }); err != nil {
		return nil, err
	}

	s.logger.Info("video stored",
		slog.String("video_id", record.ID),
		slog.String("key", key),
		slog.String("orientation", string(orientation)),
		slog.Int("width", dims.Width),
		slog.Int("height", dims.Height),
	)
	return record, nil
}

// putStaged streams a staged file to the object store.
func (s *Service) putStaged(ctx context.Context, f *staging.File, key string) error {
	fh, err := f.Open()
	if err != nil {
		return apperr.IO("failed to read processed file", err)
	}
	defer func() { _ = fh.Close() }()

	if err := s.store.Put(ctx, key, fh, f.Size(), AcceptedVideoType); err != nil {
		if aborted(ctx) {
			return apperr.BadRequest("upload aborted", err)
		}
		return apperr.Storage("failed to upload video", err)
	}
	return nil
}

// mediaError classifies a media tool failure. Tool stderr is logged and
// never included in the caller-facing message.
func (s *Service) mediaError(ctx context.Context, videoID string, err error) error {
	if aborted(ctx) {
		return apperr.BadRequest("upload aborted", err)
	}

	var toolErr *media.ToolError
	if errors.As(err, &toolErr) {
		s.logger.Warn("media tool failed",
			slog.String("video_id", videoID),
			slog.String("tool", toolErr.Tool),
			slog.String("stderr", toolErr.Stderr),
		)
	}

	for _, sentinel := range []error{
		media.ErrInvalidFilePath,
		media.ErrProcessedFileEmpty,
		media.ErrTranscodeFailed,
		media.ErrInvalidFile,
	} {
		if errors.Is(err, sentinel) {
			return apperr.BadRequest(sentinel.Error(), err)
		}
	}
	return apperr.BadRequest("invalid file", err)
}

func stagingError(ctx context.Context, msg string, err error) error {
	if aborted(ctx) {
		return apperr.BadRequest("upload aborted", err)
	}
	return apperr.IO(msg, err)
}

func aborted(ctx context.Context) bool {
	return ctx.Err() != nil
}

// objectKey returns prefix/<random>.ext.
func objectKey(prefix, ext string) (string, error) {
	id, err := randid.Generate()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s.%s", prefix, id, ext), nil
}

// run tracks the stage and staged files of one pipeline execution.
type run struct {
	svc     *Service
	videoID string
	stages  *stageMachine
	entered time.Time
	staged  []*staging.File
}

func (s *Service) newRun(videoID string) *run {
	return &run{
		svc:     s,
		videoID: videoID,
		stages:  newStageMachine(),
		entered: time.Now(),
	}
}

// enter moves the run to next, recording how long the previous stage took.
func (r *run) enter(next Stage) error {
	prev := r.stages.Current()
	if err := r.stages.TransitionTo(next); err != nil {
		return apperr.New(apperr.KindUnknown, "pipeline error", err)
	}

	now := time.Now()
	r.svc.metrics.ObserveStage(string(prev), now.Sub(r.entered))
	r.entered = now

	r.svc.logger.Debug("pipeline stage",
		slog.String("video_id", r.videoID),
		slog.String("from", string(prev)),
		slog.String("to", string(next)),
	)
	return nil
}

// track adds f to the files released when the run finishes.
func (r *run) track(f *staging.File) {
	r.staged = append(r.staged, f)
	r.svc.metrics.StagedFileCreated()
}

// finish releases every tracked file and moves the run to DONE or FAILED.
// Release failures are logged and counted; they do not change the outcome.
func (r *run) finish(err error) {
	if err == nil {
		_ = r.enter(StageCleaningUp)
	}

	r.release()

	if err == nil {
		_ = r.enter(StageDone)
		return
	}

	from := r.stages.Current()
	_ = r.enter(StageFailed)

	level := slog.LevelWarn
	if kind := apperr.KindOf(err); kind != apperr.KindBadRequest && kind != apperr.KindForbidden && kind != apperr.KindNotFound {
		level = slog.LevelError
	}
	r.svc.logger.Log(context.Background(), level, "video upload failed",
		slog.String("video_id", r.videoID),
		slog.String("stage", string(from)),
		slog.String("error", err.Error()),
	)
}

func (r *run) release() {
	for i := len(r.staged) - 1; i >= 0; i-- {
		f := r.staged[i]
		if err := r.svc.stager.Release(f); err != nil {
			r.svc.metrics.IncCleanupErrors()
			r.svc.logger.Error("failed to release staged file",
				slog.String("video_id", r.videoID),
				slog.String("path", f.Path()),
				slog.String("error", err.Error()),
			)
			continue
		}
		r.svc.metrics.StagedFileReleased()
	}
	r.staged = nil
}
