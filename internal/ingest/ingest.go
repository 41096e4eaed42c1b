// Package ingest implements the upload use cases: validating an upload
// against its video record, staging and normalizing the bytes, storing the
// result under an orientation-partitioned key and signing stored keys for
// responses.
package ingest

import (
	"errors"
	"io"
	"time"

	"github.com/maauso/tubely-api/internal/video"
)

// Upload limits and formats.
const (
	// AcceptedVideoType is the only media type accepted for video uploads.
	AcceptedVideoType = "video/mp4"
	// VideoExt is the file extension of staged and stored videos.
	VideoExt = "mp4"
	// MaxVideoBytes is the declared size ceiling for a video upload (1 GiB).
	MaxVideoBytes int64 = 1 << 30
	// MaxThumbnailBytes is the size ceiling for a thumbnail upload (10 MiB).
	MaxThumbnailBytes int64 = 10 << 20
	// ThumbnailPrefix partitions thumbnails in the object store.
	ThumbnailPrefix = "thumbnails"
	// DefaultSignedURLTTL is used when no TTL is configured.
	DefaultSignedURLTTL = time.Hour
)

// thumbnailTypes maps accepted thumbnail media types to file extensions.
var thumbnailTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// ErrRecordNotUpdated is returned when an asset was stored but the video
// record could not be updated to reference it. The stored object is left in
// place and its key is logged.
var ErrRecordNotUpdated = errors.New("asset stored but video record not updated")

// UploadRequest is one video upload call.
type UploadRequest struct {
	// VideoID identifies the target video record.
	VideoID string
	// OwnerID is the authenticated caller.
	OwnerID string
	// Body is the uploaded byte stream.
	Body io.Reader
	// MediaType is the declared Content-Type of the upload.
	MediaType string
	// Size is the declared byte length of the upload.
	Size int64
}

// SignedVideo is the response view of a video record: stored keys are
// replaced by freshly signed URLs and never exposed directly.
type SignedVideo struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func unsigned(v *video.Video) SignedVideo {
	return SignedVideo{
		ID:          v.ID,
		OwnerID:     v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}
