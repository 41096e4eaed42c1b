package ingest

import (
	"mime"

	"github.com/maauso/tubely-api/internal/apperr"
	"github.com/maauso/tubely-api/internal/video"
)

// ValidateUpload checks a video upload before any byte is staged. Rules are
// applied in order: the record must exist, the caller must own it, the media
// type must be AcceptedVideoType and the declared size must not exceed
// MaxVideoBytes.
func ValidateUpload(ownerID string, record *video.Video, mediaType string, size int64) error {
	if err := authorize(ownerID, record); err != nil {
		return err
	}

	if parsed, _, err := mime.ParseMediaType(mediaType); err != nil || parsed != AcceptedVideoType {
		return apperr.BadRequest("unsupported type", err)
	}

	if size > MaxVideoBytes {
		return apperr.BadRequest("too large", nil)
	}

	return nil
}

// ValidateThumbnail applies the same owner checks as ValidateUpload and
// returns the file extension for an accepted image type.
func ValidateThumbnail(ownerID string, record *video.Video, mediaType string, size int64) (string, error) {
	if err := authorize(ownerID, record); err != nil {
		return "", err
	}

	parsed, _, err := mime.ParseMediaType(mediaType)
	ext, ok := thumbnailTypes[parsed]
	if err != nil || !ok {
		return "", apperr.BadRequest("unsupported type", err)
	}

	if size > MaxThumbnailBytes {
		return "", apperr.BadRequest("too large", nil)
	}

	return ext, nil
}

func authorize(ownerID string, record *video.Video) error {
	if record == nil {
		return apperr.NotFound("video not found", video.ErrVideoNotFound)
	}
	if record.OwnerID != ownerID {
		return apperr.Forbidden("not the owner of this video")
	}
	return nil
}
