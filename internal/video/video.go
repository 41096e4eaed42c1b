// Package video provides the Video record owned by the metadata store and
// the repository port used to read and update it.
package video

import (
	"time"

	"github.com/google/uuid"
)

// Video is the metadata record of an uploaded video.
// VideoKey and ThumbnailKey are object store keys, never URLs; they stay
// empty until the corresponding upload has been confirmed.
type Video struct {
	// ID is the unique identifier for this video (UUIDv4).
	ID string
	// OwnerID is the user that created the record.
	OwnerID string
	// Title is the display title.
	Title string
	// Description is free-form text.
	Description string
	// VideoKey is the object store key of the normalized video.
	VideoKey string
	// ThumbnailKey is the object store key of the thumbnail image.
	ThumbnailKey string
	// CreatedAt is when the record was created.
	CreatedAt time.Time
	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// New creates a draft video owned by ownerID with a generated ID.
func New(ownerID, title, description string) *Video {
	now := time.Now().UTC()
	return &Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasVideo reports whether a video asset has been stored for the record.
func (v *Video) HasVideo() bool {
	return v.VideoKey != ""
}

// Clone returns a copy of the video for safe reads.
func (v *Video) Clone() *Video {
	c := *v
	return &c
}
