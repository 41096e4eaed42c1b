package video

import (
	"context"
	"errors"
)

// ErrVideoNotFound is returned when a video cannot be found by ID.
var ErrVideoNotFound = errors.New("video not found")

// Repository defines the interface for video record persistence.
// Updates are last-write-wins: there is no version check between a
// FindByID and the Update that follows it.
type Repository interface {
	// Create persists a new video.
	Create(ctx context.Context, v *Video) error

	// FindByID retrieves a video by its unique identifier.
	// Returns ErrVideoNotFound if the video does not exist.
	FindByID(ctx context.Context, id string) (*Video, error)

	// ListByOwner returns the videos owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*Video, error)

	// Update overwrites an existing video.
	// Returns ErrVideoNotFound if the video does not exist.
	Update(ctx context.Context, v *Video) error
}
