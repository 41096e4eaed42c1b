// Package media wraps the external tools used to inspect and normalize
// uploaded videos: ffprobe for stream dimensions and ffmpeg for the
// fast-start remux.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Static errors for media operations.
var (
	// ErrInvalidFilePath is returned when the input path is missing or not a regular file.
	ErrInvalidFilePath = errors.New("invalid file path")
	// ErrInvalidFile is returned when ffprobe cannot describe the file.
	ErrInvalidFile = errors.New("invalid file")
	// ErrTranscodeFailed is returned when ffmpeg exits with a failure status.
	ErrTranscodeFailed = errors.New("transcode failed")
	// ErrProcessedFileEmpty is returned when ffmpeg reports success but its output is unusable.
	ErrProcessedFileEmpty = errors.New("processed file missing or empty")
)

// Orientation buckets a video by its frame aspect ratio.
type Orientation string

const (
	// OrientationLandscape is any ratio strictly above LandscapeThreshold.
	OrientationLandscape Orientation = "landscape"
	// OrientationPortrait is any ratio strictly below PortraitThreshold.
	OrientationPortrait Orientation = "portrait"
	// OrientationOther covers near-square frames, thresholds included.
	OrientationOther Orientation = "other"
)

// Ratio thresholds are exact: 1.1 and 0.9 themselves classify as other.
const (
	LandscapeThreshold = 1.1
	PortraitThreshold  = 0.9
)

// Classify maps a width/height ratio to an Orientation.
func Classify(ratio float64) Orientation {
	switch {
	case ratio > LandscapeThreshold:
		return OrientationLandscape
	case ratio < PortraitThreshold:
		return OrientationPortrait
	default:
		return OrientationOther
	}
}

// Dimensions is the frame size of a video stream.
type Dimensions struct {
	Width  int
	Height int
}

// Ratio returns Width / Height.
func (d Dimensions) Ratio() float64 {
	return float64(d.Width) / float64(d.Height)
}

// Orientation classifies the dimensions.
func (d Dimensions) Orientation() Orientation {
	return Classify(d.Ratio())
}

// Inspector reads stream metadata from a local media file.
type Inspector interface {
	// Probe returns the dimensions of the first video stream of the file at path.
	Probe(ctx context.Context, path string) (Dimensions, error)
}

// Remuxer rewrites a media container without re-encoding its streams.
type Remuxer interface {
	// FastStart writes a copy of the file at path with its index moved to the
	// front and returns the new path. The input file is left untouched.
	FastStart(ctx context.Context, path string) (string, error)
}

// requireRegularFile fails with ErrInvalidFilePath unless path is a regular file.
func requireRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilePath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInvalidFilePath, path)
	}
	return nil
}
