package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// FFprobeInspector implements Inspector using the ffprobe CLI.
type FFprobeInspector struct {
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFprobeInspector creates a new FFprobeInspector.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewFFprobeInspector(ffprobePath string) *FFprobeInspector {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFprobeInspector{ffprobePath: ffprobePath}
}

// probeOutput is the subset of `ffprobe -of json` output we read.
type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

// Probe asks ffprobe for the width and height of the first video stream.
// The run only counts as successful when ffprobe exits zero, writes nothing
// to stderr and something to stdout; anything else is ErrInvalidFile.
func (p *FFprobeInspector) Probe(ctx context.Context, path string) (Dimensions, error) {
	if err := requireRegularFile(path); err != nil {
		return Dimensions{}, err
	}

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	}

	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		return Dimensions{}, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
	}
	if err != nil || stderr.Len() > 0 || stdout.Len() == 0 {
		return Dimensions{}, fmt.Errorf("%w: %w", ErrInvalidFile, &ToolError{
			Tool:   "ffprobe",
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		})
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return Dimensions{}, fmt.Errorf("%w: parse ffprobe output: %w", ErrInvalidFile, err)
	}
	if len(out.Streams) == 0 {
		return Dimensions{}, fmt.Errorf("%w: no video stream", ErrInvalidFile)
	}

	dims := Dimensions{Width: out.Streams[0].Width, Height: out.Streams[0].Height}
	if dims.Width <= 0 || dims.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidFile, dims.Width, dims.Height)
	}

	return dims, nil
}
