package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ProcessedSuffix is appended to the input path to name the remuxed output.
const ProcessedSuffix = ".processed"

// ContainerFormat is the only output container the remuxer produces.
const ContainerFormat = "mp4"

// FFmpegRemuxer implements Remuxer using the ffmpeg CLI.
type FFmpegRemuxer struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegRemuxer creates a new FFmpegRemuxer.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegRemuxer(ffmpegPath string) *FFmpegRemuxer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegRemuxer{ffmpegPath: ffmpegPath}
}

// FastStart moves the moov atom to the front of the file so playback can
// begin before the download completes. Streams and container metadata are
// copied as-is. The output is written to path+ProcessedSuffix and removed
// again if ffmpeg fails or leaves an empty file.
func (p *FFmpegRemuxer) FastStart(ctx context.Context, path string) (string, error) {
	if err := requireRegularFile(path); err != nil {
		return "", err
	}

	output := path + ProcessedSuffix
	args := []string{
		"-y",       // Overwrite output file without asking
		"-i", path, // Input file
		"-movflags", "faststart", // Relocate the index to the front
		"-map_metadata", "0", // Keep container metadata
		"-codec", "copy", // No re-encoding
		"-f", ContainerFormat, // Force output container
		output,
	}

	if err := p.runFFmpeg(ctx, args); err != nil {
		_ = os.Remove(output)
		return "", err
	}

	info, err := os.Stat(output)
	if err != nil || !info.Mode().IsRegular() || info.Size() <= 0 {
		_ = os.Remove(output)
		return "", fmt.Errorf("%w: %s", ErrProcessedFileEmpty, output)
	}

	return output, nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegRemuxer) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrTranscodeFailed, &ToolError{
			Tool:   "ffmpeg",
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		})
	}

	return nil
}

// ToolError represents a failed ffmpeg or ffprobe run, including its stderr
// output. It is meant for logs; callers must not echo it to clients.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s error: %v\nargs: %v\nstderr: %s", e.Tool, e.Err, e.Args, e.Stderr)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
