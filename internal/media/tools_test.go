package media

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// skipIfNoFFmpeg skips the test if ffmpeg or ffprobe is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH, skipping test", bin)
		}
	}
}

// skipIfNoShell skips the test if /bin/sh is not available for fake tools.
func skipIfNoShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available, skipping test")
	}
}

// writeFakeTool writes an executable shell script that stands in for
// ffmpeg or ffprobe and returns its path.
func writeFakeTool(t *testing.T, body string) string {
	t.Helper()
	skipIfNoShell(t)

	path := filepath.Join(t.TempDir(), "fake-tool")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { // #nosec G306 - test helper must be executable
		t.Fatalf("write fake tool: %v", err)
	}
	return path
}

// writeInput creates a regular file to hand to the tools.
func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mp4")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

// createTestVideo creates a short video with silent audio using ffmpeg.
func createTestVideo(t *testing.T, path string, width, height int) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=blue:s=%dx%d:d=1", width, height),
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=mono:d=1",
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-c:a", "aac",
		"-shortest",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\noutput: %s", err, output)
	}
}
