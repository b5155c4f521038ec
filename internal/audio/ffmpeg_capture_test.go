package audio

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestFFmpegCaptureStartReadChunkAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf '\\x01\\x00\\xff\\xff'\nsleep 2\n")
	capture := NewFFmpegCapture(FFmpegConfig{Command: script})

	session, err := capture.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	dst := make([]int16, 2)
	n, readErr := session.ReadChunk(dst)
	if readErr != nil {
		t.Fatalf("unexpected read error: %v", readErr)
	}
	if n != 2 || !slices.Equal(dst, []int16{1, -1}) {
		t.Fatalf("unexpected samples: n=%d %v", n, dst)
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestFFmpegCaptureReadChunkShortStream(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "short.sh", "#!/usr/bin/env bash\nsleep 0.4\nprintf '\\x05\\x00\\x07'\n")
	session, err := NewFFmpegCapture(FFmpegConfig{Command: script}).Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer session.Close()

	dst := make([]int16, 4)
	n, readErr := session.ReadChunk(dst)
	if !errors.Is(readErr, io.EOF) {
		t.Fatalf("expected EOF, got %v", readErr)
	}
	if n != 1 || dst[0] != 5 {
		t.Fatalf("unexpected samples: n=%d %v", n, dst)
	}
}

func TestFFmpegCaptureStartEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	capture := NewFFmpegCapture(FFmpegConfig{Command: script})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := capture.Start(ctx)
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before capture started") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFFmpegCaptureArgsUseConfiguredRate(t *testing.T) {
	t.Parallel()

	capture := NewFFmpegCapture(FFmpegConfig{SampleRate: 22050, InputFormat: "alsa", InputDevice: "hw:1"})
	joined := strings.Join(capture.args(), " ")
	for _, want := range []string{"-f alsa", "-i hw:1", "-ac 1", "-ar 22050", "-f s16le"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args: %s", want, joined)
		}
	}
	if capture.cfg.Command != "ffmpeg" {
		t.Fatalf("unexpected default command: %q", capture.cfg.Command)
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
}

func TestTrimOutput(t *testing.T) {
	t.Parallel()

	if got := trimOutput("  hi\n"); got != "hi" {
		t.Fatalf("unexpected trim result: %q", got)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
