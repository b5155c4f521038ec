package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

func writeToneWAV(t *testing.T, rate int, frames int, value float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "greeting.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer f.Close()

	left := frames
	tone := beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if left == 0 {
			return 0, false
		}
		n := min(len(buf), left)
		for i := 0; i < n; i++ {
			buf[i] = [2]float64{value, value}
		}
		left -= n
		return n, true
	})

	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, tone, format); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return path
}

func TestLoadGreetingSameRate(t *testing.T) {
	t.Parallel()

	path := writeToneWAV(t, 8000, 800, 0.5)
	samples, err := LoadGreeting(path, 8000)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(samples) != 800 {
		t.Fatalf("unexpected sample count: %d", len(samples))
	}
	if d := int(samples[400]) - 16383; d < -4 || d > 4 {
		t.Fatalf("unexpected amplitude: %d", samples[400])
	}
}

func TestLoadGreetingResamplesToPlaybackRate(t *testing.T) {
	t.Parallel()

	path := writeToneWAV(t, 16000, 1600, 0.25)
	samples, err := LoadGreeting(path, 8000)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(samples) < 760 || len(samples) > 840 {
		t.Fatalf("expected roughly 800 samples after resampling, got %d", len(samples))
	}
}

func TestLoadGreetingMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadGreeting(filepath.Join(t.TempDir(), "missing.wav"), 8000); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestChimeIsBoundedAndNonEmpty(t *testing.T) {
	t.Parallel()

	samples, err := Chime(8000)
	if err != nil {
		t.Fatalf("Chime: %v", err)
	}
	if len(samples) != 2400 {
		t.Fatalf("unexpected chime length: %d", len(samples))
	}
	nonZero := false
	for _, s := range samples {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatalf("expected audible chime")
	}
}

type brokenStreamer struct{ err error }

func (brokenStreamer) Stream([][2]float64) (int, bool) { return 0, false }
func (s brokenStreamer) Err() error                    { return s.err }

func TestCollectMonoReportsStreamerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("decoder failed")
	if _, err := collectMono(brokenStreamer{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected streamer error, got %v", err)
	}
}
