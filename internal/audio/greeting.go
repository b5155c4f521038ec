package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// ErrClipEmpty is returned when a greeting clip decodes to no samples.
var ErrClipEmpty = errors.New("audio: greeting clip is empty")

const resampleQuality = 4

// LoadGreeting decodes a WAV file into mono samples at sampleRate.
func LoadGreeting(path string, sampleRate int) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open greeting %q: %w", path, err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("audio: decode greeting %q: %w", path, err)
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	if target := beep.SampleRate(sampleRate); format.SampleRate != target {
		source = beep.Resample(resampleQuality, format.SampleRate, target, streamer)
	}

	samples, err := collectMono(source)
	if err != nil {
		return nil, fmt.Errorf("audio: read greeting %q: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, ErrClipEmpty
	}
	return samples, nil
}

// Chime synthesizes the built-in two-tone greeting used when no clip file
// is configured.
func Chime(sampleRate int) ([]int16, error) {
	if sampleRate <= 0 {
		sampleRate = 8000
	}
	tone := func(freq float64, length time.Duration) beep.Streamer {
		total := int(int64(length) * int64(sampleRate) / int64(time.Second))
		pos := 0
		return beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
			if pos >= total {
				return 0, false
			}
			n := min(len(buf), total-pos)
			for i := 0; i < n; i++ {
				t := float64(pos+i) / float64(sampleRate)
				fade := 1 - float64(pos+i)/float64(total)
				v := 0.4 * fade * math.Sin(2*math.Pi*freq*t)
				buf[i] = [2]float64{v, v}
			}
			pos += n
			return n, true
		})
	}

	samples, err := collectMono(beep.Seq(
		tone(660, 120*time.Millisecond),
		tone(880, 180*time.Millisecond),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize chime: %w", err)
	}
	return samples, nil
}

func collectMono(s beep.Streamer) ([]int16, error) {
	var out []int16
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, toInt16((frame[0]+frame[1])/2))
		}
		if !ok {
			break
		}
	}
	return out, s.Err()
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}
