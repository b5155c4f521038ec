// Package hardware opens the audio devices behind the capture and playback
// ports.
package hardware

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Microphone reads mono 16-bit frames from the default input device.
type Microphone struct {
	stream *portaudio.Stream
	frames []int16
}

// OpenMicrophone opens and starts the default input stream. Each
// ReadChunk blocks for one hardware buffer of framesPerBuffer samples.
func OpenMicrophone(sampleRate, framesPerBuffer int) (*Microphone, error) {
	frames := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, frames)
	if err != nil {
		return nil, fmt.Errorf("hardware: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("hardware: start input stream: %w", err)
	}
	return &Microphone{stream: stream, frames: frames}, nil
}

// ReadChunk implements ports.CaptureSource.
func (m *Microphone) ReadChunk(dst []int16) (int, error) {
	if err := m.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return 0, fmt.Errorf("hardware: read input: %w", err)
	}
	return copy(dst, m.frames), nil
}

func (m *Microphone) Close() error {
	_ = m.stream.Stop()
	return m.stream.Close()
}

// Speaker writes mono 16-bit samples to the default output device. Samples
// are staged into one hardware buffer and flushed when it fills.
type Speaker struct {
	stream *portaudio.Stream
	frames []int16
	pos    int
}

// OpenSpeaker opens and starts the default output stream.
func OpenSpeaker(sampleRate, framesPerBuffer int) (*Speaker, error) {
	frames := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), framesPerBuffer, frames)
	if err != nil {
		return nil, fmt.Errorf("hardware: open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("hardware: start output stream: %w", err)
	}
	return &Speaker{stream: stream, frames: frames}, nil
}

// WriteSample implements ports.PlaybackSink.
func (s *Speaker) WriteSample(value int16) error {
	s.frames[s.pos] = value
	s.pos++
	if s.pos < len(s.frames) {
		return nil
	}
	s.pos = 0
	if err := s.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
		return fmt.Errorf("hardware: write output: %w", err)
	}
	return nil
}

func (s *Speaker) Close() error {
	_ = s.stream.Stop()
	return s.stream.Close()
}
