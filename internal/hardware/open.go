package hardware

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"petra/internal/audio"
	"petra/internal/config"
	"petra/internal/ports"
)

// speakerFrames keeps output latency near 8ms at 8kHz.
const speakerFrames = 64

// Devices holds the opened capture and playback hardware.
type Devices struct {
	Capture ports.CaptureSource
	Sink    ports.PlaybackSink

	closers []func() error
}

// Close releases every device in reverse order of opening.
func (d *Devices) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Open initializes the audio hardware selected by cfg. Any failure here is
// fatal to startup.
func Open(ctx context.Context, cfg config.AudioConfig) (*Devices, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("hardware: initialize portaudio: %w", err)
	}
	d := &Devices{closers: []func() error{portaudio.Terminate}}

	speaker, err := OpenSpeaker(cfg.PlaybackSampleRate, speakerFrames)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.Sink = speaker
	d.closers = append(d.closers, speaker.Close)

	switch cfg.CaptureBackend {
	case config.CaptureFFmpeg:
		session, err := audio.NewFFmpegCapture(audio.FFmpegConfig{
			Command:     cfg.FFmpegCommand,
			InputFormat: cfg.FFmpegInputFormat,
			InputDevice: cfg.FFmpegInputDevice,
			SampleRate:  cfg.CaptureSampleRate,
		}).Start(ctx)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("hardware: %w", err)
		}
		d.Capture = session
		d.closers = append(d.closers, session.Close)
	default:
		mic, err := OpenMicrophone(cfg.CaptureSampleRate, cfg.CaptureChunkSamples)
		if err != nil {
			_ = d.Close()
			return nil, err
		}
		d.Capture = mic
		d.closers = append(d.closers, mic.Close)
	}

	return d, nil
}
