package bootstrap

import (
	"fmt"

	"github.com/rs/zerolog"

	"petra/internal/audio"
	"petra/internal/buffer"
	"petra/internal/caption"
	"petra/internal/clock"
	"petra/internal/config"
	"petra/internal/observe"
	"petra/internal/ports"
	"petra/internal/stream"
	"petra/internal/usecase"
)

// Options carries the resolved config and the collaborators that differ
// between front ends (terminal, desktop window, tests).
type Options struct {
	Config    config.Config
	Capture   ports.CaptureSource
	Sink      ports.PlaybackSink
	Display   ports.DisplayPresenter
	Control   ports.ControlInput
	Indicator ports.Indicator
	Logger    zerolog.Logger

	// Optional; defaults are the system clock, a pacer at the playback
	// rate, no telemetry and the websocket dialer.
	Telemetry ports.Telemetry
	Clock     ports.Clock
	Pacer     ports.Pacer
	Dial      stream.DialFunc
}

// Services is the assembled runtime graph.
type Services struct {
	Device *usecase.Device
	Stream *stream.Client
	Buffer *buffer.SampleRingBuffer
	Config config.Config
}

// Build wires the device for the given collaborators.
func Build(opts Options) (Services, error) {
	cfg := opts.Config
	if opts.Telemetry == nil {
		opts.Telemetry = observe.Discard{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Pacer == nil {
		opts.Pacer = audio.NewPacer(cfg.Audio.PlaybackSampleRate)
	}

	format, err := audio.ParseWireFormat(cfg.Audio.WireFormat)
	if err != nil {
		return Services{}, err
	}

	captions, err := caption.Load(caption.Options{
		RulesPath:      cfg.Caption.RulesPath,
		IterationLimit: cfg.Caption.IterationLimit,
		MaxRunes:       cfg.Caption.MaxRunes,
	})
	if err != nil {
		return Services{}, err
	}

	var greeting []int16
	if cfg.Audio.GreetingPath != "" {
		greeting, err = audio.LoadGreeting(cfg.Audio.GreetingPath, cfg.Audio.PlaybackSampleRate)
	} else {
		greeting, err = audio.Chime(cfg.Audio.PlaybackSampleRate)
	}
	if err != nil {
		return Services{}, fmt.Errorf("failed to load greeting: %w", err)
	}

	log := opts.Logger
	ring := buffer.New(cfg.Playback.BufferCapacity)

	playback := usecase.NewPlaybackController(usecase.PlaybackConfig{
		Threshold:      cfg.Playback.Threshold,
		ChunkSamples:   cfg.Playback.ChunkSamples,
		SilenceTimeout: cfg.Playback.SilenceTimeout,
	}, ring, opts.Sink, opts.Pacer, opts.Display, opts.Clock, opts.Telemetry, log)

	inbound := usecase.NewInboundHandler(format, ring, playback, opts.Display, captions,
		opts.Clock, opts.Telemetry, log)

	client := stream.NewClient(stream.Config{
		Endpoint:          cfg.Stream.Endpoint,
		ReconnectInterval: cfg.Stream.ReconnectInterval,
		HandshakeTimeout:  cfg.Stream.HandshakeTimeout,
		PingInterval:      cfg.Stream.PingInterval,
		PongTimeout:       cfg.Stream.PongTimeout,
		Dial:              opts.Dial,
	}, inbound, opts.Clock, opts.Telemetry, log)

	recording := usecase.NewRecordingController(opts.Control, opts.Capture, client, opts.Display,
		opts.Indicator, opts.Telemetry, cfg.Audio.CaptureChunkSamples, log)

	device := usecase.NewDevice(usecase.DeviceConfig{
		IdleTick: cfg.Loop.IdleTick,
		Greeting: greeting,
	}, client, recording, playback, ring, opts.Display, opts.Sink, opts.Pacer, log)

	return Services{Device: device, Stream: client, Buffer: ring, Config: cfg}, nil
}
