package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"petra/internal/buffer"
	"petra/internal/domain"
	"petra/internal/ports"
)

// Link is the connection the device keeps to the remote service.
type Link interface {
	Connect(ctx context.Context) error
	Poll(ctx context.Context)
	State() domain.ConnectionState
	Close() error
}

// Device is the main loop tying the controllers to the stream.
type Device struct {
	link      Link
	recording *RecordingController
	playback  *PlaybackController
	buffer    *buffer.SampleRingBuffer
	display   ports.DisplayPresenter
	sink      ports.PlaybackSink
	pacer     ports.Pacer
	greeting  []int16
	idleTick  time.Duration
	log       zerolog.Logger
}

// DeviceConfig holds the loop settings and startup assets.
type DeviceConfig struct {
	// IdleTick is slept after a tick that neither captured nor played
	// audio.
	IdleTick time.Duration
	Greeting []int16
}

func NewDevice(
	cfg DeviceConfig,
	link Link,
	recording *RecordingController,
	playback *PlaybackController,
	buf *buffer.SampleRingBuffer,
	display ports.DisplayPresenter,
	sink ports.PlaybackSink,
	pacer ports.Pacer,
	log zerolog.Logger,
) *Device {
	return &Device{
		link:      link,
		recording: recording,
		playback:  playback,
		buffer:    buf,
		display:   display,
		sink:      sink,
		pacer:     pacer,
		greeting:  cfg.Greeting,
		idleTick:  cfg.IdleTick,
		log:       log.With().Str("component", "device").Logger(),
	}
}

// Start shows the greeting, makes the first connection attempt and plays
// the greeting clip. A failed connect is left to the reconnect policy; a
// speaker failure is fatal.
func (d *Device) Start(ctx context.Context) error {
	d.display.ShowIdleFace()
	d.display.SetCaption(domain.CaptionGreeting)

	if err := d.link.Connect(ctx); err != nil {
		d.log.Warn().Err(err).Msg("initial connect failed, will retry")
	}

	if err := d.PlayGreeting(); err != nil {
		return err
	}
	d.log.Info().Msg("device ready")
	return nil
}

// PlayGreeting plays the startup clip with the speaking face.
func (d *Device) PlayGreeting() error {
	if len(d.greeting) == 0 {
		return nil
	}

	d.display.ShowSpeakingFace()
	defer d.display.ShowIdleFace()

	for _, sample := range d.greeting {
		d.pacer.Pace()
		if err := d.sink.WriteSample(sample); err != nil {
			return fmt.Errorf("failed to play greeting: %w", err)
		}
	}
	return nil
}

// Tick runs one pass of the loop: control and capture, network service,
// then playback. It reports whether the pass moved any audio, which is
// the only work that blocks on hardware.
func (d *Device) Tick(ctx context.Context) bool {
	captured := d.recording.Tick()
	d.link.Poll(ctx)
	played := d.playback.Tick()
	return captured > 0 || played > 0
}

// Run ticks until ctx is cancelled, then closes the link.
func (d *Device) Run(ctx context.Context) error {
	defer func() {
		if err := d.link.Close(); err != nil {
			d.log.Warn().Err(err).Msg("failed to close stream")
		}
	}()

	var timer *time.Timer
	for {
		if ctx.Err() != nil {
			return nil
		}

		if d.Tick(ctx) || d.idleTick <= 0 {
			continue
		}
		if timer == nil {
			timer = time.NewTimer(d.idleTick)
			defer timer.Stop()
		} else {
			timer.Reset(d.idleTick)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

func (d *Device) Status() domain.Status {
	return domain.Status{
		Connection: d.link.State(),
		Recording:  d.recording.State(),
		Playback:   d.playback.State(),
		Buffered:   d.buffer.BufferedLength(),
	}
}
