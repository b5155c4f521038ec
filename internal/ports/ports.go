package ports

import (
	"time"

	"petra/internal/domain"
)

// CaptureSource produces microphone samples on demand.
type CaptureSource interface {
	// ReadChunk blocks until up to len(dst) samples are captured or the
	// hardware timeout elapses. A zero count with a nil error is valid.
	ReadChunk(dst []int16) (int, error)
}

// PlaybackSink consumes one sample at a time. The caller paces writes at
// the output sample rate.
type PlaybackSink interface {
	WriteSample(value int16) error
}

// Pacer blocks until the next output sample slot.
type Pacer interface {
	Pace()
}

// DisplayPresenter renders device state on the status display.
type DisplayPresenter interface {
	ShowIdleFace()
	ShowListeningFace()
	ShowSpeakingFace()
	SetCaption(text string)
	ClearCaptionArea()
}

// ControlInput is the physical push-to-talk control, polled once per tick.
type ControlInput interface {
	Level() domain.Level
}

// Indicator is the status output asserted while recording.
type Indicator interface {
	Set(level domain.Level)
}

// Clock returns the current monotonic time.
type Clock interface {
	Now() time.Time
}

// FrameHandler receives inbound frames dispatched by the stream client.
type FrameHandler interface {
	HandleBinary(payload []byte)
	HandleText(text string)
}

// Uplink is the outbound half of the stream client used while recording.
type Uplink interface {
	IsAvailable() bool
	SendChunk(payload []byte) error
}

// CaptionRules rewrites caption text before it is displayed.
type CaptionRules interface {
	Apply(text string) (string, error)
}

// Telemetry records device counters. Implementations must be cheap; they
// are called from the tick loop.
type Telemetry interface {
	FrameDropped(samples int)
	ConnectAttempt(ok bool)
	ChunkSent(ok bool)
	PlaybackStarted()
	SamplesPlayed(n int)
}
