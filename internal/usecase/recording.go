package usecase

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"petra/internal/domain"
	"petra/internal/ports"
)

// RecordingController toggles push-to-talk on each falling edge of the
// control and streams microphone chunks while recording.
type RecordingController struct {
	control   ports.ControlInput
	capture   ports.CaptureSource
	uplink    ports.Uplink
	display   ports.DisplayPresenter
	indicator ports.Indicator
	telemetry ports.Telemetry
	log       zerolog.Logger

	last      domain.Level
	recording atomic.Bool

	samples       []int16
	payload       []byte
	captureFailed bool
}

func NewRecordingController(
	control ports.ControlInput,
	capture ports.CaptureSource,
	uplink ports.Uplink,
	display ports.DisplayPresenter,
	indicator ports.Indicator,
	telemetry ports.Telemetry,
	chunkSamples int,
	log zerolog.Logger,
) *RecordingController {
	if chunkSamples <= 0 {
		chunkSamples = 512
	}
	return &RecordingController{
		control:   control,
		capture:   capture,
		uplink:    uplink,
		display:   display,
		indicator: indicator,
		telemetry: telemetry,
		log:       log.With().Str("component", "recording").Logger(),
		// The control idles pulled up, so a press is the first edge seen.
		last:    domain.LevelHigh,
		samples: make([]int16, chunkSamples),
		payload: make([]byte, 0, chunkSamples*2),
	}
}

func (r *RecordingController) State() domain.RecordingState {
	if r.recording.Load() {
		return domain.RecordingActive
	}
	return domain.RecordingIdle
}

// Tick samples the control once and, while recording over a live link,
// forwards one captured chunk. It returns the number of samples captured.
func (r *RecordingController) Tick() int {
	level := r.control.Level()
	if r.last == domain.LevelHigh && level == domain.LevelLow {
		r.toggle()
	}
	r.last = level

	if !r.recording.Load() || !r.uplink.IsAvailable() {
		return 0
	}
	return r.pumpChunk()
}

func (r *RecordingController) toggle() {
	if r.recording.Load() {
		r.recording.Store(false)
		r.display.SetCaption(domain.CaptionThinking)
		r.indicator.Set(domain.LevelLow)
		r.log.Info().Msg("recording stopped")
		return
	}

	r.recording.Store(true)
	r.captureFailed = false
	r.display.ClearCaptionArea()
	r.display.ShowListeningFace()
	r.display.SetCaption(domain.CaptionListening)
	r.indicator.Set(domain.LevelHigh)
	r.log.Info().Msg("recording started")
}
