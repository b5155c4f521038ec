package usecase

import (
	"github.com/rs/zerolog"

	"petra/internal/audio"
	"petra/internal/buffer"
	"petra/internal/domain"
	"petra/internal/ports"
)

// InboundHandler applies frames from the remote service: audio goes into
// the ring buffer, text starts a new utterance.
type InboundHandler struct {
	format    audio.WireFormat
	buffer    *buffer.SampleRingBuffer
	playback  *PlaybackController
	display   ports.DisplayPresenter
	captions  ports.CaptionRules
	clock     ports.Clock
	telemetry ports.Telemetry
	log       zerolog.Logger

	samples []int16
}

func NewInboundHandler(
	format audio.WireFormat,
	buf *buffer.SampleRingBuffer,
	playback *PlaybackController,
	display ports.DisplayPresenter,
	captions ports.CaptionRules,
	clock ports.Clock,
	telemetry ports.Telemetry,
	log zerolog.Logger,
) *InboundHandler {
	return &InboundHandler{
		format:    format,
		buffer:    buf,
		playback:  playback,
		display:   display,
		captions:  captions,
		clock:     clock,
		telemetry: telemetry,
		log:       log.With().Str("component", "inbound").Logger(),
	}
}

// HandleBinary enqueues a whole frame of audio or drops it if it does not
// fit.
func (h *InboundHandler) HandleBinary(payload []byte) {
	h.samples = h.format.Decode(h.samples[:0], payload)
	if len(h.samples) == 0 {
		return
	}

	if err := h.buffer.Write(h.samples); err != nil {
		h.telemetry.FrameDropped(len(h.samples))
		h.log.Warn().Err(err).Str("code", string(domain.ErrorCodeOverflow)).
			Int("samples", len(h.samples)).
			Int("free", h.buffer.FreeSpace()).
			Msg("dropped inbound frame")
		return
	}
	h.playback.NoteAudioReceived(h.clock.Now())
}

// HandleText starts a new utterance: stale audio is discarded and the
// caption is shown with the speaking face.
func (h *InboundHandler) HandleText(text string) {
	h.buffer.Reset()

	caption, err := h.captions.Apply(text)
	if err != nil {
		h.log.Warn().Err(err).Str("code", string(domain.ErrorCodeCaption)).Msg("caption rules failed")
	}

	h.display.ClearCaptionArea()
	h.display.ShowSpeakingFace()
	h.display.SetCaption(caption)
	h.playback.NoteAudioReceived(h.clock.Now())
	h.log.Debug().Str("caption", caption).Msg("utterance started")
}
