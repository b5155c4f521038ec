package usecase

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"petra/internal/buffer"
	"petra/internal/domain"
	"petra/internal/ports"
)

// PlaybackConfig controls when buffered audio starts and stops playing.
type PlaybackConfig struct {
	Threshold      int
	ChunkSamples   int
	SilenceTimeout time.Duration
}

// PlaybackController drains the ring buffer into the speaker once enough
// audio has arrived and returns to idle after an utterance ends.
type PlaybackController struct {
	cfg       PlaybackConfig
	buffer    *buffer.SampleRingBuffer
	sink      ports.PlaybackSink
	pacer     ports.Pacer
	display   ports.DisplayPresenter
	clock     ports.Clock
	telemetry ports.Telemetry
	log       zerolog.Logger

	playing   atomic.Bool
	lastAudio time.Time
	chunk     []int16
}

func NewPlaybackController(
	cfg PlaybackConfig,
	buf *buffer.SampleRingBuffer,
	sink ports.PlaybackSink,
	pacer ports.Pacer,
	display ports.DisplayPresenter,
	clock ports.Clock,
	telemetry ports.Telemetry,
	log zerolog.Logger,
) *PlaybackController {
	if cfg.ChunkSamples <= 0 {
		cfg.ChunkSamples = 512
	}
	if cfg.Threshold <= 0 || cfg.Threshold > buf.Capacity() {
		cfg.Threshold = buf.Capacity()
	}
	if cfg.SilenceTimeout <= 0 {
		cfg.SilenceTimeout = 300 * time.Millisecond
	}
	return &PlaybackController{
		cfg:       cfg,
		buffer:    buf,
		sink:      sink,
		pacer:     pacer,
		display:   display,
		clock:     clock,
		telemetry: telemetry,
		log:       log.With().Str("component", "playback").Logger(),
		chunk:     make([]int16, cfg.ChunkSamples),
	}
}

func (p *PlaybackController) State() domain.PlaybackState {
	if p.playing.Load() {
		return domain.PlaybackPlaying
	}
	return domain.PlaybackIdle
}

// NoteAudioReceived records inbound activity for end-of-utterance
// detection.
func (p *PlaybackController) NoteAudioReceived(at time.Time) {
	p.lastAudio = at
}

// Tick runs one playback step: start on threshold, play one chunk, stop
// after the silence timeout. It returns the number of samples written.
func (p *PlaybackController) Tick() int {
	if !p.playing.Load() {
		buffered := p.buffer.BufferedLength()
		if buffered < p.cfg.Threshold {
			return 0
		}
		p.playing.Store(true)
		p.telemetry.PlaybackStarted()
		p.log.Info().Int("buffered", buffered).Msg("playback started")
	}

	n := p.buffer.DrainInto(p.chunk)
	for i, sample := range p.chunk[:n] {
		p.pacer.Pace()
		if err := p.sink.WriteSample(sample); err != nil {
			p.log.Warn().Err(err).Str("code", string(domain.ErrorCodePlayback)).
				Int("dropped", n-i).Msg("speaker write failed")
			n = i
			break
		}
	}
	if n > 0 {
		p.telemetry.SamplesPlayed(n)
	}

	if p.buffer.IsEmpty() && p.clock.Now().Sub(p.lastAudio) > p.cfg.SilenceTimeout {
		p.playing.Store(false)
		p.display.ShowIdleFace()
		p.log.Info().Msg("playback finished")
	}
	return n
}
