package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"petra/internal/buffer"
	"petra/internal/clock"
	"petra/internal/domain"
)

var errFake = errors.New("fake failure")

type fakeDisplay struct {
	mu    sync.Mutex
	calls []string
}

func (d *fakeDisplay) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDisplay) ShowIdleFace()          { d.record("face:idle") }
func (d *fakeDisplay) ShowListeningFace()     { d.record("face:listening") }
func (d *fakeDisplay) ShowSpeakingFace()      { d.record("face:speaking") }
func (d *fakeDisplay) SetCaption(text string) { d.record("caption:" + text) }
func (d *fakeDisplay) ClearCaptionArea()      { d.record("clear") }

func (d *fakeDisplay) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

type fakeSink struct {
	samples []int16
	failAt  int
}

func (s *fakeSink) WriteSample(value int16) error {
	if s.failAt > 0 && len(s.samples) >= s.failAt {
		return errFake
	}
	s.samples = append(s.samples, value)
	return nil
}

type countingPacer struct{ paced int }

func (p *countingPacer) Pace() { p.paced++ }

type fakeTelemetry struct {
	dropped       int
	attempts      int
	sentOK        int
	sentFailed    int
	started       int
	samplesPlayed int
}

func (f *fakeTelemetry) FrameDropped(samples int) { f.dropped += samples }
func (f *fakeTelemetry) ConnectAttempt(bool)      { f.attempts++ }
func (f *fakeTelemetry) PlaybackStarted()         { f.started++ }
func (f *fakeTelemetry) SamplesPlayed(n int)      { f.samplesPlayed += n }
func (f *fakeTelemetry) ChunkSent(ok bool) {
	if ok {
		f.sentOK++
		return
	}
	f.sentFailed++
}

type scriptedControl struct {
	levels []domain.Level
	next   int
}

// Level replays the script and then holds the last level.
func (c *scriptedControl) Level() domain.Level {
	if len(c.levels) == 0 {
		return domain.LevelHigh
	}
	if c.next >= len(c.levels) {
		return c.levels[len(c.levels)-1]
	}
	level := c.levels[c.next]
	c.next++
	return level
}

type fakeIndicator struct{ levels []domain.Level }

func (i *fakeIndicator) Set(level domain.Level) { i.levels = append(i.levels, level) }

type fakeCapture struct {
	chunks [][]int16
	err    error
	reads  int
}

func (c *fakeCapture) ReadChunk(dst []int16) (int, error) {
	c.reads++
	if c.err != nil {
		return 0, c.err
	}
	if len(c.chunks) == 0 {
		return 0, nil
	}
	n := copy(dst, c.chunks[0])
	c.chunks = c.chunks[1:]
	return n, nil
}

type fakeUplink struct {
	available bool
	err       error
	sent      [][]byte
}

func (u *fakeUplink) IsAvailable() bool { return u.available }

func (u *fakeUplink) SendChunk(payload []byte) error {
	if u.err != nil {
		return u.err
	}
	u.sent = append(u.sent, append([]byte(nil), payload...))
	return nil
}

type upperCaptions struct{ err error }

func (c upperCaptions) Apply(text string) (string, error) {
	if c.err != nil {
		return text, c.err
	}
	return fmt.Sprintf("<%s>", text), nil
}

type fakeLink struct {
	mu         sync.Mutex
	connectErr error
	connects   int
	polls      int
	closed     int
	onPoll     func()
}

func (l *fakeLink) Connect(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connects++
	return l.connectErr
}

func (l *fakeLink) Poll(context.Context) {
	l.mu.Lock()
	l.polls++
	hook := l.onPoll
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (l *fakeLink) State() domain.ConnectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.connectErr != nil || l.connects == 0 {
		return domain.ConnectionDisconnected
	}
	return domain.ConnectionConnected
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed++
	return nil
}

func (l *fakeLink) pollCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.polls
}

type playbackFixture struct {
	buffer    *buffer.SampleRingBuffer
	sink      *fakeSink
	pacer     *countingPacer
	display   *fakeDisplay
	clock     *clock.Manual
	telemetry *fakeTelemetry
	playback  *PlaybackController
}

func newPlaybackFixture(capacity, threshold int) *playbackFixture {
	f := &playbackFixture{
		buffer:    buffer.New(capacity),
		sink:      &fakeSink{},
		pacer:     &countingPacer{},
		display:   &fakeDisplay{},
		clock:     clock.NewManual(time.Unix(1000, 0)),
		telemetry: &fakeTelemetry{},
	}
	f.playback = NewPlaybackController(PlaybackConfig{
		Threshold:      threshold,
		ChunkSamples:   512,
		SilenceTimeout: 300 * time.Millisecond,
	}, f.buffer, f.sink, f.pacer, f.display, f.clock, f.telemetry, zerolog.Nop())
	return f
}

func ramp(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(i)
	}
	return out
}
