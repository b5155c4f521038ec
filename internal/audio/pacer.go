package audio

import "time"

const (
	// minSleep is the smallest lag worth handing to the scheduler; finer
	// waits are accumulated and slept off in one go.
	minSleep = time.Millisecond
	// maxLag bounds how far behind schedule the pacer may fall before it
	// resynchronizes instead of bursting to catch up.
	maxLag = 50 * time.Millisecond
)

// Pacer spaces output samples one sample period apart against a running
// deadline, so sleep granularity does not accumulate as drift.
type Pacer struct {
	period time.Duration
	next   time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPacer returns a pacer for the given output sample rate.
func NewPacer(sampleRate int) *Pacer {
	if sampleRate <= 0 {
		sampleRate = 8000
	}
	return &Pacer{
		period: time.Second / time.Duration(sampleRate),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Period returns the delay between two samples.
func (p *Pacer) Period() time.Duration {
	return p.period
}

// Pace blocks until the slot for the next sample.
func (p *Pacer) Pace() {
	now := p.now()
	if p.next.IsZero() || now.Sub(p.next) > maxLag {
		p.next = now
	}
	p.next = p.next.Add(p.period)

	if wait := p.next.Sub(now); wait >= minSleep {
		p.sleep(wait)
	}
}
