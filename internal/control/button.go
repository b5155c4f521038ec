// Package control turns user input into the device's push-to-talk level.
package control

import (
	"sync"

	"petra/internal/domain"
)

// Button is a momentary push button polled by the tick loop. Each Press is
// seen as exactly one LOW sample followed by HIGH, so no press is lost or
// merged even if several arrive between ticks.
type Button struct {
	mu      sync.Mutex
	pending int
	low     bool
}

// Press queues one press. Safe to call from any goroutine.
func (b *Button) Press() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending++
}

func (b *Button) Level() domain.Level {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.low {
		b.low = false
		return domain.LevelHigh
	}
	if b.pending > 0 {
		b.pending--
		b.low = true
		return domain.LevelLow
	}
	return domain.LevelHigh
}
