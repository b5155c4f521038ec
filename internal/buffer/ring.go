// Package buffer holds the sample ring buffer that decouples network
// arrival from audio output.
package buffer

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrOverflow is returned when a batch does not fit in the free space.
var ErrOverflow = errors.New("buffer: not enough free space")

// SampleRingBuffer is a fixed-capacity circular store of audio samples.
//
// It is safe for exactly one producer (Write, Reset) and one consumer
// (Read, Drain, DrainInto) running concurrently. The producer is the only
// writer of the write cursor and the consumer the only writer of the read
// cursor; each side only loads the other's cursor to derive lengths.
// Reset must not run concurrently with the consumer.
//
// Cursors are kept as monotonically increasing counters and reduced modulo
// the capacity on access, so a completely full buffer is distinguishable
// from an empty one.
type SampleRingBuffer struct {
	samples []int16
	written atomic.Int64
	read    atomic.Int64
}

// New allocates a ring buffer holding up to capacity samples.
func New(capacity int) *SampleRingBuffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("buffer: invalid capacity %d", capacity))
	}
	return &SampleRingBuffer{samples: make([]int16, capacity)}
}

// Capacity returns the fixed number of sample slots.
func (b *SampleRingBuffer) Capacity() int {
	return len(b.samples)
}

// WriteIndex returns the physical slot of the next write, in [0, Capacity).
func (b *SampleRingBuffer) WriteIndex() int {
	return int(b.written.Load() % int64(len(b.samples)))
}

// ReadIndex returns the physical slot of the next read, in [0, Capacity).
func (b *SampleRingBuffer) ReadIndex() int {
	return int(b.read.Load() % int64(len(b.samples)))
}

// BufferedLength returns the number of samples waiting to be read.
func (b *SampleRingBuffer) BufferedLength() int {
	return int(b.written.Load() - b.read.Load())
}

// FreeSpace returns Capacity minus BufferedLength.
func (b *SampleRingBuffer) FreeSpace() int {
	return len(b.samples) - b.BufferedLength()
}

// IsEmpty reports whether the read cursor has caught up with the write cursor.
func (b *SampleRingBuffer) IsEmpty() bool {
	return b.written.Load() == b.read.Load()
}

// Write copies the whole batch into the buffer, wrapping past the physical
// end if needed. If the batch is larger than FreeSpace nothing is written
// and ErrOverflow is returned.
func (b *SampleRingBuffer) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if free := b.FreeSpace(); len(samples) > free {
		return fmt.Errorf("%w: batch of %d samples, %d free", ErrOverflow, len(samples), free)
	}

	w := b.written.Load()
	start := int(w % int64(len(b.samples)))
	n := copy(b.samples[start:], samples)
	copy(b.samples, samples[n:])

	b.written.Store(w + int64(len(samples)))
	return nil
}

// Read pulls a single sample. ok is false when the buffer is empty.
func (b *SampleRingBuffer) Read() (sample int16, ok bool) {
	r := b.read.Load()
	if r == b.written.Load() {
		return 0, false
	}
	sample = b.samples[r%int64(len(b.samples))]
	b.read.Store(r + 1)
	return sample, true
}

// Drain consumes up to maxCount samples and returns them in order.
func (b *SampleRingBuffer) Drain(maxCount int) []int16 {
	if maxCount <= 0 {
		return nil
	}
	if buffered := b.BufferedLength(); maxCount > buffered {
		maxCount = buffered
	}
	out := make([]int16, maxCount)
	n := b.DrainInto(out)
	return out[:n]
}

// DrainInto consumes up to len(dst) samples into dst and returns the count.
// It never reads past the write cursor.
func (b *SampleRingBuffer) DrainInto(dst []int16) int {
	r := b.read.Load()
	avail := int(b.written.Load() - r)
	n := min(len(dst), avail)
	if n == 0 {
		return 0
	}

	start := int(r % int64(len(b.samples)))
	first := copy(dst[:n], b.samples[start:])
	copy(dst[first:n], b.samples)

	b.read.Store(r + int64(n))
	return n
}

// Reset zeroes the contents and moves both cursors to slot 0.
func (b *SampleRingBuffer) Reset() {
	clear(b.samples)
	b.read.Store(0)
	b.written.Store(0)
}
