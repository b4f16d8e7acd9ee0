package monitor

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/smallnest/ringbuffer"
)

const bytesPerSample = 4

// Tap carries a mono mix of the live input from the audio callback to the
// monitor goroutine.
//
// Write never waits: it tries the ring buffer lock once and drops the block
// when the reader holds it or the ring is full.
type Tap struct {
	ring    *ringbuffer.RingBuffer
	scratch []byte
	dropped atomic.Uint64

	// reader side only
	raw []byte
}

// NewTap creates a tap holding up to capacity samples. maxBlock is the
// largest block the callback will hand to Write; longer blocks are truncated.
func NewTap(capacity, maxBlock int) *Tap {
	return &Tap{
		ring:    ringbuffer.New(capacity * bytesPerSample),
		scratch: make([]byte, maxBlock*bytesPerSample),
	}
}

// Write mixes left and right to mono and queues the result
func (t *Tap) Write(left, right []float32) {
	n := min(len(left), len(right), len(t.scratch)/bytesPerSample)
	if n == 0 {
		return
	}

	for i := range n {
		mono := (left[i] + right[i]) * 0.5
		binary.LittleEndian.PutUint32(t.scratch[i*bytesPerSample:], math.Float32bits(mono))
	}

	written, err := t.ring.TryWrite(t.scratch[:n*bytesPerSample])
	if err != nil || written < n*bytesPerSample {
		t.dropped.Add(1)
	}
}

// Read decodes queued samples into dst and returns how many were written.
// Only one goroutine may read.
func (t *Tap) Read(dst []float32) int {
	if len(dst) == 0 {
		return 0
	}

	if cap(t.raw) < len(dst)*bytesPerSample {
		t.raw = make([]byte, len(dst)*bytesPerSample)
	}
	raw := t.raw[:len(dst)*bytesPerSample]

	// An empty ring reports ErrIsEmpty with n == 0
	n, _ := t.ring.Read(raw)

	samples := n / bytesPerSample
	for i := range samples {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*bytesPerSample:]))
	}
	return samples
}

// Dropped returns how many blocks were dropped or truncated
func (t *Tap) Dropped() uint64 {
	return t.dropped.Load()
}
