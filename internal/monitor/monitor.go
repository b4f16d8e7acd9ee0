package monitor

import (
	"context"
	"time"
)

// Reading is one snapshot of the live input
type Reading struct {
	RMS  float32
	DB   float32
	Note *Note // nil when no stable pitch was found
}

// Monitor turns the samples collected by a Tap into level and pitch readings
type Monitor struct {
	tap        *Tap
	detector   *Detector
	sampleRate int
	interval   time.Duration

	window []float32 // most recent samples, oldest first
	chunk  []float32
	filled int
}

// New creates a monitor analysing the last windowSize samples every interval
func New(tap *Tap, sampleRate, windowSize int, interval time.Duration) *Monitor {
	return &Monitor{
		tap:        tap,
		detector:   NewDetector(),
		sampleRate: sampleRate,
		interval:   interval,
		window:     make([]float32, windowSize),
		chunk:      make([]float32, windowSize),
	}
}

// Run polls the tap until ctx is done, calling onReading after every poll
// that brought in new samples
func (m *Monitor) Run(ctx context.Context, onReading func(Reading)) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if reading, ok := m.Poll(); ok {
				onReading(reading)
			}
		}
	}
}

// Poll drains the tap once and analyses the current window. It reports false
// when nothing new arrived.
func (m *Monitor) Poll() (Reading, bool) {
	fresh := 0
	for {
		n := m.tap.Read(m.chunk)
		if n == 0 {
			break
		}
		m.push(m.chunk[:n])
		fresh += n
	}
	if fresh == 0 {
		return Reading{}, false
	}

	// Level reflects only what arrived since the last poll
	recent := m.window[len(m.window)-min(fresh, len(m.window)):]
	rms, db := Level(recent)
	reading := Reading{RMS: rms, DB: db}

	// Pitch needs a full window
	if m.filled == len(m.window) {
		if note, err := m.detector.Detect(m.window, m.sampleRate); err == nil {
			reading.Note = note
		}
	}

	return reading, true
}

// push slides samples into the end of the window
func (m *Monitor) push(samples []float32) {
	size := len(m.window)
	if len(samples) >= size {
		copy(m.window, samples[len(samples)-size:])
		m.filled = size
		return
	}

	copy(m.window, m.window[len(samples):])
	copy(m.window[size-len(samples):], samples)
	m.filled = min(m.filled+len(samples), size)
}
