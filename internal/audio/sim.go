package audio

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Source generates the simulated input signal
type Source interface {
	// Fill writes the next block of input into left and right
	Fill(left, right []float32)
}

// SilenceSource produces silence
type SilenceSource struct{}

func (SilenceSource) Fill(left, right []float32) {
	clear(left)
	clear(right)
}

// SineSource produces a sine on the left and the same sine an octave up on the
// right, so the two channels are easy to tell apart
type SineSource struct {
	Frequency  float64
	SampleRate int
	Amplitude  float32

	phase float64
}

func (s *SineSource) Fill(left, right []float32) {
	step := s.Frequency / float64(s.SampleRate)
	for i := range min(len(left), len(right)) {
		left[i] = s.Amplitude * float32(math.Sin(2*math.Pi*s.phase))
		right[i] = s.Amplitude * float32(math.Sin(4*math.Pi*s.phase))
		_, s.phase = math.Modf(s.phase + step)
	}
}

// SimConfig configures a SimEngine
type SimConfig struct {
	Name            string
	SampleRate      int
	FramesPerBuffer int
	// Freewheel runs cycles back to back instead of at the block cadence
	Freewheel bool
}

// SimEngine is a device-less engine. It calls the processor with blocks from
// a Source at the cadence a real device would.
type SimEngine struct {
	cfg       SimConfig
	processor Processor
	notifier  Notifier
	source    Source

	mu        sync.Mutex
	isRunning bool
	stop      chan struct{}
	done      chan struct{}

	// guards the blocks while a cycle runs
	cycleMu              sync.Mutex
	inL, inR, outL, outR []float32
	cycles               atomic.Uint64
}

// NewSimEngine creates a simulated engine
func NewSimEngine(cfg SimConfig, p Processor, src Source, n Notifier) *SimEngine {
	if n == nil {
		n = NopNotifier{}
	}
	if src == nil {
		src = SilenceSource{}
	}

	frames := cfg.FramesPerBuffer
	return &SimEngine{
		cfg:       cfg,
		processor: p,
		notifier:  n,
		source:    src,
		inL:       make([]float32, frames),
		inR:       make([]float32, frames),
		outL:      make([]float32, frames),
		outR:      make([]float32, frames),
	}
}

// Start begins calling the processor from a dedicated goroutine
func (e *SimEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isRunning {
		return ErrAlreadyRunning
	}

	e.notifier.ClientRegistration(e.cfg.Name, true)
	for _, port := range portNames {
		e.notifier.PortRegistration(port, true)
	}
	e.notifier.SampleRate(float64(e.cfg.SampleRate))
	e.notifier.BufferSize(e.cfg.FramesPerBuffer)
	if e.cfg.Freewheel {
		e.notifier.Freewheel(true)
	}

	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	e.isRunning = true

	go e.run(e.stop, e.done)

	return nil
}

// Stop ends the cycle goroutine and waits for it
func (e *SimEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isRunning {
		return ErrNotRunning
	}

	close(e.stop)
	<-e.done
	e.isRunning = false

	if e.cfg.Freewheel {
		e.notifier.Freewheel(false)
	}
	for _, port := range portNames {
		e.notifier.PortRegistration(port, false)
	}
	e.notifier.ClientRegistration(e.cfg.Name, false)
	e.notifier.Shutdown("deactivated")

	return nil
}

// IsRunning returns true between Start and Stop
func (e *SimEngine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isRunning
}

// SampleRate returns the configured sample rate
func (e *SimEngine) SampleRate() float64 {
	return float64(e.cfg.SampleRate)
}

// Cycle runs one block synchronously. It is meant for driving the engine by
// hand while it is not running.
func (e *SimEngine) Cycle() {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	e.source.Fill(e.inL, e.inR)
	e.processor.Process(e.inL, e.inR, e.outL, e.outR)
	e.cycles.Add(1)
}

// Cycles returns how many blocks have been processed
func (e *SimEngine) Cycles() uint64 {
	return e.cycles.Load()
}

// Output returns copies of the most recent output block
func (e *SimEngine) Output() (left, right []float32) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	left = append([]float32(nil), e.outL...)
	right = append([]float32(nil), e.outR...)
	return left, right
}

// Period returns the wall-clock duration of one block
func (e *SimEngine) Period() time.Duration {
	if e.cfg.SampleRate <= 0 {
		return 0
	}
	return time.Duration(e.cfg.FramesPerBuffer) * time.Second / time.Duration(e.cfg.SampleRate)
}

func (e *SimEngine) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	e.notifier.ThreadInit()

	period := e.Period()
	if e.cfg.Freewheel || period <= 0 {
		for {
			select {
			case <-stop:
				return
			default:
				e.Cycle()
			}
		}
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.Cycle()
		}
	}
}

var (
	_ Engine = (*SimEngine)(nil)
	_ Engine = (*PortAudioEngine)(nil)
)
