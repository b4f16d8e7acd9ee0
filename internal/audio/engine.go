package audio

import "errors"

// Channels is the number of input and output channels every engine opens
const Channels = 2

// Errors
var (
	ErrAlreadyRunning = errors.New("audio engine already started")
	ErrNotRunning     = errors.New("audio engine not started")
	ErrDeviceNotFound = errors.New("audio device not found")
	ErrTooFewChannels = errors.New("audio device has too few channels")
)

// Processor is called once per block from the audio callback with the two
// input channels and the two output channels it must fill
type Processor interface {
	Process(inL, inR, outL, outR []float32)
}

// ProcessorFunc adapts a function to Processor
type ProcessorFunc func(inL, inR, outL, outR []float32)

func (f ProcessorFunc) Process(inL, inR, outL, outR []float32) {
	f(inL, inR, outL, outR)
}

// Engine drives a Processor from an audio device or a simulation
type Engine interface {
	// Start activates the engine; the processor is called from then on
	Start() error

	// Stop deactivates the engine and releases its resources
	Stop() error

	// IsRunning returns true between a successful Start and Stop
	IsRunning() bool

	// SampleRate returns the rate the engine runs at, or the configured one
	// before Start
	SampleRate() float64
}

// Port names registered by every engine
const (
	PortInLeft   = "in_l"
	PortInRight  = "in_r"
	PortOutLeft  = "out_l"
	PortOutRight = "out_r"
)

var portNames = []string{PortInLeft, PortInRight, PortOutLeft, PortOutRight}
