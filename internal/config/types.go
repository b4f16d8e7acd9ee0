package config

import "time"

// Audio backends.
const (
	BackendPortAudio = "portaudio"
	BackendSim       = "sim"
)

// Record output policies.
const (
	RecordOutputMonitor = "monitor"
	RecordOutputSilence = "silence"
)

// Audio selects the engine and its stream parameters.
type Audio struct {
	Backend         string  `yaml:"backend"`
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	InputDevice     string  `yaml:"input_device,omitempty"`
	OutputDevice    string  `yaml:"output_device,omitempty"`
	LowLatency      bool    `yaml:"low_latency"`
}

// Looper configures the loop engine.
type Looper struct {
	RecordOutput       string  `yaml:"record_output"`
	PreallocateSeconds float64 `yaml:"preallocate_seconds"`
}

// Monitor configures the input level meter and tuner.
type Monitor struct {
	Enabled  bool          `yaml:"enabled"`
	Window   int           `yaml:"window"`
	Interval time.Duration `yaml:"interval"`
}

// Log configures structured logging.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Config represents the looper.yaml file.
type Config struct {
	Audio   Audio   `yaml:"audio"`
	Looper  Looper  `yaml:"looper"`
	Monitor Monitor `yaml:"monitor"`
	Log     Log     `yaml:"log"`
}

// PreallocateFrames converts the preallocation time into frames at the
// configured sample rate.
func (c *Config) PreallocateFrames() int {
	return int(c.Looper.PreallocateSeconds * c.Audio.SampleRate)
}
