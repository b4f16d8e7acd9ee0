package cli

import (
	"github.com/0xlemi/looper/internal/config"
	"github.com/spf13/pflag"
)

// sessionFlags holds the command line overrides for a session. Only flags
// the user actually set replace values from the config file.
type sessionFlags struct {
	configPath   string
	backend      string
	sampleRate   float64
	frames       int
	inputDevice  string
	outputDevice string
	lowLatency   bool
	recordOutput string
	preallocate  float64
	noMonitor    bool
	headless     bool
	logLevel     string
	logFile      string
}

func (f *sessionFlags) register(fs *pflag.FlagSet) {
	def := config.DefaultConfig()

	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML config file")
	fs.StringVar(&f.backend, "backend", def.Audio.Backend, `Audio backend ("portaudio" or "sim")`)
	fs.Float64Var(&f.sampleRate, "sample-rate", def.Audio.SampleRate, "Sample rate in Hz (0 uses the device default)")
	fs.IntVar(&f.frames, "frames", def.Audio.FramesPerBuffer, "Frames per buffer (0 lets the backend choose)")
	fs.StringVar(&f.inputDevice, "input", "", "Input device name (default device when empty)")
	fs.StringVar(&f.outputDevice, "output", "", "Output device name (default device when empty)")
	fs.BoolVar(&f.lowLatency, "low-latency", false, "Use the devices' low latency settings")
	fs.StringVar(&f.recordOutput, "record-output", def.Looper.RecordOutput, `Output while recording ("monitor" or "silence")`)
	fs.Float64Var(&f.preallocate, "preallocate", def.Looper.PreallocateSeconds, "Seconds of loop memory to reserve up front")
	fs.BoolVar(&f.noMonitor, "no-monitor", false, "Disable the input level meter and tuner")
	fs.BoolVar(&f.headless, "headless", false, "Read keys from stdin and log to stderr instead of running the terminal UI")
	fs.StringVar(&f.logLevel, "log-level", def.Log.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFile, "log-file", "", "Write logs to this file")
}

// apply copies every flag the user set onto cfg
func (f *sessionFlags) apply(cfg *config.Config, fs *pflag.FlagSet) {
	if fs.Changed("backend") {
		cfg.Audio.Backend = f.backend
	}
	if fs.Changed("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if fs.Changed("frames") {
		cfg.Audio.FramesPerBuffer = f.frames
	}
	if fs.Changed("input") {
		cfg.Audio.InputDevice = f.inputDevice
	}
	if fs.Changed("output") {
		cfg.Audio.OutputDevice = f.outputDevice
	}
	if fs.Changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if fs.Changed("record-output") {
		cfg.Looper.RecordOutput = f.recordOutput
	}
	if fs.Changed("preallocate") {
		cfg.Looper.PreallocateSeconds = f.preallocate
	}
	if fs.Changed("no-monitor") {
		cfg.Monitor.Enabled = !f.noMonitor
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-file") {
		cfg.Log.File = f.logFile
	}
}

// load reads the config file, applies the flags on top and validates the
// result
func (f *sessionFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	f.apply(cfg, fs)

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
