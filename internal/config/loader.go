package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/0xlemi/looper/internal/looper"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultBackend            = BackendPortAudio
	DefaultSampleRate         = 48000
	DefaultFramesPerBuffer    = 256
	DefaultRecordOutput       = RecordOutputMonitor
	DefaultPreallocateSeconds = 30.0
	DefaultMonitorWindow      = 4096
	DefaultMonitorInterval    = 100 * time.Millisecond
	DefaultLogLevel           = "info"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Audio: Audio{
			Backend:         DefaultBackend,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		Looper: Looper{
			RecordOutput:       DefaultRecordOutput,
			PreallocateSeconds: DefaultPreallocateSeconds,
		},
		Monitor: Monitor{
			Enabled:  true,
			Window:   DefaultMonitorWindow,
			Interval: DefaultMonitorInterval,
		},
		Log: Log{
			Level: DefaultLogLevel,
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads and parses the YAML config file at path.
// If path is empty or the file doesn't exist, returns default config.
// Applies defaults for any missing fields.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	switch cfg.Audio.Backend {
	case BackendPortAudio, BackendSim:
	default:
		return ValidationError{Field: "audio.backend", Message: fmt.Sprintf("must be %q or %q", BackendPortAudio, BackendSim)}
	}
	if cfg.Audio.SampleRate < 0 {
		return ValidationError{Field: "audio.sample_rate", Message: "must not be negative"}
	}
	// The simulation has no device to take defaults from
	if cfg.Audio.Backend == BackendSim {
		if cfg.Audio.SampleRate == 0 {
			return ValidationError{Field: "audio.sample_rate", Message: "must be positive for the sim backend"}
		}
		if cfg.Audio.FramesPerBuffer == 0 {
			return ValidationError{Field: "audio.frames_per_buffer", Message: "must be positive for the sim backend"}
		}
	}
	if cfg.Audio.FramesPerBuffer < 0 {
		return ValidationError{Field: "audio.frames_per_buffer", Message: "must not be negative"}
	}

	if _, err := RecordOutputPolicy(cfg.Looper.RecordOutput); err != nil {
		return err
	}
	if cfg.Looper.PreallocateSeconds < 0 {
		return ValidationError{Field: "looper.preallocate_seconds", Message: "must not be negative"}
	}

	if cfg.Monitor.Enabled {
		if cfg.Monitor.Window <= 0 {
			return ValidationError{Field: "monitor.window", Message: "must be positive"}
		}
		if cfg.Monitor.Interval <= 0 {
			return ValidationError{Field: "monitor.interval", Message: "must be positive"}
		}
	}

	if _, err := LogLevel(cfg.Log.Level); err != nil {
		return err
	}

	return nil
}

// RecordOutputPolicy maps a record_output value to the loop engine policy.
func RecordOutputPolicy(name string) (looper.RecordOutput, error) {
	switch name {
	case RecordOutputMonitor:
		return looper.MonitorInput, nil
	case RecordOutputSilence:
		return looper.Silence, nil
	default:
		return 0, ValidationError{Field: "looper.record_output", Message: fmt.Sprintf("must be %q or %q", RecordOutputMonitor, RecordOutputSilence)}
	}
}

// LogLevel parses a log level name such as "debug" or "warn".
func LogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", name)}
	}
	return level, nil
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
