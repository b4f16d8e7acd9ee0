package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/0xlemi/looper/internal/config"
)

// newLogger builds the session logger. Logs go to the configured file when
// there is one, otherwise to fallback. The returned close function releases
// the file.
func newLogger(cfg config.Log, fallback io.Writer) (*slog.Logger, func() error, error) {
	level, err := config.LogLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	closeFn := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, closeFn, nil
}
