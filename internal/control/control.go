// Package control drives the transport from a byte stream, one advance per
// byte. It is the headless counterpart of the terminal UI.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/0xlemi/looper/internal/transport"
)

// Run reads r one byte at a time and advances t for every byte read. It
// returns nil once t reaches Stopping or r is exhausted, and ctx.Err() when
// ctx is cancelled first.
//
// Reads block, so a cancelled Run returns immediately but leaves its reader
// goroutine parked in Read until r yields or is closed.
func Run(ctx context.Context, r io.Reader, t *transport.Transport, logger *slog.Logger) error {
	logger = logger.With("component", "control")

	keys := make(chan struct{})
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go readKeys(r, keys, readErr, stop)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				logger.Info("input closed")
				return nil
			}
			return fmt.Errorf("read control input: %w", err)
		case <-keys:
			from, to, changed := t.Advance()
			if !changed {
				continue
			}
			logger.Info("transport state changing", "from", from.String(), "to", to.String())
			if to == transport.Stopping {
				return nil
			}
		}
	}
}

func readKeys(r io.Reader, keys chan<- struct{}, readErr chan<- error, stop <-chan struct{}) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case keys <- struct{}{}:
			case <-stop:
				return
			}
		}
		if err != nil {
			readErr <- err
			return
		}
	}
}
