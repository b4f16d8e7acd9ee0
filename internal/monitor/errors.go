package monitor

import "errors"

// Errors
var (
	ErrEmptyBuffer     = errors.New("empty audio buffer")
	ErrVolumeThreshold = errors.New("volume below threshold")
	ErrNoPitch         = errors.New("no pitch in range")
)
