package looper

import (
	"sync/atomic"

	"github.com/0xlemi/looper/internal/transport"
)

// RecordOutput selects what the outputs carry while recording
type RecordOutput int

const (
	// MonitorInput passes the live input through while it is recorded
	MonitorInput RecordOutput = iota
	// Silence mutes the outputs while recording
	Silence
)

// StateReader is the read side of the transport
type StateReader interface {
	State() transport.State
}

// Tap receives every input block. Implementations are called from the audio
// callback and must not block or allocate.
type Tap interface {
	Write(left, right []float32)
}

// Option configures an Engine
type Option func(*Engine)

// WithRecordOutput sets the output policy used while recording
func WithRecordOutput(policy RecordOutput) Option {
	return func(e *Engine) {
		e.recordOutput = policy
	}
}

// WithCapacity pre-sizes the loop buffer for the given number of frames per
// channel so recording does not reallocate until that length is exceeded
func WithCapacity(frames int) Option {
	return func(e *Engine) {
		if frames > 0 {
			e.buf = newLoopBuffer(frames)
		}
	}
}

// WithTap attaches a tap that sees the input of every cycle
func WithTap(tap Tap) Option {
	return func(e *Engine) {
		e.tap = tap
	}
}

// Engine is the per-callback loop logic.
//
// Process must only ever be called from one goroutine at a time (the audio
// callback). The loop buffer and play cursor belong to that goroutine.
type Engine struct {
	transport    StateReader
	recordOutput RecordOutput
	tap          Tap

	buf    loopBuffer
	cursor int
	sealed bool

	// published for display; written only by Process
	frames atomic.Int64
	last   atomic.Int32
}

// New creates an engine reading its mode from t
func New(t StateReader, opts ...Option) *Engine {
	e := &Engine{
		transport: t,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.last.Store(int32(transport.NotStarted))
	return e
}

// Process handles one audio block. Outputs are always fully written.
func (e *Engine) Process(inL, inR, outL, outR []float32) {
	if e.tap != nil {
		e.tap.Write(inL, inR)
	}

	// Channels must agree or nothing below is meaningful for this cycle
	if len(outL) != len(outR) {
		silence(outL)
		silence(outR)
		return
	}

	state := e.transport.State()
	e.last.Store(int32(state))

	switch state {
	case transport.NotStarted:
		e.passThrough(inL, inR, outL, outR)

	case transport.Recording:
		if !e.sealed && len(inL) == len(inR) {
			e.buf.append(inL, inR)
			e.frames.Store(int64(e.buf.len()))
		}
		if e.recordOutput == MonitorInput {
			e.passThrough(inL, inR, outL, outR)
		} else {
			silence(outL)
			silence(outR)
		}

	case transport.Looping:
		e.sealed = true
		e.play(outL, outR)

	default:
		silence(outL)
		silence(outR)
	}
}

func (e *Engine) passThrough(inL, inR, outL, outR []float32) {
	if len(inL) != len(outL) || len(inR) != len(outR) {
		silence(outL)
		silence(outR)
		return
	}
	copy(outL, inL)
	copy(outR, inR)
}

// play fills both outputs from the loop buffer starting at the cursor and
// advances the cursor by the block length modulo the loop length
func (e *Engine) play(outL, outR []float32) {
	length := e.buf.len()
	if length == 0 {
		silence(outL)
		silence(outR)
		return
	}

	start := e.cursor
	if start >= length {
		start = 0
	}

	e.cursor = circularCopy(outL, e.buf.left, start)
	circularCopy(outR, e.buf.right, start)
}

// circularCopy fills dst from src starting at cursor, wrapping to the start of
// src as often as needed, and returns the cursor after the last frame copied.
// src must not be empty.
func circularCopy(dst, src []float32, cursor int) int {
	for len(dst) > 0 {
		n := copy(dst, src[cursor:])
		dst = dst[n:]
		cursor += n
		if cursor == len(src) {
			cursor = 0
		}
	}
	return cursor
}

func silence(out []float32) {
	clear(out)
}

// LoopFrames returns the number of frames per channel recorded so far.
// Safe to call from any goroutine.
func (e *Engine) LoopFrames() int {
	return int(e.frames.Load())
}

// LastState returns the transport state seen by the most recent cycle.
// Safe to call from any goroutine.
func (e *Engine) LastState() transport.State {
	return transport.State(e.last.Load())
}

// Cursor returns the play cursor. Not safe while the engine is running.
func (e *Engine) Cursor() int {
	return e.cursor
}

// Frames returns copies of the recorded channels. Not safe while the engine
// is running.
func (e *Engine) Frames() (left, right []float32) {
	left = append([]float32(nil), e.buf.left...)
	right = append([]float32(nil), e.buf.right...)
	return left, right
}
