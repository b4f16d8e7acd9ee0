package transport

import (
	"sync"
	"sync/atomic"
)

// State is the discrete mode controlling what the loop engine does each cycle
type State int32

const (
	NotStarted State = iota
	Recording
	Looping
	Stopping
)

var stateNames = map[State]string{
	NotStarted: "not started",
	Recording:  "recording",
	Looping:    "looping",
	Stopping:   "stopping",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "undefined"
}

// Valid reports whether s is one of the four known states
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Next returns the state a toggle moves s to. Stopping is terminal.
func (s State) Next() State {
	switch s {
	case NotStarted:
		return Recording
	case Recording:
		return Looping
	default:
		return Stopping
	}
}

// Transport holds the shared state flag.
//
// Writers serialise on mu so the read-compute-write of Advance is atomic with
// respect to other control sources. The real-time reader never touches mu: it
// loads the published value with a single atomic read.
type Transport struct {
	mu    sync.Mutex
	state atomic.Int32
	done  chan struct{}
}

// New creates a transport in the NotStarted state
func New() *Transport {
	return &Transport{
		done: make(chan struct{}),
	}
}

// State returns the current state. Safe to call from the audio callback.
func (t *Transport) State() State {
	return State(t.state.Load())
}

// Advance moves the transport one step along
// NotStarted -> Recording -> Looping -> Stopping.
// Advancing from Stopping leaves it unchanged and reports changed == false.
func (t *Transport) Advance() (from, to State, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	from = State(t.state.Load())
	if from == Stopping {
		return from, from, false
	}

	to = from.Next()
	t.state.Store(int32(to))
	if to == Stopping {
		close(t.done)
	}

	return from, to, true
}

// Done is closed once the transport reaches Stopping
func (t *Transport) Done() <-chan struct{} {
	return t.done
}
