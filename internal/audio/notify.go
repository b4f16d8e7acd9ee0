package audio

import (
	"log/slog"
	"time"
)

// XrunKind says which side of the stream missed its deadline
type XrunKind string

const (
	InputUnderflow  XrunKind = "input underflow"
	InputOverflow   XrunKind = "input overflow"
	OutputUnderflow XrunKind = "output underflow"
	OutputOverflow  XrunKind = "output overflow"
)

// LatencyMode tells capture latency from playback latency
type LatencyMode string

const (
	CaptureLatency  LatencyMode = "capture"
	PlaybackLatency LatencyMode = "playback"
)

// Notifier receives engine lifecycle notifications. The loop engine never
// depends on them; they exist for logging and display.
//
// Methods may be called from different goroutines but never from the audio
// callback itself.
type Notifier interface {
	ThreadInit()
	Shutdown(reason string)
	Freewheel(enabled bool)
	BufferSize(frames int)
	SampleRate(hz float64)
	ClientRegistration(name string, registered bool)
	PortRegistration(port string, registered bool)
	PortsConnected(a, b string, connected bool)
	GraphReorder()
	Xrun(kind XrunKind)
	Latency(mode LatencyMode, latency time.Duration)
}

// NopNotifier ignores every notification
type NopNotifier struct{}

func (NopNotifier) ThreadInit()                         {}
func (NopNotifier) Shutdown(string)                     {}
func (NopNotifier) Freewheel(bool)                      {}
func (NopNotifier) BufferSize(int)                      {}
func (NopNotifier) SampleRate(float64)                  {}
func (NopNotifier) ClientRegistration(string, bool)     {}
func (NopNotifier) PortRegistration(string, bool)       {}
func (NopNotifier) PortsConnected(string, string, bool) {}
func (NopNotifier) GraphReorder()                       {}
func (NopNotifier) Xrun(XrunKind)                       {}
func (NopNotifier) Latency(LatencyMode, time.Duration)  {}

// LogNotifier writes every notification to a structured logger
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier logging through logger
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "engine")}
}

func (n *LogNotifier) ThreadInit() {
	n.logger.Info("thread init")
}

func (n *LogNotifier) Shutdown(reason string) {
	n.logger.Info("shutdown", "reason", reason)
}

func (n *LogNotifier) Freewheel(enabled bool) {
	n.logger.Info("freewheel mode changed", "enabled", enabled)
}

func (n *LogNotifier) BufferSize(frames int) {
	n.logger.Info("buffer size changed", "frames", frames)
}

func (n *LogNotifier) SampleRate(hz float64) {
	n.logger.Info("sample rate changed", "hz", hz)
}

func (n *LogNotifier) ClientRegistration(name string, registered bool) {
	n.logger.Info(registrationVerb(registered)+" client", "name", name)
}

func (n *LogNotifier) PortRegistration(port string, registered bool) {
	n.logger.Info(registrationVerb(registered)+" port", "port", port)
}

func (n *LogNotifier) PortsConnected(a, b string, connected bool) {
	msg := "ports connected"
	if !connected {
		msg = "ports disconnected"
	}
	n.logger.Info(msg, "a", a, "b", b)
}

func (n *LogNotifier) GraphReorder() {
	n.logger.Info("graph reordered")
}

func (n *LogNotifier) Xrun(kind XrunKind) {
	n.logger.Warn("xrun occurred", "kind", string(kind))
}

func (n *LogNotifier) Latency(mode LatencyMode, latency time.Duration) {
	n.logger.Info("latency changed", "mode", string(mode), "latency", latency)
}

func registrationVerb(registered bool) string {
	if registered {
		return "registered"
	}
	return "unregistered"
}

// MultiNotifier fans every notification out to each of its members in order
type MultiNotifier []Notifier

func (m MultiNotifier) ThreadInit() {
	for _, n := range m {
		n.ThreadInit()
	}
}

func (m MultiNotifier) Shutdown(reason string) {
	for _, n := range m {
		n.Shutdown(reason)
	}
}

func (m MultiNotifier) Freewheel(enabled bool) {
	for _, n := range m {
		n.Freewheel(enabled)
	}
}

func (m MultiNotifier) BufferSize(frames int) {
	for _, n := range m {
		n.BufferSize(frames)
	}
}

func (m MultiNotifier) SampleRate(hz float64) {
	for _, n := range m {
		n.SampleRate(hz)
	}
}

func (m MultiNotifier) ClientRegistration(name string, registered bool) {
	for _, n := range m {
		n.ClientRegistration(name, registered)
	}
}

func (m MultiNotifier) PortRegistration(port string, registered bool) {
	for _, n := range m {
		n.PortRegistration(port, registered)
	}
}

func (m MultiNotifier) PortsConnected(a, b string, connected bool) {
	for _, n := range m {
		n.PortsConnected(a, b, connected)
	}
}

func (m MultiNotifier) GraphReorder() {
	for _, n := range m {
		n.GraphReorder()
	}
}

func (m MultiNotifier) Xrun(kind XrunKind) {
	for _, n := range m {
		n.Xrun(kind)
	}
}

func (m MultiNotifier) Latency(mode LatencyMode, latency time.Duration) {
	for _, n := range m {
		n.Latency(mode, latency)
	}
}

var (
	_ Notifier = NopNotifier{}
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = MultiNotifier(nil)
)
