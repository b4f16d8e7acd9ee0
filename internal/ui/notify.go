package ui

import (
	"fmt"
	"time"

	"github.com/0xlemi/looper/internal/audio"
	tea "github.com/charmbracelet/bubbletea"
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Notifier shows engine notifications in the UI.
//
// Program.Send blocks until the program is running, and engines notify from
// inside Start, so messages are queued and forwarded by a separate goroutine.
// Messages beyond the queue size are dropped.
type Notifier struct {
	sender Sender
	msgs   chan tea.Msg
	done   chan struct{}
}

// NewNotifier creates a notifier and starts forwarding to s
func NewNotifier(s Sender, queueSize int) *Notifier {
	n := &Notifier{
		sender: s,
		msgs:   make(chan tea.Msg, queueSize),
		done:   make(chan struct{}),
	}
	go n.forward()
	return n
}

func (n *Notifier) forward() {
	defer close(n.done)
	for msg := range n.msgs {
		n.sender.Send(msg)
	}
}

// Close stops forwarding once everything queued has been sent. No
// notification may arrive after Close.
func (n *Notifier) Close() {
	close(n.msgs)
	<-n.done
}

func (n *Notifier) send(msg tea.Msg) {
	select {
	case n.msgs <- msg:
	default:
	}
}

func (n *Notifier) info(format string, args ...any) {
	n.send(NotificationMsg{Text: fmt.Sprintf(format, args...)})
}

func (n *Notifier) ThreadInit() {
	n.info("audio thread started")
}

func (n *Notifier) Shutdown(reason string) {
	n.info("engine shut down: %s", reason)
}

func (n *Notifier) Freewheel(enabled bool) {
	if enabled {
		n.info("freewheel on")
	} else {
		n.info("freewheel off")
	}
}

func (n *Notifier) BufferSize(frames int) {
	n.info("buffer size %d frames", frames)
}

func (n *Notifier) SampleRate(hz float64) {
	n.send(SampleRateMsg(hz))
	n.info("sample rate %.0f Hz", hz)
}

// Registrations are logged but too chatty for the screen
func (n *Notifier) ClientRegistration(string, bool) {}
func (n *Notifier) PortRegistration(string, bool)   {}

func (n *Notifier) PortsConnected(a, b string, connected bool) {
	if connected {
		n.info("connected %s -> %s", a, b)
	}
}

func (n *Notifier) GraphReorder() {}

func (n *Notifier) Xrun(kind audio.XrunKind) {
	n.send(NotificationMsg{Text: "xrun: " + string(kind), Warn: true})
}

func (n *Notifier) Latency(mode audio.LatencyMode, latency time.Duration) {
	n.info("%s latency %s", mode, latency.Round(time.Microsecond))
}

var _ audio.Notifier = (*Notifier)(nil)
