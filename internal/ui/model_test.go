package ui

import (
	"sync"
	"testing"
	"time"

	"github.com/0xlemi/looper/internal/audio"
	"github.com/0xlemi/looper/internal/monitor"
	"github.com/0xlemi/looper/internal/transport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLoop struct {
	frames int
}

func (f fakeLoop) LoopFrames() int { return f.frames }

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_KeysAdvanceTransport(t *testing.T) {
	t.Parallel()

	tr := transport.New()
	var m tea.Model = NewModel(tr, fakeLoop{}, 48000)

	m, cmd := m.Update(key(' '))
	assert.Equal(t, transport.Recording, tr.State())
	assert.Nil(t, cmd)

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, transport.Looping, tr.State())
	assert.Nil(t, cmd)

	_, cmd = m.Update(key('x'))
	assert.Equal(t, transport.Stopping, tr.State())
	assert.True(t, isQuit(t, cmd))
}

func TestModel_QuitKeys(t *testing.T) {
	t.Parallel()

	for _, msg := range []tea.KeyMsg{key('q'), {Type: tea.KeyCtrlC}} {
		tr := transport.New()
		m := NewModel(tr, fakeLoop{}, 48000)

		next, cmd := m.Update(msg)
		assert.True(t, isQuit(t, cmd), msg.String())
		assert.Equal(t, transport.NotStarted, tr.State(), "quitting must not touch the transport")
		assert.Empty(t, next.View())
	}
}

func TestModel_TickQuitsOnceStopped(t *testing.T) {
	t.Parallel()

	tr := transport.New()
	m := NewModel(tr, fakeLoop{}, 48000)

	_, cmd := m.Update(TickMsg(time.Now()))
	require.NotNil(t, cmd)

	for range 3 {
		tr.Advance()
	}
	_, cmd = m.Update(TickMsg(time.Now()))
	assert.True(t, isQuit(t, cmd))
}

func TestModel_LoopSeconds(t *testing.T) {
	t.Parallel()

	tr := transport.New()
	m := NewModel(tr, fakeLoop{frames: 96000}, 48000)
	assert.InDelta(t, 2.0, m.LoopSeconds(), 1e-9)

	next, _ := m.Update(SampleRateMsg(96000))
	assert.InDelta(t, 1.0, next.(Model).LoopSeconds(), 1e-9)

	// A zero rate is ignored
	next, _ = next.Update(SampleRateMsg(0))
	assert.InDelta(t, 1.0, next.(Model).LoopSeconds(), 1e-9)

	assert.Zero(t, NewModel(tr, nil, 48000).LoopSeconds())
}

func TestModel_View(t *testing.T) {
	t.Parallel()

	tr := transport.New()
	var m tea.Model = NewModel(tr, fakeLoop{frames: 24000}, 48000)

	view := m.View()
	assert.Contains(t, view, "NOT STARTED")
	assert.Contains(t, view, "Loop: 0.50s")
	assert.Contains(t, view, "waiting for audio")
	assert.Contains(t, view, "Press any key to record")

	m, _ = m.Update(key(' '))
	m, _ = m.Update(UpdateReadingMsg{RMS: 0.1, DB: -20})
	m, _ = m.Update(NotificationMsg{Text: "xrun: output underflow", Warn: true})

	view = m.View()
	assert.Contains(t, view, "RECORDING")
	assert.Contains(t, view, "-20.0 dB")
	assert.Contains(t, view, "xrun: output underflow")
	assert.Contains(t, view, "Press any key to start looping")
}

func TestModel_KeepsLastEvents(t *testing.T) {
	t.Parallel()

	var m tea.Model = NewModel(transport.New(), nil, 48000)
	for i := range maxEvents + 3 {
		m, _ = m.Update(NotificationMsg{Text: string(rune('a' + i))})
	}

	events := m.(Model).events
	require.Len(t, events, maxEvents)
	assert.Equal(t, "d", events[0].Text)
	assert.Equal(t, "h", events[maxEvents-1].Text)
}

func TestModel_NoteNeedsToBeStable(t *testing.T) {
	t.Parallel()

	m := NewModel(transport.New(), nil, 48000)
	a4 := &monitor.Note{Name: "A", Octave: 4, Frequency: 440}
	start := time.Now()

	m.reading = monitor.Reading{Note: a4}
	m.updateNote(start)
	assert.Nil(t, m.stableNote)

	m.updateNote(start.Add(noteStabilityThreshold))
	assert.Equal(t, a4, m.stableNote)
	assert.Contains(t, m.View(), "440.00 Hz")

	// Silence clears it
	m.reading = monitor.Reading{}
	m.updateNote(start.Add(time.Second))
	assert.Nil(t, m.stableNote)
	assert.Empty(t, m.notesHistory)
}

func TestMeter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		db     float32
		filled int
	}{
		{-100, 0},
		{-60, 0},
		{-30, meterWidth / 2},
		{0, meterWidth},
		{6, meterWidth},
	}

	for _, tt := range tests {
		bar := []rune(meter(tt.db))
		require.Len(t, bar, meterWidth)
		filled := 0
		for _, r := range bar {
			if r == '█' {
				filled++
			}
		}
		assert.Equal(t, tt.filled, filled, "db=%v", tt.db)
	}
}

func TestGetNextNote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "D", getNextNote("C"))
	assert.Equal(t, "C", getNextNote("B"))
	assert.Equal(t, "B", getNextNote("A"))
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func TestNotifier_Forwards(t *testing.T) {
	t.Parallel()

	s := &recordingSender{}
	n := NewNotifier(s, 16)

	n.SampleRate(44100)
	n.Xrun(audio.InputOverflow)
	n.PortRegistration("in_l", true)
	n.PortsConnected("mic", "in_l", true)
	n.PortsConnected("mic", "in_l", false)
	n.Latency(audio.PlaybackLatency, 5*time.Millisecond)
	n.Close()

	assert.Equal(t, []tea.Msg{
		SampleRateMsg(44100),
		NotificationMsg{Text: "sample rate 44100 Hz"},
		NotificationMsg{Text: "xrun: input overflow", Warn: true},
		NotificationMsg{Text: "connected mic -> in_l"},
		NotificationMsg{Text: "playback latency 5ms"},
	}, s.msgs)
}

// blockingSender never returns until released, like a program that has not
// started yet
type blockingSender struct {
	release chan struct{}
}

func (s blockingSender) Send(tea.Msg) { <-s.release }

func TestNotifier_DropsWhenFull(t *testing.T) {
	t.Parallel()

	s := blockingSender{release: make(chan struct{})}
	n := NewNotifier(s, 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 10 {
			n.ThreadInit()
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifications blocked")
	}

	close(s.release)
	n.Close()
}
