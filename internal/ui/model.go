package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xlemi/looper/internal/monitor"
	"github.com/0xlemi/looper/internal/transport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Constants for UI behavior
const (
	// How long a note needs to be present to be considered stable
	noteStabilityThreshold = 300 * time.Millisecond

	// Notes not seen for this long are forgotten
	noteHistoryTTL = 2 * time.Second

	tickInterval = 100 * time.Millisecond

	// How many engine notifications to keep on screen
	maxEvents = 5

	meterWidth = 30
	meterFloor = -60.0 // dB shown as an empty meter
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	meterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	// Transport state colors
	stateColors = map[transport.State]string{
		transport.NotStarted: "#555555",
		transport.Recording:  "#FF0000",
		transport.Looping:    "#00AA00",
		transport.Stopping:   "#333333",
	}

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

func stateStyle(s transport.State) lipgloss.Style {
	color, ok := stateColors[s]
	if !ok {
		color = "#333333"
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(color)).
		Padding(0, 2)
}

// Returns a style for a natural note
func noteStyle(noteName string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[noteName])).
		Padding(0, 1)
}

// Get the next note in the scale (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	default:
		return "C"
	}
}

// LoopStats is the display side of the loop engine
type LoopStats interface {
	LoopFrames() int
}

// Model represents the UI state
type Model struct {
	transport  *transport.Transport
	loop       LoopStats
	sampleRate float64

	reading      monitor.Reading
	hasReading   bool
	stableNote   *monitor.Note
	notesHistory map[string]time.Time // when we first saw each note

	events []Notification

	width    int
	height   int
	quitting bool
}

// NewModel creates a new UI model. sampleRate is used for the loop length
// until the engine reports the rate it actually runs at.
func NewModel(t *transport.Transport, loop LoopStats, sampleRate float64) Model {
	return Model{
		transport:    t,
		loop:         loop,
		sampleRate:   sampleRate,
		notesHistory: make(map[string]time.Time),
	}
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// TickMsg represents a timer tick
type TickMsg time.Time

// UpdateReadingMsg carries a new input level and tuner reading
type UpdateReadingMsg monitor.Reading

// SampleRateMsg reports the sample rate the engine runs at
type SampleRateMsg float64

// Notification is one engine event shown in the event list
type Notification struct {
	Text string
	Warn bool
}

// NotificationMsg carries an engine notification
type NotificationMsg Notification

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		if _, to, changed := m.transport.Advance(); changed && to == transport.Stopping {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		// Another control source may have stopped the transport
		if m.transport.State() == transport.Stopping {
			m.quitting = true
			return m, tea.Quit
		}

		// Clean up old notes from history
		now := time.Time(msg)
		for note, firstSeen := range m.notesHistory {
			if now.Sub(firstSeen) > noteHistoryTTL {
				delete(m.notesHistory, note)
			}
		}

		return m, tick()

	case UpdateReadingMsg:
		m.reading = monitor.Reading(msg)
		m.hasReading = true
		m.updateNote(time.Now())

	case SampleRateMsg:
		if msg > 0 {
			m.sampleRate = float64(msg)
		}

	case NotificationMsg:
		m.events = append(m.events, Notification(msg))
		if len(m.events) > maxEvents {
			m.events = m.events[len(m.events)-maxEvents:]
		}
	}

	return m, nil
}

// updateNote promotes the current note to the displayed one once it has been
// heard for noteStabilityThreshold
func (m *Model) updateNote(now time.Time) {
	note := m.reading.Note
	if note == nil {
		clear(m.notesHistory)
		m.stableNote = nil
		return
	}

	name := fmt.Sprintf("%s%d", note.Name, note.Octave)
	firstSeen, ok := m.notesHistory[name]
	if !ok {
		m.notesHistory[name] = now
		firstSeen = now
	}
	if now.Sub(firstSeen) >= noteStabilityThreshold {
		m.stableNote = note
	}
}

// LoopSeconds returns the recorded loop length in seconds
func (m Model) LoopSeconds() float64 {
	if m.loop == nil || m.sampleRate <= 0 {
		return 0
	}
	return float64(m.loop.LoopFrames()) / m.sampleRate
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := titleStyle.Render("Looper")
	s += "\n"

	state := m.transport.State()
	s += stateStyle(state).Render(strings.ToUpper(state.String()))
	s += "  " + infoStyle.Render(fmt.Sprintf("Loop: %.2fs", m.LoopSeconds()))
	s += "\n\n"

	if m.hasReading {
		s += infoStyle.Render("Input ") + meterStyle.Render(meter(m.reading.DB)) +
			infoStyle.Render(fmt.Sprintf(" %6.1f dB", m.reading.DB))
	} else {
		s += infoStyle.Render("Input  waiting for audio...")
	}
	s += "\n"

	if m.stableNote != nil {
		s += infoStyle.Render("Note  ") + renderNote(m.stableNote) +
			infoStyle.Render(fmt.Sprintf(" %.2f Hz %+.1f cents", m.stableNote.Frequency, m.stableNote.Cents))
		s += "\n"
	}

	if len(m.events) > 0 {
		s += "\n"
		for _, e := range m.events {
			if e.Warn {
				s += warnStyle.Render(e.Text)
			} else {
				s += infoStyle.Render(e.Text)
			}
			s += "\n"
		}
	}

	s += "\n"
	s += infoStyle.Render(helpText(state))

	return s
}

func helpText(s transport.State) string {
	switch s {
	case transport.NotStarted:
		return "Press any key to record, q to quit"
	case transport.Recording:
		return "Press any key to start looping, q to quit"
	default:
		return "Press any key to stop"
	}
}

// renderNote draws sharps split between the colors of the two neighbouring
// naturals
func renderNote(note *monitor.Note) string {
	text := fmt.Sprintf("%s%d", note.Name, note.Octave)
	if !strings.HasSuffix(note.Name, "#") {
		return noteStyle(note.Name).Render(text)
	}

	base := string(note.Name[0])
	left := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[base])).
		PaddingLeft(1)
	right := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[getNextNote(base)])).
		PaddingRight(1)

	return left.Render(base) + right.Render(text[1:])
}

func meter(db float32) string {
	filled := int((float64(db) - meterFloor) / -meterFloor * meterWidth)
	filled = max(0, min(meterWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
}
