// ABOUTME: Bubbletea model for the HAL monitor
// ABOUTME: Shows output stream pacing state and the latest accelerometer reading
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mini210/hal/pkg/audio/output"
	"github.com/mini210/hal/pkg/sensors"
)

// RefreshInterval is how often the model polls for status
const RefreshInterval = 250 * time.Millisecond

// Model represents the monitor state
type Model struct {
	// Daemon
	mode   string
	source string

	// Stream
	stream    output.Stats
	hasStream bool
	sessions  int
	frames    int64

	// Sensors
	accel    sensors.Event
	hasAccel bool

	// Debug
	showDebug bool
	quitting  bool

	// Dimensions
	width  int
	height int

	poll func() StatusMsg
}

// StatusMsg updates monitor state. Nil and zero fields are left unchanged.
type StatusMsg struct {
	Mode     string
	Source   string
	Stream   *output.Stats
	Sessions *int
	Frames   int64
	Accel    *sensors.Event
}

type tickMsg time.Time

// NewModel creates a monitor. poll, if not nil, is called every
// RefreshInterval for a fresh status.
func NewModel(poll func() StatusMsg) Model {
	return Model{poll: poll}
}

// Init starts the refresh ticker
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case tickMsg:
		if m.poll != nil {
			m.applyStatus(m.poll())
		}
		return m, tickEvery()
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}
	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Mode != "" {
		m.mode = msg.Mode
	}
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.Stream != nil {
		m.stream = *msg.Stream
		m.hasStream = true
	}
	if msg.Sessions != nil {
		m.sessions = *msg.Sessions
	}
	if msg.Frames != 0 {
		m.frames = msg.Frames
	}
	if msg.Accel != nil {
		m.accel = *msg.Accel
		m.hasAccel = true
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the monitor
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("mini210 HAL"))
	b.WriteString("\n\n")

	field(&b, "Mode", m.mode)
	if m.source != "" {
		field(&b, "Source", truncate(m.source, 40))
	}
	if m.mode == "ingest" {
		field(&b, "Sessions", fmt.Sprintf("%d", m.sessions))
	}
	b.WriteString("\n")

	b.WriteString(m.renderStream())
	b.WriteString("\n")
	b.WriteString(m.renderSensors())

	if m.showDebug {
		b.WriteString("\n")
		b.WriteString(m.renderDebug())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("d: debug  q: quit"))
	b.WriteString("\n")
	return b.String()
}

// renderStream renders the output stream pacing state
func (m Model) renderStream() string {
	if !m.hasStream {
		return headerStyle.Render("Stream: ") + valueStyle.Render("none") + "\n"
	}

	st := m.stream
	state := valueStyle.Render(st.State.String())
	if st.State == output.StateActive {
		state = activeStyle.Render(st.State.String())
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Stream: "))
	b.WriteString(state)
	b.WriteString("\n")
	field(&b, "  Threshold", fmt.Sprintf("%d frames", st.WriteThreshold))
	field(&b, "  Resident", fmt.Sprintf("%d frames %s", st.LastResident, renderBar(st.LastResident, int64(st.WriteThreshold), 20)))
	field(&b, "  Writes", fmt.Sprintf("%d (%d bytes)", st.Writes, st.Bytes))
	field(&b, "  Sleeps", fmt.Sprintf("%d (%s)", st.Sleeps, st.Slept.Round(time.Millisecond)))
	field(&b, "  Query failures", fmt.Sprintf("%d", st.QueryFailures))
	return b.String()
}

// renderSensors renders the latest accelerometer event
func (m Model) renderSensors() string {
	if !m.hasAccel {
		return headerStyle.Render("Accelerometer: ") + valueStyle.Render("no data") + "\n"
	}

	a := m.accel.Acceleration
	return headerStyle.Render("Accelerometer: ") +
		valueStyle.Render(fmt.Sprintf("x=%.2f y=%.2f z=%.2f", a.X, a.Y, a.Z)) + "\n"
}

// renderDebug renders counters useful when the hardware misbehaves
func (m Model) renderDebug() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Debug:"))
	b.WriteString("\n")
	field(&b, "  Activations", fmt.Sprintf("%d (%d failed)", m.stream.Activations, m.stream.ActivationFailures))
	field(&b, "  Frames pumped", fmt.Sprintf("%d", m.frames))
	if m.hasAccel {
		field(&b, "  Accel timestamp", fmt.Sprintf("%d", m.accel.Timestamp))
		field(&b, "  Accel status", fmt.Sprintf("%d", m.accel.Acceleration.Status))
	}
	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(name + ": "))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

// Utility functions
func renderBar(value, max int64, width int) string {
	if max <= 0 {
		return ""
	}
	filled := int((value * int64(width)) / max)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
