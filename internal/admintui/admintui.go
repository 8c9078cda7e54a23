// ABOUTME: Server-side terminal dashboard showing room state and connected sessions
// ABOUTME: Driven by a StatusFunc polled once per tick rather than a pushed update channel
package admintui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SessionStatus is one connected session's display-relevant fields.
type SessionStatus struct {
	ID        string
	LatencyMs int64
	Ready     bool
}

// Status holds everything the dashboard renders for a single tick.
type Status struct {
	RoomName     string
	Port         int
	Mode         string
	CurrentTrack string
	CurrentTime  float64
	Sessions     []SessionStatus
}

// StatusFunc is polled once per tick to refresh the dashboard.
type StatusFunc func() Status

// Dashboard manages the bubbletea program.
type Dashboard struct {
	program  *tea.Program
	statusFn StatusFunc
}

type tickMsg time.Time
type statusMsg Status

type model struct {
	status    Status
	statusFn  StatusFunc
	startTime time.Time
	quitting  bool
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickEvery(), pollStatus(m.statusFn))
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func pollStatus(fn StatusFunc) tea.Cmd {
	return func() tea.Msg {
		return statusMsg(fn())
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, tea.Batch(tickEvery(), pollStatus(m.statusFn))

	case statusMsg:
		m.status = Status(msg)
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	sessionHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("SyncJam Server"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Room: "))
	b.WriteString(valueStyle.Render(m.status.RoomName))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Port: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.status.Port)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Uptime: "))
	b.WriteString(valueStyle.Render(time.Since(m.startTime).Round(time.Second).String()))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Mode: "))
	b.WriteString(valueStyle.Render(m.status.Mode))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Playing: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s (%.1fs)", m.status.CurrentTrack, m.status.CurrentTime)))
	b.WriteString("\n\n")

	b.WriteString(sessionHeaderStyle.Render(fmt.Sprintf("Connected Sessions (%d)", len(m.status.Sessions))))
	b.WriteString("\n\n")

	if len(m.status.Sessions) == 0 {
		b.WriteString(valueStyle.Render("  No sessions connected"))
		b.WriteString("\n")
	} else {
		for _, s := range m.status.Sessions {
			readiness := "not ready"
			if s.Ready {
				readiness = "ready"
			}
			b.WriteString(fmt.Sprintf("  - %s", s.ID))
			b.WriteString(valueStyle.Render(fmt.Sprintf(" (%dms, %s)", s.LatencyMs, readiness)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// New creates a Dashboard that polls statusFn once per second.
func New(statusFn StatusFunc) *Dashboard {
	return &Dashboard{statusFn: statusFn}
}

// Run starts the dashboard and blocks until the user quits. roomName/port
// seed the first frame before the first poll completes.
func (d *Dashboard) Run(roomName string, port int) error {
	m := model{
		status:    Status{RoomName: roomName, Port: port, CurrentTrack: "(nothing loaded)"},
		statusFn:  d.statusFn,
		startTime: time.Now(),
	}
	d.program = tea.NewProgram(m, tea.WithAltScreen())
	_, err := d.program.Run()
	return err
}

// Stop quits the dashboard program.
func (d *Dashboard) Stop() {
	if d.program != nil {
		d.program.Quit()
	}
}
