// ABOUTME: Bubbletea model for the soundboard TUI
// ABOUTME: Polls player levels on a tick and maps keys to player controls
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Soundboard/soundboard-go/pkg/soundboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultRefresh is the level meter polling interval
const DefaultRefresh = 100 * time.Millisecond

const meterWidth = 20

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	meterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Model is the TUI state
type Model struct {
	ctrl    Controller
	refresh time.Duration

	players  []PlayerStatus
	selected int
	device   string
	mode     soundboard.Mode
	message  string
	failed   bool
	quitting bool

	width  int
	height int
}

type tickMsg time.Time

// NewModel creates a model polling ctrl every refresh
func NewModel(ctrl Controller, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	m := Model{ctrl: ctrl, refresh: refresh}
	m.poll()
	return m
}

// Init starts the polling tick
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
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
	case tickMsg:
		m.poll()
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) poll() {
	if m.ctrl == nil {
		return
	}
	m.players = m.ctrl.Players()
	m.device = m.ctrl.DeviceName()
	m.mode = m.ctrl.Mode()
	if m.selected >= len(m.players) {
		m.selected = max(len(m.players)-1, 0)
	}
}

func (m Model) current() (soundboard.PlayerID, bool) {
	if m.selected < 0 || m.selected >= len(m.players) {
		return 0, false
	}
	return m.players[m.selected].ID, true
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down", "j":
		if m.selected < len(m.players)-1 {
			m.selected++
		}
		return m, nil
	case "d":
		name, err := m.ctrl.NextDevice()
		m.report(fmt.Sprintf("Output device: %s", name), err)
	case "o":
		m.report(fmt.Sprintf("Routing: %s", m.ctrl.NextMode()), nil)
	default:
		m.handlePlayerKey(msg.String())
	}

	m.poll()
	return m, nil
}

func (m *Model) handlePlayerKey(key string) {
	id, ok := m.current()
	if !ok {
		return
	}

	switch key {
	case " ":
		m.report("", m.ctrl.TogglePlay(id))
	case "r":
		m.report(fmt.Sprintf("Player %d reset", id), m.ctrl.Reset(id))
	case "m":
		m.report("", m.ctrl.ToggleMute(id))
	case "l":
		m.report("", m.ctrl.ToggleRepeat(id))
	case "+", "=":
		gain, err := m.ctrl.AdjustGain(id, GainStep)
		m.report(fmt.Sprintf("Gain: %.1f", gain), err)
	case "-", "_":
		gain, err := m.ctrl.AdjustGain(id, -GainStep)
		m.report(fmt.Sprintf("Gain: %.1f", gain), err)
	}
}

func (m *Model) report(text string, err error) {
	m.failed = err != nil
	if err != nil {
		m.message = err.Error()
		return
	}
	m.message = text
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down soundboard...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Soundboard"))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Device: "))
	b.WriteString(valueStyle.Render(m.device))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render("Routing: "))
	b.WriteString(valueStyle.Render(m.mode.String()))
	b.WriteString("\n\n")

	if len(m.players) == 0 {
		b.WriteString(valueStyle.Render("  No players"))
		b.WriteString("\n")
	}
	for i, p := range m.players {
		b.WriteString(m.renderPlayer(p, i == m.selected))
		b.WriteString("\n")
	}

	if m.message != "" {
		b.WriteString("\n")
		if m.failed {
			b.WriteString(errorStyle.Render(m.message))
		} else {
			b.WriteString(valueStyle.Render(m.message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓:Select  space:Play/Stop  r:Reset  m:Mute  l:Loop  +/-:Gain  d:Device  o:Routing  q:Quit"))
	return b.String()
}

func (m Model) renderPlayer(p PlayerStatus, selected bool) string {
	name := truncate(filepath.Base(p.Filename), 28)
	if p.Filename == "" {
		name = "(closed)"
	}
	cursor := "  "
	if selected {
		cursor = "> "
	}
	line := fmt.Sprintf("%s%2d %-28s", cursor, p.ID, name)
	if selected {
		line = selectedStyle.Render(line)
	}

	flags := ""
	if p.Muted {
		flags += " muted"
	}
	if p.Repeat {
		flags += " loop"
	}

	return fmt.Sprintf("%s %-8s %s gain %.1f%s",
		line,
		p.State,
		meterStyle.Render(renderBar(p.Level, meterWidth)),
		p.Gain,
		valueStyle.Render(flags))
}

// renderBar draws level in [0, 1] as a meter of width cells
func renderBar(level float32, width int) string {
	filled := int(level*float32(width) + 0.5)
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
