// Package tui renders the step-counter chart in a terminal.
//
// [Surface] plugs into the render bridge like the web hub does. [Model] is
// the bubbletea program that draws the newest frame with lipgloss.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jpalmerr/stepboard/render"
)

type keyMap struct {
	Quit key.Binding
	Help key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Help, k.Quit}}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#89B4FA"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#A6E3A1"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))
)

// Model is the bubbletea model of the terminal dashboard.
type Model struct {
	surface *Surface
	title   string
	source  string

	snap    render.Snapshot
	lastErr error
	polled  bool

	width  int
	height int

	help     help.Model
	showHelp bool
}

// NewModel creates a model that follows surface. source is shown in the
// status bar.
func NewModel(surface *Surface, title, source string) Model {
	if title == "" {
		title = "Step Counter"
	}
	return Model{
		surface: surface,
		title:   title,
		source:  source,
		width:   80,
		height:  24,
		help:    help.New(),
	}
}

// Init starts listening for frames and poll results.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.surface.waitForFrame(),
		m.surface.waitForStatus(),
	)
}

// Update handles keys, resizes, and surface messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case frameMsg:
		m.snap = msg.snap
		return m, m.surface.waitForFrame()

	case statusMsg:
		m.polled = true
		m.lastErr = msg.err
		return m, m.surface.waitForStatus()
	}

	return m, nil
}

// View renders the title bar, the chart, and the footer.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar())
	b.WriteString("\n\n")

	chartHeight := max(0, m.height-4)
	b.WriteString(truncateLines(Plot(m.snap, m.width, chartHeight), m.width))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.help.View(keys))
	} else {
		b.WriteString(truncateLines(m.renderStatusBar(), m.width))
	}
	return b.String()
}

func (m Model) renderTitleBar() string {
	title := titleStyle.Render(m.title)

	stats := "waiting for data"
	if n := m.snap.Len(); n > 0 {
		stats = fmt.Sprintf("%d points | last %s at %ds",
			n, formatValue(m.snap.Data[n-1]), m.snap.Labels[n-1])
	}
	stats = dimStyle.Render(stats)

	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(title)-lipgloss.Width(stats)-2))
	return truncateLines(title+gap+stats, m.width)
}

func (m Model) renderStatusBar() string {
	var state string
	switch {
	case !m.polled:
		state = dimStyle.Render("connecting")
	case m.lastErr != nil:
		state = errStyle.Render("error: " + m.lastErr.Error())
	default:
		state = okStyle.Render("live")
	}
	return state + dimStyle.Render("  "+m.source+"  ? help")
}

// truncateLines clips every line to width visible cells.
func truncateLines(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}
