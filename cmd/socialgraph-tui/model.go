package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-socialgraph/pkg/physics"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

const (
	repulsionStep    = 100
	maxRepulsion     = 10000
	distanceStep     = 10
	minLinkDistance  = 10
	maxLinkDistance  = 500
	sidebarWidth     = 30
	minCanvasColumns = 20
	minCanvasRows    = 8
	topPeople        = 5
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(1)

	canvasStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444"))

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1).
			Width(sidebarWidth - 2)

	nodeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	newNodeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFF00"))
	pinnedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	edgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	strongStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AF87FF"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5F5F5F")).Faint(true)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginLeft(1)
)

type tickMsg time.Time

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	ctrl     *visualization.Controller
	frame    visualization.Frame
	interval time.Duration
	keys     keyMap
	help     help.Model
	width    int
	height   int
}

func newModel(ctrl *visualization.Controller, interval time.Duration) model {
	return model{
		ctrl:     ctrl,
		frame:    ctrl.Snapshot(),
		interval: interval,
		keys:     keys,
		help:     help.New(),
		width:    100,
		height:   30,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.frame = m.ctrl.Tick(time.Time(msg))
		return m, tickCmd(m.interval)

	case tea.KeyMsg:
		s := m.ctrl.Settings()
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Reset):
			m.ctrl.Reset()
		case key.Matches(msg, m.keys.Finish):
			m.ctrl.FinishReveal()
		case key.Matches(msg, m.keys.RepulsionUp):
			m.ctrl.SetRepulsion(physics.Clamp(s.RepulsionStrength+repulsionStep, 0, maxRepulsion))
		case key.Matches(msg, m.keys.RepulsionDown):
			m.ctrl.SetRepulsion(physics.Clamp(s.RepulsionStrength-repulsionStep, 0, maxRepulsion))
		case key.Matches(msg, m.keys.DistanceUp):
			m.ctrl.SetLinkDistance(physics.Clamp(s.LinkDistance+distanceStep, minLinkDistance, maxLinkDistance))
		case key.Matches(msg, m.keys.DistanceDown):
			m.ctrl.SetLinkDistance(physics.Clamp(s.LinkDistance-distanceStep, minLinkDistance, maxLinkDistance))
		case key.Matches(msg, m.keys.SizeMode):
			m.ctrl.SetSizeMode(nextSizeMode(s.NodeSizeMode))
		}
	}
	return m, nil
}

func nextSizeMode(mode visualization.SizeMode) visualization.SizeMode {
	switch mode {
	case visualization.SizeByConnections:
		return visualization.SizeByBetweenness
	case visualization.SizeByBetweenness:
		return visualization.SizeByBoth
	default:
		return visualization.SizeByConnections
	}
}

func (m model) View() string {
	cols := max(m.width-sidebarWidth-4, minCanvasColumns)
	rows := max(m.height-6, minCanvasRows)

	canvas := canvasStyle.Render(drawFrame(m.frame, cols, rows))
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas, " ", m.sidebar())

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Social graph"),
		body,
		helpStyle.Render(m.help.View(m.keys)),
	)
}

func (m model) sidebar() string {
	s := m.ctrl.Settings()
	var b strings.Builder
	fmt.Fprintf(&b, "alpha      %.3f\n", m.frame.Alpha)
	fmt.Fprintf(&b, "reveal     %s %.0f%%\n", m.frame.Reveal, m.frame.Progress*100)
	fmt.Fprintf(&b, "people     %d\n", len(m.frame.VisibleNodes()))
	fmt.Fprintf(&b, "links      %d\n", len(m.frame.Edges))
	fmt.Fprintf(&b, "repulsion  %.0f\n", s.RepulsionStrength)
	fmt.Fprintf(&b, "distance   %.0f\n", s.LinkDistance)
	fmt.Fprintf(&b, "size       %s\n", s.NodeSizeMode)

	b.WriteString("\nbrokers\n")
	scores := make(map[uint64]float64, len(m.frame.Nodes))
	for _, n := range m.frame.VisibleNodes() {
		scores[n.ID] = n.Betweenness
	}
	for _, r := range algorithms.TopNodes(scores, topPeople) {
		n, _ := m.frame.Node(r.NodeID)
		fmt.Fprintf(&b, "%-14.14s %6.1f\n", n.Label, r.Score)
	}
	return statsBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
