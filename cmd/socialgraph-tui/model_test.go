package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

var start = time.Unix(1_700_000_000, 0)

func testModel(t *testing.T) model {
	t.Helper()
	ctrl := visualization.NewController(visualization.DefaultLayoutConfig(),
		visualization.WithSeed(3),
		visualization.WithViewer(1),
		visualization.WithClock(func() time.Time { return start }))
	ctrl.RefreshData(
		[]visualization.NodeInput{{ID: 1, Label: "Ada"}, {ID: 2, Label: "Bo"}, {ID: 3, Label: "Cy"}},
		[]visualization.EdgeInput{
			{ID: 10, Person1ID: 1, Person2ID: 2, Intensity: visualization.IntensityFriend},
			{ID: 11, Person1ID: 2, Person2ID: 3, Intensity: visualization.IntensityClose},
		})
	return newModel(ctrl, time.Second/30)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_TickAdvancesFrame(t *testing.T) {
	m := testModel(t)
	require.NotNil(t, m.Init())

	var cmd tea.Cmd
	for i := 1; i <= 120; i++ {
		m, cmd = update(t, m, tickMsg(start.Add(time.Duration(i)*16*time.Millisecond)))
		require.NotNil(t, cmd, "every tick schedules the next one")
	}

	assert.Len(t, m.frame.VisibleNodes(), 3)
	assert.NotZero(t, m.frame.Seq)
}

func TestModel_SettingsKeys(t *testing.T) {
	m := testModel(t)
	base := m.ctrl.Settings()

	m, _ = update(t, m, runes("+"))
	m, _ = update(t, m, runes("+"))
	m, _ = update(t, m, runes("-"))
	assert.Equal(t, base.RepulsionStrength+repulsionStep, m.ctrl.Settings().RepulsionStrength)

	m, _ = update(t, m, runes(">"))
	assert.Equal(t, base.LinkDistance+distanceStep, m.ctrl.Settings().LinkDistance)

	for i := 0; i < 100; i++ {
		m, _ = update(t, m, runes("<"))
	}
	assert.Equal(t, float64(minLinkDistance), m.ctrl.Settings().LinkDistance, "link distance is clamped")

	m, _ = update(t, m, runes("s"))
	assert.Equal(t, nextSizeMode(base.NodeSizeMode), m.ctrl.Settings().NodeSizeMode)
}

func TestModel_FinishAndReset(t *testing.T) {
	m := testModel(t)

	m, _ = update(t, m, runes("f"))
	m, _ = update(t, m, tickMsg(start.Add(time.Millisecond)))
	assert.Len(t, m.frame.VisibleNodes(), 3, "finishing the reveal shows everyone")

	m, _ = update(t, m, runes("r"))
	m, _ = update(t, m, tickMsg(start.Add(2*time.Millisecond)))
	assert.Len(t, m.frame.Nodes, 3)
}

func TestModel_Quit(t *testing.T) {
	m := testModel(t)

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_View(t *testing.T) {
	m := testModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 90, Height: 30})
	m, _ = update(t, m, runes("f"))
	m, _ = update(t, m, tickMsg(start.Add(time.Millisecond)))

	view := m.View()
	assert.Contains(t, view, "Social graph")
	assert.Contains(t, view, "repulsion")
	assert.Contains(t, view, "brokers")
	assert.Contains(t, view, "Bo")
}

func TestNextSizeMode(t *testing.T) {
	assert.Equal(t, visualization.SizeByBetweenness, nextSizeMode(visualization.SizeByConnections))
	assert.Equal(t, visualization.SizeByBoth, nextSizeMode(visualization.SizeByBetweenness))
	assert.Equal(t, visualization.SizeByConnections, nextSizeMode(visualization.SizeByBoth))
}

func TestDrawFrame(t *testing.T) {
	frame := visualization.Frame{
		Nodes: []visualization.NodeView{
			{ID: 1, Label: "Ada", X: 0, Y: 0, Visible: true},
			{ID: 2, Label: "Bo", X: 100, Y: 100, Visible: true},
			{ID: 3, Label: "Hidden", X: 50, Y: 50},
		},
		Edges: []visualization.EdgeView{{
			ID: 9, Source: 1, Target: 2, Intensity: visualization.IntensityFriend,
			Path: visualization.CubicPath{
				From: visualization.Position{X: 0, Y: 0},
				C1:   visualization.Position{X: 33, Y: 33},
				C2:   visualization.Position{X: 66, Y: 66},
				To:   visualization.Position{X: 100, Y: 100},
			},
		}},
	}

	out := drawFrame(frame, 20, 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 10)

	assert.Contains(t, lines[0], "A")
	assert.Contains(t, lines[9], "B")
	assert.Contains(t, out, "·")
	assert.NotContains(t, out, "H")
}

func TestDrawFrame_Empty(t *testing.T) {
	out := drawFrame(visualization.Frame{}, minCanvasColumns, minCanvasRows)
	assert.Len(t, strings.Split(out, "\n"), minCanvasRows)
	assert.Empty(t, strings.TrimSpace(out))
}
