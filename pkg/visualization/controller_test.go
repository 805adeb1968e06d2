package visualization

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-socialgraph/pkg/reveal"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	opts = append([]Option{WithClock(clock.Now), WithSeed(42), WithViewer(1)}, opts...)
	return NewController(DefaultLayoutConfig(), opts...), clock
}

func people(ids ...uint64) []NodeInput {
	nodes := make([]NodeInput, len(ids))
	for i, id := range ids {
		nodes[i] = NodeInput{ID: id, Label: string(rune('A' + i))}
	}
	return nodes
}

func rel(id, a, b uint64) EdgeInput {
	return EdgeInput{ID: id, Person1ID: a, Person2ID: b, Intensity: IntensityFriend}
}

// settleController ticks until the layout is at rest and every animation is
// over.
func settleController(t *testing.T, c *Controller, clock *fakeClock) Frame {
	t.Helper()
	var f Frame
	for i := 0; i < 5000; i++ {
		f = c.Tick(clock.Advance(16 * time.Millisecond))
		if f.Settled && c.RevealState() != reveal.Revealing && !c.entering() && !c.drawing(clock.now) {
			return c.Tick(clock.Advance(16 * time.Millisecond))
		}
	}
	t.Fatal("controller did not settle")
	return f
}

func TestController_MetricsScenario(t *testing.T) {
	c, _ := newTestController(t)

	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})
	frame := c.Tick(t0)

	wantDegree := map[uint64]int{1: 1, 2: 2, 3: 1}
	wantBetweenness := map[uint64]float64{1: 0, 2: 1, 3: 0}
	for _, n := range frame.Nodes {
		assert.Equal(t, wantDegree[n.ID], n.Degree, "degree of %d", n.ID)
		assert.InDelta(t, wantBetweenness[n.ID], n.Betweenness, 1e-12, "betweenness of %d", n.ID)
	}

	hub, _ := frame.Node(2)
	leaf, _ := frame.Node(1)
	assert.Greater(t, hub.Size, leaf.Size)
}

func TestController_RevealGatesNodesAndEdges(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})

	frame := c.Tick(clock.now)
	require.Equal(t, reveal.Revealing, frame.Reveal)
	viewer, _ := frame.Node(1)
	second, _ := frame.Node(2)
	assert.True(t, viewer.Visible, "viewer is visible immediately")
	assert.False(t, second.Visible)
	assert.Empty(t, frame.Edges, "no edge before both endpoints are visible")

	frame = c.Tick(clock.Advance(400 * time.Millisecond))
	require.Len(t, frame.Edges, 1)
	assert.Equal(t, uint64(1), frame.Edges[0].ID)
	assert.True(t, frame.Edges[0].Drawing)

	frame = c.Tick(clock.Advance(400 * time.Millisecond))
	assert.Equal(t, reveal.Complete, frame.Reveal)
	assert.Len(t, frame.Edges, 2)

	frame = c.Tick(clock.Advance(2 * time.Second))
	for _, e := range frame.Edges {
		assert.False(t, e.Drawing, "edge %d still drawing", e.ID)
	}
}

func TestController_HiddenEdgesAffectMetricsButNotFrames(t *testing.T) {
	c, clock := newTestController(t)
	hidden := rel(2, 2, 3)
	hidden.Intensity = IntensityHidden

	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), hidden})
	c.FinishReveal()
	frame := c.Tick(clock.now)

	require.Len(t, frame.Edges, 1)
	assert.Equal(t, uint64(1), frame.Edges[0].ID)

	n3, _ := frame.Node(3)
	assert.Equal(t, 1, n3.Degree)
	assert.True(t, n3.Visible)
}

func TestController_DropsEdgesWithUnknownEndpoints(t *testing.T) {
	c, clock := newTestController(t)

	c.RefreshData(people(1, 2), []EdgeInput{rel(1, 1, 2), rel(2, 2, 99), rel(3, 1, 1)})
	c.FinishReveal()
	frame := c.Tick(clock.now)

	require.Len(t, frame.Edges, 1)
	n2, _ := frame.Node(2)
	assert.Equal(t, 1, n2.Degree)
}

func TestController_UnchangedRefreshMovesNothing(t *testing.T) {
	c, clock := newTestController(t)
	nodes := people(1, 2, 3, 4)
	edges := []EdgeInput{rel(1, 1, 2), rel(2, 2, 3), rel(3, 3, 4), rel(4, 4, 1)}

	c.RefreshData(nodes, edges)
	before := settleController(t, c, clock)

	c.RefreshData(nodes, edges)
	after := c.Tick(clock.Advance(16 * time.Millisecond))

	assert.True(t, after.Settled, "unchanged data must not reheat")
	for _, n := range before.Nodes {
		m, ok := after.Node(n.ID)
		require.True(t, ok)
		assert.Equal(t, n.X, m.X, "node %d moved", n.ID)
		assert.Equal(t, n.Y, m.Y, "node %d moved", n.ID)
	}
}

func TestController_NewNodeSeededNearNeighbour(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})
	settled := settleController(t, c, clock)
	anchor, _ := settled.Node(3)

	c.RefreshData(people(1, 2, 3, 4), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3), rel(3, 3, 4)})
	assert.GreaterOrEqual(t, c.Alpha(), refreshAlpha)

	frame := c.Tick(clock.Advance(16 * time.Millisecond))
	added, ok := frame.Node(4)
	require.True(t, ok)
	assert.True(t, added.IsNew)
	assert.True(t, added.Visible, "reveal is over so new nodes show at once")

	dist := math.Hypot(added.X-anchor.X, added.Y-anchor.Y)
	assert.InDelta(t, DefaultSettings().LinkDistance/2, dist, 1e-9, "seeded at half the link distance")

	// Held still while entering.
	held := c.Tick(clock.Advance(200 * time.Millisecond))
	stillAdded, _ := held.Node(4)
	assert.Equal(t, added.X, stillAdded.X)
	assert.Equal(t, added.Y, stillAdded.Y)

	released := c.Tick(clock.Advance(entryDuration))
	n4, _ := released.Node(4)
	assert.False(t, n4.IsNew)
}

func TestController_RemovedNodesArePurged(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})
	settleController(t, c, clock)

	c.RefreshData(people(1, 2), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})
	frame := c.Tick(clock.Advance(16 * time.Millisecond))

	_, ok := frame.Node(3)
	assert.False(t, ok)
	assert.Len(t, frame.Nodes, 2)
	assert.Len(t, frame.Edges, 1)
	assert.Len(t, c.Positions(), 2)
}

func TestController_RefreshMidRevealEndsReveal(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})
	require.Equal(t, reveal.Revealing, c.RevealState())

	c.RefreshData(people(1, 2, 3, 4), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})

	assert.Equal(t, reveal.Complete, c.RevealState())
	frame := c.Tick(clock.Advance(time.Millisecond))
	for _, n := range frame.Nodes {
		assert.True(t, n.Visible, "node %d hidden after reveal ended", n.ID)
	}
}

func TestController_SettledTickReturnsSameFrame(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2), []EdgeInput{rel(1, 1, 2)})
	settled := settleController(t, c, clock)

	again := c.Tick(clock.Advance(time.Second))

	assert.Equal(t, settled.Seq, again.Seq)
}

func TestController_Reset(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2, 3, 4), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})
	settleController(t, c, clock)
	require.True(t, c.Pin(2, Position{X: 10, Y: 10}))

	c.Reset()

	assert.Equal(t, 1.0, c.Alpha())
	cfg := DefaultLayoutConfig()
	center := Position{X: cfg.Width / 2, Y: cfg.Height / 2}
	radius := math.Min(center.X, center.Y) - cfg.Padding
	for id, pos := range c.Positions() {
		assert.InDelta(t, radius, distance(pos, center), 1e-9, "node %d not on the circle", id)
	}

	frame := c.Tick(clock.Advance(16 * time.Millisecond))
	n2, _ := frame.Node(2)
	assert.False(t, n2.Pinned, "reset releases pins")
}

func TestController_PinAndRelease(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})
	settleController(t, c, clock)

	pin := Position{X: 100, Y: 120}
	require.True(t, c.Pin(2, pin))
	assert.False(t, c.Pin(99, pin))

	for i := 0; i < 50; i++ {
		c.Tick(clock.Advance(16 * time.Millisecond))
	}
	frame := c.Snapshot()
	n2, _ := frame.Node(2)
	assert.Equal(t, pin.X, n2.X)
	assert.Equal(t, pin.Y, n2.Y)
	assert.True(t, n2.Pinned)

	require.True(t, c.Release(2))
	assert.GreaterOrEqual(t, c.Alpha(), releaseAlpha)
	assert.False(t, c.Release(99))
}

func TestController_SettingsNudgeWithoutMoving(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})
	settleController(t, c, clock)
	before := c.Positions()

	c.SetRepulsion(2000)
	c.SetLinkDistance(120)

	assert.InDelta(t, settingsAlpha, c.Alpha(), 1e-12)
	assert.Equal(t, before, c.Positions(), "settings must not move nodes by themselves")
	assert.Equal(t, 2000.0, c.Settings().RepulsionStrength)
	assert.Equal(t, 120.0, c.Settings().LinkDistance)
}

func TestController_SizeMode(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2, 3), []EdgeInput{rel(1, 1, 2), rel(2, 2, 3)})

	tests := []struct {
		mode SizeMode
		leaf float64
	}{
		{SizeByConnections, 22},
		{SizeByBetweenness, minNodeSize},
		{SizeByBoth, 15},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			c.SetSizeMode(tt.mode)
			frame := c.Tick(clock.Advance(16 * time.Millisecond))

			leaf, _ := frame.Node(1)
			hub, _ := frame.Node(2)
			assert.InDelta(t, tt.leaf, leaf.Size, 1e-9)
			assert.InDelta(t, maxNodeSize, hub.Size, 1e-9)
		})
	}
}

func TestController_EmptyRefreshClears(t *testing.T) {
	c, clock := newTestController(t)
	c.RefreshData(people(1, 2), []EdgeInput{rel(1, 1, 2)})
	c.Tick(clock.now)

	c.RefreshData(nil, nil)
	frame := c.Tick(clock.Advance(16 * time.Millisecond))

	assert.Empty(t, frame.Nodes)
	assert.Empty(t, frame.Edges)
	assert.Equal(t, reveal.NotStarted, frame.Reveal)
	assert.True(t, frame.Settled)

	// A later load counts as fresh and reveals again.
	c.RefreshData(people(5, 6), []EdgeInput{rel(9, 5, 6)})
	assert.Equal(t, reveal.Revealing, c.RevealState())
}

func TestController_EmptyController(t *testing.T) {
	c, clock := newTestController(t)

	frame := c.Tick(clock.now)

	assert.Empty(t, frame.Nodes)
	assert.Zero(t, c.Crossings())
	assert.Nil(t, c.Metrics())
	c.Reset()
	c.SetRepulsion(100)
	assert.True(t, c.Tick(clock.now).Settled)
}

func TestController_AbsentViewerStillReveals(t *testing.T) {
	c, clock := newTestController(t, WithViewer(404))
	c.RefreshData(people(1, 2), []EdgeInput{rel(1, 1, 2)})

	frame := c.Tick(clock.now)
	n1, _ := frame.Node(1)
	assert.True(t, n1.Visible, "first node is released at once when the viewer is absent")

	frame = c.Tick(clock.Advance(time.Second))
	assert.Equal(t, reveal.Complete, frame.Reveal)
}

type countingRecorder struct {
	ticks, refreshes, reveals, crossings int
}

func (r *countingRecorder) RecordTick(time.Duration, float64, int, int) { r.ticks++ }
func (r *countingRecorder) RecordRefresh(bool, int, int)                { r.refreshes++ }
func (r *countingRecorder) RecordReveal(string, float64)                { r.reveals++ }
func (r *countingRecorder) RecordCrossings(int)                         { r.crossings++ }

func TestController_Recorder(t *testing.T) {
	rec := &countingRecorder{}
	c, clock := newTestController(t, WithRecorder(rec))

	c.RefreshData(people(1, 2), []EdgeInput{rel(1, 1, 2)})
	settleController(t, c, clock)

	assert.Equal(t, 1, rec.refreshes)
	assert.Positive(t, rec.ticks)
	assert.Equal(t, rec.ticks, rec.reveals)
	assert.Positive(t, rec.crossings)
}
