package visualization

import (
	"math"
	"math/rand"
	"time"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
	"github.com/dd0wney/cluso-socialgraph/pkg/physics"
	"github.com/dd0wney/cluso-socialgraph/pkg/reveal"
)

const (
	entryDuration = 600 * time.Millisecond
	drawDuration  = 800 * time.Millisecond

	refreshAlpha  = 0.3
	settingsAlpha = 0.3
	releaseAlpha  = 0.3
	resetAlpha    = 1.0

	routeStrength = 1.0
)

type nodeMeta struct {
	label       string
	degree      int
	betweenness float64
	pinned      bool
	isNew       bool
	enteredAt   time.Time
}

type edgeMeta struct {
	input          EdgeInput
	source, target int
}

// Controller owns the persistent layout: an arena of bodies indexed by
// position in ids, the springs between them, the cooling schedule and the
// reveal. It is not safe for concurrent use; Engine serialises access.
type Controller struct {
	config   LayoutConfig
	params   physics.Params
	sim      *physics.Simulation
	cooling  *physics.Cooling
	reveal   *reveal.Scheduler
	circular *CircularLayout

	ids     []uint64
	index   map[uint64]int
	bodies  []physics.Body
	meta    []nodeMeta
	edges   []edgeMeta
	springs []physics.Spring
	metrics *algorithms.MetricsResult

	topology  map[algorithms.EdgeRef]int
	edgeSince map[uint64]time.Time

	viewer   uint64
	logger   logging.Logger
	recorder Recorder
	now      func() time.Time
	rng      *rand.Rand

	dirty        bool
	lastAnimated bool
	wasSettled   bool
	seq          uint64
	last         Frame
}

// NewController creates an empty controller. Zero config fields take
// defaults.
func NewController(cfg LayoutConfig, opts ...Option) *Controller {
	cfg.applyDefaults()

	c := &Controller{
		config:    cfg,
		params:    cfg.params(),
		sim:       physics.NewSimulation(),
		cooling:   physics.NewCooling(),
		reveal:    reveal.NewScheduler(cfg.Reveal),
		index:     make(map[uint64]int),
		topology:  make(map[algorithms.EdgeRef]int),
		edgeSince: make(map[uint64]time.Time),
		logger:    logging.NewNopLogger(),
		recorder:  nopRecorder{},
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		last:      Frame{Settled: true, Nodes: []NodeView{}, Edges: []EdgeView{}},
	}
	c.circular = NewCircularLayout(&c.config)
	c.cooling.Restart(0)

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logging.Component("layout"))

	return c
}

// RefreshData replaces the graph. Surviving nodes keep position and
// velocity, removed nodes are dropped and new nodes are seeded next to a
// positioned neighbour or on the circle. The first non-empty load runs the
// stable pre-pass and starts the reveal; later loads that change the graph
// reheat the simulation and hold new nodes still for their entry animation.
// Edges with unknown endpoints or identical endpoints are ignored.
func (c *Controller) RefreshData(nodes []NodeInput, edges []EdgeInput) {
	now := c.now()

	if len(nodes) == 0 {
		c.clear()
		c.recorder.RecordRefresh(true, 0, 0)
		return
	}

	ids := make([]uint64, 0, len(nodes))
	labels := make(map[uint64]string, len(nodes))
	for _, n := range nodes {
		if _, dup := labels[n.ID]; dup {
			continue
		}
		labels[n.ID] = n.Label
		ids = append(ids, n.ID)
	}

	valid := make([]EdgeInput, 0, len(edges))
	refs := make([]algorithms.EdgeRef, 0, len(edges))
	for _, e := range edges {
		_, okA := labels[e.Person1ID]
		_, okB := labels[e.Person2ID]
		if !okA || !okB || e.Person1ID == e.Person2ID {
			c.logger.Debug("dropping relationship", logging.EdgeID(e.ID))
			continue
		}
		valid = append(valid, e)
		refs = append(refs, algorithms.EdgeRef{ID: e.ID, Source: e.Person1ID, Target: e.Person2ID})
	}

	first := len(c.bodies) == 0
	changed := c.updateTopology(ids, refs)
	metrics := algorithms.ComputeMetrics(ids, refs)

	index := make(map[uint64]int, len(ids))
	bodies := make([]physics.Body, len(ids))
	meta := make([]nodeMeta, len(ids))
	var fresh []int

	for i, id := range ids {
		index[id] = i
		if j, ok := c.index[id]; ok {
			bodies[i] = c.bodies[j]
			meta[i] = c.meta[j]
		} else {
			bodies[i] = physics.Body{ID: id}
			fresh = append(fresh, i)
		}

		m := metrics.Get(id)
		meta[i].label = labels[id]
		meta[i].degree = m.Degree
		meta[i].betweenness = m.Betweenness
		bodies[i].Size = nodeSize(metrics, id, c.config.Settings.NodeSizeMode)
	}

	c.ids, c.index, c.bodies, c.meta, c.metrics = ids, index, bodies, meta, metrics
	c.springs = springsFor(index, refs)
	c.edges = make([]edgeMeta, len(valid))
	for i, e := range valid {
		c.edges[i] = edgeMeta{input: e, source: index[e.Person1ID], target: index[e.Person2ID]}
	}
	c.pruneEdgeSince()

	switch {
	case first:
		c.prePass(now, refs)
	case changed:
		c.seedNew(fresh, now)
		c.cooling.Reheat(refreshAlpha)
		if c.reveal.State() == reveal.Revealing {
			// A new dataset mid-reveal ends the reveal instead of restarting it.
			c.reveal.Complete()
			c.logger.Info("reveal superseded by data refresh", logging.Generation(c.reveal.Generation()))
		}
	}

	c.dirty = true
	c.recorder.RecordRefresh(changed, len(ids), len(c.edges))
	c.logger.Debug("data refreshed",
		logging.Count(len(ids)),
		logging.Int("edges", len(c.edges)),
		logging.Int("new", len(fresh)),
		logging.Bool("changed", changed))
}

// updateTopology records the node and edge sets and reports whether they
// differ from the previous refresh.
func (c *Controller) updateTopology(ids []uint64, refs []algorithms.EdgeRef) bool {
	next := make(map[algorithms.EdgeRef]int, len(ids)+len(refs))
	for _, id := range ids {
		next[algorithms.EdgeRef{Source: id, Target: id}]++
	}
	for _, r := range refs {
		if r.Source > r.Target {
			r.Source, r.Target = r.Target, r.Source
		}
		next[r]++
	}

	changed := len(next) != len(c.topology)
	if !changed {
		for k, n := range next {
			if c.topology[k] != n {
				changed = true
				break
			}
		}
	}
	c.topology = next
	return changed
}

// prePass seeds every node radially around the viewer, settles the layout
// headlessly and starts the reveal.
func (c *Controller) prePass(now time.Time, refs []algorithms.EdgeRef) {
	timer := logging.StartTimer(c.logger, "stable pre-pass", logging.Count(len(c.ids)))
	defer timer.EndDebug()

	seed, _ := NewRadialLayout(&c.config, c.viewer).ComputeLayout(c.ids, refs)
	for i, id := range c.ids {
		pos := seed[id]
		c.bodies[i].X, c.bodies[i].Y = pos.X, pos.Y
		c.bodies[i].Vx, c.bodies[i].Vy = 0, 0
		c.bodies[i].Fixed = false
	}

	cooling := settle(c.bodies, c.springs, c.params, c.config.Iterations)
	c.cooling.Restart(cooling.Alpha)
	for i := range c.bodies {
		c.bodies[i].Vx, c.bodies[i].Vy = 0, 0
	}

	waves := algorithms.BFSWaves(c.ids, refs, c.viewer)
	gen := c.reveal.Start(now, waves, c.viewer)
	c.logger.Info("reveal started",
		logging.Generation(gen),
		logging.Int("waves", len(waves)),
		logging.NodeID(c.viewer))
}

// seedNew places fresh nodes next to an already positioned neighbour, or on
// the circle when they have none, and holds them still while they enter.
func (c *Controller) seedNew(fresh []int, now time.Time) {
	if len(fresh) == 0 {
		return
	}

	placed := make([]bool, len(c.bodies))
	for i := range placed {
		placed[i] = true
	}
	for _, i := range fresh {
		placed[i] = false
	}

	neighbours := make([][]int, len(c.bodies))
	for _, s := range c.springs {
		neighbours[s.Source] = append(neighbours[s.Source], s.Target)
		neighbours[s.Target] = append(neighbours[s.Target], s.Source)
	}

	radius := c.config.Settings.LinkDistance / 2
	for _, i := range fresh {
		pos := c.circular.slot(i, len(c.bodies))
		for _, nb := range neighbours[i] {
			if !placed[nb] {
				continue
			}
			angle := c.rng.Float64() * 2 * math.Pi
			pos = Position{
				X: c.bodies[nb].X + radius*math.Cos(angle),
				Y: c.bodies[nb].Y + radius*math.Sin(angle),
			}
			break
		}

		b := &c.bodies[i]
		b.X, b.Y = pos.X, pos.Y
		b.Vx, b.Vy = 0, 0
		b.Fixed = true
		c.meta[i].isNew = true
		c.meta[i].enteredAt = now
		placed[i] = true
	}
}

func (c *Controller) clear() {
	c.ids = nil
	c.index = make(map[uint64]int)
	c.bodies = nil
	c.meta = nil
	c.edges = nil
	c.springs = nil
	c.metrics = nil
	c.topology = make(map[algorithms.EdgeRef]int)
	c.edgeSince = make(map[uint64]time.Time)
	c.reveal.Clear()
	c.cooling.Restart(0)
	c.dirty = true
	c.logger.Info("graph cleared")
}

func (c *Controller) pruneEdgeSince() {
	live := make(map[uint64]bool, len(c.edges))
	for _, e := range c.edges {
		live[e.input.ID] = true
	}
	for id := range c.edgeSince {
		if !live[id] {
			delete(c.edgeSince, id)
		}
	}
}

// Reset reseeds every node on the circle, drops pins and restarts the
// simulation at full temperature.
func (c *Controller) Reset() {
	for i := range c.bodies {
		pos := c.circular.slot(i, len(c.bodies))
		b := &c.bodies[i]
		b.X, b.Y = pos.X, pos.Y
		b.Vx, b.Vy = 0, 0
		b.Fixed = false
		c.meta[i].pinned = false
		c.meta[i].isNew = false
	}
	if len(c.bodies) > 0 {
		c.cooling.Restart(resetAlpha)
	}
	c.dirty = true
	c.logger.Info("layout reset", logging.Count(len(c.bodies)))
}

// Settings returns the current layout settings.
func (c *Controller) Settings() Settings {
	return c.config.Settings
}

// SetRepulsion changes the pairwise repulsion and nudges the simulation.
func (c *Controller) SetRepulsion(v float64) {
	c.config.Settings.RepulsionStrength = v
	c.params.RepulsionStrength = v
	c.nudge()
}

// SetLinkDistance changes the spring rest length and nudges the simulation.
func (c *Controller) SetLinkDistance(v float64) {
	c.config.Settings.LinkDistance = v
	c.params.LinkDistance = v
	c.nudge()
}

// SetSizeMode changes which metric drives node size.
func (c *Controller) SetSizeMode(m SizeMode) {
	c.config.Settings.NodeSizeMode = m
	c.resize()
	c.nudge()
}

// ApplySettings replaces all settings at once.
func (c *Controller) ApplySettings(s Settings) {
	c.config.Settings = s
	c.params.RepulsionStrength = s.RepulsionStrength
	c.params.LinkDistance = s.LinkDistance
	c.resize()
	c.nudge()
}

func (c *Controller) resize() {
	if c.metrics == nil {
		return
	}
	for i, id := range c.ids {
		c.bodies[i].Size = nodeSize(c.metrics, id, c.config.Settings.NodeSizeMode)
	}
}

// nudge warms the simulation without touching positions.
func (c *Controller) nudge() {
	if len(c.bodies) > 0 {
		c.cooling.Reheat(settingsAlpha)
	}
	c.dirty = true
}

// Pin holds id at pos until Release. It reports whether id exists.
func (c *Controller) Pin(id uint64, pos Position) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	b := &c.bodies[i]
	b.X, b.Y = pos.X, pos.Y
	b.Vx, b.Vy = 0, 0
	b.Fixed = true
	c.meta[i].pinned = true
	c.cooling.Reheat(releaseAlpha)
	c.dirty = true
	return true
}

// Release lets a pinned node move again. It reports whether id exists.
func (c *Controller) Release(id uint64) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.meta[i].pinned = false
	c.bodies[i].Fixed = c.meta[i].isNew
	c.cooling.Reheat(releaseAlpha)
	c.dirty = true
	return true
}

// FinishReveal ends any reveal in progress so every node is visible.
func (c *Controller) FinishReveal() {
	if c.reveal.State() != reveal.Complete && len(c.bodies) > 0 {
		c.reveal.Complete()
		c.dirty = true
	}
}

// Tick advances the layout to now and returns the frame. When the
// simulation has settled and nothing is animating the previous frame is
// returned without doing any work.
func (c *Controller) Tick(now time.Time) Frame {
	animating := c.lastAnimated || c.reveal.State() == reveal.Revealing || c.entering() || c.drawing(now)
	if c.cooling.Settled() && !animating && !c.dirty {
		return c.last
	}

	start := time.Now()
	if len(c.bodies) > 0 && !c.cooling.Settled() {
		c.sim.Tick(c.bodies, c.springs, c.cooling, c.params)
	}
	c.releaseEntries(now)

	if released := c.reveal.Advance(now); len(released) > 0 {
		c.logger.Debug("nodes revealed", logging.Count(len(released)), logging.Generation(c.reveal.Generation()))
	}

	c.last = c.buildFrame(now)
	c.dirty = false
	c.lastAnimated = c.last.animated()

	c.recorder.RecordTick(time.Since(start), c.cooling.Alpha, len(c.bodies), len(c.last.Edges))
	c.recorder.RecordReveal(c.reveal.State().String(), c.reveal.Progress())
	settled := c.cooling.Settled()
	if settled {
		crossings := c.Crossings()
		c.recorder.RecordCrossings(crossings)
		if !c.wasSettled {
			c.logger.Debug("layout settled",
				logging.Alpha(c.cooling.Alpha),
				logging.Count(len(c.bodies)),
				logging.Int("crossings", crossings))
		}
	}
	c.wasSettled = settled
	return c.last
}

func (c *Controller) entering() bool {
	for i := range c.meta {
		if c.meta[i].isNew {
			return true
		}
	}
	return false
}

func (c *Controller) drawing(now time.Time) bool {
	for _, since := range c.edgeSince {
		if now.Sub(since) < drawDuration {
			return true
		}
	}
	return false
}

func (c *Controller) releaseEntries(now time.Time) {
	for i := range c.meta {
		m := &c.meta[i]
		if m.isNew && now.Sub(m.enteredAt) >= entryDuration {
			m.isNew = false
			c.bodies[i].Fixed = m.pinned
		}
	}
}

func (c *Controller) buildFrame(now time.Time) Frame {
	c.seq++
	frame := Frame{
		Seq:      c.seq,
		Alpha:    c.cooling.Alpha,
		Settled:  c.cooling.Settled(),
		Reveal:   c.reveal.State(),
		Progress: c.reveal.Progress(),
		Nodes:    make([]NodeView, len(c.bodies)),
		Edges:    make([]EdgeView, 0, len(c.edges)),
	}

	visible := make([]bool, len(c.bodies))
	obstacles := make([]Obstacle, 0, len(c.bodies))
	for i, b := range c.bodies {
		visible[i] = c.reveal.IsVisible(b.ID)
		m := c.meta[i]
		frame.Nodes[i] = NodeView{
			ID:          b.ID,
			Label:       m.label,
			X:           b.X,
			Y:           b.Y,
			Size:        b.Size,
			Degree:      m.degree,
			Betweenness: m.betweenness,
			Visible:     visible[i],
			IsNew:       m.isNew,
			Pinned:      m.pinned,
		}
		if visible[i] {
			obstacles = append(obstacles, Obstacle{ID: b.ID, Position: b.Pos(), Size: b.Size})
		}
	}

	around := make([]Obstacle, 0, len(obstacles))
	for _, e := range c.edges {
		if !e.input.Intensity.Rendered() || !visible[e.source] || !visible[e.target] {
			continue
		}

		since, ok := c.edgeSince[e.input.ID]
		if !ok {
			since = now
			c.edgeSince[e.input.ID] = now
		}

		a, b := c.bodies[e.source], c.bodies[e.target]
		around = around[:0]
		for _, ob := range obstacles {
			if ob.ID != a.ID && ob.ID != b.ID {
				around = append(around, ob)
			}
		}

		frame.Edges = append(frame.Edges, EdgeView{
			ID:        e.input.ID,
			Source:    a.ID,
			Target:    b.ID,
			Intensity: e.input.Intensity,
			Pending:   e.input.Pending,
			Path:      RouteCurve(a.Pos(), b.Pos(), around, routeStrength),
			Drawing:   now.Sub(since) < drawDuration,
		})
	}

	return frame
}

// Snapshot returns the most recent frame.
func (c *Controller) Snapshot() Frame {
	return c.last
}

// Crossings counts intersecting chords among all springs, hidden ones
// included.
func (c *Controller) Crossings() int {
	return physics.CountCrossings(c.bodies, c.springs)
}

// Positions returns a copy of every node position.
func (c *Controller) Positions() map[uint64]Position {
	out := make(map[uint64]Position, len(c.bodies))
	for _, b := range c.bodies {
		out[b.ID] = b.Pos()
	}
	return out
}

// Alpha returns the current simulation temperature.
func (c *Controller) Alpha() float64 {
	return c.cooling.Alpha
}

// RevealState returns the reveal lifecycle state.
func (c *Controller) RevealState() reveal.State {
	return c.reveal.State()
}

// Viewer returns the person the reveal starts from.
func (c *Controller) Viewer() uint64 {
	return c.viewer
}

// Metrics returns the metrics from the last refresh, or nil before any data.
func (c *Controller) Metrics() *algorithms.MetricsResult {
	return c.metrics
}
