package visualization

import (
	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-socialgraph/pkg/physics"
)

// ForceDirectedLayout is the stable pre-pass: a radial seed around the root
// followed by headless ticks of the live force set, so the first rendered
// frame is already near equilibrium.
type ForceDirectedLayout struct {
	config *LayoutConfig
	root   uint64
	sizes  map[uint64]float64
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig, root uint64) *ForceDirectedLayout {
	if config.Iterations == 0 {
		config.Iterations = 300
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &ForceDirectedLayout{config: config, root: root}
}

// WithSizes sets node sizes. Without them sizes are derived from metrics
// using the configured size mode.
func (fdl *ForceDirectedLayout) WithSizes(sizes map[uint64]float64) *ForceDirectedLayout {
	fdl.sizes = sizes
	return fdl
}

// ComputeLayout computes positions and fits them to the canvas
func (fdl *ForceDirectedLayout) ComputeLayout(nodeIDs []uint64, edges []algorithms.EdgeRef) (map[uint64]Position, error) {
	if len(nodeIDs) == 0 {
		return make(map[uint64]Position), nil
	}

	// Single node - center it
	if len(nodeIDs) == 1 {
		return map[uint64]Position{
			nodeIDs[0]: {X: fdl.config.Width / 2, Y: fdl.config.Height / 2},
		}, nil
	}

	seed, err := NewRadialLayout(fdl.config, fdl.root).ComputeLayout(nodeIDs, edges)
	if err != nil {
		return nil, err
	}

	sizes := fdl.sizes
	if sizes == nil {
		metrics := algorithms.ComputeMetrics(nodeIDs, edges)
		sizes = make(map[uint64]float64, len(nodeIDs))
		for _, id := range nodeIDs {
			sizes[id] = nodeSize(metrics, id, fdl.config.Settings.NodeSizeMode)
		}
	}

	bodies := make([]physics.Body, len(nodeIDs))
	index := make(map[uint64]int, len(nodeIDs))
	for i, id := range nodeIDs {
		pos := seed[id]
		bodies[i] = physics.Body{ID: id, X: pos.X, Y: pos.Y, Size: sizes[id]}
		index[id] = i
	}

	springs := springsFor(index, edges)
	settle(bodies, springs, fdl.config.params(), fdl.config.Iterations)

	positions := make(map[uint64]Position, len(bodies))
	for _, b := range bodies {
		positions[b.ID] = b.Pos()
	}

	return normalizePositions(positions, fdl.config.Width, fdl.config.Height, fdl.config.Padding), nil
}

// settle runs up to ticks headless steps from a hot start and returns the
// resulting temperature.
func settle(bodies []physics.Body, springs []physics.Spring, p physics.Params, ticks int) *physics.Cooling {
	cooling := physics.NewCooling()
	physics.NewSimulation().Run(bodies, springs, cooling, p, ticks)
	return cooling
}
