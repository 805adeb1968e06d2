package visualization

import (
	"math"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
)

// HierarchicalLayout arranges BFS levels from a root in horizontal rows
type HierarchicalLayout struct {
	config *LayoutConfig
	root   uint64
}

// NewHierarchicalLayout creates a new hierarchical layout rooted at root
func NewHierarchicalLayout(config *LayoutConfig, root uint64) *HierarchicalLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &HierarchicalLayout{config: config, root: root}
}

// ComputeLayout arranges nodes hierarchically
func (hl *HierarchicalLayout) ComputeLayout(nodeIDs []uint64, edges []algorithms.EdgeRef) (map[uint64]Position, error) {
	positions := make(map[uint64]Position, len(nodeIDs))

	levels := algorithms.BFSWaves(nodeIDs, edges, hl.root)
	if len(levels) == 0 {
		return positions, nil
	}

	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)

		for nodeIdx, nodeID := range level {
			x := hl.config.Padding + spacing*float64(nodeIdx+1)
			positions[nodeID] = Position{X: x, Y: y}
		}
	}

	return positions, nil
}

// RadialLayout places the root at the canvas centre and each following BFS
// level on a ring of growing radius. It seeds the stable pre-pass so the
// first frame already reads outward from the viewer.
type RadialLayout struct {
	config    *LayoutConfig
	root      uint64
	ringWidth float64
}

// NewRadialLayout creates a radial layout rooted at root. Rings are spaced by
// the configured link distance.
func NewRadialLayout(config *LayoutConfig, root uint64) *RadialLayout {
	ringWidth := config.Settings.LinkDistance
	if ringWidth <= 0 {
		ringWidth = DefaultSettings().LinkDistance
	}
	return &RadialLayout{config: config, root: root, ringWidth: ringWidth}
}

// ComputeLayout arranges nodes on concentric rings
func (rl *RadialLayout) ComputeLayout(nodeIDs []uint64, edges []algorithms.EdgeRef) (map[uint64]Position, error) {
	positions := make(map[uint64]Position, len(nodeIDs))

	levels := algorithms.BFSWaves(nodeIDs, edges, rl.root)
	center := Position{X: rl.config.Width / 2, Y: rl.config.Height / 2}

	// Stagger crowded rings by half a slot so spokes do not line up. A lone
	// node keeps the previous heading.
	offset := 0.0
	for levelIdx, level := range levels {
		if levelIdx == 0 {
			positions[level[0]] = center
			continue
		}

		radius := rl.ringWidth * float64(levelIdx)
		step := 2 * math.Pi / float64(len(level))

		for i, nodeID := range level {
			angle := offset + float64(i)*step
			positions[nodeID] = Position{
				X: center.X + radius*math.Cos(angle),
				Y: center.Y + radius*math.Sin(angle),
			}
		}
		if len(level) > 1 {
			offset += step / 2
		}
	}

	return positions, nil
}
