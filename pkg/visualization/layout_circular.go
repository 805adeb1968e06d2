package visualization

import (
	"math"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
)

// CircularLayout arranges nodes in a circle
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &CircularLayout{config: config}
}

// ComputeLayout arranges nodes in a circle in input order. Edges are ignored.
func (cl *CircularLayout) ComputeLayout(nodeIDs []uint64, _ []algorithms.EdgeRef) (map[uint64]Position, error) {
	positions := make(map[uint64]Position, len(nodeIDs))

	for i, nodeID := range nodeIDs {
		positions[nodeID] = cl.slot(i, len(nodeIDs))
	}

	return positions, nil
}

// slot returns the position of index i out of n on the circle.
func (cl *CircularLayout) slot(i, n int) Position {
	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2

	if n == 1 {
		return Position{X: centerX, Y: centerY}
	}

	radius := math.Max(math.Min(centerX, centerY)-cl.config.Padding, 1)
	angle := float64(i) * 2 * math.Pi / float64(n)

	return Position{
		X: centerX + radius*math.Cos(angle),
		Y: centerY + radius*math.Sin(angle),
	}
}
