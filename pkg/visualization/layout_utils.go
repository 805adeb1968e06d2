package visualization

import (
	"math"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-socialgraph/pkg/physics"
)

const (
	minNodeSize = 8.0
	maxNodeSize = 36.0
)

// nodeSize maps a node's normalised metrics onto [minNodeSize, maxNodeSize].
func nodeSize(m *algorithms.MetricsResult, id uint64, mode SizeMode) float64 {
	var score float64
	switch mode {
	case SizeByConnections:
		score = m.NormalizedDegree(id)
	case SizeByBetweenness:
		score = m.NormalizedBetweenness(id)
	default:
		score = (m.NormalizedDegree(id) + m.NormalizedBetweenness(id)) / 2
	}
	return minNodeSize + (maxNodeSize-minNodeSize)*physics.Clamp(score, 0, 1)
}

// springsFor maps edges onto arena indices, skipping unknown endpoints and
// self-loops.
func springsFor(index map[uint64]int, edges []algorithms.EdgeRef) []physics.Spring {
	springs := make([]physics.Spring, 0, len(edges))
	for _, e := range edges {
		s, okS := index[e.Source]
		t, okT := index[e.Target]
		if !okS || !okT || s == t {
			continue
		}
		springs = append(springs, physics.Spring{Source: s, Target: t})
	}
	return springs
}

// normalizePositions scales positions to fit within bounds
func normalizePositions(positions map[uint64]Position, width, height, padding float64) map[uint64]Position {
	if len(positions) == 0 {
		return positions
	}

	// Find bounds
	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64

	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	// Uniform scale keeps the layout's proportions.
	rangeX := math.Max(maxX-minX, 0.01)
	rangeY := math.Max(maxY-minY, 0.01)
	targetWidth := width - 2*padding
	targetHeight := height - 2*padding
	scale := math.Min(targetWidth/rangeX, targetHeight/rangeY)

	offsetX := padding + (targetWidth-rangeX*scale)/2
	offsetY := padding + (targetHeight-rangeY*scale)/2

	normalized := make(map[uint64]Position, len(positions))
	for nodeID, pos := range positions {
		normalized[nodeID] = Position{
			X: offsetX + (pos.X-minX)*scale,
			Y: offsetY + (pos.Y-minY)*scale,
		}
	}

	return normalized
}

// FitToCanvas scales positions into the canvas of config, keeping aspect
// ratio.
func FitToCanvas(positions map[uint64]Position, config LayoutConfig) map[uint64]Position {
	return normalizePositions(positions, config.Width, config.Height, config.Padding)
}
