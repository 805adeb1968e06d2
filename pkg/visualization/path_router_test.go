package visualization

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cross(a, b, p Position) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func TestRouteCurve_NoObstaclesIsStraight(t *testing.T) {
	from, to := Position{X: 10, Y: 20}, Position{X: 170, Y: 140}

	path := RouteCurve(from, to, nil, 1)

	assert.Equal(t, from, path.From)
	assert.Equal(t, to, path.To)
	assert.InDelta(t, 0, cross(from, to, path.C1), 1e-9)
	assert.InDelta(t, 0, cross(from, to, path.C2), 1e-9)
	assert.InDelta(t, from.X+(to.X-from.X)/3, path.C1.X, 1e-9)
	assert.InDelta(t, from.X+2*(to.X-from.X)/3, path.C2.X, 1e-9)
}

func TestRouteCurve_BendsAwayFromObstacle(t *testing.T) {
	from, to := Position{X: 0, Y: 0}, Position{X: 100, Y: 0}
	below := []Obstacle{{ID: 9, Position: Position{X: 50, Y: 10}, Size: 10}}

	path := RouteCurve(from, to, below, 1)

	// threshold 35, u = 10/35, falloff (1-u)^3, half of it per control point.
	u := 10.0 / 35
	want := -math.Pow(1-u, 3) / 2
	assert.InDelta(t, want, path.C1.Y, 1e-9)
	assert.InDelta(t, want, path.C2.Y, 1e-9)
	assert.InDelta(t, 100.0/3, path.C1.X, 1e-9)
}

func TestRouteCurve_IgnoresDistantAndOutsideObstacles(t *testing.T) {
	from, to := Position{X: 0, Y: 0}, Position{X: 100, Y: 0}
	obstacles := []Obstacle{
		{Position: Position{X: 50, Y: 100}, Size: 10}, // beyond threshold
		{Position: Position{X: -20, Y: 2}, Size: 10},  // projects before the start
		{Position: Position{X: 130, Y: 2}, Size: 10},  // projects past the end
	}

	path := RouteCurve(from, to, obstacles, 1)

	assert.Zero(t, path.C1.Y)
	assert.Zero(t, path.C2.Y)
}

func TestRouteCurve_AttenuatedNearEndpoints(t *testing.T) {
	from, to := Position{X: 0, Y: 0}, Position{X: 100, Y: 0}

	middle := RouteCurve(from, to, []Obstacle{{Position: Position{X: 50, Y: 5}, Size: 10}}, 1)
	nearEnd := RouteCurve(from, to, []Obstacle{{Position: Position{X: 5, Y: 5}, Size: 10}}, 1)

	assert.Less(t, math.Abs(nearEnd.C1.Y), math.Abs(middle.C1.Y))
	// t = 0.05 keeps a third of the push.
	assert.InDelta(t, middle.C1.Y/3, nearEnd.C1.Y, 1e-9)
}

func TestRouteCurve_PushIsCapped(t *testing.T) {
	from, to := Position{X: 0, Y: 0}, Position{X: 100, Y: 0}
	huge := []Obstacle{{Position: Position{X: 50, Y: 1}, Size: 1000}}

	path := RouteCurve(from, to, huge, 1)

	assert.InDelta(t, -0.35*100/2, path.C1.Y, 1e-9)
	assert.InDelta(t, 100.0/3, path.C1.X, 1e-9)
}

func TestRouteCurve_SymmetricUnderSwap(t *testing.T) {
	a, b := Position{X: 20, Y: 30}, Position{X: 220, Y: 80}
	obstacles := []Obstacle{
		{Position: Position{X: 120, Y: 55}, Size: 14}, // on the chord
		{Position: Position{X: 90, Y: 60}, Size: 20},
	}

	forward := RouteCurve(a, b, obstacles, 1)
	backward := RouteCurve(b, a, obstacles, 1)

	assert.InDelta(t, forward.C1.X, backward.C2.X, 1e-9)
	assert.InDelta(t, forward.C1.Y, backward.C2.Y, 1e-9)
	assert.InDelta(t, forward.C2.X, backward.C1.X, 1e-9)
	assert.InDelta(t, forward.C2.Y, backward.C1.Y, 1e-9)
}

func TestRouteCurve_ObstacleOnChord(t *testing.T) {
	from, to := Position{X: 0, Y: 0}, Position{X: 100, Y: 0}

	path := RouteCurve(from, to, []Obstacle{{Position: Position{X: 50, Y: 0}, Size: 10}}, 1)

	assert.NotZero(t, path.C1.Y, "an obstacle sitting on the chord must still bend it")
	assert.False(t, math.IsNaN(path.C1.Y))
}

func TestRouteCurve_ZeroLengthChord(t *testing.T) {
	p := Position{X: 10, Y: 10}

	path := RouteCurve(p, p, []Obstacle{{Position: Position{X: 15, Y: 10}, Size: 10}}, 1)

	for _, c := range []Position{path.C1, path.C2} {
		assert.False(t, math.IsNaN(c.X) || math.IsNaN(c.Y))
	}
}

func TestCubicPath_SVGAndPoint(t *testing.T) {
	path := RouteCurve(Position{X: 0, Y: 0}, Position{X: 90, Y: 0}, nil, 1)

	assert.True(t, strings.HasPrefix(path.SVG(), "M 0.00 0.00 C 30.00 0.00"))
	assert.Equal(t, path.From, path.Point(0))
	assert.InDelta(t, 45, path.Point(0.5).X, 1e-9)
	assert.InDelta(t, 90, path.Point(1).X, 1e-9)
}
