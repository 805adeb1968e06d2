package visualization

import (
	"fmt"
	"math"

	"github.com/dd0wney/cluso-socialgraph/pkg/physics"
)

const (
	obstacleMarginFactor = 1.5
	obstacleMarginBase   = 20.0
	endpointRamp         = 0.15
	maxBendRatio         = 0.35
	obstacleSizeUnit     = 10.0
)

// Obstacle is a node an edge should bend around.
type Obstacle struct {
	ID       uint64
	Position Position
	Size     float64
}

// CubicPath is a cubic Bézier from From to To with control points C1, C2.
type CubicPath struct {
	From Position `json:"from"`
	C1   Position `json:"c1"`
	C2   Position `json:"c2"`
	To   Position `json:"to"`
}

// SVG returns the path as SVG path data.
func (p CubicPath) SVG() string {
	return fmt.Sprintf("M %.2f %.2f C %.2f %.2f, %.2f %.2f, %.2f %.2f",
		p.From.X, p.From.Y, p.C1.X, p.C1.Y, p.C2.X, p.C2.Y, p.To.X, p.To.Y)
}

// Point evaluates the curve at t in [0, 1].
func (p CubicPath) Point(t float64) Position {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Position{
		X: a*p.From.X + b*p.C1.X + c*p.C2.X + d*p.To.X,
		Y: a*p.From.Y + b*p.C1.Y + c*p.C2.Y + d*p.To.Y,
	}
}

// RouteCurve bends the chord from -> to away from nearby obstacles. Callers
// leave the edge's own endpoints out of obstacles. Each obstacle projecting
// onto the chord within size*1.5+20 pushes with a cubic falloff, weakened
// near the anchors and scaled by its size and strength; the summed push is
// capped at 35% of the chord length. With no effective obstacles the control
// points sit on the chord.
func RouteCurve(from, to Position, obstacles []Obstacle, strength float64) CubicPath {
	chord := to.Sub(from)
	length := math.Max(chord.Len(), physics.MinDistance)
	normal := canonicalNormal(from, to)

	var push Position
	for _, ob := range obstacles {
		t, proj, dist := physics.ProjectOntoSegment(ob.Position, from, to)
		if t < 0 || t > 1 {
			continue
		}

		threshold := ob.Size*obstacleMarginFactor + obstacleMarginBase
		if dist >= threshold {
			continue
		}

		u := dist / threshold
		falloff := (1 - u) * (1 - u) * (1 - u)
		switch {
		case t < endpointRamp:
			falloff *= t / endpointRamp
		case t > 1-endpointRamp:
			falloff *= (1 - t) / endpointRamp
		}

		dir := normal
		if dist > 1e-9 {
			dir = proj.Sub(ob.Position).Scale(1 / dist)
		}

		push = push.Add(dir.Scale(falloff * (ob.Size / obstacleSizeUnit) * strength))
	}

	if l, limit := push.Len(), maxBendRatio*length; l > limit {
		push = push.Scale(limit / l)
	}

	bend := push.Scale(0.5)
	return CubicPath{
		From: from,
		C1:   from.Lerp(to, 1.0/3).Add(bend),
		C2:   from.Lerp(to, 2.0/3).Add(bend),
		To:   to,
	}
}

// canonicalNormal returns a chord normal that does not depend on which end
// is called from, so swapping endpoints bends the same way.
func canonicalNormal(a, b Position) Position {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	n := b.Sub(a).Normal()
	if n == (Position{}) {
		return Position{X: 0, Y: -1}
	}
	return n
}
