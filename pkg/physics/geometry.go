package physics

import (
	"math"

	"golang.org/x/exp/constraints"
)

// MinDistance replaces any smaller separation in distance-based maths so
// coincident points never divide by zero.
const MinDistance = 1.0

// intersectEpsilon excludes touches at or near segment endpoints.
const intersectEpsilon = 1e-6

// Vec is a 2-D vector.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }
func (v Vec) Dot(o Vec) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }

func (v Vec) Lerp(o Vec, t float64) Vec {
	return Vec{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Normal returns the unit left-hand normal, or the zero vector for a zero
// input.
func (v Vec) Normal() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{-v.Y / l, v.X / l}
}

// Unit returns v scaled to length one, or the zero vector.
func (v Vec) Unit() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// Distance returns the distance between two points, never less than
// MinDistance.
func Distance(a, b Vec) float64 {
	return math.Max(a.Sub(b).Len(), MinDistance)
}

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SegmentsIntersect reports whether segments p1-p2 and p3-p4 cross strictly
// inside both. Parallel segments and touches within epsilon of an endpoint do
// not count.
func SegmentsIntersect(p1, p2, p3, p4 Vec) bool {
	den := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	if math.Abs(den) < intersectEpsilon {
		return false
	}

	t := ((p1.X-p3.X)*(p3.Y-p4.Y) - (p1.Y-p3.Y)*(p3.X-p4.X)) / den
	u := -((p1.X-p2.X)*(p1.Y-p3.Y) - (p1.Y-p2.Y)*(p1.X-p3.X)) / den

	return t > intersectEpsilon && t < 1-intersectEpsilon &&
		u > intersectEpsilon && u < 1-intersectEpsilon
}

// ProjectOntoSegment projects p onto the line through a and b. It returns the
// unclamped parameter t (0 at a, 1 at b), the projected point and the
// perpendicular distance. A degenerate segment is treated as having length
// MinDistance.
func ProjectOntoSegment(p, a, b Vec) (t float64, proj Vec, dist float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < MinDistance*MinDistance {
		lenSq = MinDistance * MinDistance
	}
	t = p.Sub(a).Dot(ab) / lenSq
	proj = a.Add(ab.Scale(t))
	dist = p.Sub(proj).Len()
	return t, proj, dist
}

// CountCrossings returns the number of spring pairs with no shared endpoint
// whose straight chords intersect.
func CountCrossings(bodies []Body, springs []Spring) int {
	count := 0
	for i := 0; i < len(springs); i++ {
		for j := i + 1; j < len(springs); j++ {
			if springs[i].Shares(springs[j]) {
				continue
			}
			a, b := springs[i], springs[j]
			if SegmentsIntersect(bodies[a.Source].Pos(), bodies[a.Target].Pos(),
				bodies[b.Source].Pos(), bodies[b.Target].Pos()) {
				count++
			}
		}
	}
	return count
}

// separation gives a deterministic unit direction for coincident bodies i and
// j, spreading pairs around the circle by the golden angle.
func separation(i, j int) Vec {
	angle := float64(i*31+j) * 2.399963229728653
	return Vec{math.Cos(angle), math.Sin(angle)}
}
