package physics

import "math"

// Force contributes velocity for one simulation step. Implementations read
// positions and add to Vx/Vy; they never write X or Y.
type Force func(bodies []Body, springs []Spring, alpha float64, p Params)

// DefaultForces returns the full force set in application order.
func DefaultForces() []Force {
	return []Force{
		Pairwise,
		Links,
		Collision,
		Centering,
		Uncross,
		Avoidance,
	}
}

// pairMinDistance is the smallest effective separation for a pair, derived
// from their sizes so that large nodes never collapse onto each other.
func pairMinDistance(a, b *Body) float64 {
	return math.Max(MinDistance, (a.Size+b.Size)/2)
}

// Pairwise applies attraction/d - repulsion/d² to every unordered pair. A
// positive net pulls the pair together, a negative one pushes it apart.
func Pairwise(bodies []Body, _ []Spring, alpha float64, p Params) {
	for i := 0; i < len(bodies); i++ {
		a := &bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := &bodies[j]

			delta := b.Pos().Sub(a.Pos())
			dist := delta.Len()

			var dir Vec
			if dist < 1e-9 {
				dir = separation(i, j)
			} else {
				dir = delta.Scale(1 / dist)
			}

			d := math.Max(dist, pairMinDistance(a, b))
			net := p.Attraction/d - p.RepulsionStrength/(d*d)
			step := dir.Scale(net * alpha)

			a.Vx += step.X
			a.Vy += step.Y
			b.Vx -= step.X
			b.Vy -= step.Y
		}
	}
}

// Links pulls each spring toward LinkDistance plus a share of both endpoint
// sizes. Strength follows the less-connected endpoint and is capped at
// LinkStrength.
func Links(bodies []Body, springs []Spring, alpha float64, p Params) {
	if len(springs) == 0 {
		return
	}

	degree := make([]int, len(bodies))
	for _, s := range springs {
		degree[s.Source]++
		degree[s.Target]++
	}

	for _, s := range springs {
		a, b := &bodies[s.Source], &bodies[s.Target]

		delta := b.Pos().Sub(a.Pos())
		dist := math.Max(delta.Len(), MinDistance)
		if delta.Len() < 1e-9 {
			delta = separation(s.Source, s.Target)
		}

		target := p.LinkDistance + p.LinkSizeFactor*(a.Size+b.Size)
		strength := math.Min(p.LinkStrength, 1/float64(min(degree[s.Source], degree[s.Target])))

		k := (dist - target) / dist * alpha * strength * 0.5
		a.Vx += delta.X * k
		a.Vy += delta.Y * k
		b.Vx -= delta.X * k
		b.Vy -= delta.Y * k
	}
}

// Collision separates overlapping circles of radius size/2 + padding. It acts
// on contact only and is not scaled by alpha.
func Collision(bodies []Body, _ []Spring, _ float64, p Params) {
	for i := 0; i < len(bodies); i++ {
		a := &bodies[i]
		ra := a.Size/2 + p.CollisionPadding
		for j := i + 1; j < len(bodies); j++ {
			b := &bodies[j]
			rb := b.Size/2 + p.CollisionPadding

			delta := a.Pos().Sub(b.Pos())
			dist := delta.Len()
			if dist >= ra+rb {
				continue
			}

			var dir Vec
			if dist < 1e-9 {
				dir = separation(i, j)
			} else {
				dir = delta.Scale(1 / dist)
			}

			push := dir.Scale((ra + rb - dist) / 2 * p.CollisionStrength)
			a.Vx += push.X
			a.Vy += push.Y
			b.Vx -= push.X
			b.Vy -= push.Y
		}
	}
}

// Centering is a weak per-axis pull toward the canvas centre.
func Centering(bodies []Body, _ []Spring, alpha float64, p Params) {
	k := p.CenterStrength * alpha
	for i := range bodies {
		b := &bodies[i]
		b.Vx += (p.CenterX - b.X) * k
		b.Vy += (p.CenterY - b.Y) * k
	}
}

// Uncross pushes the endpoints of every pair of crossing chords apart along
// the line between the two chord midpoints.
func Uncross(bodies []Body, springs []Spring, alpha float64, p Params) {
	k := p.UncrossStrength * alpha
	for i := 0; i < len(springs); i++ {
		s1 := springs[i]
		for j := i + 1; j < len(springs); j++ {
			s2 := springs[j]
			if s1.Shares(s2) {
				continue
			}

			a1, b1 := bodies[s1.Source].Pos(), bodies[s1.Target].Pos()
			a2, b2 := bodies[s2.Source].Pos(), bodies[s2.Target].Pos()
			if !SegmentsIntersect(a1, b1, a2, b2) {
				continue
			}

			dir := a1.Lerp(b1, 0.5).Sub(a2.Lerp(b2, 0.5)).Unit()
			if dir == (Vec{}) {
				dir = b1.Sub(a1).Normal()
			}
			push := dir.Scale(k)

			for _, idx := range []int{s1.Source, s1.Target} {
				bodies[idx].Vx += push.X
				bodies[idx].Vy += push.Y
			}
			for _, idx := range []int{s2.Source, s2.Target} {
				bodies[idx].Vx -= push.X
				bodies[idx].Vy -= push.Y
			}
		}
	}
}

// avoidMargin is the fraction of the chord at each end where node avoidance
// is ignored so it does not fight the link force.
const avoidMargin = 0.05

// Avoidance keeps nodes off the chords of edges they do not belong to. The
// node moves away from the chord and the edge endpoints move the other way by
// a quarter of that, weighted toward the nearer endpoint.
func Avoidance(bodies []Body, springs []Spring, alpha float64, p Params) {
	for _, s := range springs {
		a, b := bodies[s.Source].Pos(), bodies[s.Target].Pos()

		for k := range bodies {
			if k == s.Source || k == s.Target {
				continue
			}
			node := &bodies[k]

			t, proj, dist := ProjectOntoSegment(node.Pos(), a, b)
			if t < avoidMargin || t > 1-avoidMargin {
				continue
			}

			threshold := node.Size/2 + p.AvoidPadding
			if dist >= threshold {
				continue
			}

			var dir Vec
			if dist < 1e-9 {
				dir = b.Sub(a).Normal()
			} else {
				dir = node.Pos().Sub(proj).Scale(1 / dist)
			}

			push := (threshold - dist) * p.AvoidStrength * alpha
			node.Vx += dir.X * push
			node.Vy += dir.Y * push

			back := push * 0.25
			bodies[s.Source].Vx -= dir.X * back * (1 - t)
			bodies[s.Source].Vy -= dir.Y * back * (1 - t)
			bodies[s.Target].Vx -= dir.X * back * t
			bodies[s.Target].Vy -= dir.Y * back * t
		}
	}
}
