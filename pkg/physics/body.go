// Package physics holds the force-directed simulation used by the layout
// engine. Bodies and springs live in flat slices indexed by position; every
// force reads positions and adds to velocities, and only Integrate moves
// bodies.
package physics

// Body is one simulated person node.
type Body struct {
	ID    uint64
	X, Y  float64
	Vx    float64
	Vy    float64
	Size  float64
	Fixed bool
}

// Pos returns the body position as a vector.
func (b *Body) Pos() Vec {
	return Vec{X: b.X, Y: b.Y}
}

// Spring is an edge between two bodies, referenced by slice index.
type Spring struct {
	Source int
	Target int
}

// Shares reports whether two springs have an endpoint in common.
func (s Spring) Shares(o Spring) bool {
	return s.Source == o.Source || s.Source == o.Target ||
		s.Target == o.Source || s.Target == o.Target
}

// Params configures every force. RepulsionStrength and LinkDistance are the
// user-facing knobs; callers are responsible for keeping them in a sane range.
type Params struct {
	RepulsionStrength float64
	Attraction        float64

	LinkDistance   float64
	LinkSizeFactor float64
	LinkStrength   float64

	CollisionPadding  float64
	CollisionStrength float64

	CenterX        float64
	CenterY        float64
	CenterStrength float64

	UncrossStrength float64

	AvoidPadding  float64
	AvoidStrength float64
}

// DefaultParams returns the tuning used by the interactive view for a canvas
// of the given size.
func DefaultParams(width, height float64) Params {
	return Params{
		RepulsionStrength: 1200,
		Attraction:        4,

		LinkDistance:   80,
		LinkSizeFactor: 0.5,
		LinkStrength:   0.7,

		CollisionPadding:  6,
		CollisionStrength: 0.7,

		CenterX:        width / 2,
		CenterY:        height / 2,
		CenterStrength: 0.03,

		UncrossStrength: 3,

		AvoidPadding:  10,
		AvoidStrength: 0.4,
	}
}
