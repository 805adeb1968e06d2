package physics

import "math"

const (
	defaultAlphaMin      = 0.001
	defaultVelocityDecay = 0.4
	coolingTicks         = 300
)

// Cooling tracks the simulation temperature. Alpha decays geometrically
// toward AlphaTarget and every force scales its output by it.
type Cooling struct {
	Alpha         float64
	AlphaMin      float64
	AlphaDecay    float64
	AlphaTarget   float64
	VelocityDecay float64
}

// NewCooling returns a hot simulation that settles in about 300 ticks.
func NewCooling() *Cooling {
	return &Cooling{
		Alpha:         1,
		AlphaMin:      defaultAlphaMin,
		AlphaDecay:    1 - math.Pow(defaultAlphaMin, 1.0/coolingTicks),
		VelocityDecay: defaultVelocityDecay,
	}
}

// Step advances alpha one tick and returns the new value.
func (c *Cooling) Step() float64 {
	c.Alpha += (c.AlphaTarget - c.Alpha) * c.AlphaDecay
	return c.Alpha
}

// Reheat raises alpha to at least a. It never cools a hotter simulation.
func (c *Cooling) Reheat(a float64) {
	if a > c.Alpha {
		c.Alpha = a
	}
}

// Restart sets alpha to a regardless of its current value.
func (c *Cooling) Restart(a float64) {
	c.Alpha = a
}

// Settled reports whether the simulation has cooled below AlphaMin.
func (c *Cooling) Settled() bool {
	return c.Alpha < c.AlphaMin
}

// Integrate applies velocity decay and moves every body that is not fixed.
// Fixed bodies keep their decayed velocity as bookkeeping but do not move.
func Integrate(bodies []Body, velocityDecay float64) {
	keep := 1 - velocityDecay
	for i := range bodies {
		b := &bodies[i]
		b.Vx *= keep
		b.Vy *= keep
		if b.Fixed {
			continue
		}
		b.X += b.Vx
		b.Y += b.Vy
	}
}

// Simulation composes forces into a single step function.
type Simulation struct {
	forces []Force
}

// NewSimulation creates a simulation with the given forces, or the default set
// when none are supplied.
func NewSimulation(forces ...Force) *Simulation {
	if len(forces) == 0 {
		forces = DefaultForces()
	}
	return &Simulation{forces: forces}
}

// Tick runs one all-or-nothing step: cool, apply every force, integrate.
// It returns the alpha used for the step.
func (s *Simulation) Tick(bodies []Body, springs []Spring, cooling *Cooling, p Params) float64 {
	if len(bodies) == 0 {
		return cooling.Alpha
	}

	alpha := cooling.Step()
	for _, force := range s.forces {
		force(bodies, springs, alpha, p)
	}
	Integrate(bodies, cooling.VelocityDecay)

	return alpha
}

// Run ticks until the simulation settles or maxTicks is reached and returns
// the number of ticks performed.
func (s *Simulation) Run(bodies []Body, springs []Spring, cooling *Cooling, p Params, maxTicks int) int {
	if len(bodies) == 0 {
		return 0
	}

	ticks := 0
	for ticks < maxTicks && !cooling.Settled() {
		s.Tick(bodies, springs, cooling, p)
		ticks++
	}
	return ticks
}
