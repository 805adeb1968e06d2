package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooling_SettlesInAboutThreeHundredTicks(t *testing.T) {
	c := NewCooling()

	ticks := 0
	for !c.Settled() && ticks < 1000 {
		c.Step()
		ticks++
	}

	assert.InDelta(t, 300, ticks, 5)
}

func TestCooling_Reheat(t *testing.T) {
	c := NewCooling()
	c.Alpha = 0.05

	c.Reheat(0.3)
	assert.Equal(t, 0.3, c.Alpha)

	c.Reheat(0.1)
	assert.Equal(t, 0.3, c.Alpha, "reheat must never cool the simulation")

	c.Restart(0.1)
	assert.Equal(t, 0.1, c.Alpha)
}

func TestIntegrate_FixedBodyHoldsPosition(t *testing.T) {
	bodies := []Body{
		{X: 10, Y: 10, Vx: 5, Vy: -5},
		{X: 10, Y: 10, Vx: 5, Vy: -5, Fixed: true},
	}

	Integrate(bodies, 0.4)

	assert.InDelta(t, 13, bodies[0].X, 1e-12)
	assert.InDelta(t, 7, bodies[0].Y, 1e-12)

	assert.Equal(t, 10.0, bodies[1].X)
	assert.Equal(t, 10.0, bodies[1].Y)
	assert.InDelta(t, 3, bodies[1].Vx, 1e-12, "fixed bodies keep velocity as bookkeeping")
}

func TestSimulation_TickEmpty(t *testing.T) {
	sim := NewSimulation()
	c := NewCooling()

	alpha := sim.Tick(nil, nil, c, DefaultParams(100, 100))

	assert.Equal(t, 1.0, alpha, "empty simulation must not cool")
	assert.Zero(t, sim.Run(nil, nil, c, DefaultParams(100, 100), 10))
}

func TestSimulation_CustomForces(t *testing.T) {
	calls := 0
	counting := func(bodies []Body, springs []Spring, alpha float64, p Params) {
		calls++
	}

	sim := NewSimulation(counting)
	bodies := []Body{{X: 1, Y: 1}}
	sim.Tick(bodies, nil, NewCooling(), DefaultParams(10, 10))

	assert.Equal(t, 1, calls)
}

// TestSimulation_ReducesCrossings runs a small graph with one intentional
// crossing down to low temperature.
func TestSimulation_ReducesCrossings(t *testing.T) {
	bodies := []Body{
		{ID: 1, X: 200, Y: 200, Size: 12},
		{ID: 2, X: 300, Y: 300, Size: 12},
		{ID: 3, X: 310, Y: 200, Size: 12},
		{ID: 4, X: 200, Y: 290, Size: 12},
	}
	springs := []Spring{{Source: 0, Target: 1}, {Source: 2, Target: 3}}

	initial := CountCrossings(bodies, springs)
	require.Equal(t, 1, initial)

	sim := NewSimulation()
	cooling := NewCooling()
	sim.Run(bodies, springs, cooling, DefaultParams(500, 500), 2000)

	assert.True(t, cooling.Settled())
	for _, b := range bodies {
		require.False(t, math.IsNaN(b.X) || math.IsNaN(b.Y), "positions must stay finite")
	}
	assert.LessOrEqual(t, CountCrossings(bodies, springs), initial)
}

func TestSimulation_PathStaysCompact(t *testing.T) {
	// Path 1-2-3, seeded on a line with the ends closest together.
	bodies := []Body{
		{ID: 1, X: 240, Y: 250, Size: 10},
		{ID: 2, X: 400, Y: 250, Size: 10},
		{ID: 3, X: 260, Y: 250, Size: 10},
	}
	springs := []Spring{{Source: 0, Target: 1}, {Source: 1, Target: 2}}

	sim := NewSimulation()
	sim.Run(bodies, springs, NewCooling(), DefaultParams(500, 500), 2000)

	d12 := Distance(bodies[0].Pos(), bodies[1].Pos())
	d13 := Distance(bodies[0].Pos(), bodies[2].Pos())
	assert.Greater(t, d13, 1.0)
	assert.Less(t, d12, 400.0)
}
