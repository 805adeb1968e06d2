package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return DefaultParams(100, 100)
}

func TestPairwise_RepelsCloseNodes(t *testing.T) {
	bodies := []Body{
		{ID: 1, X: 0, Y: 0, Size: 10},
		{ID: 2, X: 10, Y: 0, Size: 10},
	}

	Pairwise(bodies, nil, 1, testParams())

	assert.Less(t, bodies[0].Vx, 0.0, "left node should be pushed left")
	assert.Greater(t, bodies[1].Vx, 0.0, "right node should be pushed right")
	assert.InDelta(t, -bodies[0].Vx, bodies[1].Vx, 1e-12, "forces should be equal and opposite")
	assert.Zero(t, bodies[0].X, "forces must not move positions")
}

func TestPairwise_AttractsDistantNodes(t *testing.T) {
	bodies := []Body{
		{ID: 1, X: 0, Y: 0, Size: 10},
		{ID: 2, X: 1000, Y: 0, Size: 10},
	}

	Pairwise(bodies, nil, 1, testParams())

	assert.Greater(t, bodies[0].Vx, 0.0)
	assert.Less(t, bodies[1].Vx, 0.0)
}

func TestPairwise_CoincidentNodes(t *testing.T) {
	bodies := []Body{
		{ID: 1, X: 5, Y: 5, Size: 0},
		{ID: 2, X: 5, Y: 5, Size: 0},
	}

	Pairwise(bodies, nil, 1, testParams())

	for _, b := range bodies {
		require.False(t, math.IsNaN(b.Vx) || math.IsNaN(b.Vy), "velocity must stay finite")
		require.False(t, math.IsInf(b.Vx, 0) || math.IsInf(b.Vy, 0), "velocity must stay finite")
	}
	assert.NotZero(t, math.Hypot(bodies[0].Vx, bodies[0].Vy), "coincident nodes should separate")
	assert.InDelta(t, -bodies[0].Vx, bodies[1].Vx, 1e-12)
}

func TestPairwise_ScalesWithAlpha(t *testing.T) {
	hot := []Body{{X: 0, Size: 10}, {X: 20, Size: 10}}
	cold := []Body{{X: 0, Size: 10}, {X: 20, Size: 10}}

	Pairwise(hot, nil, 1, testParams())
	Pairwise(cold, nil, 0.1, testParams())

	assert.InDelta(t, hot[0].Vx*0.1, cold[0].Vx, 1e-12)
}

func TestLinks(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		wantSign float64
	}{
		{name: "stretched spring pulls together", distance: 300, wantSign: 1},
		{name: "compressed spring pushes apart", distance: 10, wantSign: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodies := []Body{
				{ID: 1, X: 0, Y: 0},
				{ID: 2, X: tt.distance, Y: 0},
			}
			springs := []Spring{{Source: 0, Target: 1}}

			Links(bodies, springs, 1, testParams())

			assert.Equal(t, tt.wantSign, math.Copysign(1, bodies[0].Vx))
			assert.Equal(t, -tt.wantSign, math.Copysign(1, bodies[1].Vx))
			assert.Zero(t, bodies[0].Vy)
		})
	}
}

func TestLinks_TargetGrowsWithSize(t *testing.T) {
	small := []Body{{X: 0}, {X: 90}}
	large := []Body{{X: 0, Size: 40}, {X: 90, Size: 40}}
	springs := []Spring{{Source: 0, Target: 1}}

	Links(small, springs, 1, testParams())
	Links(large, springs, 1, testParams())

	// 90 is past the bare target of 80 but short of 80 + 0.5*80 for big nodes.
	assert.Greater(t, small[0].Vx, 0.0)
	assert.Less(t, large[0].Vx, 0.0)
}

func TestCollision(t *testing.T) {
	p := testParams()

	overlapping := []Body{
		{X: 0, Y: 0, Size: 20},
		{X: 20, Y: 0, Size: 20},
	}
	Collision(overlapping, nil, 1, p)

	// Radii are 10+6 each: overlap 12, each side takes half at strength 0.7.
	assert.InDelta(t, -4.2, overlapping[0].Vx, 1e-9)
	assert.InDelta(t, 4.2, overlapping[1].Vx, 1e-9)

	apart := []Body{
		{X: 0, Y: 0, Size: 20},
		{X: 40, Y: 0, Size: 20},
	}
	Collision(apart, nil, 1, p)
	assert.Zero(t, apart[0].Vx)
	assert.Zero(t, apart[1].Vx)
}

func TestCentering(t *testing.T) {
	p := DefaultParams(100, 100)
	bodies := []Body{{X: 0, Y: 100}}

	Centering(bodies, nil, 1, p)

	assert.InDelta(t, 50*p.CenterStrength, bodies[0].Vx, 1e-12)
	assert.InDelta(t, -50*p.CenterStrength, bodies[0].Vy, 1e-12)
}

func TestUncross_PushesCrossingEdgesApart(t *testing.T) {
	bodies := []Body{
		{ID: 1, X: 0, Y: 0},
		{ID: 2, X: 100, Y: 100},
		{ID: 3, X: 110, Y: 0},
		{ID: 4, X: 0, Y: 90},
	}
	springs := []Spring{{Source: 0, Target: 1}, {Source: 2, Target: 3}}
	require.Equal(t, 1, CountCrossings(bodies, springs))

	Uncross(bodies, springs, 1, testParams())

	// Midpoints are (50,50) and (55,45): edge one moves up-left, edge two
	// down-right.
	for _, idx := range []int{0, 1} {
		assert.Less(t, bodies[idx].Vx, 0.0)
		assert.Greater(t, bodies[idx].Vy, 0.0)
	}
	for _, idx := range []int{2, 3} {
		assert.Greater(t, bodies[idx].Vx, 0.0)
		assert.Less(t, bodies[idx].Vy, 0.0)
	}
}

func TestUncross_IgnoresSharedEndpoints(t *testing.T) {
	bodies := []Body{
		{X: 0, Y: 0},
		{X: 100, Y: 100},
		{X: 100, Y: 0},
	}
	springs := []Spring{{Source: 0, Target: 1}, {Source: 1, Target: 2}}

	Uncross(bodies, springs, 1, testParams())

	for _, b := range bodies {
		assert.Zero(t, b.Vx)
		assert.Zero(t, b.Vy)
	}
}

func TestAvoidance(t *testing.T) {
	p := testParams()
	bodies := []Body{
		{ID: 1, X: 0, Y: 0},
		{ID: 2, X: 100, Y: 0},
		{ID: 3, X: 50, Y: 3, Size: 10},
	}
	springs := []Spring{{Source: 0, Target: 1}}

	Avoidance(bodies, springs, 1, p)

	// threshold 5+10, distance 3, push 12*0.4.
	assert.InDelta(t, 4.8, bodies[2].Vy, 1e-9)
	assert.InDelta(t, -0.6, bodies[0].Vy, 1e-9)
	assert.InDelta(t, -0.6, bodies[1].Vy, 1e-9)
	assert.InDelta(t, 0, bodies[2].Vx, 1e-9)
}

func TestAvoidance_IgnoresNodesNearEndpoints(t *testing.T) {
	bodies := []Body{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 2, Y: 3, Size: 10},
	}
	springs := []Spring{{Source: 0, Target: 1}}

	Avoidance(bodies, springs, 1, testParams())

	assert.Zero(t, bodies[2].Vy)
	assert.Zero(t, bodies[0].Vy)
}

func TestAvoidance_NodeOnChord(t *testing.T) {
	bodies := []Body{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 50, Y: 0, Size: 10},
	}
	springs := []Spring{{Source: 0, Target: 1}}

	Avoidance(bodies, springs, 1, testParams())

	assert.NotZero(t, bodies[2].Vy, "node on the chord should be pushed off it")
	assert.False(t, math.IsNaN(bodies[2].Vy))
}

func TestForcesOnEmptyInput(t *testing.T) {
	for _, force := range DefaultForces() {
		assert.NotPanics(t, func() {
			force(nil, nil, 1, testParams())
		})
	}
}
