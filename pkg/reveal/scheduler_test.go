package reveal

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func TestScheduler_ViewerVisibleImmediately(t *testing.T) {
	s := NewScheduler(DefaultTiming())

	s.Start(epoch, [][]uint64{{1}, {2, 3}}, 1)

	require.Equal(t, Revealing, s.State())
	assert.True(t, s.IsVisible(1))
	assert.False(t, s.IsVisible(2))

	revealedAt, ok := s.RevealedAt(1)
	require.True(t, ok)
	assert.True(t, revealedAt.IsZero(), "viewer must appear without animation")
}

func TestScheduler_StaggeredWaves(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Start(epoch, [][]uint64{{1}, {2, 3}, {4}}, 1)

	// Wave 1 starts at 400ms, its second node at 460ms, wave 2 at 860ms.
	tests := []struct {
		now     int
		want    []uint64
		visible []uint64
		state   State
	}{
		{now: 0, want: nil, visible: []uint64{1}, state: Revealing},
		{now: 399, want: nil, visible: []uint64{1}, state: Revealing},
		{now: 400, want: []uint64{2}, visible: []uint64{1, 2}, state: Revealing},
		{now: 460, want: []uint64{3}, visible: []uint64{1, 2, 3}, state: Revealing},
		{now: 860, want: []uint64{4}, visible: []uint64{1, 2, 3, 4}, state: Complete},
	}

	for _, tt := range tests {
		got := s.Advance(at(tt.now))
		assert.Equal(t, tt.want, got, "released at %dms", tt.now)
		for _, id := range tt.visible {
			assert.True(t, s.IsVisible(id), "node %d at %dms", id, tt.now)
		}
		assert.Equal(t, tt.state, s.State(), "state at %dms", tt.now)
	}

	revealedAt, ok := s.RevealedAt(3)
	require.True(t, ok)
	assert.Equal(t, at(460), revealedAt)
}

func TestScheduler_AdvanceCatchesUp(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Start(epoch, [][]uint64{{1}, {2, 3}, {4}}, 1)

	got := s.Advance(at(10_000))

	assert.Equal(t, []uint64{2, 3, 4}, got)
	assert.Equal(t, Complete, s.State())
	assert.Nil(t, s.Advance(at(20_000)), "advance after completion is a no-op")
}

func TestScheduler_AbsentViewerRootIsAnimated(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Start(epoch, [][]uint64{{5}, {6}}, 99)

	assert.False(t, s.IsVisible(5))

	assert.Equal(t, []uint64{5}, s.Advance(epoch))
	revealedAt, _ := s.RevealedAt(5)
	assert.Equal(t, epoch, revealedAt)
}

func TestScheduler_EmptyWaves(t *testing.T) {
	s := NewScheduler(DefaultTiming())

	s.Start(epoch, nil, 1)

	assert.Equal(t, NotStarted, s.State())
	assert.False(t, s.IsVisible(1))
	assert.Nil(t, s.Advance(at(1000)))
	assert.Zero(t, s.Progress())
}

func TestScheduler_ViewerOnly(t *testing.T) {
	s := NewScheduler(DefaultTiming())

	s.Start(epoch, [][]uint64{{1}}, 1)

	assert.Equal(t, Complete, s.State())
	assert.Equal(t, 1.0, s.Progress())
}

func TestScheduler_EdgeVisibility(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Start(epoch, [][]uint64{{1}, {2}, {3}}, 1)

	s.Advance(at(400))
	assert.True(t, s.EdgeVisible(1, 2))
	assert.False(t, s.EdgeVisible(2, 3), "edge needs both endpoints")
}

func TestScheduler_RestartCancelsPreviousGeneration(t *testing.T) {
	s := NewScheduler(DefaultTiming())

	first := s.Start(epoch, [][]uint64{{1}, {2}}, 1)
	second := s.Start(at(100), [][]uint64{{7}, {8}}, 7)

	require.NotEqual(t, first, second)
	assert.Nil(t, s.AdvanceGeneration(first, at(10_000)), "stale generation must not mutate visibility")
	assert.False(t, s.IsVisible(1))
	assert.False(t, s.IsVisible(8))

	assert.Equal(t, []uint64{8}, s.AdvanceGeneration(second, at(500)))
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	gen := s.Start(epoch, [][]uint64{{1}, {2}, {3}}, 1)
	s.Advance(at(400))

	s.Cancel()

	assert.Equal(t, NotStarted, s.State())
	assert.Greater(t, s.Generation(), gen)
	assert.True(t, s.IsVisible(2), "cancel never hides a visible node")
	assert.Nil(t, s.Advance(at(10_000)))
	assert.False(t, s.IsVisible(3))
}

func TestScheduler_CompleteIsTerminal(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Start(epoch, [][]uint64{{1}, {2}}, 1)

	s.Complete()
	assert.Equal(t, Complete, s.State())
	assert.True(t, s.IsVisible(12345), "filter is dropped once complete")

	s.Start(at(100), [][]uint64{{3}, {4}}, 3)
	assert.Equal(t, Complete, s.State())
	assert.True(t, s.IsVisible(4))

	s.Clear()
	assert.Equal(t, NotStarted, s.State())
	assert.False(t, s.IsVisible(4))
}

func TestScheduler_Progress(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Start(epoch, [][]uint64{{1}, {2, 3, 4}}, 1)

	assert.InDelta(t, 0.25, s.Progress(), 1e-9)
	s.Advance(at(460))
	assert.InDelta(t, 0.75, s.Progress(), 1e-9)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not_started", NotStarted.String())
	assert.Equal(t, "revealing", Revealing.String())
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "unknown", State(9).String())

	text, err := Revealing.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "revealing", string(text))

	var st State
	require.NoError(t, st.UnmarshalText([]byte("complete")))
	assert.Equal(t, Complete, st)
	assert.Error(t, st.UnmarshalText([]byte("sideways")))
}

// TestRevealMonotonic checks that visibility only grows while a reveal runs
// and that everything is visible after completion.
func TestRevealMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("visible set never shrinks", prop.ForAll(
		func(waveSizes []uint8, steps []uint16) bool {
			var waves [][]uint64
			next := uint64(1)
			for _, size := range waveSizes {
				var wave []uint64
				for i := 0; i < int(size%4)+1; i++ {
					wave = append(wave, next)
					next++
				}
				waves = append(waves, wave)
			}

			s := NewScheduler(DefaultTiming())
			s.Start(epoch, waves, 1)

			countVisible := func() int {
				n := 0
				for id := uint64(1); id < next; id++ {
					if s.IsVisible(id) {
						n++
					}
				}
				return n
			}

			prev := countVisible()
			now := epoch
			for _, step := range steps {
				now = now.Add(time.Duration(step) * time.Millisecond)
				s.Advance(now)
				cur := countVisible()
				if cur < prev {
					return false
				}
				prev = cur
			}

			s.Advance(now.Add(time.Hour))
			if len(waves) > 0 && s.State() != Complete {
				return false
			}
			return len(waves) == 0 || countVisible() == int(next-1)
		},
		gen.SliceOfN(6, gen.UInt8()),
		gen.SliceOfN(20, gen.UInt16Range(0, 500)),
	))

	properties.TestingRun(t)
}
