// Package reveal staggers the first appearance of a freshly loaded graph.
//
// Nodes appear in BFS waves rooted at the viewer. The scheduler holds no
// timers: it is a state machine advanced by the caller's clock, and every
// (re)start or cancellation bumps a generation counter so work planned for an
// older dataset can never touch the current visibility set.
package reveal

import (
	"time"

	"github.com/cockroachdb/errors"
)

// State is the reveal lifecycle.
type State int

const (
	// NotStarted means no reveal has been scheduled.
	NotStarted State = iota
	// Revealing means nodes are still being released on schedule.
	Revealing
	// Complete means the visibility filter is gone for the session.
	Complete
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Revealing:
		return "revealing"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{NotStarted, Revealing, Complete} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return errors.Newf("unknown reveal state %q", text)
}

// Timing holds the stagger delays.
type Timing struct {
	NodeDelay time.Duration `yaml:"node_delay" json:"node_delay"`
	WaveDelay time.Duration `yaml:"wave_delay" json:"wave_delay"`
}

// DefaultTiming returns the standard stagger: 60ms between nodes of a wave,
// 400ms between waves.
func DefaultTiming() Timing {
	return Timing{
		NodeDelay: 60 * time.Millisecond,
		WaveDelay: 400 * time.Millisecond,
	}
}

type entry struct {
	id uint64
	at time.Time
}

// Scheduler tracks which nodes are visible during a reveal. It is not safe
// for concurrent use.
type Scheduler struct {
	timing     Timing
	state      State
	generation uint64

	schedule []entry // ordered by release time
	next     int

	// revealed maps a visible id to the instant it appeared. The zero time
	// marks a node shown without an entry animation.
	revealed map[uint64]time.Time
}

// NewScheduler creates an idle scheduler.
func NewScheduler(timing Timing) *Scheduler {
	return &Scheduler{
		timing:   timing,
		revealed: make(map[uint64]time.Time),
	}
}

// Start schedules a reveal of waves beginning at now and returns the new
// generation. The viewer, if it appears in the waves, is visible immediately
// and without animation. Any reveal in progress is cancelled first. Once the
// scheduler is Complete, Start does nothing.
func (s *Scheduler) Start(now time.Time, waves [][]uint64, viewer uint64) uint64 {
	if s.state == Complete {
		return s.generation
	}

	s.generation++
	s.schedule = s.schedule[:0]
	s.next = 0
	s.revealed = make(map[uint64]time.Time)
	s.state = NotStarted

	var offset time.Duration
	started := false
	for _, wave := range waves {
		for ni, id := range wave {
			switch {
			case ni == 0 && started:
				offset += s.timing.WaveDelay
			case ni > 0:
				offset += s.timing.NodeDelay
			}
			started = true

			if id == viewer {
				s.revealed[id] = time.Time{}
				continue
			}
			s.schedule = append(s.schedule, entry{id: id, at: now.Add(offset)})
		}
	}

	switch {
	case len(s.schedule) == 0 && len(s.revealed) == 0:
		// Nothing to reveal.
	case len(s.schedule) == 0:
		s.finish()
	default:
		s.state = Revealing
	}
	return s.generation
}

// Advance releases every node due at or before now and returns the ids that
// became visible on this call.
func (s *Scheduler) Advance(now time.Time) []uint64 {
	return s.AdvanceGeneration(s.generation, now)
}

// AdvanceGeneration is Advance for work planned under generation gen. A stale
// generation is ignored.
func (s *Scheduler) AdvanceGeneration(gen uint64, now time.Time) []uint64 {
	if gen != s.generation || s.state != Revealing {
		return nil
	}

	var released []uint64
	for s.next < len(s.schedule) && !s.schedule[s.next].at.After(now) {
		e := s.schedule[s.next]
		s.next++
		if _, ok := s.revealed[e.id]; ok {
			continue
		}
		s.revealed[e.id] = e.at
		released = append(released, e.id)
	}

	if s.next == len(s.schedule) {
		s.finish()
	}
	return released
}

// Cancel abandons the pending schedule. Nodes already visible stay visible
// and the scheduler returns to NotStarted unless it is already Complete.
func (s *Scheduler) Cancel() {
	s.generation++
	s.schedule = nil
	s.next = 0
	if s.state == Revealing {
		s.state = NotStarted
	}
}

// Complete ends the reveal and drops the visibility filter for good.
func (s *Scheduler) Complete() {
	if s.state == Complete {
		return
	}
	s.generation++
	s.finish()
}

// Clear returns the scheduler to NotStarted from any state, forgetting all
// visibility. It is used when the graph empties and a later load counts as
// fresh.
func (s *Scheduler) Clear() {
	s.generation++
	s.state = NotStarted
	s.schedule = nil
	s.next = 0
	s.revealed = make(map[uint64]time.Time)
}

func (s *Scheduler) finish() {
	s.state = Complete
	s.schedule = nil
	s.next = 0
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State { return s.state }

// Generation returns the current generation.
func (s *Scheduler) Generation() uint64 { return s.generation }

// IsVisible reports whether id may be rendered. Everything is visible once
// the reveal is Complete.
func (s *Scheduler) IsVisible(id uint64) bool {
	if s.state == Complete {
		return true
	}
	_, ok := s.revealed[id]
	return ok
}

// EdgeVisible reports whether an edge between a and b may be rendered.
func (s *Scheduler) EdgeVisible(a, b uint64) bool {
	return s.IsVisible(a) && s.IsVisible(b)
}

// RevealedAt returns when id appeared during the reveal. The zero time with
// ok set means it appeared without animation.
func (s *Scheduler) RevealedAt(id uint64) (at time.Time, ok bool) {
	at, ok = s.revealed[id]
	return at, ok
}

// Progress returns the fraction of scheduled nodes already visible.
func (s *Scheduler) Progress() float64 {
	switch s.state {
	case Complete:
		return 1
	case NotStarted:
		return 0
	}
	total := len(s.schedule) + s.instantCount()
	if total == 0 {
		return 0
	}
	return float64(s.next+s.instantCount()) / float64(total)
}

func (s *Scheduler) instantCount() int {
	n := 0
	for _, at := range s.revealed {
		if at.IsZero() {
			n++
		}
	}
	return n
}
