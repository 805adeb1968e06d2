package visualization

import "github.com/dd0wney/cluso-socialgraph/pkg/reveal"

// NodeView is the read-only state of one person for a frame.
type NodeView struct {
	ID          uint64  `json:"id"`
	Label       string  `json:"label"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Size        float64 `json:"size"`
	Degree      int     `json:"degree"`
	Betweenness float64 `json:"betweenness"`
	Visible     bool    `json:"visible"`
	IsNew       bool    `json:"is_new,omitempty"`
	Pinned      bool    `json:"pinned,omitempty"`
}

// EdgeView is a renderable relationship: both endpoints are visible and its
// intensity is not hidden.
type EdgeView struct {
	ID        uint64    `json:"id"`
	Source    uint64    `json:"source"`
	Target    uint64    `json:"target"`
	Intensity Intensity `json:"intensity"`
	Pending   bool      `json:"pending,omitempty"`
	Path      CubicPath `json:"path"`
	Drawing   bool      `json:"drawing"`
}

// Frame is an immutable snapshot produced by one controller tick.
type Frame struct {
	Seq      uint64       `json:"seq"`
	Alpha    float64      `json:"alpha"`
	Settled  bool         `json:"settled"`
	Reveal   reveal.State `json:"reveal"`
	Progress float64      `json:"reveal_progress"`
	Nodes    []NodeView   `json:"nodes"`
	Edges    []EdgeView   `json:"edges"`
}

// Node returns the view for id.
func (f *Frame) Node(id uint64) (NodeView, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// VisibleNodes returns only the nodes that may be rendered.
func (f *Frame) VisibleNodes() []NodeView {
	out := make([]NodeView, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		if n.Visible {
			out = append(out, n)
		}
	}
	return out
}

// animated reports whether any node is entering or any edge is drawing in.
func (f *Frame) animated() bool {
	for _, n := range f.Nodes {
		if n.IsNew {
			return true
		}
	}
	for _, e := range f.Edges {
		if e.Drawing {
			return true
		}
	}
	return false
}
