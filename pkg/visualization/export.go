package visualization

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ExportJSON encodes the visible part of a frame for clients that only
// want what is on screen.
func ExportJSON(f Frame) ([]byte, error) {
	type exportData struct {
		Seq    uint64     `json:"seq"`
		Reveal string     `json:"reveal"`
		Nodes  []NodeView `json:"nodes"`
		Edges  []EdgeView `json:"edges"`
	}

	data := exportData{
		Seq:    f.Seq,
		Reveal: f.Reveal.String(),
		Nodes:  f.VisibleNodes(),
		Edges:  f.Edges,
	}
	if data.Edges == nil {
		data.Edges = []EdgeView{}
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encode frame")
	}
	return out, nil
}

// RenderHTML writes the visible part of a frame as a standalone echarts
// graph page. Positions are fixed; echarts does no layout of its own.
func RenderHTML(f Frame, title string, w io.Writer) error {
	nodes := make([]opts.GraphNode, 0, len(f.Nodes))
	for _, n := range f.VisibleNodes() {
		nodes = append(nodes, opts.GraphNode{
			Name:       nodeKey(n),
			X:          float32(n.X),
			Y:          float32(n.Y),
			Value:      float32(n.Betweenness),
			SymbolSize: n.Size,
		})
	}

	names := make(map[uint64]string, len(f.Nodes))
	for _, n := range f.Nodes {
		names[n.ID] = nodeKey(n)
	}

	links := make([]opts.GraphLink, 0, len(f.Edges))
	for _, e := range f.Edges {
		links = append(links, opts.GraphLink{
			Source: names[e.Source],
			Target: names[e.Target],
		})
	}

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Height:    "100vh",
			Width:     "100vw",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	graph.AddSeries(
		"socialgraph",
		nodes,
		links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:    "none",
			Roam:      opts.Bool(true),
			Draggable: opts.Bool(false),
		}),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "right",
		}),
	)

	if err := graph.Render(w); err != nil {
		return errors.Wrap(err, "render echarts graph")
	}
	return nil
}

// nodeKey is the unique echarts name for a node; labels may repeat.
func nodeKey(n NodeView) string {
	if n.Label == "" {
		return "#" + strconv.FormatUint(n.ID, 10)
	}
	return n.Label + " #" + strconv.FormatUint(n.ID, 10)
}
