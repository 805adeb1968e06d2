package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

type cell struct {
	r     rune
	style *lipgloss.Style
}

// grid maps layout coordinates onto a character canvas that spans the
// bounding box of the visible nodes.
type grid struct {
	cells      [][]cell
	cols, rows int
	minX, minY float64
	scaleX     float64
	scaleY     float64
}

func newGrid(nodes []visualization.NodeView, cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([][]cell, rows)}
	for i := range g.cells {
		g.cells[i] = make([]cell, cols)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
	}
	if len(nodes) == 0 {
		minX, maxX, minY, maxY = 0, 1, 0, 1
	}
	g.minX, g.minY = minX, minY
	g.scaleX = float64(cols-1) / math.Max(maxX-minX, 1)
	g.scaleY = float64(rows-1) / math.Max(maxY-minY, 1)
	return g
}

func (g *grid) cellAt(p visualization.Position) (col, row int) {
	col = int(math.Round((p.X - g.minX) * g.scaleX))
	row = int(math.Round((p.Y - g.minY) * g.scaleY))
	return col, row
}

func (g *grid) set(col, row int, r rune, style *lipgloss.Style) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.cells[row][col] = cell{r: r, style: style}
}

// plotCurve samples the cubic path densely enough to leave no gaps between
// cells. Endpoints are left for the nodes.
func (g *grid) plotCurve(p visualization.CubicPath, r rune, style *lipgloss.Style) {
	c0, r0 := g.cellAt(p.From)
	c1, r1 := g.cellAt(p.To)
	steps := 2 * max(abs(c1-c0), abs(r1-r0), 1)
	for i := 1; i < steps; i++ {
		col, row := g.cellAt(p.Point(float64(i) / float64(steps)))
		if g.inBounds(col, row) && g.cells[row][col].r == 0 {
			g.set(col, row, r, style)
		}
	}
}

func (g *grid) inBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *grid) String() string {
	var b strings.Builder
	for i, line := range g.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, c := range line {
			switch {
			case c.r == 0:
				b.WriteByte(' ')
			case c.style == nil:
				b.WriteRune(c.r)
			default:
				b.WriteString(c.style.Render(string(c.r)))
			}
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawFrame renders the visible part of a frame: edges first, then each node
// as the initial of its label, then the rest of each label where it fits.
func drawFrame(frame visualization.Frame, cols, rows int) string {
	nodes := frame.VisibleNodes()
	g := newGrid(nodes, cols, rows)

	for _, e := range frame.Edges {
		r, style := '·', &edgeStyle
		switch {
		case e.Pending:
			style = &pendingStyle
		case e.Intensity == visualization.IntensityClose, e.Intensity == visualization.IntensityPartner:
			r, style = '•', &strongStyle
		}
		g.plotCurve(e.Path, r, style)
	}

	for _, n := range nodes {
		col, row := g.cellAt(visualization.Position{X: n.X, Y: n.Y})
		style := &nodeStyle
		switch {
		case n.Pinned:
			style = &pinnedStyle
		case n.IsNew:
			style = &newNodeStyle
		}
		g.set(col, row, initial(n.Label), style)
	}

	for _, n := range nodes {
		col, row := g.cellAt(visualization.Position{X: n.X, Y: n.Y})
		label := []rune(n.Label)
		if len(label) < 2 || col+len(label) >= cols {
			continue
		}
		free := true
		for i := 1; i < len(label) && free; i++ {
			free = g.cells[row][col+i].r == 0
		}
		if !free {
			continue
		}
		for i := 1; i < len(label); i++ {
			g.set(col+i, row, label[i], &labelStyle)
		}
	}

	return g.String()
}

func initial(label string) rune {
	for _, r := range label {
		return r
	}
	return '●'
}
