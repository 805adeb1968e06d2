package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

type placedPerson struct {
	ID   uint64  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func runLayout(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}

	cfg := visualization.DefaultLayoutConfig()
	cfg.Width = canvasWidth
	cfg.Height = canvasHeight

	placed, err := computeLayout(layoutAlgorithm, cfg, viewerID, ds.NodeIDs(), ds.EdgeRefs(), labels(ds))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, placed)
	}
	rows := make([][]string, 0, len(placed))
	for _, p := range placed {
		rows = append(rows, []string{
			strconv.FormatUint(p.ID, 10),
			p.Name,
			strconv.FormatFloat(p.X, 'f', 1, 64),
			strconv.FormatFloat(p.Y, 'f', 1, 64),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Name", "X", "Y"}, rows))
	return nil
}

func newLayout(name string, cfg *visualization.LayoutConfig, root uint64) (visualization.Layout, error) {
	switch name {
	case "force":
		return visualization.NewForceDirectedLayout(cfg, root), nil
	case "circular":
		return visualization.NewCircularLayout(cfg), nil
	case "hierarchical":
		return visualization.NewHierarchicalLayout(cfg, root), nil
	case "radial":
		return visualization.NewRadialLayout(cfg, root), nil
	default:
		return nil, errors.Newf("unknown layout %q", name)
	}
}

// computeLayout places every person and returns them ordered by id.
func computeLayout(name string, cfg visualization.LayoutConfig, root uint64, nodeIDs []uint64, edges []algorithms.EdgeRef, names map[uint64]string) ([]placedPerson, error) {
	layout, err := newLayout(name, &cfg, root)
	if err != nil {
		return nil, err
	}
	positions, err := layout.ComputeLayout(nodeIDs, edges)
	if err != nil {
		return nil, errors.Wrapf(err, "%s layout", name)
	}

	placed := make([]placedPerson, 0, len(positions))
	for id, p := range positions {
		placed = append(placed, placedPerson{ID: id, Name: names[id], X: p.X, Y: p.Y})
	}
	slices.SortFunc(placed, func(a, b placedPerson) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return placed, nil
}
