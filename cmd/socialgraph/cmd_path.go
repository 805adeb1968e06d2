package main

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
)

// ErrNoPath is returned when two people are not connected.
var ErrNoPath = errors.New("no path")

func runPath(cmd *cobra.Command, args []string) error {
	from, err := parseID(args[0])
	if err != nil {
		return err
	}
	to, err := parseID(args[1])
	if err != nil {
		return err
	}

	ds, err := loadDataset()
	if err != nil {
		return err
	}
	path := algorithms.ShortestPath(ds.NodeIDs(), ds.EdgeRefs(), from, to)
	if path == nil {
		return errors.Wrapf(ErrNoPath, "between %d and %d", from, to)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, path)
	}
	names := labels(ds)
	hops := make([]string, len(path))
	for i, id := range path {
		hops[i] = fmt.Sprintf("%s (%d)", names[id], id)
	}
	fmt.Fprintf(out, "%s\n%d hops\n", strings.Join(hops, " -> "), len(path)-1)
	return nil
}
