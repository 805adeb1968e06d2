// Command socialgraph-tui animates the layout of a graph fixture in the
// terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/cluso-socialgraph/pkg/source"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

func main() {
	dataPath := flag.String("data", "graph.yaml", "YAML fixture with people and relationships")
	viewer := flag.Uint64("viewer", 1, "Person the reveal starts from")
	fps := flag.Int("fps", 30, "Frames per second")
	flag.Parse()

	data, err := os.ReadFile(*dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *dataPath, err)
		os.Exit(1)
	}
	ds, err := source.ParseYAML(data)
	if err == nil {
		err = ds.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid fixture %s: %v\n", *dataPath, err)
		os.Exit(1)
	}

	ctrl := visualization.NewController(visualization.DefaultLayoutConfig(),
		visualization.WithViewer(*viewer))
	ctrl.RefreshData(ds.Nodes, ds.Edges)

	interval := time.Second / time.Duration(max(*fps, 1))
	p := tea.NewProgram(newModel(ctrl, interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
