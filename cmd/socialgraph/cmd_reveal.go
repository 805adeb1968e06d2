package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-socialgraph/pkg/reveal"
)

// revealStep is when one person appears, relative to the start of the
// reveal.
type revealStep struct {
	Wave   int           `json:"wave"`
	ID     uint64        `json:"id"`
	Name   string        `json:"name"`
	Offset time.Duration `json:"offset_ns"`
}

func runReveal(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	waves := algorithms.BFSWaves(ds.NodeIDs(), ds.EdgeRefs(), viewerID)
	steps := revealSchedule(waves, viewerID, reveal.DefaultTiming(), labels(ds))

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, steps)
	}

	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, []string{
			strconv.Itoa(s.Wave),
			strconv.FormatUint(s.ID, 10),
			s.Name,
			s.Offset.String(),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Wave", "ID", "Name", "Appears"}, rows))
	return nil
}

// revealSchedule runs a scheduler to completion and reads back when each
// person became visible.
func revealSchedule(waves [][]uint64, viewer uint64, timing reveal.Timing, names map[uint64]string) []revealStep {
	start := time.Unix(0, 0)
	s := reveal.NewScheduler(timing)
	s.Start(start, waves, viewer)
	s.Advance(start.Add(24 * time.Hour))

	steps := make([]revealStep, 0)
	for wi, wave := range waves {
		for _, id := range wave {
			step := revealStep{Wave: wi, ID: id, Name: names[id]}
			if at, ok := s.RevealedAt(id); ok && !at.IsZero() {
				step.Offset = at.Sub(start)
			}
			steps = append(steps, step)
		}
	}
	return steps
}
