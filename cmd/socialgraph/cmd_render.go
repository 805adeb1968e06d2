package main

import (
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-socialgraph/pkg/source"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

const renderStep = time.Second / visualization.DefaultFrameRate

func runRender(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}

	frame := settle(ds, viewerID, renderTicks)

	var out io.Writer = cmd.OutOrStdout()
	if renderOut != "" {
		f, err := os.Create(renderOut)
		if err != nil {
			return errors.Wrapf(err, "create %s", renderOut)
		}
		defer f.Close()
		out = f
	}
	if err := visualization.RenderHTML(frame, renderTitle, out); err != nil {
		return err
	}
	if renderOut != "" {
		cmd.PrintErrf("wrote %s (%d people, %d relationships drawn)\n", renderOut, len(frame.Nodes), len(frame.Edges))
	}
	return nil
}

// settle runs a controller on a synthetic clock until the layout cools or
// maxTicks is reached. The reveal is skipped so every person is drawn.
func settle(ds *source.Dataset, viewer uint64, maxTicks int) visualization.Frame {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	ctrl := visualization.NewController(visualization.DefaultLayoutConfig(),
		visualization.WithSeed(1),
		visualization.WithViewer(viewer),
		visualization.WithClock(clock))
	ctrl.RefreshData(ds.Nodes, ds.Edges)
	ctrl.FinishReveal()

	frame := ctrl.Tick(now)
	for i := 0; i < maxTicks && !frame.Settled; i++ {
		now = now.Add(renderStep)
		frame = ctrl.Tick(now)
	}
	return frame
}
