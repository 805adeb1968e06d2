package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runValidate(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	refs := ds.EdgeRefs()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d people, %d relationships (%d usable), fingerprint %016x\n",
		dataPath, len(ds.Nodes), len(ds.Edges), len(refs), ds.Fingerprint())
	return nil
}
