// Command socialgraph inspects a social graph fixture: centrality, reveal
// order, layouts and a rendered chart.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
