package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

var (
	dataPath   string
	viewerID   uint64
	jsonOutput bool

	topN   int
	rankBy string

	layoutAlgorithm string
	canvasWidth     float64
	canvasHeight    float64

	renderOut   string
	renderTitle string
	renderTicks int

	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration

	rootCmd = &cobra.Command{
		Use:           "socialgraph",
		Short:         "Inspect and lay out a social graph fixture",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	metricsCmd = &cobra.Command{
		Use:   "metrics",
		Short: "Degree and betweenness centrality per person",
		Args:  cobra.NoArgs,
		RunE:  runMetrics, // cmd_metrics.go
	}

	revealCmd = &cobra.Command{
		Use:   "reveal",
		Short: "Breadth-first reveal order and timing from the viewer",
		Args:  cobra.NoArgs,
		RunE:  runReveal, // cmd_reveal.go
	}

	layoutCmd = &cobra.Command{
		Use:   "layout",
		Short: "Compute node positions as JSON",
		Args:  cobra.NoArgs,
		RunE:  runLayout, // cmd_layout.go
	}

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Settle the layout and write an HTML chart",
		Args:  cobra.NoArgs,
		RunE:  runRender, // cmd_render.go
	}

	pathCmd = &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Shortest chain of relationships between two people",
		Args:  cobra.ExactArgs(2),
		RunE:  runPath, // cmd_path.go
	}

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Check a fixture for malformed people and relationships",
		Args:  cobra.NoArgs,
		RunE:  runValidate, // cmd_validate.go
	}

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate an API key and the bcrypt hash for the server config",
		Args:  cobra.NoArgs,
		RunE:  runKeygen, // cmd_auth.go
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with the secret in " + secretEnv,
		Args:  cobra.NoArgs,
		RunE:  runToken, // cmd_auth.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "graph.yaml", "YAML fixture with people and relationships")
	rootCmd.PersistentFlags().Uint64Var(&viewerID, "viewer", 1, "Person the reveal and radial layouts start from")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")

	metricsCmd.Flags().IntVarP(&topN, "top", "n", 0, "Show only the top N people (0 for all)")
	metricsCmd.Flags().StringVar(&rankBy, "by", "betweenness", "Rank by degree or betweenness")

	defaults := visualization.DefaultLayoutConfig()
	layoutCmd.Flags().StringVarP(&layoutAlgorithm, "algorithm", "a", "force", "force, circular, hierarchical or radial")
	layoutCmd.Flags().Float64Var(&canvasWidth, "width", defaults.Width, "Canvas width")
	layoutCmd.Flags().Float64Var(&canvasHeight, "height", defaults.Height, "Canvas height")

	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (stdout when empty)")
	renderCmd.Flags().StringVar(&renderTitle, "title", "Social graph", "Chart title")
	renderCmd.Flags().IntVar(&renderTicks, "max-ticks", 3000, "Upper bound on simulation ticks before rendering")

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Who the token is for")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "editor", "viewer, editor or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(metricsCmd, revealCmd, layoutCmd, renderCmd, pathCmd, validateCmd, keygenCmd, tokenCmd)
}
