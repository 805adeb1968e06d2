package main

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-socialgraph/pkg/algorithms"
)

// personMetrics is one row of the metrics report.
type personMetrics struct {
	Rank        int     `json:"rank"`
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Degree      int     `json:"degree"`
	Betweenness float64 `json:"betweenness"`
	Clustering  float64 `json:"clustering"`
}

type metricsReport struct {
	People            []personMetrics `json:"people"`
	Components        int             `json:"components"`
	AverageClustering float64         `json:"average_clustering"`
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	report, err := buildMetricsReport(ds.NodeIDs(), ds.EdgeRefs(), labels(ds), rankBy, topN)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, report)
	}

	rows := make([][]string, 0, len(report.People))
	for _, p := range report.People {
		rows = append(rows, []string{
			strconv.Itoa(p.Rank),
			strconv.FormatUint(p.ID, 10),
			p.Name,
			strconv.Itoa(p.Degree),
			strconv.FormatFloat(p.Betweenness, 'f', 2, 64),
			strconv.FormatFloat(p.Clustering, 'f', 2, 64),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "ID", "Name", "Degree", "Betweenness", "Clustering"}, rows))
	fmt.Fprintf(out, "%d people, %d components, average clustering %.3f\n",
		len(ds.Nodes), report.Components, report.AverageClustering)
	return nil
}

func buildMetricsReport(nodeIDs []uint64, edges []algorithms.EdgeRef, names map[uint64]string, by string, n int) (*metricsReport, error) {
	m := algorithms.ComputeMetrics(nodeIDs, edges)

	var scores map[uint64]float64
	switch by {
	case "degree":
		scores = m.DegreeScores()
	case "betweenness":
		scores = m.BetweennessScores()
	default:
		return nil, errors.Newf("unknown ranking %q (want degree or betweenness)", by)
	}
	if n <= 0 || n > len(scores) {
		n = len(scores)
	}

	clustering := algorithms.ClusteringCoefficient(nodeIDs, edges)
	report := &metricsReport{
		People:            make([]personMetrics, 0, n),
		Components:        len(algorithms.ConnectedComponents(nodeIDs, edges).Communities),
		AverageClustering: algorithms.AverageClusteringCoefficient(nodeIDs, edges),
	}
	for i, ranked := range algorithms.TopNodes(scores, n) {
		nm := m.Get(ranked.NodeID)
		report.People = append(report.People, personMetrics{
			Rank:        i + 1,
			ID:          ranked.NodeID,
			Name:        names[ranked.NodeID],
			Degree:      nm.Degree,
			Betweenness: nm.Betweenness,
			Clustering:  clustering[ranked.NodeID],
		})
	}
	return report, nil
}
