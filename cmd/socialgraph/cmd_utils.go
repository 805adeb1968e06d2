package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cockroachdb/errors"

	"github.com/dd0wney/cluso-socialgraph/pkg/source"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// loadDataset reads and validates the fixture named by --data.
func loadDataset() (*source.Dataset, error) {
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dataPath)
	}
	ds, err := source.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validate %s", dataPath)
	}
	return ds, nil
}

func labels(ds *source.Dataset) map[uint64]string {
	out := make(map[uint64]string, len(ds.Nodes))
	for _, n := range ds.Nodes {
		out[n.ID] = n.Label
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Newf("invalid person id %q", s)
	}
	return id, nil
}
