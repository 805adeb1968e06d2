package algorithms

import (
	"slices"
	"testing"
)

func TestShortestPath(t *testing.T) {
	nodeIDs, edges := pathGraph(5)
	// Shortcut 1-4 makes 1 -> 5 three nodes shorter.
	edges = append(edges, EdgeRef{ID: 200, Source: 1, Target: 4})

	tests := []struct {
		name       string
		start, end uint64
		want       []uint64
	}{
		{"same node", 3, 3, []uint64{3}},
		{"adjacent", 1, 2, []uint64{1, 2}},
		{"via shortcut", 1, 5, []uint64{1, 4, 5}},
		{"reverse", 5, 1, []uint64{5, 4, 1}},
		{"unknown start", 99, 1, nil},
		{"unknown end", 1, 99, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShortestPath(nodeIDs, edges, tt.start, tt.end)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ShortestPath(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestShortestPath_Disconnected(t *testing.T) {
	got := ShortestPath([]uint64{1, 2, 3}, []EdgeRef{{ID: 1, Source: 1, Target: 2}}, 1, 3)
	if got != nil {
		t.Errorf("Expected no path, got %v", got)
	}
}

func TestDistances(t *testing.T) {
	nodeIDs, edges := pathGraph(4)
	nodeIDs = append(nodeIDs, 9)

	got := Distances(nodeIDs, edges, 2)

	want := map[uint64]int{1: 1, 2: 0, 3: 1, 4: 2}
	if len(got) != len(want) {
		t.Fatalf("Distances = %v, want %v", got, want)
	}
	for id, d := range want {
		if got[id] != d {
			t.Errorf("distance to %d = %d, want %d", id, got[id], d)
		}
	}

	if len(Distances(nodeIDs, edges, 42)) != 0 {
		t.Error("Expected empty distances for unknown source")
	}
}
