package algorithms

import (
	"container/list"
	"slices"
	"sort"

	"github.com/dd0wney/cluso-socialgraph/pkg/parallel"
)

// ParallelThreshold is the node count from which the per-source Brandes
// passes are spread over a worker pool.
const ParallelThreshold = 256

// EdgeRef is an undirected relationship between two people. Orientation of
// Source and Target carries no meaning.
type EdgeRef struct {
	ID     uint64 `json:"id"`
	Source uint64 `json:"source"`
	Target uint64 `json:"target"`
}

// NodeMetrics holds the centrality measures for a single person.
type NodeMetrics struct {
	Degree      int     `json:"degree"`
	Betweenness float64 `json:"betweenness"`
}

// MetricsResult contains per-node centrality plus the graph-wide maxima used
// to normalise node sizes.
type MetricsResult struct {
	Nodes          map[uint64]NodeMetrics `json:"nodes"`
	MaxDegree      int                    `json:"max_degree"`
	MaxBetweenness float64                `json:"max_betweenness"`
}

// Get returns the metrics for a node, zero-valued when unknown.
func (m *MetricsResult) Get(nodeID uint64) NodeMetrics {
	if m == nil {
		return NodeMetrics{}
	}
	return m.Nodes[nodeID]
}

// NormalizedDegree returns degree / max degree in [0, 1].
func (m *MetricsResult) NormalizedDegree(nodeID uint64) float64 {
	if m == nil || m.MaxDegree == 0 {
		return 0
	}
	return float64(m.Nodes[nodeID].Degree) / float64(m.MaxDegree)
}

// NormalizedBetweenness returns betweenness / max betweenness in [0, 1].
func (m *MetricsResult) NormalizedBetweenness(nodeID uint64) float64 {
	if m == nil || m.MaxBetweenness == 0 {
		return 0
	}
	return m.Nodes[nodeID].Betweenness / m.MaxBetweenness
}

// adjacency is an undirected multigraph adjacency list. Neighbours appear once
// per incident edge so parallel edges reinforce path multiplicity.
type adjacency map[uint64][]uint64

// buildAdjacency keeps only edges whose endpoints are both known. Self-loops
// are dropped since they never lie on a shortest path.
func buildAdjacency(nodeIDs []uint64, edges []EdgeRef) (adjacency, []EdgeRef) {
	adj := make(adjacency, len(nodeIDs))
	for _, id := range nodeIDs {
		adj[id] = nil
	}

	valid := make([]EdgeRef, 0, len(edges))
	for _, edge := range edges {
		if edge.Source == edge.Target {
			continue
		}
		if _, ok := adj[edge.Source]; !ok {
			continue
		}
		if _, ok := adj[edge.Target]; !ok {
			continue
		}
		adj[edge.Source] = append(adj[edge.Source], edge.Target)
		adj[edge.Target] = append(adj[edge.Target], edge.Source)
		valid = append(valid, edge)
	}
	return adj, valid
}

// brandesBFS runs the forward phase of Brandes' algorithm from source and
// returns the visit stack, shortest-path counts and predecessor lists.
func brandesBFS(adj adjacency, source uint64) ([]uint64, map[uint64]float64, map[uint64][]uint64) {
	stack := make([]uint64, 0, len(adj))
	predecessors := make(map[uint64][]uint64, len(adj))
	sigma := make(map[uint64]float64, len(adj))
	distance := make(map[uint64]int, len(adj))

	for nodeID := range adj {
		distance[nodeID] = -1
	}
	sigma[source] = 1.0
	distance[source] = 0

	queue := list.New()
	queue.PushBack(source)

	for queue.Len() > 0 {
		v, ok := queue.Remove(queue.Front()).(uint64)
		if !ok {
			continue
		}
		stack = append(stack, v)

		for _, w := range adj[v] {
			if distance[w] < 0 {
				queue.PushBack(w)
				distance[w] = distance[v] + 1
			}
			if distance[w] == distance[v]+1 {
				sigma[w] += sigma[v]
				predecessors[w] = append(predecessors[w], v)
			}
		}
	}

	return stack, sigma, predecessors
}

// brandesAccumulate is the backward dependency pass for a single source.
func brandesAccumulate(source uint64, stack []uint64, sigma map[uint64]float64, predecessors map[uint64][]uint64, betweenness map[uint64]float64) {
	delta := make(map[uint64]float64, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]
		for _, v := range predecessors[w] {
			delta[v] += (sigma[v] / sigma[w]) * (1.0 + delta[w])
		}
		if w != source {
			betweenness[w] += delta[w]
		}
	}
}

// brandes sums dependencies over every source. Sources are visited in id
// order and partial sums are merged in chunk order, so a given worker count
// always produces the same floating point result. workers <= 0 means one
// per CPU; 1 runs inline.
func brandes(adj adjacency, workers int) map[uint64]float64 {
	sources := make([]uint64, 0, len(adj))
	for id := range adj {
		sources = append(sources, id)
	}
	slices.Sort(sources)

	pass := func(start, end int) map[uint64]float64 {
		partial := make(map[uint64]float64, len(adj))
		for _, source := range sources[start:end] {
			stack, sigma, predecessors := brandesBFS(adj, source)
			brandesAccumulate(source, stack, sigma, predecessors, partial)
		}
		return partial
	}

	if workers == 1 {
		return pass(0, len(sources))
	}

	betweenness := make(map[uint64]float64, len(adj))
	for _, partial := range parallel.Map(len(sources), workers, pass) {
		for id, v := range partial {
			betweenness[id] += v
		}
	}
	return betweenness
}

// ComputeMetrics computes degree and betweenness centrality for every node.
//
// Betweenness is raw (unnormalised) Brandes over the undirected graph: each
// unordered pair is seen once from each endpoint, so totals are halved. Edges
// referencing unknown nodes are ignored. The result is always recomputed in
// full; there is no incremental update.
func ComputeMetrics(nodeIDs []uint64, edges []EdgeRef) *MetricsResult {
	result := &MetricsResult{
		Nodes: make(map[uint64]NodeMetrics, len(nodeIDs)),
	}
	if len(nodeIDs) == 0 {
		return result
	}

	adj, valid := buildAdjacency(nodeIDs, edges)

	degree := make(map[uint64]int, len(adj))
	for _, edge := range valid {
		degree[edge.Source]++
		degree[edge.Target]++
	}

	workers := 1
	if len(adj) >= ParallelThreshold {
		workers = 0
	}
	betweenness := brandes(adj, workers)

	for nodeID := range adj {
		m := NodeMetrics{
			Degree:      degree[nodeID],
			Betweenness: betweenness[nodeID] / 2,
		}
		result.Nodes[nodeID] = m
		if m.Degree > result.MaxDegree {
			result.MaxDegree = m.Degree
		}
		if m.Betweenness > result.MaxBetweenness {
			result.MaxBetweenness = m.Betweenness
		}
	}

	return result
}

// RankedNode is a node with a centrality score.
type RankedNode struct {
	NodeID uint64  `json:"node_id"`
	Score  float64 `json:"score"`
}

// TopNodes returns the n nodes with the highest score, ties broken by node ID
// ascending for determinism.
func TopNodes(scores map[uint64]float64, n int) []RankedNode {
	if n <= 0 {
		return nil
	}

	result := make([]RankedNode, 0, len(scores))
	for nodeID, score := range scores {
		result = append(result, RankedNode{NodeID: nodeID, Score: score})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].NodeID < result[j].NodeID
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}

// BetweennessScores flattens betweenness into a score map for ranking.
func (m *MetricsResult) BetweennessScores() map[uint64]float64 {
	scores := make(map[uint64]float64, len(m.Nodes))
	for id, nm := range m.Nodes {
		scores[id] = nm.Betweenness
	}
	return scores
}

// DegreeScores flattens degree into a score map for ranking.
func (m *MetricsResult) DegreeScores() map[uint64]float64 {
	scores := make(map[uint64]float64, len(m.Nodes))
	for id, nm := range m.Nodes {
		scores[id] = float64(nm.Degree)
	}
	return scores
}
