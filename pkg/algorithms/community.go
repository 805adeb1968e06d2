package algorithms

import "container/list"

// Community is one connected group of people.
type Community struct {
	ID      int      `json:"id"`
	Nodes   []uint64 `json:"nodes"`
	Size    int      `json:"size"`
	Density float64  `json:"density"` // distinct internal pairs / possible pairs
}

// CommunityResult assigns every node to a community.
type CommunityResult struct {
	Communities   []*Community   `json:"communities"`
	NodeCommunity map[uint64]int `json:"node_community"`
}

// ConnectedComponents groups nodes into connected components. Components
// are numbered in order of their first node in nodeIDs, and members are
// listed in BFS order.
func ConnectedComponents(nodeIDs []uint64, edges []EdgeRef) *CommunityResult {
	adj, _ := buildAdjacency(nodeIDs, edges)
	neighbours := distinctNeighbours(adj)

	result := &CommunityResult{
		Communities:   make([]*Community, 0),
		NodeCommunity: make(map[uint64]int, len(adj)),
	}
	visited := make(map[uint64]bool, len(adj))

	for _, start := range nodeIDs {
		if visited[start] {
			continue
		}
		if _, ok := adj[start]; !ok {
			continue
		}

		component := &Community{ID: len(result.Communities)}
		queue := list.New()
		queue.PushBack(start)
		visited[start] = true

		for queue.Len() > 0 {
			nodeID, ok := queue.Remove(queue.Front()).(uint64)
			if !ok {
				continue
			}
			component.Nodes = append(component.Nodes, nodeID)
			result.NodeCommunity[nodeID] = component.ID

			for _, n := range adj[nodeID] {
				if !visited[n] {
					visited[n] = true
					queue.PushBack(n)
				}
			}
		}

		component.Size = len(component.Nodes)
		component.Density = density(component.Nodes, neighbours)
		result.Communities = append(result.Communities, component)
	}

	return result
}

func density(members []uint64, neighbours map[uint64]map[uint64]bool) float64 {
	k := len(members)
	if k < 2 {
		return 0
	}
	links := 0
	for _, id := range members {
		links += len(neighbours[id])
	}
	return float64(links/2) / float64(k*(k-1)/2)
}

// distinctNeighbours collapses parallel edges into neighbour sets.
func distinctNeighbours(adj adjacency) map[uint64]map[uint64]bool {
	sets := make(map[uint64]map[uint64]bool, len(adj))
	for id, ns := range adj {
		set := make(map[uint64]bool, len(ns))
		for _, n := range ns {
			set[n] = true
		}
		sets[id] = set
	}
	return sets
}

// ClusteringCoefficient computes the local clustering coefficient of every
// node: the fraction of pairs of its distinct neighbours that are themselves
// related. Nodes with fewer than two neighbours score zero.
func ClusteringCoefficient(nodeIDs []uint64, edges []EdgeRef) map[uint64]float64 {
	adj, _ := buildAdjacency(nodeIDs, edges)
	neighbours := distinctNeighbours(adj)

	coefficients := make(map[uint64]float64, len(adj))
	for nodeID, set := range neighbours {
		ns := make([]uint64, 0, len(set))
		for n := range set {
			ns = append(ns, n)
		}
		k := len(ns)
		if k < 2 {
			coefficients[nodeID] = 0
			continue
		}

		triangles := 0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if neighbours[ns[i]][ns[j]] {
					triangles++
				}
			}
		}
		coefficients[nodeID] = float64(triangles) / float64(k*(k-1)/2)
	}
	return coefficients
}

// AverageClusteringCoefficient is the mean local coefficient, zero for an
// empty graph.
func AverageClusteringCoefficient(nodeIDs []uint64, edges []EdgeRef) float64 {
	coefficients := ClusteringCoefficient(nodeIDs, edges)
	if len(coefficients) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range coefficients {
		sum += c
	}
	return sum / float64(len(coefficients))
}
