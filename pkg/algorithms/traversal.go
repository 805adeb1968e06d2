package algorithms

// BFSWaves orders every node into breadth-first waves for the staggered
// reveal. The first wave is the root alone and each following wave is the
// frontier reached in one more hop.
//
// When root is absent or has no neighbours, traversal starts from the first
// node in input order that has any. Once a component is exhausted the next
// unvisited node (input order) seeds a new traversal, so disconnected
// components and isolated nodes come after the root's component.
func BFSWaves(nodeIDs []uint64, edges []EdgeRef, root uint64) [][]uint64 {
	if len(nodeIDs) == 0 {
		return nil
	}

	adj, _ := buildAdjacency(nodeIDs, edges)

	start, ok := chooseRoot(nodeIDs, adj, root)
	if !ok {
		start = nodeIDs[0]
	}

	visited := make(map[uint64]bool, len(adj))
	waves := make([][]uint64, 0)

	traverse := func(from uint64) {
		visited[from] = true
		current := []uint64{from}

		for len(current) > 0 {
			waves = append(waves, current)
			next := make([]uint64, 0)

			for _, nodeID := range current {
				for _, neighbour := range adj[nodeID] {
					if !visited[neighbour] {
						visited[neighbour] = true
						next = append(next, neighbour)
					}
				}
			}

			current = next
		}
	}

	traverse(start)

	for _, nodeID := range nodeIDs {
		if !visited[nodeID] {
			traverse(nodeID)
		}
	}

	return waves
}

// chooseRoot returns root when it is present and connected, otherwise the
// first connected node in input order.
func chooseRoot(nodeIDs []uint64, adj adjacency, root uint64) (uint64, bool) {
	if neighbours, ok := adj[root]; ok && len(neighbours) > 0 {
		return root, true
	}
	for _, nodeID := range nodeIDs {
		if len(adj[nodeID]) > 0 {
			return nodeID, true
		}
	}
	return 0, false
}

// FlattenWaves returns the reveal order as a single slice.
func FlattenWaves(waves [][]uint64) []uint64 {
	total := 0
	for _, wave := range waves {
		total += len(wave)
	}
	order := make([]uint64, 0, total)
	for _, wave := range waves {
		order = append(order, wave...)
	}
	return order
}
