package algorithms

import "container/list"

// ShortestPath returns a shortest chain of people from start to end,
// inclusive, or nil when they are not connected or either is unknown.
// The search is bidirectional BFS; neighbours are expanded in edge order so
// the result is deterministic.
func ShortestPath(nodeIDs []uint64, edges []EdgeRef, start, end uint64) []uint64 {
	adj, _ := buildAdjacency(nodeIDs, edges)
	if _, ok := adj[start]; !ok {
		return nil
	}
	if _, ok := adj[end]; !ok {
		return nil
	}
	if start == end {
		return []uint64{start}
	}

	forwardQueue := list.New()
	forwardQueue.PushBack(start)
	forward := map[uint64]uint64{start: start} // node -> parent

	backwardQueue := list.New()
	backwardQueue.PushBack(end)
	backward := map[uint64]uint64{end: end}

	for forwardQueue.Len() > 0 && backwardQueue.Len() > 0 {
		if meet, ok := expandFrontier(adj, forwardQueue, forward, backward); ok {
			return joinPaths(meet, forward, backward)
		}
		if meet, ok := expandFrontier(adj, backwardQueue, backward, forward); ok {
			return joinPaths(meet, forward, backward)
		}
	}
	return nil
}

// expandFrontier advances one BFS level and reports where it met the other
// search.
func expandFrontier(adj adjacency, queue *list.List, visited, other map[uint64]uint64) (uint64, bool) {
	for level := queue.Len(); level > 0; level-- {
		current, ok := queue.Remove(queue.Front()).(uint64)
		if !ok {
			continue
		}
		for _, n := range adj[current] {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = current
			if _, found := other[n]; found {
				return n, true
			}
			queue.PushBack(n)
		}
	}
	return 0, false
}

func joinPaths(meet uint64, forward, backward map[uint64]uint64) []uint64 {
	path := []uint64{meet}
	for node := meet; forward[node] != node; {
		node = forward[node]
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	for node := meet; backward[node] != node; {
		node = backward[node]
		path = append(path, node)
	}
	return path
}

// Distances returns the hop count from source to every reachable node.
func Distances(nodeIDs []uint64, edges []EdgeRef, source uint64) map[uint64]int {
	adj, _ := buildAdjacency(nodeIDs, edges)
	if _, ok := adj[source]; !ok {
		return map[uint64]int{}
	}

	distances := map[uint64]int{source: 0}
	queue := list.New()
	queue.PushBack(source)
	for queue.Len() > 0 {
		current, ok := queue.Remove(queue.Front()).(uint64)
		if !ok {
			continue
		}
		for _, n := range adj[current] {
			if _, seen := distances[n]; !seen {
				distances[n] = distances[current] + 1
				queue.PushBack(n)
			}
		}
	}
	return distances
}
