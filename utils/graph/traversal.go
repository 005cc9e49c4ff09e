package graph

import W "github.com/cs-au-dk/flowpass/utils/worklist"

type traversalFunc[T any] func(node T) (stop bool)

// BFSV performs a breadth-first search from the start nodes, calling f for
// every reachable node until f returns true.
// Returns whether the search stopped early.
func (G Graph[T]) BFSV(f traversalFunc[T], starts ...T) bool {
	visited := map[T]bool{}
	for _, start := range starts {
		visited[start] = true
	}

	done := false
	W.StartV(starts, func(node T, add func(T)) {
		if done || f(node) {
			done = true
			return
		}

		for _, next := range G.Edges(node) {
			if !visited[next] {
				visited[next] = true
				add(next)
			}
		}
	})

	return done
}

// Reachable lists the nodes reachable from start in breadth-first order.
func (G Graph[T]) Reachable(start T) (nodes []T) {
	G.BFSV(func(node T) bool {
		nodes = append(nodes, node)
		return false
	}, start)
	return
}
