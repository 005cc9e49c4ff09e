// Package graph runs standard graph algorithms over any data with a graph
// representation. The caller only describes the edge relation; edges are
// computed on demand and cached.
package graph

type edgesOf[T comparable] func(node T) []T

type Graph[T comparable] struct {
	edgesOf     edgesOf[T]
	cachedEdges map[T][]T
}

// Of builds the graph whose edges from a node are given by edges.
func Of[T comparable](edges func(node T) []T) Graph[T] {
	return Graph[T]{edgesOf: edges, cachedEdges: map[T][]T{}}
}

func (G Graph[T]) Edges(node T) []T {
	if es, found := G.cachedEdges[node]; found {
		return es
	}

	es := G.edgesOf(node)
	G.cachedEdges[node] = es
	return es
}
