package graph

// A DAG decomposition of a graph based on strongly connected components.
// The nodes in component i only have edges to nodes in components with index
// j <= i.
type SCCDecomposition[T comparable] struct {
	Components [][]T
	comp       map[T]int
	Original   Graph[T]
}

// ComponentOf returns the index of the component of node, or -1 when node was
// not reached from the start nodes.
func (scc SCCDecomposition[T]) ComponentOf(node T) int {
	if comp, hasComp := scc.comp[node]; hasComp {
		return comp
	}
	return -1
}

// OnCycle reports whether node lies on a cycle: its component has other
// nodes, or node has an edge to itself.
func (scc SCCDecomposition[T]) OnCycle(node T) bool {
	c := scc.ComponentOf(node)
	if c < 0 {
		return false
	}
	if len(scc.Components[c]) > 1 {
		return true
	}
	for _, e := range scc.Original.Edges(node) {
		if e == node {
			return true
		}
	}
	return false
}

// SCC computes the strongly connected components of the subgraph reachable
// from the start nodes.
func (G Graph[T]) SCC(startNodes []T) SCCDecomposition[T] {
	// Source:
	// https://github.com/kth-competitive-programming/kactl/blob/main/content/graph/SCC.h

	val, comp := map[T]int{}, map[T]int{}
	time := 0
	var z, cont []T
	var components [][]T

	var rec func(T)
	rec = func(node T) {
		time++
		low := time
		val[node] = low
		stackH := len(z)
		z = append(z, node)

		for _, e := range G.Edges(node) {
			if _, hasComp := comp[e]; !hasComp {
				if _, visited := val[e]; !visited {
					rec(e)
				}

				if val[e] < low {
					low = val[e]
				}
			}
		}

		if low == val[node] {
			for len(z) > stackH {
				x := z[len(z)-1]
				z = z[:len(z)-1]
				comp[x] = len(components)
				cont = append(cont, x)
			}

			components = append(components, cont)
			cont = nil
		}

		val[node] = low
	}

	for _, node := range startNodes {
		if _, hasComp := comp[node]; !hasComp {
			rec(node)
		}
	}

	return SCCDecomposition[T]{
		Components: components,
		comp:       comp,
		Original:   G,
	}
}
