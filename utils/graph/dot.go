package graph

import (
	"fmt"

	"github.com/cs-au-dk/flowpass/utils"
	"github.com/cs-au-dk/flowpass/utils/dot"
)

var opts = utils.Opts()

type VisualizationConfig[T any] struct {
	// Provides the ID and attributes for dot nodes.
	// If not provided, the ID is the stringified node.
	NodeAttrs func(node T) (string, dot.DotAttrs)
	// Provides the attributes of the edge between two nodes.
	EdgeAttrs func(from, to T) dot.DotAttrs
}

// ToDotGraph renders the subgraph spanned by nodes.
func (G Graph[T]) ToDotGraph(title string, nodes []T, cfg *VisualizationConfig[T]) *dot.DotGraph {
	if cfg == nil {
		cfg = &VisualizationConfig[T]{}
	}

	dg := &dot.DotGraph{
		Title: title,
		Options: map[string]string{
			"minlen":  fmt.Sprint(opts.Minlen()),
			"nodesep": fmt.Sprint(opts.Nodesep()),
			"rankdir": "TB",
		},
	}

	nodeToDotNode := make(map[T]*dot.DotNode, len(nodes))
	for _, node := range nodes {
		dNode := &dot.DotNode{}
		if cfg.NodeAttrs != nil {
			dNode.ID, dNode.Attrs = cfg.NodeAttrs(node)
		} else {
			dNode.ID = fmt.Sprint(node)
		}

		nodeToDotNode[node] = dNode
		dg.Nodes = append(dg.Nodes, dNode)
	}

	for _, node := range nodes {
		a := nodeToDotNode[node]
		for _, edge := range G.Edges(node) {
			b, found := nodeToDotNode[edge]
			if !found {
				continue
			}
			e := &dot.DotEdge{From: a, To: b}
			if cfg.EdgeAttrs != nil {
				e.Attrs = cfg.EdgeAttrs(node, edge)
			}
			dg.Edges = append(dg.Edges, e)
		}
	}

	return dg
}
