package bound

import (
	"fmt"

	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/utils/dot"
	"github.com/cs-au-dk/flowpass/utils/graph"
)

// JumpTargets maps the labels of a tree to the nodes they name: labeled
// statements, switch labels, and the loops and switches that break and
// continue leave.
func JumpTargets(root Node) map[*symbols.Label]Node {
	targets := map[*symbols.Label]Node{}
	Inspect(root, func(n Node) bool {
		switch n := n.(type) {
		case *Labeled:
			targets[n.Label] = n
		case *SwitchLabel:
			if n.Label != nil {
				targets[n.Label] = n
			}
		case *Switch:
			targets[n.BreakLabel] = n
		case Loop:
			brk, cont := n.Labels()
			targets[brk], targets[cont] = n, n
		}
		return true
	})
	return targets
}

// jumpLabel is the label a jump transfers control to.
func jumpLabel(n Node) *symbols.Label {
	switch n := n.(type) {
	case *Goto:
		return n.Label
	case *Break:
		return n.Label
	case *Continue:
		return n.Label
	}
	return nil
}

// JumpGraph is the tree under root with an extra edge from every jump to the
// node it transfers control to.
func JumpGraph(root Node) graph.Graph[Node] {
	targets := JumpTargets(root)
	return graph.Of(func(n Node) []Node {
		es := Children(n)
		if l := jumpLabel(n); l != nil {
			if t, ok := targets[l]; ok {
				es = append(es, t)
			}
		}
		return es
	})
}

// Visualize renders the body of m with its jumps. Jump edges are dashed, and
// the nodes on a cycle through a jump are highlighted.
func Visualize(m *Method) *dot.DotGraph {
	G := JumpGraph(m.Body)
	nodes := G.Reachable(Node(m.Body))
	scc := G.SCC([]Node{m.Body})

	id := func(n Node) string { return fmt.Sprint(n.Span().Start) }
	return G.ToDotGraph(m.Symbol.String(), nodes, &graph.VisualizationConfig[Node]{
		NodeAttrs: func(n Node) (string, dot.DotAttrs) {
			label := describe(n)
			if n.ID() != "" {
				label += "\n#" + n.ID()
			}
			attrs := dot.DotAttrs{"label": label}
			if _, ok := n.(Statement); ok {
				attrs["shape"] = "box"
			}
			if scc.OnCycle(n) {
				attrs["fillcolor"] = "lightpink"
			}
			return id(n), attrs
		},
		EdgeAttrs: func(from, to Node) dot.DotAttrs {
			if jumpLabel(from) != nil {
				return dot.DotAttrs{"style": "dashed", "color": "blue"}
			}
			return nil
		},
	})
}
