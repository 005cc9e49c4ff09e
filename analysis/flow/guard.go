package flow

import "github.com/cs-au-dk/flowpass/analysis/bound"

// visitWithGuard bounds the recursion depth of the walk. Analyze recovers the
// panic and reports it as a diagnostic.
func (w *Walker[S]) visitWithGuard(n bound.Node) {
	w.depth++
	if w.depth > w.opts.MaxDepth {
		panic(errorf(ErrInsufficientStack, "%s nested deeper than %d", n.Kind(), w.opts.MaxDepth))
	}
	w.a.VisitNode(n)
	w.depth--
}
