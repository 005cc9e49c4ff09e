package flow

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// reachableLabels returns a predicate telling which labels the decision dag
// of a switch can reach. Every label is reachable without a dag. A dag naming
// labels outside of known fails the pass.
func (w *Walker[S]) reachableLabels(dag *bound.DecisionDag, known map[*symbols.Label]bool) func(*symbols.Label) bool {
	if dag == nil {
		return func(*symbols.Label) bool { return true }
	}
	reachable := make(map[*symbols.Label]bool, len(dag.ReachableLabels))
	for _, l := range dag.ReachableLabels {
		if !known[l] {
			w.fail("%s: decision dag names unknown label %s", w.current, l)
		}
		reachable[l] = true
	}
	return func(l *symbols.Label) bool { return reachable[l] }
}

func (w *Walker[S]) visitSwitch(n *bound.Switch) {
	w.VisitRvalue(n.Expr)
	dispatch := w.State.Clone()

	known := map[*symbols.Label]bool{n.BreakLabel: true}
	hasDefault := false
	for _, sec := range n.Sections {
		for _, l := range sec.Labels {
			known[l.Label] = true
			hasDefault = hasDefault || l.IsDefault()
		}
	}
	reachable := w.reachableLabels(n.Dag, known)

	// Branch from the dispatch to every section label.
	for _, sec := range n.Sections {
		for _, l := range sec.Labels {
			if reachable(l.Label) {
				w.SetState(dispatch.Clone())
			} else {
				w.SetUnreachable()
			}
			w.Visit(l)
			w.AddPending(l, l.Label)
		}
	}

	afterSwitch := w.a.Unreachable()
	exhaustive := n.Dag != nil && n.Dag.Exhaustive
	if (!hasDefault && !exhaustive) || (n.Dag != nil && reachable(n.BreakLabel)) {
		w.a.Join(afterSwitch, dispatch)
	}

	for i, sec := range n.Sections {
		w.a.VisitSwitchSection(sec, i == len(n.Sections)-1)
		w.a.Join(afterSwitch, w.State)
	}
	w.ResolveBreaks(afterSwitch, n.BreakLabel)
}

// visitSwitchLabel leaves the state where the label's pattern and guard hold.
func (w *Walker[S]) visitSwitchLabel(l *bound.SwitchLabel) {
	if l.Pattern != nil {
		w.VisitPattern(l.Pattern)
		w.SetState(w.WhenTrue)
	}
	if l.When != nil {
		w.VisitCondition(l.When)
		w.SetState(w.WhenTrue)
	}
}

// DefaultVisitSwitchSection enters a section only through its labels.
func (w *Walker[S]) DefaultVisitSwitchSection(sec *bound.SwitchSection) {
	w.SetUnreachable()
	for _, l := range sec.Labels {
		w.VisitLabel(l.Label, sec)
	}
	w.VisitStatements(sec.Statements)
}

// visitSwitchExpression joins the states at the end of every arm. The
// expression has no value when no arm matches, so the dispatch state does
// not flow past it.
func (w *Walker[S]) visitSwitchExpression(n *bound.SwitchExpression) {
	w.VisitRvalue(n.Expr)
	dispatch := w.State.Clone()

	known := map[*symbols.Label]bool{}
	for _, arm := range n.Arms {
		known[arm.Label] = true
	}
	reachable := w.reachableLabels(n.Dag, known)

	end := w.a.Unreachable()
	for _, arm := range n.Arms {
		w.SetState(dispatch.Clone())
		w.VisitPattern(arm.Pattern)
		w.SetState(w.WhenTrue)
		if !reachable(arm.Label) {
			w.SetUnreachable()
		}
		if arm.When != nil {
			w.VisitCondition(arm.When)
			w.SetState(w.WhenTrue)
		}
		w.VisitRvalue(arm.Value)
		w.a.Join(end, w.State)
	}
	w.SetState(end)
}

func (w *Walker[S]) visitSwitchArm(arm *bound.SwitchArm) {
	w.VisitPattern(arm.Pattern)
	w.SetState(w.WhenTrue)
	if arm.When != nil {
		w.VisitCondition(arm.When)
		w.SetState(w.WhenTrue)
	}
	w.VisitRvalue(arm.Value)
}
