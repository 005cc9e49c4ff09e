package flow

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// LoopHead merges the state recorded at the head of l in an earlier pass
// into the current state, and records the result.
func (w *Walker[S]) LoopHead(l bound.Loop) {
	if prev, ok := w.loopHeads[l]; ok {
		w.a.Join(w.State, prev)
	}
	w.loopHeads[l] = w.State.Clone()
}

// LoopTail merges the state at the back edge of l into the head. A change
// invalidates the pass.
func (w *Walker[S]) LoopTail(l bound.Loop) {
	head := w.loopHeads[l]
	if w.a.Join(head, w.State) {
		w.log.Tracef("%s: loop head changed to %s", w.current, head)
		w.changedAfterUse = true
	}
}

// ResolveBreaks merges the branches to label into breakState and continues
// from it.
func (w *Walker[S]) ResolveBreaks(breakState S, label *symbols.Label) {
	for _, p := range w.pending.GetAndRemoveBranches(label) {
		w.a.Join(breakState, p.State)
	}
	w.SetState(breakState)
}

// ResolveContinues merges the branches to label into the current state.
func (w *Walker[S]) ResolveContinues(label *symbols.Label) {
	for _, p := range w.pending.GetAndRemoveBranches(label) {
		w.a.Join(w.State, p.State)
	}
}

func (w *Walker[S]) visitWhile(n *bound.While) {
	w.LoopHead(n)
	w.VisitCondition(n.Cond)
	body, breakState := w.WhenTrue, w.WhenFalse
	w.SetState(body)
	w.VisitStatement(n.Body)
	w.ResolveContinues(n.ContinueLabel)
	w.LoopTail(n)
	w.ResolveBreaks(breakState, n.BreakLabel)
}

func (w *Walker[S]) visitDo(n *bound.Do) {
	w.LoopHead(n)
	w.VisitStatement(n.Body)
	w.ResolveContinues(n.ContinueLabel)
	w.VisitCondition(n.Cond)
	breakState := w.WhenFalse
	w.SetState(w.WhenTrue)
	w.LoopTail(n)
	w.ResolveBreaks(breakState, n.BreakLabel)
}

func (w *Walker[S]) visitFor(n *bound.For) {
	w.VisitStatements(n.Init)
	w.LoopHead(n)

	var breakState S
	if n.Cond != nil {
		w.VisitCondition(n.Cond)
		breakState = w.WhenFalse
		w.SetState(w.WhenTrue)
	} else {
		breakState = w.a.Unreachable()
	}

	w.VisitStatement(n.Body)
	w.ResolveContinues(n.ContinueLabel)
	w.VisitStatements(n.Increment)
	w.LoopTail(n)
	w.ResolveBreaks(breakState, n.BreakLabel)
}

func (w *Walker[S]) visitForEach(n *bound.ForEach) {
	w.VisitRvalue(n.Collection)
	breakState := w.State.Clone()
	w.LoopHead(n)
	w.a.DeclareIterationVariable(n)
	w.VisitStatement(n.Body)
	w.ResolveContinues(n.ContinueLabel)
	w.LoopTail(n)
	w.ResolveBreaks(breakState, n.BreakLabel)
	if n.Await && w.opts.AwaitBranches {
		w.AddPending(n, nil)
	}
}
