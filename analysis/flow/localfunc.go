package flow

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// LocalFunctionState summarizes the effect of calling a local function on
// the caller's state.
type LocalFunctionState[S any] struct {
	// FromBottom records the state moved up by the function, FromTop the
	// state moved down on every path through it.
	FromBottom S
	FromTop    S
	// Visited is set once the summary was consumed by a use. A later change
	// to a visited summary invalidates the pass.
	Visited bool
}

// LocalFunctionState returns the summary of fn, creating an empty one on
// first use. Summaries persist across passes.
func (w *Walker[S]) LocalFunctionState(fn *symbols.LocalFunction) *LocalFunctionState[S] {
	st, ok := w.localFuncs[fn]
	if !ok {
		st = &LocalFunctionState[S]{FromBottom: w.a.Unreachable(), FromTop: w.a.Unreachable()}
		w.localFuncs[fn] = st
	}
	return st
}

// DefaultLocalFunctionUse applies the summary of a called local function to
// the current state.
func (w *Walker[S]) DefaultLocalFunctionUse(summary *LocalFunctionState[S], isCall bool) {
	if isCall {
		w.a.Join(w.State, summary.FromBottom)
		w.a.Meet(w.State, summary.FromTop)
	}
	summary.Visited = true
}

// LeaveFunction calls LeaveParameters at the end of the body of fn and at
// every return out of it, and continues from the join of those states.
func (w *Walker[S]) LeaveFunction(fn symbols.Function, returns []*PendingBranch[S]) S {
	w.a.LeaveParameters(fn, nil)
	atReturn := w.State
	for _, p := range returns {
		w.SetState(p.State)
		if _, ok := p.Branch.(*bound.Return); ok {
			w.a.LeaveParameters(fn, p.Branch)
		}
		w.a.Join(atReturn, w.State)
	}
	w.SetState(atReturn)
	return atReturn
}

// visitBody visits the body of a nested function in its own pending scope
// and returns the branches leaving it.
func (w *Walker[S]) visitBody(fn symbols.Function, body *bound.Block) []*PendingBranch[S] {
	saved := w.SavePending()
	if fn.IsIterator() {
		w.pending.Add(&PendingBranch[S]{State: w.State.Clone()})
	}
	w.VisitStatement(body)
	w.Unsplit()
	w.RestorePending(saved)
	return w.RemoveReturns()
}

// visitLocalFunction analyzes a local function body from Top: captured
// variables are assumed unassigned at entry, and the calls apply the
// recorded summary instead.
func (w *Walker[S]) visitLocalFunction(n *bound.LocalFunctionStatement) {
	fn := n.Symbol
	oldCurrent := w.current
	oldPending := w.SavePending()
	oldState := w.State
	oldNM, oldHasNM := w.nonMonotonic, w.hasNonMonotonic

	w.current = fn
	w.SetState(w.a.Top())
	if w.opts.NonMonotonic {
		w.nonMonotonic, w.hasNonMonotonic = w.a.ReachableBottom(), true
	}

	w.a.EnterParameters(fn)
	w.a.LocalFunctionStart(fn)
	returns := w.visitBody(fn, n.Body)
	w.RestorePending(oldPending)
	atReturn := w.LeaveFunction(fn, returns)

	summary := w.LocalFunctionState(fn)
	if w.recordStateChange(fn, summary, atReturn) && summary.Visited {
		w.log.Tracef("%s: summary of %s changed after use", w.current, fn)
		w.changedAfterUse = true
		summary.Visited = false
	}

	w.SetState(oldState)
	w.nonMonotonic, w.hasNonMonotonic = oldNM, oldHasNM
	w.current = oldCurrent
}

func (w *Walker[S]) recordStateChange(fn *symbols.LocalFunction, summary *LocalFunctionState[S], atReturn S) bool {
	changed := w.a.LocalFunctionEnd(fn, atReturn)
	if w.hasNonMonotonic {
		// Only moves up are recorded in the non-monotonic state.
		w.a.Meet(w.nonMonotonic, atReturn)
		changed = w.a.Join(summary.FromBottom, w.nonMonotonic) || changed
	}
	return w.a.Join(summary.FromTop, atReturn) || changed
}

// visitLambda analyzes a lambda body in place. The body cannot branch out of
// the lambda, and the state after the lambda is the state before it.
func (w *Walker[S]) visitLambda(n *bound.Lambda) {
	fn := n.Symbol
	oldCurrent := w.current
	oldPending := w.SavePending()
	stateAfter := w.State

	w.current = fn
	if stateAfter.Reachable() {
		w.SetState(stateAfter.Clone())
	} else {
		w.SetState(w.a.ReachableBottom())
	}

	w.a.EnterParameters(fn)
	returns := w.visitBody(fn, n.Body)
	w.RestorePending(oldPending)
	atReturn := w.LeaveFunction(fn, returns)

	if stateAfter.Reachable() {
		w.a.Join(stateAfter, atReturn)
	}
	w.SetState(stateAfter)
	w.current = oldCurrent
}
