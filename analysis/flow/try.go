package flow

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
)

// visitTry threads states through a try statement. Catches start from the
// state before the try block, joined with every state the try block moved up
// to when unassignments are tracked. Branches leaving the try or catch blocks
// pass through the finally block.
func (w *Walker[S]) visitTry(n *bound.Try) {
	oldPending := w.SavePending()
	initial := w.State.Clone()

	tryPending := w.SavePending()
	w.withNonMonotonic(initial, func() {
		w.a.VisitTryBlock(n.Try, n)
	})

	finallyState := initial.Clone()
	endState := w.State
	for _, c := range n.Catches {
		w.SetState(initial.Clone())
		w.withNonMonotonic(finallyState, func() {
			w.a.VisitCatchBlock(c)
		})
		w.a.Join(endState, w.State)
	}
	w.RestorePending(tryPending)

	if n.Finally != nil {
		w.SetState(finallyState)
		tryAndCatchPending := w.SavePending()
		movedUp := w.a.ReachableBottom()
		w.withNonMonotonic(movedUp, func() {
			w.a.VisitFinallyBlock(n.Finally, n)
		})

		for _, p := range tryAndCatchPending.Branches() {
			if p.Branch == nil {
				continue
			}
			if _, yield := p.Branch.(*bound.YieldReturn); yield {
				continue
			}
			w.a.Meet(p.State, w.State)
			if w.opts.NonMonotonic {
				w.a.Join(p.State, movedUp)
			}
		}
		w.RestorePending(tryAndCatchPending)

		w.a.Meet(endState, w.State)
		if w.opts.NonMonotonic {
			w.a.Join(endState, movedUp)
		}
	}

	w.SetState(endState)
	w.RestorePending(oldPending)
}

// withNonMonotonic runs visit with a fresh non-monotonic state, then joins
// what was recorded into into and into the enclosing non-monotonic state.
func (w *Walker[S]) withNonMonotonic(into S, visit func()) {
	if !w.opts.NonMonotonic {
		visit()
		return
	}
	old, hadOld := w.nonMonotonic, w.hasNonMonotonic
	w.nonMonotonic, w.hasNonMonotonic = w.a.ReachableBottom(), true
	visit()
	w.a.Join(into, w.nonMonotonic)
	if hadOld {
		w.a.Join(old, w.nonMonotonic)
	}
	w.nonMonotonic, w.hasNonMonotonic = old, hadOld
}

func (w *Walker[S]) DefaultVisitTryBlock(block *bound.Block) {
	w.VisitStatement(block)
}

// DefaultVisitCatchBlock visits the filter of c, then its body where the
// filter held.
func (w *Walker[S]) DefaultVisitCatchBlock(c *bound.Catch) {
	if c.Filter != nil {
		w.VisitCondition(c.Filter)
		w.SetState(w.WhenTrue)
	}
	w.VisitStatement(c.Body)
}

func (w *Walker[S]) DefaultVisitFinallyBlock(block *bound.Block) {
	w.VisitStatement(block)
}
