package assignment

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/lattice"
	"github.com/cs-au-dk/flowpass/analysis/symbols"

	"golang.org/x/tools/container/intsets"
)

func (p *Pass) readsOf(fn *symbols.LocalFunction) *intsets.Sparse {
	r, ok := p.reads[fn]
	if !ok {
		r = &intsets.Sparse{}
		p.reads[fn] = r
	}
	return r
}

func (p *Pass) LocalFunctionStart(fn *symbols.LocalFunction) {
	r := p.readsOf(fn)
	start := &intsets.Sparse{}
	start.Copy(r)
	p.readsStart[fn] = start
	r.Clear()
}

// LocalFunctionEnd keeps only the captured variables and reachability in
// the state at the returns of fn: a call cannot change the others. It
// reports whether the captured reads of fn changed, which invalidates the
// checks done at its earlier uses.
func (p *Pass) LocalFunctionEnd(fn *symbols.LocalFunction, atReturn State) bool {
	keep := lattice.Mask(append(p.capturedSlots(fn), 0)...)
	p.Intersect(atReturn, keep)
	if nm, ok := p.NonMonotonic(); ok {
		others := keep.Clone()
		others.Invert()
		p.Union(nm, others)
	}

	start := p.readsStart[fn]
	delete(p.readsStart, fn)
	return start == nil || !start.Equals(p.readsOf(fn))
}

// capturedSlots lists the slots of variables declared outside fn and
// visible inside it.
func (p *Pass) capturedSlots(fn *symbols.LocalFunction) (slots []int) {
	for slot := 1; slot < p.slots.Len(); slot++ {
		root := p.slots.Variable(p.slots.Root(slot)).Symbol
		if symbols.IsCapturedBy(root, fn) {
			slots = append(slots, slot)
		}
	}
	return
}

// LocalFunctionUse checks the captured variables fn reads before assigning
// them at the point of the call or delegate conversion.
func (p *Pass) LocalFunctionUse(fn *symbols.LocalFunction, summary *flow.LocalFunctionState[State], at bound.Node, isCall bool) {
	p.usedFunctions[fn] = true
	for _, slot := range p.readsOf(fn).AppendTo(nil) {
		sym := p.slots.Variable(slot).Symbol
		p.self.NoteRead(sym)
		if p.State.Reachable() && !p.State.IsAssigned(slot) {
			p.reportUnassignedIfNotCaptured(sym, at, slot, false)
		}
	}
	p.DefaultLocalFunctionUse(summary, isCall)
}
