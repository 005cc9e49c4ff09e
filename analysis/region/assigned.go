package region

import (
	"github.com/cs-au-dk/flowpass/analysis/assignment"
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"
)

type daState = assignment.State

// daWalker is the definite assignment pass tracking a region. The walkers
// answering data flow questions embed it and hand themselves to Init, so that
// they see the reads, writes and unassigned uses of the pass.
type daWalker struct {
	assignment.Pass
}

// run analyzes the method and releases the walker.
func (w *daWalker) run() bool {
	defer w.Free()
	return w.Pass.Analyze(diag.NewBag())
}

// variable is the variable reported for an unassigned use of sym: the root
// variable of a struct field, sym itself otherwise.
func (w *daWalker) variable(sym symbols.Symbol, slot int) symbols.Symbol {
	if _, ok := sym.(*symbols.Field); ok && slot > 0 {
		return rootSymbol(w.Slots(), slot)
	}
	return sym
}

// reset forgets every assignment, preserving reachability.
func (w *daWalker) reset(s daState) daState {
	if !s.Reachable() {
		return w.Unreachable()
	}
	return w.Top()
}

// forget resets the current state, keeping whether it is reachable.
func (w *daWalker) forget() {
	if w.Reachable() {
		w.SetState(w.Top())
	} else {
		w.SetUnreachable()
	}
}

// currentStates are the states control is in: both halves of a conditional
// state, or the state.
func (w *daWalker) currentStates() []daState {
	if w.Conditional {
		return []daState{w.WhenTrue, w.WhenFalse}
	}
	return []daState{w.State}
}

// assignedIn lists the variables, but not the fields, assigned in every one
// of states.
func (w *daWalker) assignedIn(states ...daState) symbolSet {
	res := newSymbolSet()
	slots := w.Slots()
	for _, slot := range states[0].Assigned(slots.Len()) {
		id := slots.Variable(slot)
		if _, field := id.Symbol.(*symbols.Field); field || id.ContainingSlot > 0 {
			continue
		}
		all := true
		for _, s := range states[1:] {
			all = all && s.IsAssigned(slot)
		}
		if all {
			res = res.Add(id.Symbol)
		}
	}
	return res
}

// unassignedWalker collects the variables read somewhere in the method where
// they are not definitely assigned.
type unassignedWalker struct {
	daWalker
	result symbolSet
}

func unassignedVariables(m *bound.Method, cfg *config.Config) (symbolSet, bool) {
	w := &unassignedWalker{result: newSymbolSet()}
	w.Init(w, w, m, assignmentOptions(flowOptions(cfg), cfg))
	ok := w.run()
	return w.result, ok
}

func (w *unassignedWalker) Scan() []*flow.PendingBranch[daState] {
	w.result = newSymbolSet()
	return w.Pass.Scan()
}

func (w *unassignedWalker) ReportUnassigned(sym symbols.Symbol, at bound.Node, slot int, skip bool) {
	if slot > 0 {
		w.result = w.result.Add(w.variable(sym, slot))
	}
	w.Pass.ReportUnassigned(sym, at, slot, skip)
}

func (w *unassignedWalker) ReportUnassignedOutParameter(p *symbols.Parameter, at bound.Node) {
	w.result = w.result.Add(p)
	w.Pass.ReportUnassignedOutParameter(p, at)
}

// flowsInWalker collects the variables read inside the region whose value
// was assigned before it. Entering the region forgets every assignment, so
// that the reads of such variables are unassigned uses.
type flowsInWalker struct {
	daWalker
	result symbolSet
}

func dataFlowsIn(m *bound.Method, r Region, cfg *config.Config, unassigned symbolSet) (symbolSet, bool) {
	w := &flowsInWalker{result: newSymbolSet()}
	opts := assignmentOptions(r.options(cfg), cfg)
	opts.InitiallyAssigned = unassigned.toMap()
	w.Init(w, w, m, opts)
	ok := w.run()
	return w.result, ok
}

func (w *flowsInWalker) EnterRegion() {
	w.forget()
	w.result = newSymbolSet()
}

// NoteBranch forgets the assignments made before a jump into the region.
func (w *flowsInWalker) NoteBranch(p *flow.PendingBranch[daState], target bound.Statement) {
	if p.Branch != nil && w.RegionContains(target.Span()) && !w.RegionContains(p.Branch.Span()) {
		p.State = w.reset(p.State)
	}
}

func (w *flowsInWalker) ReportUnassigned(sym symbols.Symbol, at bound.Node, slot int, skip bool) {
	if slot > 0 && at != nil && w.RegionContains(at.Span()) {
		w.result = w.result.Add(w.variable(sym, slot))
	}
	w.Pass.ReportUnassigned(sym, at, slot, skip)
}

// flowsOutWalker collects the variables written inside the region and read
// after it. Writes inside the region unassign their target instead, so that
// the reads after it that see such a write are unassigned uses.
type flowsOutWalker struct {
	daWalker
	flowsIn symbolSet
	// nested are the lambdas and local functions declared in the region.
	nested map[symbols.Function]bool
	result symbolSet
}

func dataFlowsOut(m *bound.Method, r Region, cfg *config.Config, unassigned, flowsIn symbolSet) (symbolSet, bool) {
	w := &flowsOutWalker{flowsIn: flowsIn, nested: map[symbols.Function]bool{}, result: newSymbolSet()}
	span := r.Span()
	bound.Inspect(m.Body, func(n bound.Node) bool {
		switch n := n.(type) {
		case *bound.LocalFunctionStatement:
			w.nested[n.Symbol] = span.Contains(n.Span())
		case *bound.Lambda:
			w.nested[n.Symbol] = span.Contains(n.Span())
		}
		return true
	})

	fo := r.options(cfg)
	fo.NonMonotonic = true
	opts := assignmentOptions(fo, cfg)
	opts.InitiallyAssigned = unassigned.union(flowsIn).toMap()
	w.Init(w, w, m, opts)
	ok := w.run()
	return w.result, ok
}

func (w *flowsOutWalker) Scan() []*flow.PendingBranch[daState] {
	w.result = newSymbolSet()
	return w.Pass.Scan()
}

// EnterRegion adds the variables flowing in that are unassigned at the start
// of the region: the region is in a loop and writes them on an earlier
// iteration.
func (w *flowsOutWalker) EnterRegion() {
	states := w.currentStates()
	for _, v := range w.flowsIn.slice() {
		slot := w.Slots().Slot(v, 0)
		if slot <= 0 {
			continue
		}
		for _, s := range states {
			if !s.IsAssigned(slot) {
				w.result = w.result.Add(v)
				break
			}
		}
	}
}

// refParameter returns the ref or out parameter whose storage target writes
// to, if any.
func refParameter(target bound.Node) *symbols.Parameter {
	for {
		switch n := target.(type) {
		case *bound.ParameterRef:
			return n.Parameter
		case *bound.ThisRef:
			return n.Parameter
		case *bound.FieldAccess:
			if !flow.IsStructField(n) {
				return nil
			}
			target = n.Receiver
			continue
		}
		return nil
	}
}

// noteParameterWrite adds a ref or out parameter written inside the region:
// the caller sees the write even when the region is left by an exception.
func (w *flowsOutWalker) noteParameterWrite(p *symbols.Parameter) {
	if p == nil || p.This || p.RefKind == symbols.RefNone || w.nested[p.Owner] {
		return
	}
	if w.IsInside() && w.Reachable() {
		w.result = w.result.Add(p)
	}
}

func (w *flowsOutWalker) NoteWrite(sym symbols.Symbol, value bound.Expression, read bool) {
	if p, ok := sym.(*symbols.Parameter); ok {
		w.noteParameterWrite(p)
	}
	w.Pass.NoteWrite(sym, value, read)
}

func (w *flowsOutWalker) AssignImpl(target bound.Node, value bound.Expression, isRef, written, read bool) {
	if w.IsInside() {
		w.noteParameterWrite(refParameter(target))
		written = false
	}
	w.Pass.AssignImpl(target, value, isRef, written, read)
}

func (w *flowsOutWalker) ReportUnassigned(sym symbols.Symbol, at bound.Node, slot int, skip bool) {
	if slot > 0 && !w.IsInside() {
		w.result = w.result.Add(w.variable(sym, slot))
	}
	w.Pass.ReportUnassigned(sym, at, slot, skip)
}

// ReportUnassignedOutParameter adds the out parameters a return or the end
// of their function passes back to the caller.
func (w *flowsOutWalker) ReportUnassignedOutParameter(p *symbols.Parameter, at bound.Node) {
	switch at.(type) {
	case *bound.Return, *bound.Block, *bound.LocalFunctionStatement, *bound.Lambda:
		if !p.This {
			w.result = w.result.Add(p)
		}
	}
	w.Pass.ReportUnassignedOutParameter(p, at)
}

// alwaysAssignedWalker collects the variables assigned on every path through
// the region that completes it or jumps out of it.
type alwaysAssignedWalker struct {
	daWalker
	labelsInside map[*symbols.Label]bool
	end          daState
	hasEnd       bool
}

func alwaysAssigned(m *bound.Method, r Region, cfg *config.Config) (symbolSet, bool) {
	w := &alwaysAssignedWalker{labelsInside: map[*symbols.Label]bool{}}
	w.Init(w, w, m, assignmentOptions(r.options(cfg), cfg))
	ok := w.run()
	if !w.hasEnd || !w.end.Reachable() {
		return newSymbolSet(), ok
	}
	return w.assignedIn(w.end), ok
}

func (w *alwaysAssignedWalker) VisitNode(n bound.Node) {
	if l, ok := n.(*bound.Labeled); ok && w.IsInside() {
		w.labelsInside[l.Label] = true
	}
	w.daWalker.VisitNode(n)
}

// WriteArgument assigns out arguments only: a ref argument need not be
// written by the callee.
func (w *alwaysAssignedWalker) WriteArgument(arg bound.Expression, ref symbols.RefKind, m *symbols.Method) {
	if ref == symbols.RefOut {
		w.Pass.WriteArgument(arg, ref, m)
	}
}

func (w *alwaysAssignedWalker) EnterRegion() {
	w.forget()
}

func (w *alwaysAssignedWalker) NoteBranch(p *flow.PendingBranch[daState], target bound.Statement) {
	if p.Branch != nil && w.RegionContains(target.Span()) && !w.RegionContains(p.Branch.Span()) {
		p.State = w.reset(p.State)
	}
}

func (w *alwaysAssignedWalker) LeaveRegion() {
	states := w.currentStates()
	end := states[0].Clone()
	for _, s := range states[1:] {
		w.Join(end, s)
	}
	for _, p := range w.Pending().All() {
		if p.Branch != nil && w.RegionContains(p.Branch.Span()) && (p.Label == nil || !w.labelsInside[p.Label]) {
			w.Join(end, p.State)
		}
	}
	w.end, w.hasEnd = end, true
}

// definitelyAssignedWalker records the variables definitely assigned where
// control enters and leaves the region.
type definitelyAssignedWalker struct {
	daWalker
	onEntry, onExit symbolSet
}

func definitelyAssigned(m *bound.Method, r Region, cfg *config.Config) (onEntry, onExit symbolSet, ok bool) {
	w := &definitelyAssignedWalker{onEntry: newSymbolSet(), onExit: newSymbolSet()}
	w.Init(w, w, m, assignmentOptions(r.options(cfg), cfg))
	ok = w.run()
	return w.onEntry, w.onExit, ok
}

func (w *definitelyAssignedWalker) EnterRegion() { w.onEntry = w.assignedIn(w.currentStates()...) }
func (w *definitelyAssignedWalker) LeaveRegion() { w.onExit = w.assignedIn(w.currentStates()...) }
