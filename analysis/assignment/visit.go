package assignment

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

func (p *Pass) VisitNode(n bound.Node) {
	switch n := n.(type) {
	case *bound.Block:
		p.declareVariables(n.Locals)
		p.DefaultVisit(n)
		for _, l := range n.Locals {
			if l.Using {
				p.self.NoteRead(l)
			}
		}
		p.reportUnusedVariables(n.Locals)
		p.reportUnusedFunctions(n.Statements)
	case *bound.Switch:
		// Pattern variables of every section are in scope from the dispatch on.
		for _, sec := range n.Sections {
			p.declareVariables(sec.Locals)
		}
		p.declareVariables(n.Locals)
		p.DefaultVisit(n)
		for _, sec := range n.Sections {
			p.reportUnusedVariables(sec.Locals)
			p.reportUnusedFunctions(sec.Statements)
		}
		p.reportUnusedVariables(n.Locals)
	case *bound.For:
		p.declareVariables(n.Locals)
		p.DefaultVisit(n)
		p.reportUnusedVariables(n.Locals)
	case *bound.Using:
		for _, d := range n.Declarations {
			p.declareVariable(d.Local)
		}
		p.DefaultVisit(n)
		// Disposal reads the resources.
		for _, d := range n.Declarations {
			p.self.NoteRead(d.Local)
		}
	case *bound.LocalDeclaration:
		p.slot(n.Local, 0)
		if p.opts.InitiallyAssigned[n.Local] {
			p.assign(n, nil, false, true)
		}
		p.DefaultVisit(n)
		if n.Init != nil {
			p.assign(n, n.Init, false, true)
		}

	case *bound.LocalRef:
		p.checkAssigned(n.Local, n)
	case *bound.ParameterRef:
		p.checkAssigned(n.Parameter, n)
	case *bound.ThisRef:
		if n.Parameter != nil {
			p.checkAssigned(n.Parameter, n)
		}
	case *bound.FieldAccess:
		p.DefaultVisit(n)
		p.self.NoteRead(n.Field)
		if flow.IsStructField(n) {
			p.checkAssignedField(n)
		}
	case *bound.Assignment:
		p.DefaultVisit(n)
		p.assign(n.Left, n.Right, n.IsRef, true)
	case *bound.CompoundAssignment:
		p.DefaultVisit(n)
		p.assign(n.Left, n, false, true)

	case *bound.DeclarationPattern:
		p.DefaultVisit(n)
		whenFalse := p.WhenFalse
		p.SetState(p.WhenTrue)
		p.assign(n, nil, false, false)
		p.SetConditionalState(p.State, whenFalse)

	default:
		p.DefaultVisit(n)
	}
}

func (p *Pass) VisitCatchBlock(c *bound.Catch) {
	if c.Local != nil {
		p.declareVariable(c.Local)
		p.assign(c, nil, false, false)
	}
	p.DefaultVisitCatchBlock(c)
	if c.Local != nil {
		p.reportIfUnused(c.Local, false)
	}
}

// DeclareIterationVariable assigns the iteration variable of a foreach
// loop. The write counts as a use, so iteration variables are never
// reported unused.
func (p *Pass) DeclareIterationVariable(loop *bound.ForEach) {
	if loop.Iteration == nil {
		return
	}
	p.setSlotState(p.slot(loop.Iteration, 0), true)
	p.self.NoteWrite(loop.Iteration, nil, true)
}

func (p *Pass) WriteArgument(arg bound.Expression, ref symbols.RefKind, _ *symbols.Method) {
	if ref == symbols.RefRef {
		p.makeSlot(arg)
		p.checkAssignedExpr(arg)
	}
	p.assign(arg, nil, false, true)
}

func (p *Pass) declareVariables(locals []*symbols.Local) {
	for _, l := range locals {
		p.declareVariable(l)
	}
}

func (p *Pass) declareVariable(l *symbols.Local) {
	p.setSlotState(p.slot(l, 0), l.Const || p.opts.InitiallyAssigned[l])
}

// checkAssigned reads a variable.
func (p *Pass) checkAssigned(sym symbols.Symbol, at bound.Node) {
	p.self.NoteRead(sym)
	if !p.State.Reachable() {
		return
	}
	if slot := p.slots.Slot(sym, 0); slot > 0 && !p.State.IsAssigned(slot) {
		p.reportUnassignedIfNotCaptured(sym, at, slot, true)
	}
}

// checkAssignedField reads a struct field and notes the read of the
// variables containing it.
func (p *Pass) checkAssignedField(e *bound.FieldAccess) {
	if p.State.Reachable() {
		if ok, slot := p.isAssigned(e); !ok {
			p.reportUnassignedIfNotCaptured(e.Field, e, slot, true)
		}
	}
	p.noteReadAccess(e)
}

func (p *Pass) checkAssignedExpr(e bound.Expression) {
	switch e := e.(type) {
	case *bound.LocalRef:
		p.checkAssigned(e.Local, e)
	case *bound.ParameterRef:
		p.checkAssigned(e.Parameter, e)
	case *bound.ThisRef:
		if e.Parameter != nil {
			p.checkAssigned(e.Parameter, e)
		}
	case *bound.FieldAccess:
		if flow.IsStructField(e) {
			p.checkAssignedField(e)
		}
	}
}

// reportUnassignedIfNotCaptured defers the report of a variable read inside
// a local function that captures it: the read is checked at every use of
// the function instead.
func (p *Pass) reportUnassignedIfNotCaptured(sym symbols.Symbol, at bound.Node, slot int, skipIfUseBeforeDeclaration bool) {
	if fn := p.capturingFunction(slot); fn != nil {
		p.readsOf(fn).Insert(slot)
		return
	}
	p.self.ReportUnassigned(sym, at, slot, skipIfUseBeforeDeclaration)
}

// capturingFunction returns the innermost local function being visited when
// it captures the root variable of slot.
func (p *Pass) capturingFunction(slot int) *symbols.LocalFunction {
	if slot <= 0 {
		return nil
	}
	fn := symbols.NearestLocalFunction(p.Current())
	if fn == nil {
		return nil
	}
	root := p.slots.Variable(p.slots.Root(slot)).Symbol
	if !symbols.IsCapturedBy(root, fn) {
		return nil
	}
	return fn
}

func (p *Pass) NoteRead(sym symbols.Symbol) {
	switch s := sym.(type) {
	case nil:
		return
	case *symbols.Local:
		p.used[s] = true
	case *symbols.LocalFunction:
		p.usedFunctions[s] = true
	}
	p.checkCaptured(sym)
}

func (p *Pass) NoteWrite(sym symbols.Symbol, value bound.Expression, read bool) {
	if sym == nil {
		return
	}
	p.written[sym] = true
	if l, ok := sym.(*symbols.Local); ok && read && writeConsideredUse(l.Type, value) {
		p.used[l] = true
	}
	p.checkCaptured(sym)
}

// writeConsideredUse reports whether storing value counts as using the
// variable. Storing constants and default values does not.
func writeConsideredUse(t *symbols.Type, value bound.Expression) bool {
	if value == nil {
		return true
	}
	if t != nil && t.IsReference() && t != symbols.String {
		l, ok := value.(*bound.Literal)
		return !ok || l.Value != nil
	}
	switch v := value.(type) {
	case *bound.Literal:
		return false
	case *bound.ObjectCreation:
		return len(v.Args) > 0 || !v.Type.IsStruct()
	}
	return true
}

func (p *Pass) checkCaptured(sym symbols.Symbol) {
	if !symbols.IsCapturedBy(sym, p.Current()) {
		return
	}
	p.captured[sym] = true
	if p.IsInside() {
		p.capturedInside[sym] = true
	} else {
		p.capturedOutside[sym] = true
	}
}

// noteReadAccess notes the read of a field and of the variables containing
// its storage.
func (p *Pass) noteReadAccess(e bound.Expression) {
	for {
		switch n := e.(type) {
		case *bound.FieldAccess:
			p.self.NoteRead(n.Field)
			if !flow.IsStructField(n) {
				return
			}
			e = n.Receiver
			continue
		case *bound.LocalRef:
			p.self.NoteRead(n.Local)
		case *bound.ParameterRef:
			p.self.NoteRead(n.Parameter)
		case *bound.ThisRef:
			p.self.NoteRead(n.Parameter)
		}
		return
	}
}

// noteWriteAccess notes a write to the variable holding the storage of e.
// Writing a field of a struct local uses the local.
func (p *Pass) noteWriteAccess(e bound.Expression, value bound.Expression, read bool) {
	for {
		switch n := e.(type) {
		case *bound.FieldAccess:
			if !flow.IsStructField(n) {
				return
			}
			if l, ok := n.Receiver.(*bound.LocalRef); ok {
				p.used[l.Local] = true
			}
			e = n.Receiver
			continue
		case *bound.LocalRef:
			p.self.NoteWrite(n.Local, value, read)
		case *bound.ParameterRef:
			p.self.NoteWrite(n.Parameter, value, read)
		case *bound.ThisRef:
			p.self.NoteWrite(n.Parameter, value, read)
		}
		return
	}
}

func (p *Pass) assign(target bound.Node, value bound.Expression, isRef, read bool) {
	p.self.AssignImpl(target, value, isRef, true, read)
}

func (p *Pass) AssignImpl(target bound.Node, value bound.Expression, isRef, written, read bool) {
	switch n := target.(type) {
	case *bound.LocalDeclaration:
		p.assignDeclared(n.Local, value, written, read)
	case *bound.DeclarationPattern:
		if n.Local != nil {
			p.assignDeclared(n.Local, value, written, read)
		}
	case *bound.Catch:
		if n.Local != nil {
			p.assignDeclared(n.Local, value, written, read)
		}
	case *bound.ParameterRef:
		if isRef && n.Parameter.RefKind == symbols.RefOut {
			// A ref assignment rebinds the parameter: its old storage must
			// already be assigned.
			p.leaveParameter(n.Parameter, n)
		}
		p.setSlotState(p.makeSlot(n), written)
		if written {
			p.self.NoteWrite(n.Parameter, value, read)
		}
	case *bound.LocalRef:
		p.setSlotState(p.makeSlot(n), written)
		if written {
			p.self.NoteWrite(n.Local, value, read)
		}
	case *bound.ThisRef, *bound.FieldAccess:
		p.setSlotState(p.makeSlot(n), written)
		if written {
			p.noteWriteAccess(n.(bound.Expression), value, read)
		}
	}
}

// assignDeclared assigns a variable at its declaration. Declarations in dead
// code assign as well, so that later dead code does not report it.
func (p *Pass) assignDeclared(l *symbols.Local, value bound.Expression, written, read bool) {
	p.setSlotState(p.slot(l, 0), written || !p.State.Reachable())
	if written {
		p.self.NoteWrite(l, value, read)
	}
}

func (p *Pass) reportUnusedVariables(locals []*symbols.Local) {
	for _, l := range locals {
		p.reportIfUnused(l, true)
	}
}

// reportIfUnused warns about a local that is never read. assigned is false
// for variables that may not be assigned, like catch variables.
func (p *Pass) reportIfUnused(l *symbols.Local, assigned bool) {
	if !p.opts.ReportUnused || p.used[l] || p.patternLocals[l] || l.Name() == "_" {
		return
	}
	if assigned && p.written[l] {
		p.Diagnostics.Add(diag.UnreferencedVarAssg, p.decls[l], l.Name())
		return
	}
	p.Diagnostics.Add(diag.UnreferencedVar, p.decls[l], l.Name())
}

func (p *Pass) reportUnusedFunctions(stmts []bound.Statement) {
	if !p.opts.ReportUnused {
		return
	}
	for _, s := range stmts {
		if lf, ok := s.(*bound.LocalFunctionStatement); ok && !p.usedFunctions[lf.Symbol] {
			p.Diagnostics.Add(diag.UnreferencedLocalFunction, lf, lf.Symbol.Name())
		}
	}
}
