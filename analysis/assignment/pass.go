// Package assignment implements definite assignment: a variable may only be
// read where every path from its declaration assigned it, and out parameters
// must be assigned before control leaves their function. The pass also
// reports unused variables and local functions.
//
// Region analyses embed Pass and override its Hooks to collect the variables
// flowing into or out of a region.
package assignment

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/emptystruct"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/lattice"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"

	"golang.org/x/tools/container/intsets"
)

type State = *lattice.AssignedState

// Hooks are the events a region analysis refines. Pass implements all of
// them; a pass embedding Pass hands itself to Init to override some.
type Hooks interface {
	// ReportUnassigned is called for a read of sym at a point where its slot
	// is not definitely assigned.
	ReportUnassigned(sym symbols.Symbol, at bound.Node, slot int, skipIfUseBeforeDeclaration bool)
	// ReportUnassignedOutParameter is called when control leaves a function
	// before p was assigned. at is the branch leaving the function, or the
	// function itself at the end of its body.
	ReportUnassignedOutParameter(p *symbols.Parameter, at bound.Node)
	NoteRead(sym symbols.Symbol)
	NoteWrite(sym symbols.Symbol, value bound.Expression, read bool)
	// AssignImpl assigns the variable denoted by target. When written is
	// false the variable is unassigned instead.
	AssignImpl(target bound.Node, value bound.Expression, isRef, written, read bool)
}

// Options configure a pass. Setting NonMonotonic in the flow options tracks
// unassignments, as the data-flows-out analysis needs.
type Options struct {
	flow.Options
	ReportUnused bool
	MaxSlotDepth int
	// Empty decides which struct types are not tracked. It defaults to the
	// precise mode.
	Empty *emptystruct.Cache
	// InitiallyAssigned variables count as assigned where they are declared.
	InitiallyAssigned map[symbols.Symbol]bool
	// AllowUnassignedOut skips the check that the out parameters of the
	// analyzed method are assigned on exit.
	AllowUnassignedOut bool
}

// OptionsFromConfig builds the options of a standalone pass.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Options: flow.Options{
			MaxDepth:      cfg.MaxRecursionDepth,
			CheckLattice:  cfg.CheckLattice,
			AwaitBranches: true,
			Log:           config.NewLogGroup(cfg),
		},
		ReportUnused: cfg.ReportUnused,
		MaxSlotDepth: cfg.MaxSlotDepth,
		Empty:        emptystruct.FromConfig(cfg.Options),
	}
}

type Pass struct {
	flow.Base[State]
	*lattice.AssignmentLattice

	self  Hooks
	m     *bound.Method
	opts  Options
	slots *flow.Slots
	empty *emptystruct.Cache

	alreadyReported intsets.Sparse

	used          map[*symbols.Local]bool
	usedFunctions map[*symbols.LocalFunction]bool
	written       map[symbols.Symbol]bool

	// reads records, per local function, the captured slots read before
	// being assigned in its body. They are checked at every use.
	reads      map[*symbols.LocalFunction]*intsets.Sparse
	readsStart map[*symbols.LocalFunction]*intsets.Sparse

	captured, capturedInside, capturedOutside map[symbols.Symbol]bool

	decls         map[*symbols.Local]bound.Node
	patternLocals map[*symbols.Local]bool
	sites         map[symbols.Function]bound.Node
}

// New creates a standalone definite assignment pass over m.
func New(m *bound.Method, opts Options) *Pass {
	p := &Pass{}
	p.Init(p, p, m, opts)
	return p
}

// Init prepares p to analyze m. a is the outermost analysis receiving the
// walker's callbacks and h the receiver of the pass's own hooks; both are p
// unless p is embedded.
func (p *Pass) Init(a flow.Analysis[State], h Hooks, m *bound.Method, opts Options) {
	if opts.MaxSlotDepth <= 0 {
		opts.MaxSlotDepth = config.DefaultMaxSlotDepth
	}
	if opts.Empty == nil {
		opts.Empty = emptystruct.NewPrecise()
	}

	p.AssignmentLattice = lattice.Assignment()
	p.Base = flow.Base[State]{Walker: flow.NewWalker[State](a, m.Symbol, m.Body, opts.Options)}
	p.self = h
	p.m = m
	p.opts = opts
	p.slots = flow.NewSlots(opts.MaxSlotDepth)
	p.empty = opts.Empty
	p.used = map[*symbols.Local]bool{}
	p.usedFunctions = map[*symbols.LocalFunction]bool{}
	p.written = map[symbols.Symbol]bool{}
	p.reads = map[*symbols.LocalFunction]*intsets.Sparse{}
	p.readsStart = map[*symbols.LocalFunction]*intsets.Sparse{}
	p.captured = map[symbols.Symbol]bool{}
	p.capturedInside = map[symbols.Symbol]bool{}
	p.capturedOutside = map[symbols.Symbol]bool{}
	p.index()
}

// index records where variables and nested functions are declared, for the
// locations of diagnostics.
func (p *Pass) index() {
	p.decls = map[*symbols.Local]bound.Node{}
	p.patternLocals = map[*symbols.Local]bool{}
	p.sites = map[symbols.Function]bound.Node{p.m.Symbol: p.m.Body}
	bound.Inspect(p.m.Body, func(n bound.Node) bool {
		switch n := n.(type) {
		case *bound.LocalDeclaration:
			p.decls[n.Local] = n
		case *bound.DeclarationPattern:
			if n.Local != nil {
				p.decls[n.Local] = n
				p.patternLocals[n.Local] = true
			}
		case *bound.Catch:
			if n.Local != nil {
				p.decls[n.Local] = n
			}
		case *bound.ForEach:
			p.decls[n.Iteration] = n
		case *bound.LocalFunctionStatement:
			p.sites[n.Symbol] = n
		case *bound.Lambda:
			p.sites[n.Symbol] = n
		}
		return true
	})
}

// Analyze runs the pass to a fixed point and adds its diagnostics to diags.
// It reports whether the walk succeeded.
func (p *Pass) Analyze(diags *diag.Bag) bool {
	if _, err := p.Walker.Analyze(); err != nil {
		diags.AddRange(p.Diagnostics)
		return false
	}
	diags.AddRange(p.Diagnostics)
	return !p.Failed()
}

// Analyze checks definite assignment in m with the analysis options of cfg.
func Analyze(m *bound.Method, cfg *config.Config, diags *diag.Bag) bool {
	p := New(m, OptionsFromConfig(cfg))
	defer p.Free()
	return p.Analyze(diags)
}

func (p *Pass) Method() *bound.Method { return p.m }
func (p *Pass) Slots() *flow.Slots    { return p.slots }

// Captured lists the variables read or written inside a lambda or local
// function that declares neither.
func (p *Pass) Captured() map[symbols.Symbol]bool        { return p.captured }
func (p *Pass) CapturedInside() map[symbols.Symbol]bool  { return p.capturedInside }
func (p *Pass) CapturedOutside() map[symbols.Symbol]bool { return p.capturedOutside }

// UsedLocalFunctions lists the local functions called or converted to a
// delegate.
func (p *Pass) UsedLocalFunctions() map[*symbols.LocalFunction]bool { return p.usedFunctions }

func (p *Pass) Scan() []*flow.PendingBranch[State] {
	p.alreadyReported.Clear()

	m := p.m.Symbol
	p.EnterParameters(m)
	if m.This != nil {
		p.enterParameter(m.This, m)
	}

	returns := p.DefaultScan()

	p.leaveMethod(nil)
	saved := p.State
	for _, r := range returns {
		if r.Branch == nil {
			continue
		}
		p.SetState(r.State)
		p.leaveMethod(r.Branch)
		p.Join(saved, p.State)
	}
	p.SetState(saved)
	return returns
}

func (p *Pass) leaveMethod(branch bound.Node) {
	m := p.m.Symbol
	p.LeaveParameters(m, branch)
	if m.This != nil {
		at := branch
		if at == nil {
			at = p.m.Body
		}
		p.leaveParameter(m.This, at)
	}
}

func (p *Pass) EnterParameters(fn symbols.Function) {
	for _, param := range fn.Parameters() {
		p.enterParameter(param, fn)
	}
}

// enterParameter makes out parameters of synchronous functions unassigned and
// every other parameter assigned.
func (p *Pass) enterParameter(param *symbols.Parameter, fn symbols.Function) {
	slot := p.slot(param, 0)
	if param.RefKind == symbols.RefOut && !fn.IsAsync() {
		p.setSlotState(slot, p.opts.InitiallyAssigned[param])
		return
	}
	p.setSlotState(slot, true)
	p.self.NoteWrite(param, nil, true)
}

func (p *Pass) LeaveParameters(fn symbols.Function, branch bound.Node) {
	if !p.State.Reachable() {
		return
	}
	at := branch
	if at == nil {
		at = p.sites[fn]
	}
	for _, param := range fn.Parameters() {
		p.leaveParameter(param, at)
	}
}

func (p *Pass) leaveParameter(param *symbols.Parameter, at bound.Node) {
	if param.RefKind == symbols.RefNone {
		return
	}
	slot := p.slots.Slot(param, 0)
	if slot > 0 && !p.State.IsAssigned(slot) {
		p.self.ReportUnassignedOutParameter(param, at)
	}
	p.self.NoteRead(param)
}

func (p *Pass) ReportUnassignedOutParameter(param *symbols.Parameter, at bound.Node) {
	if p.opts.AllowUnassignedOut && p.Current() == symbols.Function(p.m.Symbol) {
		return
	}
	if !p.State.Reachable() {
		return
	}
	if param.This {
		p.reportUnassignedFields(param, at)
		return
	}
	p.Diagnostics.Add(diag.ParamUnassigned, at, param.Name())
}

// reportUnassignedFields reports every field of the receiver of a struct
// constructor left unassigned.
func (p *Pass) reportUnassignedFields(this *symbols.Parameter, at bound.Node) {
	slot := p.slots.Slot(this, 0)
	for _, f := range p.empty.StructInstanceFields(this.Type) {
		if p.empty.IsEmptyStructType(f.Type) {
			continue
		}
		fs := p.slots.Slot(f, slot)
		if fs == -1 || !p.State.IsAssigned(fs) {
			p.Diagnostics.Add(diag.UnassignedThis, at, f.Name())
		}
	}
}

func (p *Pass) ReportUnassigned(sym symbols.Symbol, at bound.Node, slot int, skipIfUseBeforeDeclaration bool) {
	if slot <= 0 {
		return
	}
	if l, ok := sym.(*symbols.Local); ok && l.Const {
		return
	}
	if !(skipIfUseBeforeDeclaration && p.usedBeforeDeclaration(sym, at)) && !p.alreadyReported.Has(slot) {
		switch s := sym.(type) {
		case *symbols.Field:
			p.Diagnostics.Add(diag.UseDefViolationField, at, s.Name())
		case *symbols.Parameter:
			switch {
			case s.This:
				p.Diagnostics.Add(diag.UseDefViolationThis, at)
			case s.RefKind == symbols.RefOut:
				p.Diagnostics.Add(diag.UseDefViolationOut, at, s.Name())
			default:
				p.Diagnostics.Add(diag.UseDefViolation, at, s.Name())
			}
		default:
			p.Diagnostics.Add(diag.UseDefViolation, at, sym.Name())
		}
	}
	p.alreadyReported.Insert(slot)
}

// usedBeforeDeclaration reports whether at lies before the declaration of a
// local. Such uses are reported by name binding, not here.
func (p *Pass) usedBeforeDeclaration(sym symbols.Symbol, at bound.Node) bool {
	l, ok := sym.(*symbols.Local)
	if !ok || at == nil {
		return false
	}
	decl, ok := p.decls[l]
	return ok && at.Span().End < decl.Span().Start
}
