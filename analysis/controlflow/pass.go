// Package controlflow implements the reachability pass: it decides whether the
// end of a method is reachable and reports unreachable code, fall-through out
// of switch sections, unreferenced or missing labels and functions returning a
// value that can complete normally.
package controlflow

import (
	"strings"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/lattice"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"
)

type State = *lattice.ReachabilityState

// OptionsFromConfig builds the walker options of a standalone pass.
func OptionsFromConfig(cfg *config.Config) flow.Options {
	return flow.Options{
		MaxDepth:     cfg.MaxRecursionDepth,
		CheckLattice: cfg.CheckLattice,
		Log:          config.NewLogGroup(cfg),
	}
}

type Pass struct {
	flow.Base[State]
	*lattice.ReachabilityLattice

	m *bound.Method

	// gotoTargets are the labels named by a goto anywhere in the method.
	gotoTargets map[*symbols.Label]bool
	labeled     []*bound.Labeled
	sites       map[symbols.Function]bound.Node

	endReachable bool
}

func New(m *bound.Method, opts flow.Options) *Pass {
	p := &Pass{}
	p.Init(p, m, opts)
	return p
}

// Init prepares p to analyze m, calling back into a. a is p unless p is
// embedded in a region analysis.
func (p *Pass) Init(a flow.Analysis[State], m *bound.Method, opts flow.Options) {
	p.ReachabilityLattice = lattice.Reachability()
	p.Base = flow.Base[State]{Walker: flow.NewWalker[State](a, m.Symbol, m.Body, opts)}
	p.m = m
	p.gotoTargets = map[*symbols.Label]bool{}
	p.sites = map[symbols.Function]bound.Node{m.Symbol: m.Body}
	bound.Inspect(m.Body, func(n bound.Node) bool {
		switch n := n.(type) {
		case *bound.Goto:
			p.gotoTargets[n.Label] = true
		case *bound.Labeled:
			p.labeled = append(p.labeled, n)
		case *bound.LocalFunctionStatement:
			p.sites[n.Symbol] = n
		case *bound.Lambda:
			p.sites[n.Symbol] = n
		}
		return true
	})
}

// Analyze runs the pass and adds its diagnostics to diags. It reports whether
// the end of the method is reachable, and whether the walk succeeded.
func (p *Pass) Analyze(diags *diag.Bag) (endReachable, ok bool) {
	_, err := p.Walker.Analyze()
	diags.AddRange(p.Diagnostics)
	if err != nil {
		return true, false
	}
	return p.endReachable, !p.Failed()
}

// Analyze checks the reachability of the statements of m with the options of
// cfg.
func Analyze(m *bound.Method, cfg *config.Config, diags *diag.Bag) (endReachable, ok bool) {
	p := New(m, OptionsFromConfig(cfg))
	defer p.Free()
	return p.Analyze(diags)
}

func (p *Pass) Method() *bound.Method { return p.m }

// EndReachable reports whether the end of the body was reachable in the last
// pass.
func (p *Pass) EndReachable() bool { return p.endReachable }

// Unreachable carries over whether the current stretch of unreachable code
// was reported, so that branching around dead code does not report it again.
func (p *Pass) Unreachable() State {
	s := p.ReachabilityLattice.Unreachable()
	if p.Walker != nil && !p.Conditional && p.State != nil && p.State.Reported() {
		s.SetReported()
	}
	return s
}

func (p *Pass) Scan() []*flow.PendingBranch[State] {
	returns := p.DefaultScan()
	p.endReachable = p.State.Reachable()

	m := p.m.Symbol
	if p.endReachable && m.ReturnsValue() && !m.IsIterator() {
		p.Diagnostics.Add(diag.ReturnExpected, p.m.Body, m.Name())
	}
	for _, l := range p.labeled {
		if !p.gotoTargets[l.Label] {
			p.Diagnostics.Add(diag.UnreferencedLabel, l)
		}
	}
	return returns
}

func (p *Pass) VisitNode(n bound.Node) {
	if s, ok := n.(bound.Statement); ok {
		p.checkReachable(s)
	}
	p.DefaultVisit(n)
}

// checkReachable reports the first statement of an unreachable stretch.
// Statements without code of their own are skipped.
func (p *Pass) checkReachable(s bound.Statement) {
	switch s.(type) {
	case *bound.Block, *bound.NoOp, *bound.Throw, *bound.Labeled,
		*bound.LocalFunctionStatement, *bound.SwitchSection:
		return
	}
	if p.Conditional || p.State.Reachable() || p.State.Reported() {
		return
	}
	if bound.IsSynthesized(s) || s.Span().Len() == 0 {
		return
	}
	p.Diagnostics.Add(diag.UnreachableCode, s)
	p.State.SetReported()
}

// VisitSwitchSection reports sections whose end is reachable: control may
// not fall into the next section or out of the switch.
func (p *Pass) VisitSwitchSection(sec *bound.SwitchSection, last bool) {
	p.DefaultVisitSwitchSection(sec)
	if !p.State.Reachable() || len(sec.Labels) == 0 {
		return
	}
	l := sec.Labels[len(sec.Labels)-1]
	if last {
		p.Diagnostics.Add(diag.SwitchFallOut, l, labelText(l))
	} else {
		p.Diagnostics.Add(diag.SwitchFallThrough, l, labelText(l))
	}
}

func labelText(l *bound.SwitchLabel) string {
	if l.IsDefault() {
		return "default:"
	}
	name, _, _ := strings.Cut(l.Label.Name(), "#")
	return name + ":"
}

// VisitFinallyBlock reports the branches leaving a finally block.
func (p *Pass) VisitFinallyBlock(block *bound.Block, _ *bound.Try) {
	outer := p.SavePending()
	inner := p.SavePending()
	p.DefaultVisitFinallyBlock(block)
	p.RestorePending(inner)
	for _, b := range p.Pending().All() {
		if b.Branch != nil {
			p.Diagnostics.Add(diag.BadFinallyLeave, b.Branch)
		}
	}
	p.RestorePending(outer)
}

// NoteReturns reports the branches leaving fn to a label fn does not define.
func (p *Pass) NoteReturns(fn symbols.Function, returns []*flow.PendingBranch[State]) {
	for _, r := range returns {
		if r.Label == nil || r.Branch == nil {
			continue
		}
		switch b := r.Branch.(type) {
		case *bound.Goto:
			p.Diagnostics.Add(diag.LabelNotFound, b, b.Label.Name())
		case *bound.Break, *bound.Continue:
			if lf, ok := fn.(*symbols.LocalFunction); ok && lf.Lambda {
				p.Diagnostics.Add(diag.BadDelegateLeave, b)
			}
		}
	}
}

// LeaveParameters reports nested functions returning a value whose end is
// reachable.
func (p *Pass) LeaveParameters(fn symbols.Function, branch bound.Node) {
	if branch != nil || fn == symbols.Function(p.m.Symbol) {
		return
	}
	if p.State.Reachable() && fn.ReturnsValue() && !fn.IsIterator() {
		p.Diagnostics.Add(diag.ReturnExpected, p.sites[fn], fn.Name())
	}
}
