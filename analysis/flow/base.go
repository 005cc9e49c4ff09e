package flow

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/lattice"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// Base supplies the default hooks of Analysis. Passes embed it next to their
// lattice and override the hooks they need:
//
//	p := &Pass{ReachabilityLattice: lattice.Reachability()}
//	p.Base = flow.Base[*lattice.ReachabilityState]{flow.NewWalker[*lattice.ReachabilityState](p, fn, body, opts)}
type Base[S lattice.State[S]] struct{ *Walker[S] }

func (b Base[S]) VisitNode(n bound.Node)    { b.DefaultVisit(n) }
func (b Base[S]) Scan() []*PendingBranch[S] { return b.DefaultScan() }

func (Base[S]) EnterRegion()                                      {}
func (Base[S]) LeaveRegion()                                      {}
func (Base[S]) NoteBranch(*PendingBranch[S], bound.Statement)     {}
func (Base[S]) NoteReturns(symbols.Function, []*PendingBranch[S]) {}
func (Base[S]) EnterParameters(symbols.Function)                  {}
func (Base[S]) LeaveParameters(symbols.Function, bound.Node)      {}
func (Base[S]) DeclareIterationVariable(*bound.ForEach)           {}
func (Base[S]) LocalFunctionStart(*symbols.LocalFunction)         {}
func (Base[S]) LocalFunctionEnd(*symbols.LocalFunction, S) bool   { return false }

func (Base[S]) WriteArgument(bound.Expression, symbols.RefKind, *symbols.Method) {}

func (b Base[S]) VisitTryBlock(block *bound.Block, _ *bound.Try)     { b.DefaultVisitTryBlock(block) }
func (b Base[S]) VisitCatchBlock(c *bound.Catch)                     { b.DefaultVisitCatchBlock(c) }
func (b Base[S]) VisitFinallyBlock(block *bound.Block, _ *bound.Try) { b.DefaultVisitFinallyBlock(block) }

func (b Base[S]) VisitSwitchSection(sec *bound.SwitchSection, _ bool) {
	b.DefaultVisitSwitchSection(sec)
}

func (b Base[S]) LocalFunctionUse(_ *symbols.LocalFunction, summary *LocalFunctionState[S], _ bound.Node, isCall bool) {
	b.DefaultLocalFunctionUse(summary, isCall)
}
