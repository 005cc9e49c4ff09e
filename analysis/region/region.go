// Package region answers questions about a contiguous range of statements or
// an expression of a method: which branches enter and leave it, whether its
// ends are reachable, and how variables flow into, through and out of it.
//
// Every question is answered by its own walker, a flow pass tracking the
// region. The ControlFlow and DataFlow facades run the walkers on demand and
// cache their results.
package region

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/immutable"
	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/flowpass/analysis/assignment"
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/emptystruct"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"
	"github.com/cs-au-dk/flowpass/utils"
)

// ErrBadRegion is wrapped by the errors of malformed regions.
var ErrBadRegion = errors.New("bad region")

// Region delimits the analyzed nodes, First and Last included.
type Region struct {
	First, Last bound.Node
}

// ByID looks up the boundaries of a region by node id.
func ByID(m *bound.Method, first, last string) (Region, error) {
	var r Region
	var ok bool
	if r.First, ok = m.Nodes[first]; !ok {
		return Region{}, fmt.Errorf("%w: no node %q", ErrBadRegion, first)
	}
	if r.Last, ok = m.Nodes[last]; !ok {
		return Region{}, fmt.Errorf("%w: no node %q", ErrBadRegion, last)
	}
	return r, nil
}

// Check reports why r cannot be analyzed in m, if it cannot. The boundaries
// must be statements or expressions of the body, and Last may not start
// before First ends unless both are the same node.
func (r Region) Check(m *bound.Method) error {
	switch {
	case r.First == nil || r.Last == nil:
		return fmt.Errorf("%w: missing boundary", ErrBadRegion)
	case !isBoundary(r.First):
		return fmt.Errorf("%w: %s cannot start a region", ErrBadRegion, r.First.Kind())
	case !isBoundary(r.Last):
		return fmt.Errorf("%w: %s cannot end a region", ErrBadRegion, r.Last.Kind())
	case !bound.Contains(m.Body, r.First) || !bound.Contains(m.Body, r.Last):
		return fmt.Errorf("%w: boundary outside of %s", ErrBadRegion, m.Symbol)
	case r.First != r.Last && r.First.Span().End > r.Last.Span().Start:
		return fmt.Errorf("%w: %s [%d,%d) does not precede %s [%d,%d)", ErrBadRegion,
			r.First.Kind(), r.First.Span().Start, r.First.Span().End,
			r.Last.Kind(), r.Last.Span().Start, r.Last.Span().End)
	}
	return nil
}

func isBoundary(n bound.Node) bool {
	switch n.(type) {
	case *bound.TypeExpression, *bound.SwitchSection:
		return false
	case bound.Statement, bound.Expression:
		return true
	}
	return false
}

// Span covers the region.
func (r Region) Span() bound.Span {
	return bound.Span{Start: r.First.Span().Start, End: r.Last.Span().End}
}

func flowOptions(cfg *config.Config) flow.Options {
	return flow.Options{
		AwaitBranches: true,
		MaxDepth:      cfg.MaxRecursionDepth,
		CheckLattice:  cfg.CheckLattice,
		Log:           config.NewLogGroup(cfg),
	}
}

func (r Region) options(cfg *config.Config) flow.Options {
	opts := flowOptions(cfg)
	opts.First, opts.Last = r.First, r.Last
	return opts
}

// assignmentOptions configure the data flow walkers. Empty structs are
// tracked like any other variable, so that reading one is a data flow.
func assignmentOptions(fo flow.Options, cfg *config.Config) assignment.Options {
	return assignment.Options{
		Options:      fo,
		MaxSlotDepth: cfg.MaxSlotDepth,
		Empty:        emptystruct.NewNeverEmpty(),
	}
}

// symbolSet is a persistent set of symbols.
type symbolSet struct {
	m *immutable.Map[symbols.Symbol, bool]
}

func newSymbolSet() symbolSet {
	return symbolSet{immutable.NewMap[symbols.Symbol, bool](utils.PointerHasher[symbols.Symbol]{})}
}

func (s symbolSet) Add(sym symbols.Symbol) symbolSet {
	if s.Has(sym) {
		return s
	}
	return symbolSet{s.m.Set(sym, true)}
}

func (s symbolSet) Has(sym symbols.Symbol) bool {
	_, ok := s.m.Get(sym)
	return ok
}

func (s symbolSet) Len() int { return s.m.Len() }

func (s symbolSet) slice() []symbols.Symbol {
	res := make([]symbols.Symbol, 0, s.m.Len())
	for itr := s.m.Iterator(); !itr.Done(); {
		sym, _, _ := itr.Next()
		res = append(res, sym)
	}
	return res
}

func (s symbolSet) toMap() map[symbols.Symbol]bool {
	res := make(map[symbols.Symbol]bool, s.m.Len())
	for itr := s.m.Iterator(); !itr.Done(); {
		sym, _, _ := itr.Next()
		res[sym] = true
	}
	return res
}

// union adds the symbols of o to s.
func (s symbolSet) union(o symbolSet) symbolSet {
	for itr := o.m.Iterator(); !itr.Done(); {
		sym, _, _ := itr.Next()
		s = s.Add(sym)
	}
	return s
}

// setOf collects the keys of a map set.
func setOf[K interface {
	comparable
	symbols.Symbol
}](m map[K]bool) symbolSet {
	s := newSymbolSet()
	for k, ok := range m {
		if ok {
			s = s.Add(k)
		}
	}
	return s
}

// declarationOrder numbers the variables and local functions of a method:
// the receiver and parameters first, then the others in the order they are
// declared.
type declarationOrder map[symbols.Symbol]int

func orderOf(m *bound.Method) declarationOrder {
	o := declarationOrder{}
	add := func(s symbols.Symbol) {
		if _, ok := o[s]; !ok {
			o[s] = len(o)
		}
	}
	params := func(fn symbols.Function) {
		for _, p := range fn.Parameters() {
			add(p)
		}
	}

	if m.Symbol.This != nil {
		add(m.Symbol.This)
	}
	params(m.Symbol)
	bound.Inspect(m.Body, func(n bound.Node) bool {
		switch n := n.(type) {
		case *bound.LocalDeclaration:
			add(n.Local)
		case *bound.DeclarationPattern:
			if n.Local != nil {
				add(n.Local)
			}
		case *bound.Catch:
			if n.Local != nil {
				add(n.Local)
			}
		case *bound.ForEach:
			if n.Iteration != nil {
				add(n.Iteration)
			}
		case *bound.LocalFunctionStatement:
			add(n.Symbol)
			params(n.Symbol)
		case *bound.Lambda:
			params(n.Symbol)
		}
		return true
	})
	return o
}

// sorted lists the symbols of s in declaration order. Symbols declared
// elsewhere come last, by name.
func (o declarationOrder) sorted(s symbolSet) []symbols.Symbol {
	res := s.slice()
	slices.SortFunc(res, func(a, b symbols.Symbol) bool {
		ia, oka := o[a]
		ib, okb := o[b]
		switch {
		case oka && okb:
			return ia < ib
		case oka != okb:
			return oka
		}
		return a.Name() < b.Name()
	})
	return res
}

// sortByPosition orders nodes by where they start.
func sortByPosition[N bound.Node](ns []N) {
	slices.SortStableFunc(ns, func(a, b N) bool {
		return a.Span().Start < b.Span().Start
	})
}

// rootSymbol is the variable containing the storage of slot.
func rootSymbol(slots *flow.Slots, slot int) symbols.Symbol {
	return slots.Variable(slots.Root(slot)).Symbol
}
