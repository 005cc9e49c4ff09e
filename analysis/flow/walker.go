// Package flow implements the generic flow walker: a visitor over bound trees
// that threads abstract states through every control-flow construct. Concrete
// passes supply a lattice and override the hooks of Analysis.
package flow

import (
	"errors"

	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/lattice"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"
	"github.com/cs-au-dk/flowpass/utils"
)

// Analysis is implemented by concrete passes. The walker calls back into the
// outermost pass for every hook, so a pass embedding another pass overrides
// its hooks.
type Analysis[S lattice.State[S]] interface {
	lattice.Lattice[S]

	// VisitNode is called for every visited node. Passes handle the kinds they
	// care about and defer to DefaultVisit for the rest.
	VisitNode(n bound.Node)
	// Scan walks the body once and returns the branches pending at its end.
	Scan() []*PendingBranch[S]

	EnterRegion()
	LeaveRegion()
	// NoteBranch is called when a pending branch is resolved at its target,
	// before its state is merged into the target's.
	NoteBranch(p *PendingBranch[S], target bound.Statement)
	// NoteReturns sees the branches leaving fn when its body is done.
	NoteReturns(fn symbols.Function, returns []*PendingBranch[S])

	EnterParameters(fn symbols.Function)
	// LeaveParameters is called when control leaves fn: once at the end of
	// its body with a nil branch, and for every branch out of it.
	LeaveParameters(fn symbols.Function, branch bound.Node)
	WriteArgument(arg bound.Expression, ref symbols.RefKind, method *symbols.Method)
	DeclareIterationVariable(loop *bound.ForEach)

	VisitTryBlock(block *bound.Block, try *bound.Try)
	VisitCatchBlock(c *bound.Catch)
	VisitFinallyBlock(block *bound.Block, try *bound.Try)
	VisitSwitchSection(sec *bound.SwitchSection, last bool)

	LocalFunctionStart(fn *symbols.LocalFunction)
	// LocalFunctionEnd may transform the state at the returns of fn before it
	// is recorded, and reports whether a summary consumed by callers changed.
	LocalFunctionEnd(fn *symbols.LocalFunction, atReturn S) bool
	LocalFunctionUse(fn *symbols.LocalFunction, summary *LocalFunctionState[S], at bound.Node, isCall bool)
}

// Options configure a walker.
type Options struct {
	// First and Last delimit the analyzed region, inclusive. Region tracking
	// is disabled when both are nil.
	First, Last bound.Node
	// NonMonotonic records the states moved up the lattice inside try
	// statements and local functions.
	NonMonotonic bool
	// AwaitBranches makes await using and await foreach statements pending
	// branches, like await expressions.
	AwaitBranches bool
	MaxDepth      int
	// CheckLattice verifies the lattice laws before analyzing.
	CheckLattice bool
	Log          *config.LogGroup
}

// Walker holds the flow state of one analysis.
type Walker[S lattice.State[S]] struct {
	a    Analysis[S]
	fn   symbols.Function
	body *bound.Block
	opts Options
	log  *config.LogGroup

	// State is the current state. When Conditional is set, the current state
	// is split between WhenTrue and WhenFalse, and State is invalid.
	State       S
	WhenTrue    S
	WhenFalse   S
	Conditional bool

	nonMonotonic    S
	hasNonMonotonic bool

	pending    *Pending[S]
	labelsSeen []bound.Statement
	labels     *immutable.Map[*symbols.Label, S]
	loopHeads  map[bound.Loop]S
	localFuncs map[*symbols.LocalFunction]*LocalFunctionState[S]
	current    symbols.Function

	trackRegions bool
	place        RegionPlace
	failed       bool

	changedAfterUse bool
	passes          int
	depth           int
	freed           bool

	Diagnostics *diag.Bag
}

// NewWalker creates a walker for the body of fn, calling back into a.
func NewWalker[S lattice.State[S]](a Analysis[S], fn symbols.Function, body *bound.Block, opts Options) *Walker[S] {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = config.DefaultMaxRecursionDepth
	}
	log := opts.Log
	if log == nil {
		log = config.Discard()
	}
	return &Walker[S]{
		a:            a,
		fn:           fn,
		body:         body,
		opts:         opts,
		log:          log,
		pending:      newPending[S](),
		labels:       immutable.NewMap[*symbols.Label, S](utils.PointerHasher[*symbols.Label]{}),
		loopHeads:    map[bound.Loop]S{},
		localFuncs:   map[*symbols.LocalFunction]*LocalFunctionState[S]{},
		current:      fn,
		trackRegions: opts.First != nil || opts.Last != nil,
		Diagnostics:  diag.NewBag(),
	}
}

// Analyze scans the body until no pass invalidates a result consumed by an
// earlier one, and returns the branches pending at the end of the last pass.
func (w *Walker[S]) Analyze() (returns []*PendingBranch[S], err error) {
	if w.freed {
		panic(errorf(errInternal, "walker used after Free"))
	}
	if w.opts.CheckLattice {
		lattice.CheckLaws[S](w.a, w.a.Top(), w.a.Unreachable(), w.a.ReachableBottom())
	}

	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok || !errors.Is(e, ErrInsufficientStack) {
				panic(r)
			}
			w.log.Warnf("%s: %v", w.fn, e)
			w.Diagnostics.Add(diag.InsufficientStack, w.body)
			returns, err = nil, e
		}
	}()

	for {
		w.passes++
		w.log.Debugf("%s: pass %d", w.fn, w.passes)

		w.place = Before
		w.failed = false
		w.depth = 0
		w.current = w.fn
		w.SetState(w.a.Top())
		w.pending.Clear()
		w.labelsSeen = nil
		w.changedAfterUse = false
		w.Diagnostics.Clear()

		returns = w.a.Scan()
		if !w.changedAfterUse {
			return returns, nil
		}
	}
}

// DefaultScan visits the body from the current state and returns the
// branches left pending.
func (w *Walker[S]) DefaultScan() []*PendingBranch[S] {
	saved := w.SavePending()
	if w.fn.IsIterator() {
		w.pending.Add(&PendingBranch[S]{State: w.State.Clone()})
	}
	w.VisitStatement(w.body)
	w.Unsplit()
	w.RestorePending(saved)
	if w.trackRegions && w.place != After {
		w.log.Debugf("%s: region was not traversed", w.fn)
		w.failed = true
	}
	return w.RemoveReturns()
}

// Free releases the pending registry. The walker cannot be used afterwards.
func (w *Walker[S]) Free() {
	if w.freed {
		panic(errorf(errInternal, "walker freed twice"))
	}
	w.pending.free()
	w.pending = nil
	w.freed = true
}

// Failed reports whether the last pass met a malformed tree: a region whose
// boundaries were not traversed in order, or switch data naming foreign labels.
func (w *Walker[S]) Failed() bool { return w.failed }

func (w *Walker[S]) fail(format string, args ...any) {
	w.log.Debugf(format, args...)
	w.failed = true
}

func (w *Walker[S]) Function() symbols.Function { return w.fn }
func (w *Walker[S]) Body() *bound.Block         { return w.body }
func (w *Walker[S]) Log() *config.LogGroup      { return w.log }
func (w *Walker[S]) Passes() int                { return w.passes }

// Current is the innermost function whose body is being visited.
func (w *Walker[S]) Current() symbols.Function { return w.current }

// NonMonotonic returns the state recording moves up the lattice, if any is
// being tracked at this point.
func (w *Walker[S]) NonMonotonic() (S, bool) {
	return w.nonMonotonic, w.hasNonMonotonic
}

// SetState makes s the current state, discarding a conditional state.
func (w *Walker[S]) SetState(s S) {
	var zero S
	w.State = s
	if w.Conditional {
		w.Conditional = false
		w.WhenTrue, w.WhenFalse = zero, zero
	}
}

func (w *Walker[S]) SetConditionalState(whenTrue, whenFalse S) {
	var zero S
	w.Conditional = true
	w.State = zero
	w.WhenTrue, w.WhenFalse = whenTrue, whenFalse
}

// Split turns the current state into a conditional state with equal halves.
func (w *Walker[S]) Split() {
	if !w.Conditional {
		w.SetConditionalState(w.State, w.State.Clone())
	}
}

// Unsplit joins the halves of a conditional state.
func (w *Walker[S]) Unsplit() {
	if w.Conditional {
		w.a.Join(w.WhenTrue, w.WhenFalse)
		w.SetState(w.WhenTrue)
	}
}

func (w *Walker[S]) SetUnreachable() {
	w.SetState(w.a.Unreachable())
}

// Reachable reports whether the current state, or either half of it, is
// reachable.
func (w *Walker[S]) Reachable() bool {
	if w.Conditional {
		return w.WhenTrue.Reachable() || w.WhenFalse.Reachable()
	}
	return w.State.Reachable()
}

// AddPending records a branch from the current state.
func (w *Walker[S]) AddPending(branch bound.Node, label *symbols.Label) {
	w.pending.Add(&PendingBranch[S]{Branch: branch, State: w.State.Clone(), Label: label})
}

// Pending is the registry of the current pending scope.
func (w *Walker[S]) Pending() *Pending[S] { return w.pending }

// RemoveReturns empties the current pending scope and returns its branches.
func (w *Walker[S]) RemoveReturns() []*PendingBranch[S] {
	res := w.pending.All()
	w.pending.Clear()
	w.a.NoteReturns(w.current, res)
	return res
}

// LabelState returns the state recorded at label, creating an unreachable
// one the first time.
func (w *Walker[S]) LabelState(label *symbols.Label) S {
	if s, ok := w.labels.Get(label); ok {
		return s
	}
	s := w.a.Unreachable()
	w.labels = w.labels.Set(label, s)
	return s
}

func (w *Walker[S]) SetLabelState(label *symbols.Label, s S) {
	w.labels = w.labels.Set(label, s)
}

// resolveBranches merges the branches to label into its state and reports
// whether the state changed.
func (w *Walker[S]) resolveBranches(label *symbols.Label, target bound.Statement) bool {
	changed := false
	for _, p := range w.pending.GetAndRemoveBranches(label) {
		st := w.LabelState(label)
		w.a.NoteBranch(p, target)
		if w.a.Join(st, p.State) {
			changed = true
			w.labels = w.labels.Set(label, st)
		}
	}
	if changed {
		w.log.Tracef("%s: %s resolved to %s", w.current, label, w.LabelState(label))
	}
	return changed
}

// VisitLabel resolves the branches to a label reached by fallthrough and
// records the merged state at the label.
func (w *Walker[S]) VisitLabel(label *symbols.Label, target bound.Statement) {
	w.resolveBranches(label, target)
	w.a.Join(w.State, w.LabelState(label))
	w.labels = w.labels.Set(label, w.State.Clone())
	for _, seen := range w.labelsSeen {
		if seen == target {
			return
		}
	}
	w.labelsSeen = append(w.labelsSeen, target)
}
