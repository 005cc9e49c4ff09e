package region

import (
	"sync"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/controlflow"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"
)

type cfState = controlflow.State

// cfWalker is the reachability pass tracking a region. The walkers answering
// control flow questions embed it.
type cfWalker struct {
	controlflow.Pass
}

func (w *cfWalker) init(a flow.Analysis[cfState], m *bound.Method, r Region, cfg *config.Config) {
	w.Pass.Init(a, m, r.options(cfg))
}

// run analyzes the method and releases the walker.
func (w *cfWalker) run() bool {
	defer w.Free()
	_, ok := w.Pass.Analyze(diag.NewBag())
	return ok
}

// reachableWalker records whether the boundaries of the region are
// reachable.
type reachableWalker struct {
	cfWalker
	start, end bool
}

func regionReachable(m *bound.Method, r Region, cfg *config.Config) (start, end, ok bool) {
	w := &reachableWalker{start: true, end: true}
	w.init(w, m, r, cfg)
	ok = w.run()
	return w.start, w.end, ok
}

func (w *reachableWalker) EnterRegion() { w.start = w.Reachable() }
func (w *reachableWalker) LeaveRegion() { w.end = w.Reachable() }

// entryWalker collects the labeled statements inside the region targeted
// by branches from outside of it.
type entryWalker struct {
	cfWalker
	entries map[*bound.Labeled]bool
}

func entryPoints(m *bound.Method, r Region, cfg *config.Config) ([]*bound.Labeled, bool) {
	w := &entryWalker{entries: map[*bound.Labeled]bool{}}
	w.init(w, m, r, cfg)
	ok := w.run()

	res := make([]*bound.Labeled, 0, len(w.entries))
	for l := range w.entries {
		res = append(res, l)
	}
	sortByPosition(res)
	return res, ok
}

func (w *entryWalker) NoteBranch(p *flow.PendingBranch[cfState], target bound.Statement) {
	l, ok := target.(*bound.Labeled)
	if !ok || p.Branch == nil || bound.IsSynthesized(p.Branch) {
		return
	}
	if w.RegionContains(l.Span()) && !w.RegionContains(p.Branch.Span()) {
		w.entries[l] = true
	}
}

// exitWalker collects the statements inside the region that transfer
// control out of it.
type exitWalker struct {
	cfWalker
	labelsInside map[*symbols.Label]bool
	exits        []bound.Statement
}

func exitPoints(m *bound.Method, r Region, cfg *config.Config) ([]bound.Statement, bool) {
	w := &exitWalker{labelsInside: map[*symbols.Label]bool{}}
	w.init(w, m, r, cfg)
	ok := w.run()
	sortByPosition(w.exits)
	return w.exits, ok
}

func (w *exitWalker) VisitNode(n bound.Node) {
	if w.IsInside() {
		switch n := n.(type) {
		case *bound.Labeled:
			w.labelsInside[n.Label] = true
		case bound.Loop:
			brk, cont := n.Labels()
			w.labelsInside[brk] = true
			w.labelsInside[cont] = true
		case *bound.Switch:
			w.labelsInside[n.BreakLabel] = true
		}
	}
	w.cfWalker.VisitNode(n)
}

// LeaveRegion inspects the branches still pending when control leaves the
// region. Branches resolved inside of it never got here.
func (w *exitWalker) LeaveRegion() {
	w.exits = w.exits[:0]
	for _, p := range w.Pending().All() {
		if p.Branch == nil || !w.RegionContains(p.Branch.Span()) {
			continue
		}
		var exit bound.Statement
		switch b := p.Branch.(type) {
		case *bound.Goto:
			if w.labelsInside[b.Label] {
				continue
			}
			exit = b
		case *bound.Break:
			if w.labelsInside[b.Label] {
				continue
			}
			exit = b
		case *bound.Continue:
			if w.labelsInside[b.Label] {
				continue
			}
			exit = b
		case *bound.Return:
			exit = b
		case *bound.YieldBreak:
			exit = b
		default:
			// Yield returns and awaits come back to where they left.
			continue
		}
		w.exits = append(w.exits, exit)
	}
}

// ControlFlow answers the control flow questions about a region. Every
// answer is computed on first request.
type ControlFlow struct {
	m   *bound.Method
	r   Region
	cfg *config.Config
	err error

	reachableOnce sync.Once
	start, end    bool
	reachableOK   bool

	entryOnce sync.Once
	entries   []*bound.Labeled
	entryOK   bool

	exitOnce sync.Once
	exits    []bound.Statement
	exitOK   bool
}

// AnalyzeControlFlow prepares the control flow analysis of r in m. A
// malformed region makes every answer empty and Succeeded false.
func AnalyzeControlFlow(m *bound.Method, r Region, cfg *config.Config) *ControlFlow {
	return &ControlFlow{m: m, r: r, cfg: cfg, err: r.Check(m)}
}

// Err explains why the region is malformed, if it is.
func (c *ControlFlow) Err() error { return c.err }

func (c *ControlFlow) reachability() {
	c.reachableOnce.Do(func() {
		if c.err != nil {
			c.start, c.end = true, true
			return
		}
		c.start, c.end, c.reachableOK = regionReachable(c.m, c.r, c.cfg)
	})
}

// StartPointIsReachable reports whether control can reach the start of the
// region.
func (c *ControlFlow) StartPointIsReachable() bool {
	c.reachability()
	return c.start
}

// EndPointIsReachable reports whether control can complete the region
// normally.
func (c *ControlFlow) EndPointIsReachable() bool {
	c.reachability()
	return c.end
}

// EntryPoints lists the labeled statements inside the region that branches
// from outside of it jump to, in source order.
func (c *ControlFlow) EntryPoints() []*bound.Labeled {
	c.entryOnce.Do(func() {
		if c.err == nil {
			c.entries, c.entryOK = entryPoints(c.m, c.r, c.cfg)
		}
	})
	if !c.entryOK {
		return nil
	}
	return c.entries
}

// ExitPoints lists the statements inside the region that jump out of it,
// in source order.
func (c *ControlFlow) ExitPoints() []bound.Statement {
	c.exitOnce.Do(func() {
		if c.err == nil {
			c.exits, c.exitOK = exitPoints(c.m, c.r, c.cfg)
		}
	})
	if !c.exitOK {
		return nil
	}
	return c.exits
}

// ReturnStatements lists the exit points that return from the method.
func (c *ControlFlow) ReturnStatements() []bound.Statement {
	var res []bound.Statement
	for _, s := range c.ExitPoints() {
		switch s.(type) {
		case *bound.Return, *bound.YieldBreak:
			res = append(res, s)
		}
	}
	return res
}

// Succeeded reports whether the region was well formed and traversed.
func (c *ControlFlow) Succeeded() bool {
	if c.err != nil {
		return false
	}
	c.reachability()
	return c.reachableOK
}
