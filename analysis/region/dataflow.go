package region

import (
	"sync"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"
)

// DataFlow answers the data flow questions about a region. Answers are
// computed on first request; walkers whose results depend on each other run
// together. Variables are listed in declaration order.
type DataFlow struct {
	m     *bound.Method
	r     Region
	cfg   *config.Config
	err   error
	order declarationOrder

	declaredOnce sync.Once
	declared     []symbols.Symbol

	flowsOnce           sync.Once
	unassigned, flowsIn symbolSet
	flowsInOK           bool
	flowsOut            []symbols.Symbol

	alwaysOnce sync.Once
	always     []symbols.Symbol

	definitelyOnce  sync.Once
	onEntry, onExit []symbols.Symbol

	readWriteOnce sync.Once
	rw            readWriteResult
}

// AnalyzeDataFlow prepares the data flow analysis of r in m. A malformed
// region makes every answer empty and Succeeded false.
func AnalyzeDataFlow(m *bound.Method, r Region, cfg *config.Config) *DataFlow {
	return &DataFlow{m: m, r: r, cfg: cfg, err: r.Check(m), order: orderOf(m)}
}

// Err explains why the region is malformed, if it is.
func (d *DataFlow) Err() error { return d.err }

// answer sorts the result of a walker, or drops it when the walker failed.
func (d *DataFlow) answer(s symbolSet, ok bool) []symbols.Symbol {
	if !ok {
		return nil
	}
	return d.order.sorted(s)
}

// VariablesDeclared lists the variables declared inside the region.
func (d *DataFlow) VariablesDeclared() []symbols.Symbol {
	d.declaredOnce.Do(func() {
		if d.err == nil {
			d.declared = d.answer(variablesDeclared(d.m, d.r, d.cfg))
		}
	})
	return d.declared
}

func (d *DataFlow) flows() {
	d.flowsOnce.Do(func() {
		if d.err != nil {
			return
		}
		var ok bool
		if d.unassigned, ok = unassignedVariables(d.m, d.cfg); !ok {
			return
		}
		if d.flowsIn, d.flowsInOK = dataFlowsIn(d.m, d.r, d.cfg, d.unassigned); !d.flowsInOK {
			return
		}
		d.flowsOut = d.answer(dataFlowsOut(d.m, d.r, d.cfg, d.unassigned, d.flowsIn))
	})
}

// DataFlowsIn lists the variables whose value assigned outside the region is
// read inside it.
func (d *DataFlow) DataFlowsIn() []symbols.Symbol {
	d.flows()
	return d.answer(d.flowsIn, d.flowsInOK)
}

// DataFlowsOut lists the variables whose value assigned inside the region is
// read outside it, including the ref and out parameters it writes.
func (d *DataFlow) DataFlowsOut() []symbols.Symbol {
	d.flows()
	return d.flowsOut
}

// AlwaysAssigned lists the variables assigned on every path through the
// region.
func (d *DataFlow) AlwaysAssigned() []symbols.Symbol {
	d.alwaysOnce.Do(func() {
		if d.err == nil {
			d.always = d.answer(alwaysAssigned(d.m, d.r, d.cfg))
		}
	})
	return d.always
}

func (d *DataFlow) definitely() {
	d.definitelyOnce.Do(func() {
		if d.err != nil {
			return
		}
		onEntry, onExit, ok := definitelyAssigned(d.m, d.r, d.cfg)
		d.onEntry, d.onExit = d.answer(onEntry, ok), d.answer(onExit, ok)
	})
}

// DefinitelyAssignedOnEntry lists the variables definitely assigned where
// control enters the region.
func (d *DataFlow) DefinitelyAssignedOnEntry() []symbols.Symbol {
	d.definitely()
	return d.onEntry
}

// DefinitelyAssignedOnExit lists the variables definitely assigned where
// control leaves the region normally.
func (d *DataFlow) DefinitelyAssignedOnExit() []symbols.Symbol {
	d.definitely()
	return d.onExit
}

func (d *DataFlow) readWrite() *readWriteResult {
	d.readWriteOnce.Do(func() {
		if d.err != nil {
			return
		}
		rw, ok := readsAndWrites(d.m, d.r, d.cfg)
		if ok {
			d.rw = rw
		}
	})
	return &d.rw
}

// list sorts a set of the read and write walker, which may be unset.
func (d *DataFlow) list(s symbolSet) []symbols.Symbol {
	if s.m == nil {
		return nil
	}
	return d.order.sorted(s)
}

func (d *DataFlow) ReadInside() []symbols.Symbol     { return d.list(d.readWrite().readInside) }
func (d *DataFlow) WrittenInside() []symbols.Symbol  { return d.list(d.readWrite().writtenInside) }
func (d *DataFlow) ReadOutside() []symbols.Symbol    { return d.list(d.readWrite().readOutside) }
func (d *DataFlow) WrittenOutside() []symbols.Symbol { return d.list(d.readWrite().writtenOutside) }

// Captured lists the variables of the method used by a lambda or local
// function.
func (d *DataFlow) Captured() []symbols.Symbol        { return d.list(d.readWrite().captured) }
func (d *DataFlow) CapturedInside() []symbols.Symbol  { return d.list(d.readWrite().capturedInside) }
func (d *DataFlow) CapturedOutside() []symbols.Symbol { return d.list(d.readWrite().capturedOutside) }

// UsedLocalFunctions lists the local functions called or converted to a
// delegate.
func (d *DataFlow) UsedLocalFunctions() []symbols.Symbol {
	return d.list(d.readWrite().usedLocalFunctions)
}

// Succeeded reports whether the region was well formed and traversed.
func (d *DataFlow) Succeeded() bool {
	if d.err != nil {
		return false
	}
	d.flows()
	return d.flowsInOK
}
