package region

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"
)

// readWriteWalker sorts the reads and writes of variables by whether they
// happen inside the region.
type readWriteWalker struct {
	daWalker
	readInside, writtenInside   symbolSet
	readOutside, writtenOutside symbolSet
}

type readWriteResult struct {
	readInside, writtenInside   symbolSet
	readOutside, writtenOutside symbolSet

	captured, capturedInside, capturedOutside symbolSet
	usedLocalFunctions                        symbolSet
}

func readsAndWrites(m *bound.Method, r Region, cfg *config.Config) (readWriteResult, bool) {
	w := &readWriteWalker{}
	w.clear()
	w.Init(w, w, m, assignmentOptions(r.options(cfg), cfg))
	ok := w.run()
	return readWriteResult{
		readInside:         w.readInside,
		writtenInside:      w.writtenInside,
		readOutside:        w.readOutside,
		writtenOutside:     w.writtenOutside,
		captured:           setOf(w.Captured()),
		capturedInside:     setOf(w.CapturedInside()),
		capturedOutside:    setOf(w.CapturedOutside()),
		usedLocalFunctions: setOf(w.UsedLocalFunctions()),
	}, ok
}

func (w *readWriteWalker) clear() {
	w.readInside, w.writtenInside = newSymbolSet(), newSymbolSet()
	w.readOutside, w.writtenOutside = newSymbolSet(), newSymbolSet()
}

func (w *readWriteWalker) Scan() []*flow.PendingBranch[daState] {
	w.clear()
	return w.Pass.Scan()
}

func (w *readWriteWalker) NoteRead(sym symbols.Symbol) {
	switch sym.(type) {
	case nil, *symbols.Field, *symbols.LocalFunction:
	default:
		if w.IsInside() {
			w.readInside = w.readInside.Add(sym)
		} else {
			w.readOutside = w.readOutside.Add(sym)
		}
	}
	w.Pass.NoteRead(sym)
}

func (w *readWriteWalker) NoteWrite(sym symbols.Symbol, value bound.Expression, read bool) {
	if sym != nil {
		if w.IsInside() {
			w.writtenInside = w.writtenInside.Add(sym)
		} else {
			w.writtenOutside = w.writtenOutside.Add(sym)
		}
	}
	w.Pass.NoteWrite(sym, value, read)
}

// VisitNode notes the receiver of a struct field read when the region lies
// within the access, as in the region s of s.f.
func (w *readWriteWalker) VisitNode(n bound.Node) {
	w.daWalker.VisitNode(n)
	if fa, ok := n.(*bound.FieldAccess); ok && w.coversRegion(fa) {
		w.readInside = w.noteReceiver(fa, w.readInside)
	}
}

func (w *readWriteWalker) AssignImpl(target bound.Node, value bound.Expression, isRef, written, read bool) {
	if fa, ok := target.(*bound.FieldAccess); ok && w.coversRegion(fa) {
		w.writtenInside = w.noteReceiver(fa, w.writtenInside)
	}
	w.Pass.AssignImpl(target, value, isRef, written, read)
}

func (w *readWriteWalker) coversRegion(fa *bound.FieldAccess) bool {
	return !w.IsInside() && flow.IsStructField(fa) && fa.Span().Contains(w.RegionSpan())
}

// noteReceiver adds the variable holding the storage of a struct field when
// the receiver lies inside the region.
func (w *readWriteWalker) noteReceiver(fa *bound.FieldAccess, s symbolSet) symbolSet {
	if fa.Field.Static || !fa.Field.Container.IsStruct() || fa.Receiver == nil {
		return s
	}
	rs := fa.Receiver.Span()
	switch r := fa.Receiver.(type) {
	case *bound.LocalRef:
		if w.RegionContains(rs) {
			s = s.Add(r.Local)
		}
	case *bound.ParameterRef:
		if w.RegionContains(rs) {
			s = s.Add(r.Parameter)
		}
	case *bound.ThisRef:
		if r.Parameter != nil && w.RegionContains(rs) {
			s = s.Add(r.Parameter)
		}
	case *bound.FieldAccess:
		region := w.RegionSpan()
		if r.Field.Type.IsStruct() && rs.Start < region.End && region.Start < rs.End {
			s = w.noteReceiver(r, s)
		}
	}
	return s
}

// declaredWalker collects the variables declared inside the region.
type declaredWalker struct {
	cfWalker
	declared symbolSet
}

func variablesDeclared(m *bound.Method, r Region, cfg *config.Config) (symbolSet, bool) {
	w := &declaredWalker{declared: newSymbolSet()}
	w.init(w, m, r, cfg)
	ok := w.run()
	return w.declared, ok
}

func (w *declaredWalker) add(syms ...symbols.Symbol) {
	for _, s := range syms {
		w.declared = w.declared.Add(s)
	}
}

func (w *declaredWalker) params(fn symbols.Function) {
	for _, p := range fn.Parameters() {
		w.add(p)
	}
}

func (w *declaredWalker) VisitNode(n bound.Node) {
	if w.IsInside() {
		switch n := n.(type) {
		case *bound.LocalDeclaration:
			w.add(n.Local)
		case *bound.DeclarationPattern:
			if n.Local != nil {
				w.add(n.Local)
			}
		case *bound.ForEach:
			if n.Iteration != nil {
				w.add(n.Iteration)
			}
		case *bound.LocalFunctionStatement:
			w.params(n.Symbol)
		case *bound.Lambda:
			w.params(n.Symbol)
		}
	}
	w.cfWalker.VisitNode(n)
}

func (w *declaredWalker) VisitCatchBlock(c *bound.Catch) {
	if w.IsInside() && c.Local != nil {
		w.add(c.Local)
	}
	w.DefaultVisitCatchBlock(c)
}
