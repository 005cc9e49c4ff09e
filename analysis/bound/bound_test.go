package bound

import (
	"errors"
	"testing"

	"github.com/cs-au-dk/flowpass/analysis/symbols"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
)

// everyKind holds one zero-valued node of each kind.
var everyKind = []Node{
	&Block{}, &LocalDeclaration{}, &ExpressionStatement{}, &If{}, &While{}, &Do{},
	&For{}, &ForEach{}, &Goto{}, &Labeled{}, &Break{}, &Continue{}, &Return{},
	&Throw{}, &Try{}, &Catch{}, &Switch{}, &SwitchSection{}, &SwitchLabel{},
	&YieldReturn{}, &YieldBreak{}, &LocalFunctionStatement{}, &Using{}, &Lock{}, &NoOp{},

	&Literal{}, &LocalRef{}, &ParameterRef{}, &ThisRef{}, &FieldAccess{}, &Assignment{},
	&CompoundAssignment{}, &Binary{}, &Unary{}, &Conditional{}, &Call{}, &ObjectCreation{},
	&Lambda{}, &DelegateCreation{}, &IsPattern{}, &SwitchExpression{}, &SwitchArm{},
	&Await{}, &NullCoalescing{}, &ConditionalAccess{}, &ThrowExpression{}, &TypeExpression{},

	&ConstantPattern{}, &DeclarationPattern{}, &DiscardPattern{}, &TypePattern{},
}

func TestChildrenHandlesEveryKind(t *testing.T) {
	seen := map[Kind]bool{}
	for _, n := range everyKind {
		if cs := Children(n); len(cs) != 0 {
			t.Errorf("%s: expected no children of an empty node, got %d", n.Kind(), len(cs))
		}
		seen[n.Kind()] = true
	}
	if len(seen) != int(KindCount) {
		t.Errorf("Expected %d kinds, covered %d", KindCount, len(seen))
	}
	for k := Kind(0); k < KindCount; k++ {
		if k.String() == "" {
			t.Errorf("Kind %d has no name", k)
		}
	}
}

const smallProgram = `
method: M
returns: int
params: [p]
body:
  - decl: x
  - if:
      cond: p
      then:
        - expr: {assign: [x, 1]}
  - {return: x, id: ret}
`

func TestDump(t *testing.T) {
	m, err := Decode([]byte(smallProgram))
	if err != nil {
		t.Fatal(err)
	}
	goldie.New(t).Assert(t, t.Name(), []byte(Dump(m.Body)))
}

func TestLayoutNestsSpans(t *testing.T) {
	m, err := Decode([]byte(smallProgram))
	if err != nil {
		t.Fatal(err)
	}

	if span := m.Body.Span(); span != (Span{0, 11}) {
		t.Errorf("Expected body span [0,11), got %v", span)
	}

	Inspect(m.Body, func(n Node) bool {
		prev := n.Span().Start
		for _, c := range Children(n) {
			if !n.Span().Contains(c.Span()) {
				t.Errorf("%s %v does not contain child %s %v", n.Kind(), n.Span(), c.Kind(), c.Span())
			}
			if c.Span().Start < prev {
				t.Errorf("%s: children out of order", n.Kind())
			}
			prev = c.Span().End
		}
		return true
	})
}

func TestContains(t *testing.T) {
	m, err := Decode([]byte(smallProgram))
	if err != nil {
		t.Fatal(err)
	}
	ret := m.Nodes["ret"]
	if ret == nil {
		t.Fatal("Node ret was not recorded")
	}
	if !Contains(m.Body, ret) {
		t.Error("Expected the body to contain the return statement")
	}
	if Contains(ret, m.Body) {
		t.Error("The return statement does not contain the body")
	}
	if Contains(m.Body, &NoOp{}) {
		t.Error("A detached node is not part of the body")
	}
}

func TestDecodeResolvesSymbols(t *testing.T) {
	src := `
method: Run
types:
  - name: S
    fields:
      - {name: a, type: int}
      - {name: b, type: int}
params:
  - {name: o, type: S, ref: out}
body:
  - expr: {assign: [{field: a, of: o, id: fa}, 1]}
  - func:
      name: local
      body:
        - expr: {assign: [{field: b, of: o}, 2]}
  - expr: {call: local, id: call}
  - expr: {call: Log, omitted: true, id: log}
`
	m, err := Decode([]byte(src))
	if err != nil {
		t.Fatal(err)
	}

	params := m.Symbol.Parameters()
	if len(params) != 1 || params[0].RefKind != symbols.RefOut {
		t.Fatalf("Expected one out parameter, got %v", params)
	}

	fa := m.Nodes["fa"].(*FieldAccess)
	if fa.Field != m.Types["S"].Fields()[0] {
		t.Errorf("Field a resolved to %v", fa.Field)
	}
	if ref, ok := fa.Receiver.(*ParameterRef); !ok || ref.Parameter != params[0] {
		t.Errorf("Receiver resolved to %v", fa.Receiver)
	}

	call := m.Nodes["call"].(*Call)
	if call.LocalFunction == nil || call.LocalFunction.Container() != symbols.Function(m.Symbol) {
		t.Errorf("Expected a call to a local function of Run, got %v", call.LocalFunction)
	}

	log := m.Nodes["log"].(*Call)
	if log.Method == nil || !log.Method.Omitted {
		t.Errorf("Expected an omitted method call, got %v", log.Method)
	}
}

func TestDecodeBlockLocals(t *testing.T) {
	src := `
method: M
body:
  - decl: a
  - {expr: {is: [1, {var: b}]}}
  - while:
      cond: true
      body:
        - decl: c
        - break
`
	m, err := Decode([]byte(src))
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, l := range m.Body.Locals {
		names = append(names, l.Name())
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("Unexpected block locals (-want +got):\n%s", diff)
	}

	loop := m.Body.Statements[2].(*While)
	brk := loop.Body.(*Block).Statements[1].(*Break)
	if brk.Label != loop.BreakLabel {
		t.Error("Break does not target its loop")
	}
}

func TestDecodeErrors(t *testing.T) {
	for name, src := range map[string]string{
		"syntax":          "method: [",
		"no method":       "body: []",
		"no body":         "method: M",
		"undefined":       "method: M\nbody:\n  - expr: {assign: [x, 1]}",
		"redeclared":      "method: M\nbody:\n  - decl: x\n  - decl: x",
		"stray break":     "method: M\nbody:\n  - break",
		"unknown stmt":    "method: M\nbody:\n  - jump: x",
		"unknown type":    "method: M\nparams:\n  - {name: p, type: T}\nbody: []",
		"duplicate id":    "method: M\nbody:\n  - {decl: x, id: a}\n  - {decl: y, id: a}",
		"unknown ref":     "method: M\nparams:\n  - {name: p, type: int, ref: byval}\nbody: []",
		"no field":        "method: M\nparams:\n  - {name: p, type: string}\nbody:\n  - expr: {field: f, of: p}",
		"bad is operands": "method: M\nbody:\n  - expr: {is: [1]}",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(src))
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Expected a decoding error, got %v", err)
			}
		})
	}
}

func TestJumpGraph(t *testing.T) {
	m, err := Decode([]byte(`
method: M
params: [{name: c, type: bool}]
body:
  - {label: top, id: top}
  - if: {cond: c, then: [{goto: top, id: back}]}
  - {while: {cond: c, body: [{block: [break], id: inner}]}, id: loop}
`))
	if err != nil {
		t.Fatal(err)
	}

	G := JumpGraph(m.Body)
	if es := G.Edges(m.Nodes["back"]); len(es) != 1 || es[0] != m.Nodes["top"] {
		t.Errorf("Edges of the goto = %v, want the labeled statement", es)
	}

	scc := G.SCC([]Node{m.Body})
	for id, want := range map[string]bool{"top": false, "back": false, "loop": true, "inner": true} {
		if got := scc.OnCycle(m.Nodes[id]); got != want {
			t.Errorf("OnCycle(%s) = %v, want %v", id, got, want)
		}
	}

	dashed := 0
	for _, e := range Visualize(m).Edges {
		if e.Attrs["style"] == "dashed" {
			dashed++
		}
	}
	if dashed != 2 {
		t.Errorf("Rendered %d jump edges, want 2", dashed)
	}
}
