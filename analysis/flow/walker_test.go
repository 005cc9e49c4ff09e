package flow

import (
	"errors"
	"testing"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/lattice"
	"github.com/cs-au-dk/flowpass/analysis/symbols"

	"github.com/google/go-cmp/cmp"
)

// recorder records whether each named node is reached.
type recorder struct {
	Base[*lattice.ReachabilityState]
	*lattice.ReachabilityLattice

	alive         map[string]bool
	enter, leave  int
	notedBranches []bound.Statement
}

func (p *recorder) VisitNode(n bound.Node) {
	if id := n.ID(); id != "" {
		p.alive[id] = p.Reachable()
	}
	p.DefaultVisit(n)
}

func (p *recorder) EnterRegion() { p.enter++ }
func (p *recorder) LeaveRegion() { p.leave++ }

func (p *recorder) NoteBranch(_ *PendingBranch[*lattice.ReachabilityState], target bound.Statement) {
	p.notedBranches = append(p.notedBranches, target)
}

func newRecorder(m *bound.Method, opts Options) *recorder {
	p := &recorder{ReachabilityLattice: lattice.Reachability(), alive: map[string]bool{}}
	p.Base = Base[*lattice.ReachabilityState]{NewWalker[*lattice.ReachabilityState](p, m.Symbol, m.Body, opts)}
	return p
}

func decode(t *testing.T, src string) *bound.Method {
	t.Helper()
	m, err := bound.Decode([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestReachability(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]bool
	}{{
		"if both return", `
method: M
params: [p]
body:
  - if:
      cond: p
      then: [return]
      else: [return]
  - {expr: 1, id: after}
`, map[string]bool{"after": false},
	}, {
		"infinite loop", `
method: M
body:
  - while:
      cond: true
      body:
        - {expr: 1, id: body}
  - {expr: 1, id: after}
`, map[string]bool{"body": true, "after": false},
	}, {
		"loop with break", `
method: M
body:
  - while:
      cond: true
      body:
        - break
        - {expr: 1, id: dead}
  - {expr: 1, id: after}
`, map[string]bool{"dead": false, "after": true},
	}, {
		"goto over code", `
method: M
body:
  - goto: L
  - {expr: 1, id: skipped}
  - label: L
  - {expr: 1, id: target}
`, map[string]bool{"skipped": false, "target": true},
	}, {
		"constant false condition", `
method: M
params: [p]
body:
  - if:
      cond: false
      then:
        - {expr: 1, id: never}
  - if:
      cond: {and: [p, false]}
      then:
        - {expr: 1, id: never2}
      else:
        - {expr: 1, id: always}
`, map[string]bool{"never": false, "never2": false, "always": true},
	}, {
		"return through finally", `
method: M
body:
  - try:
      body: [return]
      finally:
        - {expr: 1, id: fin}
  - {expr: 1, id: after}
`, map[string]bool{"fin": true, "after": false},
	}, {
		"catch rejoins", `
method: M
body:
  - try:
      body:
        - {expr: 1, id: try}
      catches:
        - body:
            - {expr: 1, id: catch}
            - throw
  - {expr: 1, id: after}
`, map[string]bool{"try": true, "catch": true, "after": true},
	}, {
		"switch with default", `
method: M
params: [p]
body:
  - switch:
      on: p
      sections:
        - labels: [{case: 1}]
          body: [return]
        - labels: [default]
          body: [return]
  - {expr: 1, id: after}
`, map[string]bool{"after": false},
	}, {
		"switch without default", `
method: M
params: [p]
body:
  - switch:
      on: p
      sections:
        - labels: [{case: 1}]
          body: [return]
  - {expr: 1, id: after}
`, map[string]bool{"after": true},
	}, {
		"exhaustive switch", `
method: M
params: [p]
body:
  - switch:
      on: p
      sections:
        - labels: [{case: true, name: hit}]
          body: [return]
        - labels: [{case: false, name: miss}]
          body:
            - {expr: 1, id: no}
            - return
      dag: {exhaustive: true, reachable: [hit]}
  - {expr: 1, id: after}
`, map[string]bool{"no": false, "after": false},
	}, {
		"lambda return stays inside", `
method: M
body:
  - expr:
      lambda:
        body: [return]
  - {expr: 1, id: after}
`, map[string]bool{"after": true},
	}, {
		"local function summaries", `
method: M
body:
  - {expr: {call: ok}, id: call}
  - {expr: 1, id: afterOk}
  - {expr: {call: fails}, id: call2}
  - {expr: 1, id: afterFails}
  - func:
      name: ok
      body: [return]
  - func:
      name: fails
      body: [throw]
`, map[string]bool{"call": true, "afterOk": true, "call2": true, "afterFails": false},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := newRecorder(decode(t, test.src), Options{CheckLattice: true})
			if _, err := p.Analyze(); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, p.alive); diff != "" {
				t.Errorf("Unexpected reachability (-want +got):\n%s", diff)
			}
			if p.Failed() {
				t.Error("Unexpected failure")
			}
		})
	}
}

func TestMalformedDag(t *testing.T) {
	p := newRecorder(decode(t, `
method: M
params: [p]
body:
  - switch:
      on: p
      sections:
        - labels: [{case: 1}]
          body: [break]
      dag: {reachable: [nowhere]}
`), Options{})
	if _, err := p.Analyze(); err != nil {
		t.Fatal(err)
	}
	if !p.Failed() {
		t.Error("A dag naming a foreign label must fail the walk")
	}
}

func TestReturns(t *testing.T) {
	m := decode(t, `
method: M
iterator: true
params: [p]
body:
  - yield: 1
  - if:
      cond: p
      then: [yield break]
  - {return: 2, id: ret}
`)
	p := newRecorder(m, Options{})
	returns, err := p.Analyze()
	if err != nil {
		t.Fatal(err)
	}

	var kinds []string
	for _, r := range returns {
		if r.Branch == nil {
			kinds = append(kinds, "entry")
			continue
		}
		kinds = append(kinds, r.Branch.Kind().String())
	}
	want := []string{"entry", "YieldReturn", "YieldBreak", "Return"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("Unexpected returns (-want +got):\n%s", diff)
	}
}

func TestRegions(t *testing.T) {
	src := `
method: M
body:
  - {expr: 1, id: a}
  - goto: L
  - {expr: 1, id: b}
  - {label: L, id: l}
  - {expr: 1, id: c}
`
	t.Run("ordered", func(t *testing.T) {
		m := decode(t, src)
		p := newRecorder(m, Options{First: m.Nodes["b"], Last: m.Nodes["c"]})
		if _, err := p.Analyze(); err != nil {
			t.Fatal(err)
		}
		if p.Failed() || p.enter != 1 || p.leave != 1 {
			t.Errorf("Expected one traversal of the region, got failed=%v enter=%d leave=%d",
				p.Failed(), p.enter, p.leave)
		}
		if len(p.notedBranches) != 1 || p.notedBranches[0] != m.Nodes["l"] {
			t.Errorf("Expected the goto to be noted at its label, got %v", p.notedBranches)
		}
	})

	t.Run("reversed", func(t *testing.T) {
		m := decode(t, src)
		p := newRecorder(m, Options{First: m.Nodes["c"], Last: m.Nodes["a"]})
		if _, err := p.Analyze(); err != nil {
			t.Fatal(err)
		}
		if !p.Failed() {
			t.Error("Expected a reversed region to fail")
		}
	})
}

func TestInsufficientStack(t *testing.T) {
	var e bound.Expression = bound.Lit(1)
	for i := 0; i < 50; i++ {
		e = &bound.Unary{Op: "-", Operand: e}
	}
	m := &bound.Method{Symbol: symbols.NewMethod("M", symbols.Void), Body: bound.NewBlock(bound.Stmt(e))}

	p := newRecorder(m, Options{MaxDepth: 10})
	_, err := p.Analyze()
	if !errors.Is(err, ErrInsufficientStack) {
		t.Errorf("Expected ErrInsufficientStack, got %v", err)
	}
	if !p.Diagnostics.Has(diag.InsufficientStack) {
		t.Errorf("Expected an insufficient stack diagnostic, got %v", p.Diagnostics)
	}
}

func TestFreed(t *testing.T) {
	p := newRecorder(decode(t, "method: M\nbody: []"), Options{})
	p.Free()
	defer func() {
		if recover() == nil {
			t.Error("Expected a freed walker to panic")
		}
	}()
	p.Analyze()
}

// Every construct the decoder produces is walked without failure.
func TestEveryConstruct(t *testing.T) {
	for name, src := range map[string]string{
		"statements": `
method: M
returns: int
async: true
types:
  - name: S
    fields:
      - {name: a, type: int}
params:
  - p
  - {name: o, type: object}
  - {name: r, type: int, ref: ref}
body:
  - decl: {name: s, type: S}
  - expr: {assign: [{field: a, of: s}, 1]}
  - decl: {name: x, type: int, init: {op: "+", args: [p, 1]}}
  - expr: {op: "+=", args: [x, 2]}
  - expr: {op: "++", args: [x]}
  - expr: {refassign: [r, x]}
  - expr: {coalesce: [o, {throw: {new: object}}]}
  - expr: {condaccess: [o, {call: ToString, receiver: o}]}
  - expr: {cond: [{is: [o, {type: string}]}, 1, 2]}
  - expr: {await: {call: Delay}}
  - expr: {switch: {on: p, arms: [{case: 1, value: 10}, {case: _, value: 20}]}}
  - expr: {call: Out, args: [x], refs: [out]}
  - do:
      body:
        - expr: {op: "--", args: [x]}
      cond: {op: ">", args: [x, 0]}
  - for:
      init:
        - decl: i
      cond: {op: "<", args: [i, 10]}
      incr:
        - expr: {op: "++", args: [i]}
      body:
        - continue
  - foreach:
      var: e
      in: o
      await: true
      body:
        - if: {cond: {not: e}, then: [break]}
  - using:
      decls:
        - {name: d, type: object, init: {new: object}}
      body:
        - lock: {on: d, body: [noop]}
  - try:
      body:
        - throw: {new: object}
      catches:
        - var: ex
          type: object
          filter: {or: [true, p]}
          body: [throw]
      finally:
        - expr: {delegate: f}
  - func:
      name: f
      returns: int
      body:
        - return: 1
  - return: {call: f}
`,
		"switch": `
method: M
params: [p]
body:
  - switch:
      on: p
      sections:
        - labels: [{case: {var: v, type: int}, when: {op: ">", args: [v, 0]}, name: pos}]
          body:
            - goto: other
        - labels: [{case: 0, name: other}, default]
          body: [break]
  - labeled:
      label: L
      body: {expr: {is: [p, {var: w}], negated: true}}
`,
	} {
		t.Run(name, func(t *testing.T) {
			p := newRecorder(decode(t, src), Options{NonMonotonic: true, AwaitBranches: true})
			if _, err := p.Analyze(); err != nil {
				t.Fatal(err)
			}
			if p.Failed() {
				t.Error("Unexpected failure")
			}
		})
	}
}
