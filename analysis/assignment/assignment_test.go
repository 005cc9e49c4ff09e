package assignment

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/emptystruct"
	"github.com/cs-au-dk/flowpass/analysis/symbols"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"golang.org/x/exp/slices"
)

func decode(t *testing.T, src string) *bound.Method {
	t.Helper()
	m, err := bound.Decode([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// render lists diagnostics by code, arguments and the id of the node they
// are reported at.
func render(m *bound.Method, bag *diag.Bag) []string {
	ids := map[bound.Span]string{m.Body.Span(): "body"}
	for id, n := range m.Nodes {
		ids[n.Span()] = id
	}
	var res []string
	for _, d := range bag.Sorted() {
		where, ok := ids[d.Span]
		if !ok {
			where = fmt.Sprintf("[%d,%d)", d.Span.Start, d.Span.End)
		}
		res = append(res, fmt.Sprintf("%s%v@%s", d.Code.ID, d.Args, where))
	}
	return res
}

func run(t *testing.T, m *bound.Method, opts Options) []string {
	t.Helper()
	p := New(m, opts)
	defer p.Free()
	bag := diag.NewBag()
	if !p.Analyze(bag) {
		t.Fatal("Analysis failed")
	}
	return render(m, bag)
}

func TestDefiniteAssignment(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{{
		"assigned on both branches", `
method: M
params: [c]
returns: int
body:
  - decl: x
  - if:
      cond: c
      then:
        - expr: {assign: [x, 1]}
      else:
        - expr: {assign: [x, 2]}
  - return: x
`, nil,
	}, {
		"assigned on one branch", `
method: M
params: [c]
body:
  - decl: x
  - if:
      cond: c
      then:
        - expr: {assign: [x, 1]}
  - expr: {ref: x, id: use}
  - expr: {ref: x, id: again}
`, []string{"CS0165[x]@use"},
	}, {
		"assigned in finally", `
method: M
returns: int
body:
  - decl: x
  - try:
      body:
        - expr: {call: f}
      finally:
        - expr: {assign: [x, 1]}
  - return: x
`, nil,
	}, {
		"assigned only in try", `
method: M
body:
  - decl: x
  - try:
      body:
        - expr: {call: f}
        - expr: {assign: [x, 1]}
      catches:
        - body: []
  - expr: {ref: x, id: use}
`, []string{"CS0165[x]@use"},
	}, {
		"assigned before break", `
method: M
returns: int
body:
  - decl: x
  - while:
      cond: true
      body:
        - expr: {assign: [x, 1]}
        - break
  - return: x
`, nil,
	}, {
		"unassigned in dead code", `
method: M
body:
  - decl: x
  - return
  - expr: {ref: x}
`, nil,
	}, {
		"compound assignment reads", `
method: M
body:
  - decl: x
  - expr: {op: "+=", args: [{ref: x, id: use}, 1]}
`, []string{"CS0165[x]@use"},
	}, {
		"out argument assigns", `
method: M
returns: int
body:
  - decl: x
  - expr: {call: g, args: [x], refs: [out]}
  - return: x
`, nil,
	}, {
		"ref argument reads", `
method: M
body:
  - decl: x
  - expr: {call: g, args: [{ref: x, id: use}], refs: [ref]}
`, []string{"CS0165[x]@use"},
	}, {
		"constant is assigned", `
method: M
returns: int
body:
  - decl: {name: k, const: true, init: 1}
  - return: k
`, nil,
	}, {
		"pattern variable", `
method: M
params: [{name: o, type: object}]
body:
  - if:
      cond: {is: [o, {var: s, type: string}]}
      then:
        - expr: {call: f, args: [s]}
      else:
        - expr: {call: f, args: [{ref: s, id: use}]}
`, []string{"CS0165[s]@use"},
	}, {
		"foreach variable", `
method: M
body:
  - foreach:
      var: i
      in: {call: items}
      body:
        - expr: {call: f, args: [i]}
`, nil,
	}, {
		"backward goto carries the assignment", `
method: M
params: [c]
body:
  - decl: x
  - goto: L2
  - label: top
  - expr: {ref: x, id: use}
  - label: L2
  - expr: {assign: [x, 1]}
  - if:
      cond: c
      then: [{goto: top}]
`, nil,
	}, {
		"backward goto before the assignment", `
method: M
params: [c]
body:
  - decl: x
  - goto: L2
  - label: top
  - expr: {ref: x, id: use}
  - label: L2
  - if:
      cond: c
      then: [{goto: top}]
  - expr: {assign: [x, 1]}
`, []string{"CS0165[x]@use"},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := decode(t, test.src)
			got := run(t, m, Options{ReportUnused: true})
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Unexpected diagnostics (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutParameters(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{{
		"unassigned at early return", `
method: M
params:
  - {name: o, ref: out}
  - c
body:
  - if:
      cond: c
      then:
        - {return: null, id: ret}
  - expr: {assign: [o, 1]}
`, []string{"CS0177[o]@ret"},
	}, {
		"unassigned at end", `
method: M
params:
  - {name: o, ref: out}
body:
  - noop
`, []string{"CS0177[o]@body"},
	}, {
		"read before assignment", `
method: M
params:
  - {name: o, ref: out}
body:
  - expr: {call: f, args: [{ref: o, id: use}]}
  - expr: {assign: [o, 1]}
`, []string{"CS0269[o]@use"},
	}, {
		"async out parameters start assigned", `
method: M
async: true
params:
  - {name: o, ref: out}
body:
  - expr: {call: f, args: [o]}
`, nil,
	}, {
		"local function out parameter", `
method: M
body:
  - expr: {call: L}
  - id: fn
    func:
      name: L
      params: [{name: o, ref: out}]
      body: []
`, []string{"CS0177[o]@fn"},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := decode(t, test.src)
			got := run(t, m, Options{ReportUnused: true})
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Unexpected diagnostics (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAllowUnassignedOut(t *testing.T) {
	m := decode(t, `
method: M
params:
  - {name: o, ref: out}
body: []
`)
	if got := run(t, m, Options{AllowUnassignedOut: true}); len(got) != 0 {
		t.Errorf("Expected no diagnostics, got %v", got)
	}
}

func TestStructFields(t *testing.T) {
	const types = `
types:
  - name: P
    fields: [{name: x}, {name: y}]
  - name: Empty
    fields: [{name: count, static: true}]
`
	tests := []struct {
		name string
		src  string
		want []string
	}{{
		"fields assigned one by one", `
method: M
returns: int
body:
  - decl: {name: p, type: P}
  - expr: {assign: [{field: x, of: p}, 1]}
  - expr: {call: f, args: [{field: x, of: p}]}
  - expr: {call: f, args: [{field: y, of: p, id: bad}]}
  - expr: {assign: [{field: y, of: p}, 2]}
  - return: p
`, []string{"CS0170[y]@bad"},
	}, {
		"partially assigned struct", `
method: M
returns: int
body:
  - decl: {name: p, type: P}
  - expr: {assign: [{field: x, of: p}, 1]}
  - return: {ref: p, id: use}
`, []string{"CS0165[p]@use"},
	}, {
		"whole assignment assigns fields", `
method: M
params: [{name: q, type: P}]
returns: int
body:
  - decl: {name: p, type: P}
  - expr: {assign: [p, q]}
  - return: {field: y, of: p}
`, nil,
	}, {
		"empty struct is always assigned", `
method: M
body:
  - decl: {name: e, type: Empty}
  - expr: {call: f, args: [e]}
`, nil,
	}, {
		"constructor leaves a field unassigned", `
method: P
this: {type: P, ref: out}
body:
  - expr: {assign: [{field: x, of: this}, 1]}
`, []string{"CS0171[y]@body"},
	}, {
		"this used before its fields are assigned", `
method: P
this: {type: P, ref: out}
body:
  - expr: {call: f, args: [{ref: this, id: use}]}
  - expr: {assign: [{field: x, of: this}, 1]}
  - expr: {assign: [{field: y, of: this}, 1]}
`, []string{"CS0188[]@use"},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := decode(t, strings.Replace(test.src, "body:", strings.TrimPrefix(types, "\n")+"body:", 1))
			got := run(t, m, Options{ReportUnused: true})
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Unexpected diagnostics (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNeverEmptyTracksEmptyStructs(t *testing.T) {
	m := decode(t, `
method: M
types:
  - name: Empty
body:
  - decl: {name: e, type: Empty}
  - expr: {call: f, args: [{ref: e, id: use}]}
`)
	got := run(t, m, Options{Empty: emptystruct.NewNeverEmpty()})
	if diff := cmp.Diff([]string{"CS0165[e]@use"}, got); diff != "" {
		t.Errorf("Unexpected diagnostics (-want +got):\n%s", diff)
	}
}

func TestCapturedVariables(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{{
		"local function assigns", `
method: M
returns: int
body:
  - decl: x
  - func:
      name: L
      body:
        - expr: {assign: [x, 1]}
  - expr: {call: L}
  - return: x
`, nil,
	}, {
		"local function reads before assignment", `
method: M
body:
  - decl: x
  - func:
      name: L
      returns: int
      body:
        - return: x
  - expr: {call: L, id: call}
  - expr: {assign: [x, 1]}
  - expr: {call: L}
`, []string{"CS0165[x]@call"},
	}, {
		"local function used before declaration", `
method: M
body:
  - decl: x
  - expr: {assign: [x, 1]}
  - expr: {call: L}
  - func:
      name: L
      returns: int
      body:
        - return: x
`, nil,
	}, {
		"delegate conversion checks reads", `
method: M
body:
  - decl: x
  - func:
      name: L
      returns: int
      body:
        - return: x
  - expr: {delegate: L, id: conv}
`, []string{"CS0165[x]@conv"},
	}, {
		"lambda reads where it is created", `
method: M
body:
  - decl: x
  - expr:
      lambda:
        body:
          - expr: {ref: x, id: use}
  - expr: {assign: [x, 1]}
`, []string{"CS0165[x]@use"},
	}, {
		"local function that never returns", `
method: M
body:
  - func:
      name: Fail
      body: [throw]
  - expr: {call: Fail}
  - block:
      - decl: z
      - expr: {ref: z, id: use}
`, nil,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := decode(t, test.src)
			got := run(t, m, Options{ReportUnused: true})
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Unexpected diagnostics (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCapturedSets(t *testing.T) {
	m := decode(t, `
method: M
params: [a]
body:
  - decl: {name: b, init: 1}
  - decl: {name: c, init: 2}
  - expr:
      lambda:
        params: [d]
        body:
          - expr: {call: f, args: [a, b, d]}
  - expr: {call: f, args: [c]}
`)
	p := New(m, Options{})
	defer p.Free()
	if !p.Analyze(diag.NewBag()) {
		t.Fatal("Analysis failed")
	}

	var names []string
	for s := range p.Captured() {
		names = append(names, s.Name())
	}
	slices.Sort(names)
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("Unexpected captured variables (-want +got):\n%s", diff)
	}
}

func TestInitiallyAssigned(t *testing.T) {
	m := decode(t, `
method: M
body:
  - decl: x
  - expr: {call: f, args: [x]}
`)
	x := m.Body.Locals[0]
	got := run(t, m, Options{InitiallyAssigned: map[symbols.Symbol]bool{x: true}})
	if len(got) != 0 {
		t.Errorf("Expected no diagnostics, got %v", got)
	}
}

func TestUnusedWarnings(t *testing.T) {
	m := decode(t, `
method: M
body:
  - {decl: a, id: a}
  - {decl: {name: b, init: 1}, id: b}
  - {decl: {name: c, init: 1}, id: c}
  - {decl: {name: d, type: object, init: {new: object, args: [1]}}, id: d}
  - expr: {call: f, args: [c]}
  - try:
      body:
        - expr: {call: f}
      catches:
        - {var: e, type: object, body: [], id: catch}
  - using:
      decls: [{name: r, type: object, init: {call: open}}]
      body: []
  - foreach: {var: i, in: {call: items}, body: []}
  - {func: {name: L, body: []}, id: L}
`)
	got := run(t, m, Options{ReportUnused: true})
	goldie.New(t).Assert(t, t.Name(), []byte(strings.Join(got, "\n")+"\n"))

	if got := run(t, decode(t, "{method: M, body: [{decl: a}]}"), Options{}); len(got) != 0 {
		t.Errorf("Unused warnings are disabled by default, got %v", got)
	}
}
