package region

import (
	"errors"
	"strings"
	"testing"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"

	"github.com/google/go-cmp/cmp"
)

func decode(t *testing.T, src string) *bound.Method {
	t.Helper()
	m, err := bound.Decode([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func regionOf(t *testing.T, m *bound.Method, first, last string) Region {
	t.Helper()
	if last == "" {
		last = first
	}
	r, err := ByID(m, first, last)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func names(syms []symbols.Symbol) string {
	res := make([]string, len(syms))
	for i, s := range syms {
		res[i] = s.Name()
	}
	return strings.Join(res, ", ")
}

func ids[N bound.Node](ns []N) []string {
	var res []string
	for _, n := range ns {
		res = append(res, n.ID())
	}
	return res
}

var questions = map[string]func(*DataFlow) []symbols.Symbol{
	"VariablesDeclared":         (*DataFlow).VariablesDeclared,
	"DataFlowsIn":               (*DataFlow).DataFlowsIn,
	"DataFlowsOut":              (*DataFlow).DataFlowsOut,
	"AlwaysAssigned":            (*DataFlow).AlwaysAssigned,
	"DefinitelyAssignedOnEntry": (*DataFlow).DefinitelyAssignedOnEntry,
	"DefinitelyAssignedOnExit":  (*DataFlow).DefinitelyAssignedOnExit,
	"ReadInside":                (*DataFlow).ReadInside,
	"WrittenInside":             (*DataFlow).WrittenInside,
	"ReadOutside":               (*DataFlow).ReadOutside,
	"WrittenOutside":            (*DataFlow).WrittenOutside,
	"Captured":                  (*DataFlow).Captured,
	"CapturedInside":            (*DataFlow).CapturedInside,
	"CapturedOutside":           (*DataFlow).CapturedOutside,
	"UsedLocalFunctions":        (*DataFlow).UsedLocalFunctions,
}

func TestDataFlow(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		first, last string
		want        map[string]string
	}{{
		"operands of a binary expression", `
method: M
body:
  - decl: {name: x, init: 1}
  - decl: {name: y, init: 2}
  - expr: {call: Use, args: [{op: +, args: [x, y], id: sum}]}
`, "sum", "", map[string]string{
			"VariablesDeclared":         "",
			"DataFlowsIn":               "x, y",
			"DataFlowsOut":              "",
			"AlwaysAssigned":            "",
			"ReadInside":                "x, y",
			"WrittenOutside":            "x, y",
			"DefinitelyAssignedOnEntry": "x, y",
			"DefinitelyAssignedOnExit":  "x, y",
		},
	}, {
		"chained assignment", `
method: M
body:
  - decl: x
  - decl: y
  - expr: {assign: [y, {assign: [x, 2]}], id: chain}
  - expr: {call: Use, args: [x, y]}
`, "chain", "", map[string]string{
			"DataFlowsIn":    "",
			"DataFlowsOut":   "x, y",
			"AlwaysAssigned": "x, y",
			"WrittenInside":  "x, y",
			"ReadOutside":    "x, y",
		},
	}, {
		"compound assignment", `
method: M
body:
  - decl: {name: i, init: 0}
  - expr: {op: +=, args: [i, 1], id: inc}
  - expr: {call: Use, args: [i]}
`, "inc", "", map[string]string{
			"DataFlowsIn":    "i",
			"DataFlowsOut":   "i",
			"AlwaysAssigned": "i",
			"ReadInside":     "i",
			"WrittenInside":  "i",
			"ReadOutside":    "i",
			"WrittenOutside": "i",
		},
	}, {
		"assigned by both operands of &&", `
method: M
params: [{name: a, type: bool}]
body:
  - decl: {name: b, type: bool}
  - if:
      cond: {and: [{assign: [b, a]}, {assign: [b, {not: a}]}], id: both}
      then: []
`, "both", "", map[string]string{
			"AlwaysAssigned": "b",
		},
	}, {
		"assigned by the right operand of &&", `
method: M
params: [{name: a, type: bool}]
body:
  - decl: {name: b, type: bool}
  - if:
      cond: {and: [a, {assign: [b, {not: a}]}], id: both}
      then: []
`, "both", "", map[string]string{
			"AlwaysAssigned": "",
		},
	}, {
		"struct field write", `
method: M
types: [{name: S, fields: [{name: f, type: int}]}]
body:
  - decl: {name: s, type: S}
  - expr: {assign: [{field: f, of: s}, 1], id: write}
  - expr: {call: Use, args: [{field: f, of: s}]}
`, "write", "", map[string]string{
			"AlwaysAssigned": "s",
			"DataFlowsOut":   "s",
			"ReadInside":     "",
			"WrittenInside":  "s",
			"ReadOutside":    "s",
			"WrittenOutside": "",
		},
	}, {
		"ref argument", `
method: M
body:
  - decl: {name: x, init: 1}
  - expr: {call: Use, args: [{ref: x, id: arg}], refs: [ref]}
  - expr: {call: Use, args: [x]}
`, "arg", "", map[string]string{
			"ReadInside":     "x",
			"WrittenInside":  "",
			"ReadOutside":    "x",
			"WrittenOutside": "x",
		},
	}, {
		"receiver of a struct field read", `
method: M
types: [{name: S, fields: [{name: f, type: int}]}]
body:
  - decl: {name: s, type: S, init: {new: S}}
  - expr: {call: Use, args: [{field: f, of: {ref: s, id: recv}}]}
`, "recv", "", map[string]string{
			"ReadInside":     "s",
			"WrittenInside":  "",
			"ReadOutside":    "s",
			"WrittenOutside": "s",
		},
	}, {
		"empty struct flows in", `
method: M
types: [{name: E}]
body:
  - decl: {name: e, type: E, init: {new: E}}
  - expr: {call: Use, args: [{ref: e, id: use}]}
`, "use", "", map[string]string{
			"DataFlowsIn": "e",
		},
	}, {
		"declared variables", `
method: M
body:
  - {decl: {name: a, init: 1}, id: first}
  - foreach: {var: v, in: a, body: [{expr: {call: Use, args: [v]}}]}
  - expr: {lambda: {params: [p], body: []}}
  - {decl: b, id: last}
  - decl: c
`, "first", "last", map[string]string{
			"VariablesDeclared": "a, v, p, b",
		},
	}, {
		"out parameter written", `
method: M
params: [{name: p, ref: out}]
body:
  - {expr: {assign: [p, 1]}, id: write}
`, "write", "", map[string]string{
			"DataFlowsOut":   "p",
			"WrittenInside":  "p",
			"AlwaysAssigned": "p",
		},
	}, {
		"captured by a lambda", `
method: M
body:
  - decl: {name: x, init: 1}
  - {expr: {lambda: {body: [{expr: {call: Use, args: [x]}}]}}, id: first}
`, "first", "", map[string]string{
			"Captured":        "x",
			"CapturedInside":  "x",
			"CapturedOutside": "",
		},
	}, {
		"used local function", `
method: M
body:
  - func: {name: L, body: []}
  - {expr: {call: L}, id: first}
`, "first", "", map[string]string{
			"UsedLocalFunctions": "L",
		},
	}, {
		"definitely assigned at the boundaries", `
method: M
params: [{name: c, type: bool}]
body:
  - decl: x
  - decl: y
  - {expr: {assign: [x, 1]}, id: first}
  - {if: {cond: c, then: [{expr: {assign: [y, 2]}}]}, id: last}
`, "first", "last", map[string]string{
			"DefinitelyAssignedOnEntry": "c",
			"DefinitelyAssignedOnExit":  "c, x",
		},
	}}

	cfg := config.NewDefault()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := decode(t, test.src)
			d := AnalyzeDataFlow(m, regionOf(t, m, test.first, test.last), cfg)
			if !d.Succeeded() {
				t.Fatal("Analysis failed:", d.Err())
			}
			got := map[string]string{}
			for q := range test.want {
				got[q] = names(questions[q](d))
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Unexpected answers (-want +got):\n%s", diff)
			}
		})
	}
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		first, last string
		start, end  bool
		entries     []string
		exits       []string
	}{{
		"return leaves the region", `
method: M
params: [{name: c, type: bool}]
body:
  - {if: {cond: c, then: [{return: null, id: ret}]}, id: first}
  - {expr: 1, id: last}
  - expr: 2
`, "first", "last", true, true, nil, []string{"ret"},
	}, {
		"goto to a label outside", `
method: M
params: [{name: c, type: bool}]
body:
  - {if: {cond: c, then: [{goto: out, id: leave}]}, id: first}
  - if: {cond: c, then: [{goto: in, id: stay}]}
  - label: in
  - {expr: 1, id: last}
  - label: out
`, "first", "last", true, true, nil, []string{"leave"},
	}, {
		"goto into the region", `
method: M
params: [{name: c, type: bool}]
body:
  - if: {cond: c, then: [{goto: L}]}
  - {expr: 1, id: first}
  - {labeled: {label: L, body: {expr: 2}}, id: lab}
  - {expr: 3, id: last}
`, "first", "last", true, true, []string{"lab"}, nil,
	}, {
		"after a return", `
method: M
body:
  - return
  - {expr: 1, id: first}
  - {expr: 2, id: last}
`, "first", "last", false, false, nil, nil,
	}, {
		"ending in a return", `
method: M
body:
  - {expr: 1, id: first}
  - {return: null, id: last}
`, "first", "last", true, false, nil, []string{"last"},
	}}

	cfg := config.NewDefault()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := decode(t, test.src)
			c := AnalyzeControlFlow(m, regionOf(t, m, test.first, test.last), cfg)
			if !c.Succeeded() {
				t.Fatal("Analysis failed:", c.Err())
			}
			if got := c.StartPointIsReachable(); got != test.start {
				t.Errorf("StartPointIsReachable() = %v, want %v", got, test.start)
			}
			if got := c.EndPointIsReachable(); got != test.end {
				t.Errorf("EndPointIsReachable() = %v, want %v", got, test.end)
			}
			if diff := cmp.Diff(test.entries, ids(c.EntryPoints())); diff != "" {
				t.Errorf("Unexpected entry points (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.exits, ids(c.ExitPoints())); diff != "" {
				t.Errorf("Unexpected exit points (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReturnStatements(t *testing.T) {
	m := decode(t, `
method: M
params: [{name: c, type: bool}]
body:
  - {if: {cond: c, then: [{goto: out, id: leave}]}, id: first}
  - {if: {cond: c, then: [{return: null, id: ret}]}, id: last}
  - label: out
`)
	c := AnalyzeControlFlow(m, regionOf(t, m, "first", "last"), config.NewDefault())
	if diff := cmp.Diff([]string{"leave", "ret"}, ids(c.ExitPoints())); diff != "" {
		t.Errorf("Unexpected exit points (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ret"}, ids(c.ReturnStatements())); diff != "" {
		t.Errorf("Unexpected return statements (-want +got):\n%s", diff)
	}
}

func TestBadRegion(t *testing.T) {
	m := decode(t, `
method: M
params: [{name: c, type: bool}]
body:
  - {decl: {name: x, init: 1}, id: first}
  - {expr: {call: Use, args: [x]}, id: last}
`)
	cfg := config.NewDefault()

	t.Run("last before first", func(t *testing.T) {
		r := regionOf(t, m, "last", "first")
		c := AnalyzeControlFlow(m, r, cfg)
		if c.Succeeded() {
			t.Error("Control flow analysis of a reversed region succeeded")
		}
		if !errors.Is(c.Err(), ErrBadRegion) {
			t.Errorf("Err() = %v, want %v", c.Err(), ErrBadRegion)
		}
		if exits := c.ExitPoints(); exits != nil {
			t.Errorf("ExitPoints() = %v, want nil", exits)
		}
		if !c.StartPointIsReachable() || !c.EndPointIsReachable() {
			t.Error("Boundaries of a bad region are reported unreachable")
		}

		d := AnalyzeDataFlow(m, r, cfg)
		if d.Succeeded() {
			t.Error("Data flow analysis of a reversed region succeeded")
		}
		if in := d.DataFlowsIn(); in != nil {
			t.Errorf("DataFlowsIn() = %v, want nil", names(in))
		}
		if read := d.ReadInside(); read != nil {
			t.Errorf("ReadInside() = %v, want nil", names(read))
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := ByID(m, "first", "nowhere"); !errors.Is(err, ErrBadRegion) {
			t.Errorf("ByID() error = %v, want %v", err, ErrBadRegion)
		}
	})

	t.Run("missing boundary", func(t *testing.T) {
		if err := (Region{First: m.Nodes["first"]}).Check(m); !errors.Is(err, ErrBadRegion) {
			t.Errorf("Check() = %v, want %v", err, ErrBadRegion)
		}
	})

	t.Run("node of another method", func(t *testing.T) {
		other := decode(t, `
method: N
body:
  - {expr: 1, id: first}
`)
		r := Region{First: other.Nodes["first"], Last: other.Nodes["first"]}
		if err := r.Check(m); !errors.Is(err, ErrBadRegion) {
			t.Errorf("Check() = %v, want %v", err, ErrBadRegion)
		}
	})
}
