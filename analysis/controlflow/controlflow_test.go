package controlflow

import (
	"fmt"
	"testing"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/flow"

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

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{{
		"code after return", `
method: M
body:
  - return
  - {expr: 1, id: dead}
  - expr: 2
`, []string{"CS0162[]@dead"},
	}, {
		"goto skips code", `
method: M
body:
  - goto: L
  - {expr: 1, id: dead}
  - label: L
  - expr: 2
`, []string{"CS0162[]@dead"},
	}, {
		"unreachable label does not restart reporting", `
method: M
body:
  - return
  - {expr: 1, id: dead}
  - {label: L, id: lab}
  - expr: 2
`, []string{"CS0162[]@dead", "CS0164[]@lab"},
	}, {
		"infinite loop", `
method: M
body:
  - while:
      cond: true
      body:
        - expr: 1
  - {expr: 2, id: after}
`, []string{"CS0162[]@after"},
	}, {
		"constant false condition", `
method: M
body:
  - if:
      cond: false
      then:
        - {expr: 1, id: never}
  - expr: 2
`, []string{"CS0162[]@never"},
	}, {
		"switch fall through", `
method: M
params: [p]
body:
  - switch:
      on: p
      sections:
        - labels: [{case: 1, id: one}]
          body:
            - expr: 1
        - labels: [{case: 2, name: two, id: last}]
          body:
            - expr: 2
`, []string{"CS0163[case:]@one", "CS8070[two:]@last"},
	}, {
		"switch sections ending in break", `
method: M
params: [p]
body:
  - switch:
      on: p
      sections:
        - labels: [{case: 1}]
          body: [break]
        - labels: [default]
          body: [return]
`, nil,
	}, {
		"not all paths return", `
method: M
params: [p]
returns: int
body:
  - if:
      cond: p
      then:
        - return: 1
`, []string{"CS0161[M]@body"},
	}, {
		"local function without return", `
method: M
body:
  - id: fn
    func:
      name: L
      returns: int
      body:
        - expr: 1
  - expr: {call: L}
`, []string{"CS0161[L]@fn"},
	}, {
		"iterator needs no return", `
method: M
returns: int
iterator: true
body:
  - yield: 1
`, nil,
	}, {
		"return from finally", `
method: M
body:
  - try:
      body:
        - expr: 1
      finally:
        - {return: null, id: ret}
`, []string{"CS0157[]@ret"},
	}, {
		"branch inside finally", `
method: M
body:
  - try:
      body:
        - expr: 1
      finally:
        - goto: L
        - label: L
`, nil,
	}, {
		"missing label", `
method: M
body:
  - {goto: Nowhere, id: g}
`, []string{"CS0159[Nowhere]@g"},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := decode(t, test.src)
			p := New(m, flow.Options{})
			defer p.Free()

			bag := diag.NewBag()
			if _, ok := p.Analyze(bag); !ok {
				t.Fatal("Analysis failed")
			}
			if diff := cmp.Diff(test.want, render(m, bag)); diff != "" {
				t.Errorf("Unexpected diagnostics (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEndReachable(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"empty", `[]`, true},
		{"return", `[return]`, false},
		{"throw", `[throw]`, false},
		{"infinite loop", `[{while: {cond: true, body: [{expr: 1}]}}]`, false},
		{"loop with break", `[{while: {cond: true, body: [break]}}]`, true},
		{"return in try", `[{try: {body: [return], catches: [{body: []}]}}]`, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := decode(t, "method: M\nbody: "+test.body+"\n")
			p := New(m, flow.Options{})
			defer p.Free()

			got, ok := p.Analyze(diag.NewBag())
			if !ok {
				t.Fatal("Analysis failed")
			}
			if got != test.want {
				t.Errorf("EndReachable = %v, want %v", got, test.want)
			}
		})
	}
}

func TestBackwardGoto(t *testing.T) {
	m := decode(t, `
method: M
params: [c]
body:
  - goto: L2
  - label: top
  - {expr: 1, id: looped}
  - label: L2
  - if:
      cond: c
      then: [{goto: top}]
`)
	p := New(m, flow.Options{})
	defer p.Free()

	bag := diag.NewBag()
	end, ok := p.Analyze(bag)
	if !ok {
		t.Fatal("Analysis failed")
	}
	if got := render(m, bag); len(got) != 0 {
		t.Errorf("Expected no diagnostics, got %v", got)
	}
	if !end {
		t.Error("The end of the method is reachable when c is false")
	}
	if p.Passes() != 2 {
		t.Errorf("The back edge to top should force exactly one more pass, got %d passes", p.Passes())
	}
}
