package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/region"
	"github.com/cs-au-dk/flowpass/analysis/symbols"

	"github.com/fatih/color"
)

// region looks up the region between -first and -last.
func (p pipeline) region() region.Region {
	r, err := region.ByID(p.m, opts.First(), opts.Last())
	if err != nil {
		log.Fatalln(err)
	}
	if err := r.Check(p.m); err != nil {
		log.Fatalln(err)
	}
	return r
}

func nodeList[N bound.Node](ns []N) string {
	if len(ns) == 0 {
		return "{}"
	}
	strs := make([]string, 0, len(ns))
	for _, n := range ns {
		s := n.Kind().String()
		if n.ID() != "" {
			s += " #" + n.ID()
		} else {
			s += fmt.Sprintf(" [%d,%d)", n.Span().Start, n.Span().End)
		}
		strs = append(strs, s)
	}
	return "{ " + strings.Join(strs, ", ") + " }"
}

func symbolList(syms []symbols.Symbol) string {
	if len(syms) == 0 {
		return "{}"
	}
	strs := make([]string, 0, len(syms))
	for _, s := range syms {
		strs = append(strs, s.Name())
	}
	return "{ " + strings.Join(strs, ", ") + " }"
}

// controlFlow prints the control flow facts of the region.
func (p pipeline) controlFlow() {
	start := time.Now()
	c := region.AnalyzeControlFlow(p.m, p.region(), p.cfg)

	t := newTable("question", "answer")
	t.add(nil, "StartPointIsReachable", fmt.Sprint(c.StartPointIsReachable()))
	t.add(nil, "EndPointIsReachable", fmt.Sprint(c.EndPointIsReachable()))
	t.add(nil, "EntryPoints", nodeList(c.EntryPoints()))
	t.add(nil, "ExitPoints", nodeList(c.ExitPoints()))
	t.add(nil, "ReturnStatements", nodeList(c.ReturnStatements()))
	p.metrics.record("control-flow", -1, -1, c.Succeeded(), start)

	if !c.Succeeded() {
		log.Println(color.RedString("Control flow analysis of the region failed"))
	}
	fmt.Print(t)
}

// dataFlow prints the data flow facts of the region.
func (p pipeline) dataFlow() {
	start := time.Now()
	d := region.AnalyzeDataFlow(p.m, p.region(), p.cfg)

	t := newTable("question", "answer")
	for _, q := range []struct {
		name   string
		answer func() []symbols.Symbol
	}{
		{"VariablesDeclared", d.VariablesDeclared},
		{"DataFlowsIn", d.DataFlowsIn},
		{"DataFlowsOut", d.DataFlowsOut},
		{"AlwaysAssigned", d.AlwaysAssigned},
		{"DefinitelyAssignedOnEntry", d.DefinitelyAssignedOnEntry},
		{"DefinitelyAssignedOnExit", d.DefinitelyAssignedOnExit},
		{"ReadInside", d.ReadInside},
		{"WrittenInside", d.WrittenInside},
		{"ReadOutside", d.ReadOutside},
		{"WrittenOutside", d.WrittenOutside},
		{"Captured", d.Captured},
		{"CapturedInside", d.CapturedInside},
		{"CapturedOutside", d.CapturedOutside},
		{"UsedLocalFunctions", d.UsedLocalFunctions},
	} {
		t.add(nil, q.name, symbolList(q.answer()))
	}
	p.metrics.record("data-flow", -1, -1, d.Succeeded(), start)

	if !d.Succeeded() {
		log.Println(color.RedString("Data flow analysis of the region failed"))
	}
	fmt.Print(t)
}
