package main

import (
	"fmt"
	"log"
	"time"

	"github.com/cs-au-dk/flowpass/analysis/assignment"
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/controlflow"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/config"
	"github.com/cs-au-dk/flowpass/utils"

	"github.com/fatih/color"
)

// pipeline runs the passes over one decoded method.
type pipeline struct {
	m       *bound.Method
	cfg     *config.Config
	metrics *metrics
}

// definiteAssignment reports unassigned reads and unused variables.
func (p pipeline) definiteAssignment() *diag.Bag {
	start := time.Now()
	a := assignment.New(p.m, assignment.OptionsFromConfig(p.cfg))
	defer a.Free()

	bag := diag.NewBag()
	ok := a.Analyze(bag)
	p.metrics.record("definite-assignment", a.Passes(), bag.Len(), ok, start)
	if !ok {
		log.Println(color.YellowString("Definite assignment did not complete for %s", p.m.Symbol))
	}
	return bag
}

// reachability reports unreachable code, fall-through and missing returns.
func (p pipeline) reachability() *diag.Bag {
	start := time.Now()
	c := controlflow.New(p.m, controlflow.OptionsFromConfig(p.cfg))
	defer c.Free()

	bag := diag.NewBag()
	end, ok := c.Analyze(bag)
	p.metrics.record("reachability", c.Passes(), bag.Len(), ok, start)
	if !ok {
		log.Println(color.YellowString("Reachability did not complete for %s", p.m.Symbol))
	}
	utils.VerbosePrint("End point reachable: %v\n", end)
	return bag
}

// where names the node a diagnostic is reported at by its id, falling back
// to its span.
func (p pipeline) where(span bound.Span) string {
	if span == p.m.Body.Span() {
		return "body"
	}
	for id, n := range p.m.Nodes {
		if n.Span() == span {
			return "#" + id
		}
	}
	return fmt.Sprintf("[%d,%d)", span.Start, span.End)
}

// report prints the diagnostics of bag as a table and reports whether any of
// them is an error.
func (p pipeline) report(bag *diag.Bag) (hasErrors bool) {
	if bag.Len() == 0 {
		fmt.Println(utils.CanColorize(color.New(color.FgGreen).SprintFunc())("No diagnostics"))
		return false
	}

	t := newTable("severity", "code", "at", "message")
	for _, d := range bag.Sorted() {
		paint := color.New(color.FgYellow).SprintFunc()
		if d.Code.Severity == diag.Error {
			paint = color.New(color.FgRed).SprintFunc()
		}
		t.add(utils.CanColorize(paint), d.Code.Severity.String(), d.Code.ID, p.where(d.Span), d.Message())
	}
	fmt.Print(t)
	return bag.HasErrors()
}
