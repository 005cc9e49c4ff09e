// Package diag collects the diagnostics reported by the flow passes.
package diag

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/flowpass/analysis/bound"

	"github.com/fatih/color"
	"golang.org/x/exp/slices"
)

type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Code identifies a kind of diagnostic together with its message format.
type Code struct {
	ID       string
	Severity Severity
	Format   string
}

func (c *Code) String() string { return c.ID }

var (
	UseDefViolation      = &Code{"CS0165", Error, "Use of unassigned local variable '%s'"}
	UseDefViolationField = &Code{"CS0170", Error, "Use of possibly unassigned field '%s'"}
	UseDefViolationOut   = &Code{"CS0269", Error, "Use of unassigned out parameter '%s'"}
	UseDefViolationThis  = &Code{"CS0188", Error, "The 'this' object cannot be used before all of its fields have been assigned"}
	ParamUnassigned      = &Code{"CS0177", Error, "The out parameter '%s' must be assigned to before control leaves the current method"}
	UnassignedThis       = &Code{"CS0171", Error, "Field '%s' must be fully assigned before control is returned to the caller"}

	UnreferencedVar           = &Code{"CS0168", Warning, "The variable '%s' is declared but never used"}
	UnreferencedVarAssg       = &Code{"CS0219", Warning, "The variable '%s' is assigned but its value is never used"}
	UnreferencedLocalFunction = &Code{"CS8321", Warning, "The local function '%s' is declared but never used"}

	UnreachableCode   = &Code{"CS0162", Warning, "Unreachable code detected"}
	UnreferencedLabel = &Code{"CS0164", Warning, "This label has not been referenced"}
	SwitchFallThrough = &Code{"CS0163", Error, "Control cannot fall through from one case label ('%s') to another"}
	SwitchFallOut     = &Code{"CS8070", Error, "Control cannot fall out of switch from final case label ('%s')"}
	LabelNotFound     = &Code{"CS0159", Error, "No such label '%s' within the scope of the goto statement"}
	BadDelegateLeave  = &Code{"CS1632", Error, "Control cannot leave the body of an anonymous method or lambda expression"}
	BadFinallyLeave   = &Code{"CS0157", Error, "Control cannot leave the body of a finally clause"}
	ReturnExpected    = &Code{"CS0161", Error, "'%s': not all code paths return a value"}
	InsufficientStack = &Code{"CS8078", Error, "An expression is too long or complex to compile"}
)

type Diagnostic struct {
	Code *Code
	Span bound.Span
	Args []any
}

func (d Diagnostic) Message() string {
	return fmt.Sprintf(d.Code.Format, d.Args...)
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%d,%d) %s %s: %s", d.Span.Start, d.Span.End, d.Code.Severity, d.Code.ID, d.Message())
}

// Bag is an append-only list of diagnostics.
type Bag struct {
	items []Diagnostic
}

func NewBag() *Bag { return &Bag{} }

// Add reports a diagnostic at the span of n. A nil node reports at the start
// of the program.
func (b *Bag) Add(code *Code, n bound.Node, args ...any) {
	var span bound.Span
	if n != nil {
		span = n.Span()
	}
	b.AddAt(code, span, args...)
}

func (b *Bag) AddAt(code *Code, span bound.Span, args ...any) {
	b.items = append(b.items, Diagnostic{code, span, args})
}

func (b *Bag) AddRange(o *Bag) {
	if o == nil {
		return
	}
	b.items = append(b.items, o.items...)
}

func (b *Bag) Clear()   { b.items = b.items[:0] }
func (b *Bag) Len() int { return len(b.items) }

// Items returns the diagnostics in report order.
func (b *Bag) Items() []Diagnostic {
	return slices.Clone(b.items)
}

// Sorted returns the diagnostics ordered by position, then code.
func (b *Bag) Sorted() []Diagnostic {
	res := b.Items()
	slices.SortStableFunc(res, func(x, y Diagnostic) bool {
		if x.Span.Start != y.Span.Start {
			return x.Span.Start < y.Span.Start
		}
		return x.Code.ID < y.Code.ID
	})
	return res
}

// Has reports whether a diagnostic with the code was reported.
func (b *Bag) Has(code *Code) bool {
	return slices.IndexFunc(b.items, func(d Diagnostic) bool { return d.Code == code }) >= 0
}

func (b *Bag) HasErrors() bool {
	return slices.IndexFunc(b.items, func(d Diagnostic) bool { return d.Code.Severity == Error }) >= 0
}

// String lists the sorted diagnostics, one per line, with errors in red and
// warnings in yellow unless color output is disabled.
func (b *Bag) String() string {
	var sb strings.Builder
	for _, d := range b.Sorted() {
		col := color.New(color.FgYellow)
		if d.Code.Severity == Error {
			col = color.New(color.FgRed)
		}
		sb.WriteString(col.Sprint(d.String()))
		sb.WriteByte('\n')
	}
	return sb.String()
}
