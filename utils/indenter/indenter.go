// Package indenter builds indented multi-line renderings of nested structures.
package indenter

import (
	"fmt"
	"strings"
)

type Indenter struct {
	b     strings.Builder
	level int
	unit  string
}

func New() *Indenter {
	return &Indenter{unit: "  "}
}

// WithUnit changes the string emitted once per nesting level.
func (in *Indenter) WithUnit(unit string) *Indenter {
	in.unit = unit
	return in
}

// Line emits one formatted line at the current nesting level.
func (in *Indenter) Line(format string, args ...any) *Indenter {
	in.b.WriteString(strings.Repeat(in.unit, in.level))
	fmt.Fprintf(&in.b, format, args...)
	in.b.WriteByte('\n')
	return in
}

// Nest runs f one level deeper.
func (in *Indenter) Nest(f func()) *Indenter {
	in.level++
	f()
	in.level--
	return in
}

// NestLines emits each string as a line one level deeper.
func (in *Indenter) NestLines(strs ...fmt.Stringer) *Indenter {
	return in.Nest(func() {
		for _, s := range strs {
			in.Line("%s", s)
		}
	})
}

func (in *Indenter) String() string {
	return in.b.String()
}
