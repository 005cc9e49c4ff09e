package bound

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/flowpass/utils/indenter"
)

// Layout assigns synthetic source spans to every node of the tree in
// pre-order, so that a parent's span encloses its children's and siblings
// are ordered by evaluation order. It returns the span of the root.
func Layout(root Node) Span {
	pos := 0
	var layout func(Node)
	layout = func(n Node) {
		start := pos
		pos++
		for _, c := range Children(n) {
			layout(c)
		}
		SetSpan(n, Span{start, pos})
	}
	layout(root)
	return root.Span()
}

// Dump pretty-prints a tree with its spans.
func Dump(n Node) string {
	in := indenter.New()
	var dump func(Node)
	dump = func(n Node) {
		head := fmt.Sprintf("%s [%d,%d)", describe(n), n.Span().Start, n.Span().End)
		if n.ID() != "" {
			head += " #" + n.ID()
		}
		in.Line("%s", head)
		in.Nest(func() {
			for _, c := range Children(n) {
				dump(c)
			}
		})
	}
	dump(n)
	return in.String()
}

func describe(n Node) string {
	var b strings.Builder
	b.WriteString(n.Kind().String())
	switch n := n.(type) {
	case *LocalDeclaration:
		fmt.Fprintf(&b, " %s", n.Local)
	case *Goto:
		fmt.Fprintf(&b, " %s", n.Label.Name())
	case *Labeled:
		fmt.Fprintf(&b, " %s", n.Label)
	case *Break:
		fmt.Fprintf(&b, " %s", n.Label.Name())
	case *Continue:
		fmt.Fprintf(&b, " %s", n.Label.Name())
	case *Catch:
		if n.Local != nil {
			fmt.Fprintf(&b, " %s", n.Local)
		}
	case *SwitchLabel:
		if n.IsDefault() {
			b.WriteString(" default")
		}
	case *LocalFunctionStatement:
		fmt.Fprintf(&b, " %s", n.Symbol)
	case *Literal:
		fmt.Fprintf(&b, " %v", n.Value)
	case *LocalRef:
		fmt.Fprintf(&b, " %s", n.Local)
	case *ParameterRef:
		fmt.Fprintf(&b, " %s", n.Parameter.Name())
	case *FieldAccess:
		fmt.Fprintf(&b, " %s", n.Field.Name())
	case *CompoundAssignment:
		fmt.Fprintf(&b, " %s", n.Op)
	case *Binary:
		fmt.Fprintf(&b, " %s", n.Op)
	case *Unary:
		fmt.Fprintf(&b, " %s", n.Op)
	case *Call:
		if n.LocalFunction != nil {
			fmt.Fprintf(&b, " %s", n.LocalFunction)
		} else if n.Method != nil {
			fmt.Fprintf(&b, " %s", n.Method)
		}
	case *DelegateCreation:
		fmt.Fprintf(&b, " %s", n.LocalFunction)
	case *DeclarationPattern:
		if n.Local != nil {
			fmt.Fprintf(&b, " %s", n.Local)
		}
	case *TypeExpression:
		fmt.Fprintf(&b, " %s", n.Type)
	case *TypePattern:
		fmt.Fprintf(&b, " %s", n.Type)
	}
	return b.String()
}
