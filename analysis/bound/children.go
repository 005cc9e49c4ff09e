package bound

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/flowpass/utils/worklist"
)

var errUnknownNode = errors.New("unknown bound node")

// Children returns the direct children of a node in evaluation order.
// Nil optional children are skipped.
func Children(n Node) []Node {
	var cs []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if !isNil(c) {
				cs = append(cs, c)
			}
		}
	}

	switch n := n.(type) {
	case *Block:
		for _, s := range n.Statements {
			add(s)
		}
	case *LocalDeclaration:
		add(n.Init)
	case *ExpressionStatement:
		add(n.Expr)
	case *If:
		add(n.Cond, n.Then, n.Else)
	case *While:
		add(n.Cond, n.Body)
	case *Do:
		add(n.Body, n.Cond)
	case *For:
		for _, s := range n.Init {
			add(s)
		}
		add(n.Cond)
		add(n.Body)
		for _, s := range n.Increment {
			add(s)
		}
	case *ForEach:
		add(n.Collection, n.Body)
	case *Labeled:
		add(n.Body)
	case *Return:
		add(n.Expr)
	case *Throw:
		add(n.Expr)
	case *Try:
		add(n.Try)
		for _, c := range n.Catches {
			add(c)
		}
		add(n.Finally)
	case *Catch:
		add(n.Filter, n.Body)
	case *Switch:
		add(n.Expr)
		for _, s := range n.Sections {
			add(s)
		}
	case *SwitchSection:
		for _, l := range n.Labels {
			add(l)
		}
		for _, s := range n.Statements {
			add(s)
		}
	case *SwitchLabel:
		add(n.Pattern, n.When)
	case *YieldReturn:
		add(n.Expr)
	case *LocalFunctionStatement:
		add(n.Body)
	case *Using:
		for _, d := range n.Declarations {
			add(d)
		}
		add(n.Expr, n.Body)
	case *Lock:
		add(n.Expr, n.Body)
	case *FieldAccess:
		add(n.Receiver)
	case *Assignment:
		add(n.Left, n.Right)
	case *CompoundAssignment:
		add(n.Left, n.Right)
	case *Binary:
		add(n.Left, n.Right)
	case *Unary:
		add(n.Operand)
	case *Conditional:
		add(n.Cond, n.Consequence, n.Alternative)
	case *Call:
		add(n.Receiver)
		for _, a := range n.Args {
			add(a)
		}
	case *ObjectCreation:
		for _, a := range n.Args {
			add(a)
		}
	case *Lambda:
		add(n.Body)
	case *IsPattern:
		add(n.Expr, n.Pattern)
	case *SwitchExpression:
		add(n.Expr)
		for _, a := range n.Arms {
			add(a)
		}
	case *SwitchArm:
		add(n.Pattern, n.When, n.Value)
	case *Await:
		add(n.Expr)
	case *NullCoalescing:
		add(n.Left, n.Right)
	case *ConditionalAccess:
		add(n.Receiver, n.Access)
	case *ThrowExpression:
		add(n.Expr)
	case *ConstantPattern:
		add(n.Value)
	case *Goto, *Break, *Continue, *YieldBreak, *NoOp,
		*Literal, *LocalRef, *ParameterRef, *ThisRef, *DelegateCreation, *TypeExpression,
		*DeclarationPattern, *DiscardPattern, *TypePattern:
	default:
		panic(fmt.Errorf("%w: %T", errUnknownNode, n))
	}
	return cs
}

// isNil catches typed nil pointers stored in interface-typed fields.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *Catch:
		return n == nil
	}
	return false
}

// Inspect traverses the tree rooted at n in pre-order. If f returns false the
// children of the node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Contains reports whether n is a node of the tree rooted at root.
func Contains(root, n Node) (found bool) {
	worklist.Start(root, func(m Node, add func(Node)) {
		if found {
			return
		}
		if m == n {
			found = true
			return
		}
		for _, c := range Children(m) {
			add(c)
		}
	})
	return
}
