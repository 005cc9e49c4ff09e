package flow

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// Visit dispatches n to the pass, entering and leaving the region when n is
// one of its boundaries.
func (w *Walker[S]) Visit(n bound.Node) {
	if n == nil {
		return
	}
	if w.trackRegions && n == w.opts.First && w.place == Before {
		w.enterRegion()
	}
	w.visitWithGuard(n)
	if w.trackRegions && n == w.opts.Last && w.place == Inside {
		w.leaveRegion()
	}
}

func (w *Walker[S]) VisitStatement(s bound.Statement) {
	if s == nil {
		return
	}
	w.Visit(s)
}

func (w *Walker[S]) VisitStatements(ss []bound.Statement) {
	for _, s := range ss {
		w.VisitStatement(s)
	}
}

// VisitRvalue visits an expression whose value is used, and joins a
// conditional result.
func (w *Walker[S]) VisitRvalue(e bound.Expression) {
	if e == nil {
		return
	}
	w.Visit(e)
	w.Unsplit()
}

// VisitCondition visits a boolean expression and leaves a conditional state.
func (w *Walker[S]) VisitCondition(e bound.Expression) {
	w.Visit(e)
	w.adjustConditionalState(e)
}

func (w *Walker[S]) adjustConditionalState(e bound.Expression) {
	switch {
	case bound.IsConstantTrue(e):
		w.Unsplit()
		w.SetConditionalState(w.State, w.a.Unreachable())
	case bound.IsConstantFalse(e):
		w.Unsplit()
		w.SetConditionalState(w.a.Unreachable(), w.State)
	default:
		w.Split()
	}
}

// VisitLvalue visits the target of a write. Variables are not visited, only
// the parts of the target evaluated before the write.
func (w *Walker[S]) VisitLvalue(e bound.Expression) {
	if e == nil {
		return
	}
	if w.trackRegions && e == w.opts.First && w.place == Before {
		w.enterRegion()
	}
	switch e := e.(type) {
	case *bound.LocalRef, *bound.ParameterRef, *bound.ThisRef:
	case *bound.FieldAccess:
		w.visitFieldReceiver(e)
	default:
		w.VisitRvalue(e)
	}
	if w.trackRegions && e == w.opts.Last && w.place == Inside {
		w.leaveRegion()
	}
}

// visitFieldReceiver visits the receiver of a struct field as a variable,
// since the field is part of the receiver's storage.
func (w *Walker[S]) visitFieldReceiver(e *bound.FieldAccess) {
	if IsStructField(e) {
		w.VisitLvalue(e.Receiver)
	} else {
		w.VisitRvalue(e.Receiver)
	}
}

// IsStructField reports whether e accesses an instance field of a struct
// through a receiver.
func IsStructField(e *bound.FieldAccess) bool {
	if e.Field.Static || e.Receiver == nil || !e.Field.Container.IsStruct() {
		return false
	}
	_, isType := e.Receiver.(*bound.TypeExpression)
	return !isType
}

// VisitArguments visits the arguments of a call, then writes the ref and out
// arguments.
func (w *Walker[S]) VisitArguments(args []bound.Expression, refKind func(int) symbols.RefKind, method *symbols.Method) {
	for i, arg := range args {
		if refKind(i) == symbols.RefOut {
			w.VisitLvalue(arg)
		} else {
			w.VisitRvalue(arg)
		}
	}
	for i, arg := range args {
		if rk := refKind(i); rk == symbols.RefRef || rk == symbols.RefOut {
			w.a.WriteArgument(arg, rk, method)
		}
	}
}

func (w *Walker[S]) VisitPattern(p bound.Pattern) {
	w.Visit(p)
}

// DefaultVisit is the transfer function of every node kind.
func (w *Walker[S]) DefaultVisit(n bound.Node) {
	switch n := n.(type) {
	// Statements
	case *bound.Block:
		w.visitBlock(n)
	case *bound.LocalDeclaration:
		w.VisitRvalue(n.Init)
	case *bound.ExpressionStatement:
		w.VisitRvalue(n.Expr)
	case *bound.If:
		w.visitIf(n)
	case *bound.While:
		w.visitWhile(n)
	case *bound.Do:
		w.visitDo(n)
	case *bound.For:
		w.visitFor(n)
	case *bound.ForEach:
		w.visitForEach(n)
	case *bound.Goto:
		w.AddPending(n, n.Label)
		w.SetUnreachable()
	case *bound.Break:
		w.AddPending(n, n.Label)
		w.SetUnreachable()
	case *bound.Continue:
		w.AddPending(n, n.Label)
		w.SetUnreachable()
	case *bound.Labeled:
		w.VisitLabel(n.Label, n)
		w.VisitStatement(n.Body)
	case *bound.Return:
		w.VisitRvalue(n.Expr)
		if n.RefKind != symbols.RefNone && n.Expr != nil {
			w.a.WriteArgument(n.Expr, n.RefKind, nil)
		}
		w.AddPending(n, nil)
		w.SetUnreachable()
	case *bound.Throw:
		w.VisitRvalue(n.Expr)
		w.SetUnreachable()
	case *bound.Try:
		w.visitTry(n)
	case *bound.Catch:
		w.a.VisitCatchBlock(n)
	case *bound.Switch:
		w.visitSwitch(n)
	case *bound.SwitchSection:
		w.a.VisitSwitchSection(n, false)
	case *bound.SwitchLabel:
		w.visitSwitchLabel(n)
	case *bound.YieldReturn:
		w.VisitRvalue(n.Expr)
		w.AddPending(n, nil)
	case *bound.YieldBreak:
		w.AddPending(n, nil)
		w.SetUnreachable()
	case *bound.LocalFunctionStatement:
		w.visitLocalFunction(n)
	case *bound.Using:
		for _, d := range n.Declarations {
			w.VisitStatement(d)
		}
		w.VisitRvalue(n.Expr)
		w.VisitStatement(n.Body)
		if n.Await && w.opts.AwaitBranches {
			w.AddPending(n, nil)
		}
	case *bound.Lock:
		w.VisitRvalue(n.Expr)
		w.VisitStatement(n.Body)
	case *bound.NoOp:

	// Expressions
	case *bound.Literal, *bound.LocalRef, *bound.ParameterRef, *bound.ThisRef, *bound.TypeExpression:
	case *bound.FieldAccess:
		w.visitFieldReceiver(n)
	case *bound.Assignment:
		w.VisitLvalue(n.Left)
		w.VisitRvalue(n.Right)
		if n.IsRef {
			w.a.WriteArgument(n.Right, symbols.RefRef, nil)
		}
	case *bound.CompoundAssignment:
		w.VisitRvalue(n.Left)
		w.VisitRvalue(n.Right)
	case *bound.Binary:
		if n.IsLogical() {
			w.visitLogical(n)
		} else {
			w.VisitRvalue(n.Left)
			w.VisitRvalue(n.Right)
		}
	case *bound.Unary:
		if n.Op == "!" {
			w.VisitCondition(n.Operand)
			w.SetConditionalState(w.WhenFalse, w.WhenTrue)
		} else {
			w.VisitRvalue(n.Operand)
		}
	case *bound.Conditional:
		w.visitConditional(n)
	case *bound.Call:
		w.visitCall(n)
	case *bound.ObjectCreation:
		w.VisitArguments(n.Args, n.RefKind, nil)
	case *bound.Lambda:
		w.visitLambda(n)
	case *bound.DelegateCreation:
		w.a.LocalFunctionUse(n.LocalFunction, w.LocalFunctionState(n.LocalFunction), n, false)
	case *bound.IsPattern:
		w.VisitRvalue(n.Expr)
		w.VisitPattern(n.Pattern)
		if alwaysMatches(n.Pattern) {
			w.SetConditionalState(w.WhenTrue, w.a.Unreachable())
		}
		if n.Negated {
			w.SetConditionalState(w.WhenFalse, w.WhenTrue)
		}
	case *bound.SwitchExpression:
		w.visitSwitchExpression(n)
	case *bound.SwitchArm:
		w.visitSwitchArm(n)
	case *bound.Await:
		w.VisitRvalue(n.Expr)
		w.AddPending(n, nil)
	case *bound.NullCoalescing:
		w.VisitRvalue(n.Left)
		if isConstantNull(n.Left) {
			w.VisitRvalue(n.Right)
			return
		}
		saved := w.State.Clone()
		if _, constant := n.Left.(*bound.Literal); constant {
			w.SetUnreachable()
		}
		w.VisitRvalue(n.Right)
		w.a.Join(w.State, saved)
	case *bound.ConditionalAccess:
		w.VisitRvalue(n.Receiver)
		if _, constant := n.Receiver.(*bound.Literal); constant && !isConstantNull(n.Receiver) {
			w.VisitRvalue(n.Access)
			return
		}
		saved := w.State.Clone()
		if isConstantNull(n.Receiver) {
			w.SetUnreachable()
		}
		w.VisitRvalue(n.Access)
		w.a.Join(w.State, saved)
	case *bound.ThrowExpression:
		w.VisitRvalue(n.Expr)
		w.SetUnreachable()

	// Patterns
	case *bound.ConstantPattern:
		w.VisitRvalue(n.Value)
		w.Split()
	case *bound.DeclarationPattern, *bound.DiscardPattern, *bound.TypePattern:
		w.Split()

	default:
		panic(errorf(errUnsupportedNode, "%T", n))
	}
}

// visitBlock visits local function statements first when not tracking a
// region, so that their summaries are known when the other statements use
// them.
func (w *Walker[S]) visitBlock(b *bound.Block) {
	hasLocalFunctions := false
	for _, s := range b.Statements {
		if _, ok := s.(*bound.LocalFunctionStatement); ok {
			hasLocalFunctions = true
			break
		}
	}
	if w.trackRegions || !hasLocalFunctions {
		w.VisitStatements(b.Statements)
		return
	}

	for _, s := range b.Statements {
		if _, ok := s.(*bound.LocalFunctionStatement); ok {
			w.VisitStatement(s)
		}
	}
	for _, s := range b.Statements {
		if _, ok := s.(*bound.LocalFunctionStatement); !ok {
			w.VisitStatement(s)
		}
	}
}

func (w *Walker[S]) visitIf(n *bound.If) {
	w.VisitCondition(n.Cond)
	whenTrue, whenFalse := w.WhenTrue, w.WhenFalse
	w.SetState(whenTrue)
	w.VisitStatement(n.Then)
	afterThen := w.State
	w.SetState(whenFalse)
	w.VisitStatement(n.Else)
	w.a.Join(w.State, afterThen)
}

// visitLogical visits a short-circuiting operator. The right operand only
// runs in the half of the left operand's state that does not decide the
// result.
func (w *Walker[S]) visitLogical(n *bound.Binary) {
	w.VisitCondition(n.Left)
	leftTrue, leftFalse := w.WhenTrue, w.WhenFalse
	if n.Op == "&&" {
		w.SetState(leftTrue)
		w.VisitCondition(n.Right)
		w.a.Join(w.WhenFalse, leftFalse)
	} else {
		w.SetState(leftFalse)
		w.VisitCondition(n.Right)
		w.a.Join(w.WhenTrue, leftTrue)
	}
}

func (w *Walker[S]) visitConditional(n *bound.Conditional) {
	w.VisitCondition(n.Cond)
	consequence, alternative := w.WhenTrue, w.WhenFalse

	switch {
	case bound.IsConstantTrue(n.Cond):
		w.SetState(alternative)
		w.Visit(n.Alternative)
		w.SetState(consequence)
		w.Visit(n.Consequence)
	case bound.IsConstantFalse(n.Cond):
		w.SetState(consequence)
		w.Visit(n.Consequence)
		w.SetState(alternative)
		w.Visit(n.Alternative)
	default:
		w.SetState(consequence)
		w.Visit(n.Consequence)
		w.Unsplit()
		consequence = w.State
		w.SetState(alternative)
		w.Visit(n.Alternative)
		w.Unsplit()
		w.a.Join(w.State, consequence)
	}
}

func (w *Walker[S]) visitCall(n *bound.Call) {
	if n.Method != nil && n.Method.Omitted {
		// Omitted calls are checked, but have no effect.
		saved := w.State.Clone()
		w.SetUnreachable()
		w.VisitRvalue(n.Receiver)
		w.VisitArguments(n.Args, n.RefKind, n.Method)
		w.SetState(saved)
		return
	}

	w.VisitRvalue(n.Receiver)
	w.VisitArguments(n.Args, n.RefKind, n.Method)
	if n.Receiver != nil && n.Method != nil && n.Method.This != nil && n.Method.This.RefKind == symbols.RefRef {
		w.a.WriteArgument(n.Receiver, symbols.RefRef, n.Method)
	}
	if n.LocalFunction != nil {
		w.a.LocalFunctionUse(n.LocalFunction, w.LocalFunctionState(n.LocalFunction), n, true)
	}
}

// alwaysMatches reports whether a pattern matches every input.
func alwaysMatches(p bound.Pattern) bool {
	switch p := p.(type) {
	case *bound.DiscardPattern:
		return true
	case *bound.DeclarationPattern:
		return p.Type == nil
	}
	return false
}

func isConstantNull(e bound.Expression) bool {
	l, ok := e.(*bound.Literal)
	return ok && l.Value == nil
}
