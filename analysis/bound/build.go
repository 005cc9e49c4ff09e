package bound

import "github.com/cs-au-dk/flowpass/analysis/symbols"

// NewBlock creates a block and records the locals its statements declare.
func NewBlock(stmts ...Statement) *Block {
	return &Block{Statements: stmts, Locals: DeclaredLocals(stmts...)}
}

func NewSwitchSection(labels []*SwitchLabel, stmts ...Statement) *SwitchSection {
	sec := &SwitchSection{Labels: labels, Statements: stmts}
	for _, l := range labels {
		sec.Locals = append(sec.Locals, PatternLocals(l)...)
	}
	sec.Locals = append(sec.Locals, DeclaredLocals(stmts...)...)
	return sec
}

// DeclaredLocals collects the locals whose scope is a statement list: local
// declarations and pattern variables declared by the statements' own
// expressions. Nested statements introduce their own scopes.
func DeclaredLocals(stmts ...Statement) (locals []*symbols.Local) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *LocalDeclaration:
			locals = append(locals, s.Local)
			locals = append(locals, PatternLocals(s.Init)...)
		case *ExpressionStatement:
			locals = append(locals, PatternLocals(s.Expr)...)
		case *Return:
			locals = append(locals, PatternLocals(s.Expr)...)
		case *If:
			locals = append(locals, PatternLocals(s.Cond)...)
		case *Throw:
			locals = append(locals, PatternLocals(s.Expr)...)
		case *YieldReturn:
			locals = append(locals, PatternLocals(s.Expr)...)
		}
	}
	return
}

// PatternLocals returns the variables declared by patterns inside n, without
// entering nested statements, lambdas or switch expression arms.
func PatternLocals(n Node) (locals []*symbols.Local) {
	if isNil(n) {
		return nil
	}
	Inspect(n, func(m Node) bool {
		switch m := m.(type) {
		case *DeclarationPattern:
			if m.Local != nil {
				locals = append(locals, m.Local)
			}
		case *Lambda, *SwitchArm:
			return false
		case Statement:
			return m == n
		}
		return true
	})
	return
}

func IsConstantTrue(e Expression) bool {
	l, ok := e.(*Literal)
	return ok && l.Value == true
}

func IsConstantFalse(e Expression) bool {
	l, ok := e.(*Literal)
	return ok && l.Value == false
}

// Ref builds a reference expression to a variable symbol.
func Ref(s symbols.Symbol) Expression {
	switch s := s.(type) {
	case *symbols.Local:
		return &LocalRef{Local: s}
	case *symbols.Parameter:
		if s.This {
			return &ThisRef{Parameter: s}
		}
		return &ParameterRef{Parameter: s}
	}
	panic(errUnknownNode)
}

func Lit(v any) *Literal { return &Literal{Value: v} }

func Stmt(e Expression) *ExpressionStatement { return &ExpressionStatement{Expr: e} }

func Assign(left, right Expression) *ExpressionStatement {
	return Stmt(&Assignment{Left: left, Right: right})
}

func Declare(l *symbols.Local, init Expression) *LocalDeclaration {
	return &LocalDeclaration{Local: l, Init: init}
}
