// Package bound defines the resolved program tree visited by the flow walker.
// Nodes are a closed sum type: every concrete node embeds node and reports
// its Kind, so walkers can dispatch with a single type switch.
package bound

import (
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// Span is the half-open source range [Start, End) covered by a node.
type Span struct {
	Start, End int
}

func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether o lies within s. Empty spans are contained when
// their position is.
func (s Span) Contains(o Span) bool {
	if o.Len() == 0 {
		return s.Start <= o.Start && o.Start < s.End
	}
	return s.Start <= o.Start && o.End <= s.End
}

type Node interface {
	Kind() Kind
	Span() Span
	// ID is an optional name used to address nodes from the outside.
	ID() string

	base() *node
}

type Statement interface {
	Node
	statement()
}

type Expression interface {
	Node
	expression()
}

type Pattern interface {
	Node
	pattern()
}

type node struct {
	span Span
	id   string
	// Synthesized nodes are produced by lowering and never reported.
	synthesized bool
}

func (n *node) Span() Span  { return n.span }
func (n *node) ID() string  { return n.id }
func (n *node) base() *node { return n }

// SetSpan overrides the span of a node.
func SetSpan(n Node, s Span) { n.base().span = s }

// Name attaches an id to a node and returns it.
func Name[N Node](id string, n N) N {
	n.base().id = id
	return n
}

// Synthesize marks a node as compiler generated.
func Synthesize[N Node](n N) N {
	n.base().synthesized = true
	return n
}

func IsSynthesized(n Node) bool { return n.base().synthesized }

type (
	stmt struct{ node }
	expr struct{ node }
	pat  struct{ node }
)

func (stmt) statement()  {}
func (expr) expression() {}
func (pat) pattern()     {}

// Method is the unit of analysis: a function symbol with its body.
type Method struct {
	Symbol *symbols.Method
	Body   *Block
	// Types and Nodes are populated by the decoder for lookups by name.
	Types map[string]*symbols.Type
	Nodes map[string]Node
}

// Statements

type Block struct {
	stmt
	Statements []Statement
	// Locals declared directly in this block, including pattern variables.
	Locals []*symbols.Local
}

type LocalDeclaration struct {
	stmt
	Local *symbols.Local
	Init  Expression
}

type ExpressionStatement struct {
	stmt
	Expr Expression
}

type If struct {
	stmt
	Cond Expression
	Then Statement
	Else Statement
}

// Loop is implemented by all loop statements.
type Loop interface {
	Statement
	Labels() (brk, cont *symbols.Label)
}

type loopLabels struct {
	BreakLabel, ContinueLabel *symbols.Label
}

func (l *loopLabels) Labels() (*symbols.Label, *symbols.Label) {
	return l.BreakLabel, l.ContinueLabel
}

type While struct {
	stmt
	loopLabels
	Cond Expression
	Body Statement
}

type Do struct {
	stmt
	loopLabels
	Body Statement
	Cond Expression
}

type For struct {
	stmt
	loopLabels
	Locals    []*symbols.Local
	Init      []Statement
	Cond      Expression
	Increment []Statement
	Body      Statement
}

type ForEach struct {
	stmt
	loopLabels
	Iteration  *symbols.Local
	Collection Expression
	Body       Statement
	Await      bool
}

type Goto struct {
	stmt
	Label *symbols.Label
}

type Labeled struct {
	stmt
	Label *symbols.Label
	Body  Statement
}

type Break struct {
	stmt
	Label *symbols.Label
}

type Continue struct {
	stmt
	Label *symbols.Label
}

type Return struct {
	stmt
	Expr    Expression
	RefKind symbols.RefKind
}

type Throw struct {
	stmt
	// Expr is nil for a rethrow.
	Expr Expression
}

type Try struct {
	stmt
	Try     *Block
	Catches []*Catch
	Finally *Block
}

type Catch struct {
	node
	Local  *symbols.Local
	Filter Expression
	Body   *Block
}

// DecisionDag summarizes the pattern-matching automaton of a switch: which
// labels can be reached and whether every input is matched.
type DecisionDag struct {
	ReachableLabels []*symbols.Label
	Exhaustive      bool
}

type Switch struct {
	stmt
	Expr       Expression
	Sections   []*SwitchSection
	BreakLabel *symbols.Label
	Locals     []*symbols.Local
	// Dag is nil when every label is considered reachable.
	Dag *DecisionDag
}

type SwitchSection struct {
	stmt
	Labels     []*SwitchLabel
	Statements []Statement
	Locals     []*symbols.Local
}

type SwitchLabel struct {
	node
	Label *symbols.Label
	// Pattern is nil for the default label.
	Pattern Pattern
	When    Expression
}

func (l *SwitchLabel) IsDefault() bool { return l.Pattern == nil }

type YieldReturn struct {
	stmt
	Expr Expression
}

type YieldBreak struct {
	stmt
}

type LocalFunctionStatement struct {
	stmt
	Symbol *symbols.LocalFunction
	Body   *Block
}

type Using struct {
	stmt
	Declarations []*LocalDeclaration
	Expr         Expression
	Body         Statement
	Await        bool
}

type Lock struct {
	stmt
	Expr Expression
	Body Statement
}

type NoOp struct {
	stmt
}

// Expressions

type Literal struct {
	expr
	// Value is a bool, int, string or nil.
	Value any
}

type LocalRef struct {
	expr
	Local *symbols.Local
}

type ParameterRef struct {
	expr
	Parameter *symbols.Parameter
}

type ThisRef struct {
	expr
	Parameter *symbols.Parameter
}

type FieldAccess struct {
	expr
	// Receiver is nil for static fields.
	Receiver Expression
	Field    *symbols.Field
}

type Assignment struct {
	expr
	Left  Expression
	Right Expression
	IsRef bool
}

type CompoundAssignment struct {
	expr
	Op    string
	Left  Expression
	Right Expression
}

type Binary struct {
	expr
	Op    string
	Left  Expression
	Right Expression
}

// IsLogical reports whether the operator short-circuits.
func (b *Binary) IsLogical() bool { return b.Op == "&&" || b.Op == "||" }

type Unary struct {
	expr
	Op      string
	Operand Expression
}

type Conditional struct {
	expr
	Cond        Expression
	Consequence Expression
	Alternative Expression
}

type Call struct {
	expr
	Receiver Expression
	// Method is nil for local function calls.
	Method        *symbols.Method
	LocalFunction *symbols.LocalFunction
	Args          []Expression
	RefKinds      []symbols.RefKind
}

// RefKind returns the ref kind of the i'th argument.
func (c *Call) RefKind(i int) symbols.RefKind {
	if i < len(c.RefKinds) {
		return c.RefKinds[i]
	}
	return symbols.RefNone
}

type ObjectCreation struct {
	expr
	Type     *symbols.Type
	Args     []Expression
	RefKinds []symbols.RefKind
}

func (o *ObjectCreation) RefKind(i int) symbols.RefKind {
	if i < len(o.RefKinds) {
		return o.RefKinds[i]
	}
	return symbols.RefNone
}

type Lambda struct {
	expr
	Symbol *symbols.LocalFunction
	Body   *Block
}

// DelegateCreation converts a local function to a delegate without calling it.
type DelegateCreation struct {
	expr
	LocalFunction *symbols.LocalFunction
}

type IsPattern struct {
	expr
	Expr    Expression
	Pattern Pattern
	Negated bool
}

type SwitchExpression struct {
	expr
	Expr Expression
	Arms []*SwitchArm
	Dag  *DecisionDag
}

type SwitchArm struct {
	node
	Label   *symbols.Label
	Pattern Pattern
	When    Expression
	Value   Expression
}

type Await struct {
	expr
	Expr Expression
}

type NullCoalescing struct {
	expr
	Left  Expression
	Right Expression
}

type ConditionalAccess struct {
	expr
	Receiver Expression
	Access   Expression
}

type ThrowExpression struct {
	expr
	Expr Expression
}

type TypeExpression struct {
	expr
	Type *symbols.Type
}

// Patterns

type ConstantPattern struct {
	pat
	Value Expression
}

type DeclarationPattern struct {
	pat
	// Local is nil for `var _`.
	Local *symbols.Local
	Type  *symbols.Type
}

type DiscardPattern struct {
	pat
}

type TypePattern struct {
	pat
	Type *symbols.Type
}
