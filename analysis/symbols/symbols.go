// Package symbols models the symbol table facts consumed by flow analysis:
// variable identity, declared types, declaring scopes and labels.
package symbols

import "fmt"

type Kind int

const (
	KindLocal Kind = iota
	KindParameter
	KindField
	KindMethod
	KindLocalFunction
	KindLabel
	KindType
)

var kindNames = [...]string{
	KindLocal:         "local",
	KindParameter:     "parameter",
	KindField:         "field",
	KindMethod:        "method",
	KindLocalFunction: "local function",
	KindLabel:         "label",
	KindType:          "type",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Symbol is implemented by every named entity of a bound tree.
type Symbol interface {
	Name() string
	Kind() Kind
	String() string
}

// Function is implemented by symbols owning a body: methods, local functions and lambdas.
type Function interface {
	Symbol
	Parameters() []*Parameter
	// Container is the function lexically enclosing this one, or nil for methods.
	Container() Function
	ReturnsValue() bool
	IsAsync() bool
	IsIterator() bool
}

type RefKind int

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

func (r RefKind) String() string {
	switch r {
	case RefRef:
		return "ref"
	case RefOut:
		return "out"
	case RefIn:
		return "in"
	}
	return ""
}

// Accessibility of fields, only relevant for types defined in other assemblies.
type Accessibility int

const (
	Public Accessibility = iota
	Internal
	Private
)

type Local struct {
	name string
	Type *Type
	// Scope is the function declaring the local.
	Scope Function
	Const bool
	// Using locals are implicitly read when disposed.
	Using bool
}

func NewLocal(name string, typ *Type, scope Function) *Local {
	return &Local{name: name, Type: typ, Scope: scope}
}

func (l *Local) Name() string   { return l.name }
func (*Local) Kind() Kind       { return KindLocal }
func (l *Local) String() string { return l.name }

type Parameter struct {
	name    string
	Type    *Type
	RefKind RefKind
	Owner   Function
	Ordinal int
	// This marks the implicit receiver parameter of struct constructors.
	This bool
}

func NewParameter(name string, typ *Type, ref RefKind) *Parameter {
	return &Parameter{name: name, Type: typ, RefKind: ref}
}

func (p *Parameter) Name() string { return p.name }
func (*Parameter) Kind() Kind     { return KindParameter }
func (p *Parameter) String() string {
	if p.RefKind != RefNone {
		return p.RefKind.String() + " " + p.name
	}
	return p.name
}

type Field struct {
	name          string
	Type          *Type
	Container     *Type
	Static        bool
	Accessibility Accessibility
}

func NewField(name string, typ *Type) *Field {
	return &Field{name: name, Type: typ}
}

func (f *Field) Name() string { return f.name }
func (*Field) Kind() Kind     { return KindField }
func (f *Field) String() string {
	if f.Container != nil {
		return f.Container.Name() + "." + f.name
	}
	return f.name
}

type Label struct {
	name string
}

func NewLabel(name string) *Label { return &Label{name: name} }
func (l *Label) Name() string     { return l.name }
func (*Label) Kind() Kind         { return KindLabel }
func (l *Label) String() string   { return l.name + ":" }

type Method struct {
	name    string
	params  []*Parameter
	This    *Parameter
	Returns *Type
	Async   bool
	// Iterator methods have an implicit branch to the caller before the first statement.
	Iterator bool
	// Omitted calls (e.g. conditional methods) have no effect on flow state.
	Omitted bool
}

func NewMethod(name string, returns *Type, params ...*Parameter) *Method {
	m := &Method{name: name, Returns: returns}
	m.SetParameters(params...)
	return m
}

func (m *Method) SetParameters(params ...*Parameter) {
	m.params = params
	for i, p := range params {
		p.Owner, p.Ordinal = m, i
	}
}

// WithThis attaches a receiver parameter. Struct constructors use an out
// receiver which must be fully assigned before returning.
func (m *Method) WithThis(typ *Type, ref RefKind) *Method {
	m.This = &Parameter{name: "this", Type: typ, RefKind: ref, Owner: m, Ordinal: -1, This: true}
	return m
}

func (m *Method) Name() string             { return m.name }
func (*Method) Kind() Kind                 { return KindMethod }
func (m *Method) String() string           { return m.name + "()" }
func (m *Method) Parameters() []*Parameter { return m.params }
func (*Method) Container() Function        { return nil }
func (m *Method) ReturnsValue() bool       { return m.Returns != nil && m.Returns != Void }
func (m *Method) IsAsync() bool            { return m.Async }
func (m *Method) IsIterator() bool         { return m.Iterator }

// LocalFunction is a function declared inside another function body. Lambdas
// are anonymous local functions.
type LocalFunction struct {
	name      string
	params    []*Parameter
	container Function
	Returns   *Type
	Async     bool
	Iterator  bool
	Lambda    bool
	Static    bool
}

func NewLocalFunction(name string, container Function, returns *Type, params ...*Parameter) *LocalFunction {
	f := &LocalFunction{name: name, container: container, Returns: returns}
	f.SetParameters(params...)
	return f
}

func NewLambda(container Function, params ...*Parameter) *LocalFunction {
	f := NewLocalFunction("<lambda>", container, nil, params...)
	f.Lambda = true
	return f
}

func (f *LocalFunction) SetParameters(params ...*Parameter) {
	f.params = params
	for i, p := range params {
		p.Owner, p.Ordinal = f, i
	}
}

func (f *LocalFunction) Name() string             { return f.name }
func (*LocalFunction) Kind() Kind                 { return KindLocalFunction }
func (f *LocalFunction) String() string           { return f.name + "()" }
func (f *LocalFunction) Parameters() []*Parameter { return f.params }
func (f *LocalFunction) Container() Function      { return f.container }
func (f *LocalFunction) ReturnsValue() bool       { return f.Returns != nil && f.Returns != Void }
func (f *LocalFunction) IsAsync() bool            { return f.Async }
func (f *LocalFunction) IsIterator() bool         { return f.Iterator }
