package symbols

type TypeKind int

const (
	TypePrimitive TypeKind = iota
	TypeStruct
	TypeClass
	TypeInterface
	TypeDelegate
	TypeArray
	TypeParameter
	TypeEnum
	TypeVoid
)

type Type struct {
	name     string
	TypeKind TypeKind
	fields   []*Field
	// Element is the element type of arrays.
	Element *Type
	// External types are loaded from another assembly.
	External bool
	// CircularStruct marks structs with an illegal layout cycle; they are never tracked.
	CircularStruct bool
}

var (
	Void   = &Type{name: "void", TypeKind: TypeVoid}
	Int    = &Type{name: "int", TypeKind: TypePrimitive}
	Bool   = &Type{name: "bool", TypeKind: TypePrimitive}
	String = &Type{name: "string", TypeKind: TypeClass}
	Object = &Type{name: "object", TypeKind: TypeClass}
)

// Builtin resolves the name of a predefined type.
func Builtin(name string) (*Type, bool) {
	for _, t := range []*Type{Void, Int, Bool, String, Object} {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

func NewType(name string, kind TypeKind, fields ...*Field) *Type {
	t := &Type{name: name, TypeKind: kind}
	t.AddFields(fields...)
	return t
}

func NewStruct(name string, fields ...*Field) *Type {
	return NewType(name, TypeStruct, fields...)
}

func NewClass(name string, fields ...*Field) *Type {
	return NewType(name, TypeClass, fields...)
}

func NewArray(elem *Type) *Type {
	return &Type{name: elem.name + "[]", TypeKind: TypeArray, Element: elem}
}

// AddFields appends fields, taking ownership of them. Field types may be
// filled in later to build recursive types.
func (t *Type) AddFields(fields ...*Field) {
	for _, f := range fields {
		f.Container = t
	}
	t.fields = append(t.fields, fields...)
}

func (t *Type) Fields() []*Field { return t.fields }

func (t *Type) Field(name string) (*Field, bool) {
	for _, f := range t.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

func (t *Type) Name() string   { return t.name }
func (*Type) Kind() Kind       { return KindType }
func (t *Type) String() string { return t.name }

func (t *Type) IsStruct() bool { return t != nil && t.TypeKind == TypeStruct }

// IsReference reports whether values of the type are references, looking through arrays.
func (t *Type) IsReference() bool {
	switch t.TypeKind {
	case TypeClass, TypeInterface, TypeDelegate:
		return true
	case TypeArray:
		return true
	}
	return false
}
