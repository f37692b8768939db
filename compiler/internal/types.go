package internal

import "strings"

type TypeTag int

const (
	PrimitiveTypeTag TypeTag = iota
	ArrayTypeTag
	ClassTypeTag
)

// Type is a mel value type. A nil *Type stands for a type that could not be determined;
// it is never equal to any type.
type Type struct {
	Tag  TypeTag
	Name string // primitive or class name, empty for arrays
	Elem *Type  // element type of arrays
}

var (
	IntType    = &Type{Tag: PrimitiveTypeTag, Name: "int"}
	FloatType  = &Type{Tag: PrimitiveTypeTag, Name: "float"}
	BoolType   = &Type{Tag: PrimitiveTypeTag, Name: "bool"}
	StringType = &Type{Tag: PrimitiveTypeTag, Name: "string"}
	VoidType   = &Type{Tag: PrimitiveTypeTag, Name: "void"}
)

var primitiveTypes = map[string]*Type{
	"int":    IntType,
	"float":  FloatType,
	"bool":   BoolType,
	"string": StringType,
	"void":   VoidType,
}

func ArrayOf(elem *Type) *Type {
	return &Type{Tag: ArrayTypeTag, Elem: elem}
}

func ClassOf(name string) *Type {
	return &Type{Tag: ClassTypeTag, Name: name}
}

func (t *Type) String() string {
	if t == nil {
		return "unknown"
	}
	if t.Tag == ArrayTypeTag {
		return t.Elem.String() + "[]"
	}
	return t.Name
}

func (t *Type) IsNumeric() bool {
	return TypesEqual(t, IntType) || TypesEqual(t, FloatType)
}

// IsReference reports whether values of t are object references on the stack machine.
func (t *Type) IsReference() bool {
	return t != nil && (t.Tag != PrimitiveTypeTag || t.Name == "string")
}

// BaseType strips every array level from t.
func (t *Type) BaseType() *Type {
	for t != nil && t.Tag == ArrayTypeTag {
		t = t.Elem
	}
	return t
}

// TypeOfLiteral returns the type of a literal value, or nil when the value has no mel type.
func TypeOfLiteral(value interface{}) *Type {
	switch value.(type) {
	case int, int64:
		return IntType
	case float64:
		return FloatType
	case bool:
		return BoolType
	case string:
		return StringType
	}
	return nil
}

// TypeOfName maps a type name to a type. Primitive keywords map to primitives, a trailing []
// makes an array and every other name is taken as a class reference.
func TypeOfName(name string) *Type {
	if strings.HasSuffix(name, "[]") {
		return ArrayOf(TypeOfName(strings.TrimSuffix(name, "[]")))
	}
	if t, ok := primitiveTypes[name]; ok {
		return t
	}
	return ClassOf(name)
}

// TypesEqual compares by tag, then by name for primitives and classes and by element type for arrays.
func TypesEqual(a, b *Type) bool {
	if a == nil || b == nil || a.Tag != b.Tag {
		return false
	}
	if a.Tag == ArrayTypeTag {
		return TypesEqual(a.Elem, b.Elem)
	}
	return a.Name == b.Name
}

// Assignable reports whether a value of type value may be stored where target is expected.
// Widening only ever turns an int into a float.
func Assignable(target, value *Type, allowWidening bool) bool {
	if TypesEqual(target, value) {
		return true
	}
	return allowWidening && TypesEqual(target, FloatType) && TypesEqual(value, IntType)
}
