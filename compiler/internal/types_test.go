package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOfLiteral(t *testing.T) {
	testData := []struct {
		value    interface{}
		expected *Type
	}{
		{int64(1), IntType},
		{7, IntType},
		{2.5, FloatType},
		{true, BoolType},
		{"s", StringType},
		{nil, nil},
		{'c', nil},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, TypeOfLiteral(data.value), "%v", data.value)
	}
	for _, value := range []interface{}{int64(3), 1.0, false, ""} {
		assert.True(t, TypesEqual(TypeOfLiteral(value), TypeOfLiteral(value)), "%v", value)
	}
}

func TestTypeOfName(t *testing.T) {
	testData := []struct {
		name     string
		expected string
		tag      TypeTag
	}{
		{"int", "int", PrimitiveTypeTag},
		{"float", "float", PrimitiveTypeTag},
		{"void", "void", PrimitiveTypeTag},
		{"Point", "Point", ClassTypeTag},
		{"int[]", "int[]", ArrayTypeTag},
		{"string[][]", "string[][]", ArrayTypeTag},
		{"Point[]", "Point[]", ArrayTypeTag},
	}
	for _, data := range testData {
		typ := TypeOfName(data.name)
		assert.Equal(t, data.expected, typ.String())
		assert.Equal(t, data.tag, typ.Tag)
	}
	assert.Equal(t, ClassTypeTag, TypeOfName("Point[][]").BaseType().Tag)
}

func TestTypesEqual(t *testing.T) {
	testData := []struct {
		a, b     *Type
		expected bool
	}{
		{IntType, IntType, true},
		{IntType, FloatType, false},
		{IntType, TypeOfName("int"), true},
		{ClassOf("A"), ClassOf("A"), true},
		{ClassOf("A"), ClassOf("B"), false},
		{ArrayOf(IntType), ArrayOf(IntType), true},
		{ArrayOf(ArrayOf(FloatType)), TypeOfName("float[][]"), true},
		{ArrayOf(ArrayOf(FloatType)), ArrayOf(FloatType), false},
		{ArrayOf(IntType), IntType, false},
		{ClassOf("int"), IntType, false},
		{nil, nil, false},
		{nil, IntType, false},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, TypesEqual(data.a, data.b), "%s == %s", data.a, data.b)
		assert.Equal(t, data.expected, TypesEqual(data.b, data.a), "%s == %s", data.b, data.a)
	}
}

func TestAssignable(t *testing.T) {
	assert.True(t, Assignable(IntType, IntType, false))
	assert.False(t, Assignable(FloatType, IntType, false))
	assert.True(t, Assignable(FloatType, IntType, true))
	assert.False(t, Assignable(IntType, FloatType, true))
	assert.False(t, Assignable(ArrayOf(FloatType), ArrayOf(IntType), true))
	assert.False(t, Assignable(IntType, nil, true))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IntType.IsNumeric())
	assert.True(t, FloatType.IsNumeric())
	assert.False(t, BoolType.IsNumeric())
	assert.False(t, StringType.IsNumeric())

	assert.True(t, StringType.IsReference())
	assert.True(t, ClassOf("A").IsReference())
	assert.True(t, ArrayOf(IntType).IsReference())
	assert.False(t, IntType.IsReference())
	assert.False(t, BoolType.IsReference())

	var unknown *Type
	assert.Equal(t, "unknown", unknown.String())
	assert.False(t, unknown.IsReference())
}
