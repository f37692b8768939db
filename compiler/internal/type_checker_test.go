package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func analyzeProgram(t *testing.T, content string, options Options) *Analysis {
	analysis, err := Analyze(parseProgram(t, content), options)
	assert.Nil(t, err, content)
	return analysis
}

func TestAnalyze_ValidPrograms(t *testing.T) {
	testData := []string{
		`int x = 1; float y = 2.5; bool b = x < 3 && !false; string s = "a" + "b";`,
		`bool c = "a" < "b"; float f = 1.5 * 2.0; int m = -7 % 3;`,
		`int fact(int n) { if (n < 2) { return 1; } else { return n * fact(n - 1); } }`,
		`int g = 1; int f() { return g; } println(f());`,
		`int[] a = {1, 2, 3}; a[0] = a[1] + a[2]; int[] e = {}; float[] m = new float[2];`,
		`class P { int x = 1; int get(P p) { return p.x; } } P p = new P(); p.x = get(p);`,
		`for (int i = 0; i < 3; i = i + 1) { int j = i; } for (int i = 0; i < 3; i = i + 1) { }`,
		`int x = 5; { int x = 6; } while (x > 0) x = x - 1;`,
		`void hello() { println("hi"); return; } hello();`,
	}
	for _, content := range testData {
		analysis := analyzeProgram(t, content, Options{})
		assert.Empty(t, analysis.Diagnostics, content)
	}
}

func TestAnalyze_Diagnostics(t *testing.T) {
	testData := []struct {
		content  string
		expected []string
	}{
		{`int x = 5; { int x = "hi"; }`, []string{"cannot assign `string` to `int`"}},
		{`int sum(int a, int b) { return a + b; } int r = sum(3, "4");`,
			[]string{"argument 2 of `sum`: cannot pass `string` as `int`"}},
		{`int x; int x;`, []string{"variable `x` is already declared in this scope"}},
		{`y = 1;`, []string{"variable `y` is not declared"}},
		{`if (1) { }`, []string{"condition must be boolean, got `int`"}},
		{`Foo f;`, []string{"unknown type `Foo`"}},
		{`void v;`, []string{"cannot declare variables of type `void`"}},
		{`class P { int x; } P p = new P(); p.y = 1;`, []string{"class `P` has no field `y`"}},
		{`int x; x[0] = 1;`, []string{"`x` is not an array"}},
		{`int[] a = new int[2]; a[true] = 1;`, []string{"array index must be `int`, got `bool`"}},
		{`if (true) { int f() { return 1; } }`,
			[]string{"function `f` must be declared at top level or inside a class"}},
		{`void main() { }`, []string{"function `main` is reserved"}},
		{`int f() { return 1; } int f() { return 2; }`, []string{"function `f` is already declared"}},
		{`int f(bool b) { if (b) { return 1; } }`, []string{"function `f` may finish without returning `int`"}},
		{`return;`, []string{"return outside of function"}},
		{`int f() { return; }`, []string{"missing return value in function `f`"}},
		{`void f() { return 1; }`, []string{"cannot return a value from void function `f`"}},
		{`int f() { return "s"; }`, []string{"cannot return `string` from function `f` returning `int`"}},
		{`class Program { }`, []string{"class `Program` clashes with the main class name"}},
		{`class A { } class A { }`, []string{"class `A` is already declared"}},
		{`{ class B { } }`, []string{"class `B` must be declared at top level"}},
		{`class A { println(1); }`, []string{"only fields and functions may appear in class `A`"}},
		{`A a = new A();`, []string{"unknown type `A`", "class `A` is not declared"}},
		{`int[] a = new int[true];`, []string{"array size must be `int`, got `bool`"}},
		{`int x = 1 + "a";`, []string{"operator `+` cannot be applied to `int` and `string`"}},
		{`bool b = 1 < true;`, []string{"operator `<` cannot be applied to `int` and `bool`"}},
		{`bool b = 1 && true;`, []string{"operator `&&` cannot be applied to `int` and `bool`"}},
		{`bool b = !1;`, []string{"operator `!` cannot be applied to `int`"}},
		{`println(1, 2);`, []string{"function `println` expects 1 argument(s), got 2"}},
		{`void f() { } println(f());`, []string{"argument 1 of `println`: cannot pass `void`"}},
		{`g();`, []string{"function `g` is not declared"}},
		{`int f(int a) { return a; } int y = f();`, []string{"function `f` expects 1 argument(s), got 0"}},
		{`int[] a = {1, 2.5};`, []string{"array elements must share one type, got `int` and `float`"}},
		{`int x = 1; int y = x[0];`, []string{"`x` is not an array"}},
		{`void f() { } bool b = f() == f();`, []string{"operator `==` cannot be applied to `void` and `void`"}},
		{`void f() { } int[] a = {f()};`, []string{"array elements cannot be `void`"}},
		{`class P { int x; int get() { return x; } }`, []string{"variable `x` is not declared"}},
		{`float f = 1;`, []string{"cannot assign `int` to `float`"}},
		{`int x = "a"; int y = "b";`, []string{"cannot assign `string` to `int`"}},
	}
	for _, data := range testData {
		analysis := analyzeProgram(t, data.content, Options{})
		assert.Equal(t, data.expected, analysis.Diagnostics, data.content)
	}
}

func TestAnalyze_ReportsEverything(t *testing.T) {
	analysis := analyzeProgram(t, `
		int x = "a";
		y = 2;
		if (x) { }
		bool b = !3;
	`, Options{})
	assert.Equal(t, []string{
		"cannot assign `string` to `int`",
		"variable `y` is not declared",
		"condition must be boolean, got `int`",
		"operator `!` cannot be applied to `int`",
	}, analysis.Diagnostics)
}

func TestAnalyze_Widening(t *testing.T) {
	content := `float f = 1; float g(float a) { return a; } float h = g(2); float[] fs = new float[2]; fs[0] = 3;`
	assert.Equal(t, []string{
		"cannot assign `int` to `float`",
		"argument 1 of `g`: cannot pass `int` as `float`",
	}, analyzeProgram(t, content, Options{}).Diagnostics)
	assert.Empty(t, analyzeProgram(t, content, Options{AllowWidening: true}).Diagnostics)

	analysis := analyzeProgram(t, `int i = 1.5;`, Options{AllowWidening: true})
	assert.Equal(t, []string{"cannot assign `float` to `int`"}, analysis.Diagnostics)
}

func TestAnalyze_MainClassOption(t *testing.T) {
	analysis := analyzeProgram(t, `class Program { }`, Options{MainClass: "Main"})
	assert.Empty(t, analysis.Diagnostics)
	analysis = analyzeProgram(t, `class Main { }`, Options{MainClass: "Main"})
	assert.Equal(t, []string{"class `Main` clashes with the main class name"}, analysis.Diagnostics)
}

func TestAnalyze_Tables(t *testing.T) {
	analysis := analyzeProgram(t, `
		int sum(int a, int b) { return a + b; }
		class Point {
			int x = 1;
			float y;
			int norm(Point p) { return p.x * p.x; }
		}
		class Empty { }
	`, Options{})
	assert.Empty(t, analysis.Diagnostics)

	sum := analysis.Tables.Functions["sum"]
	assert.NotNil(t, sum)
	assert.Equal(t, []*Type{IntType, IntType}, sum.ParamTypes)
	assert.Equal(t, []string{"a", "b"}, sum.ParamNames)
	assert.Equal(t, IntType, sum.ReturnType)
	assert.Equal(t, "", sum.Owner)

	norm := analysis.Tables.Functions["norm"]
	assert.Equal(t, "Point", norm.Owner)
	assert.True(t, TypesEqual(ClassOf("Point"), norm.ParamTypes[0]))

	classes := analysis.Tables.Classes.Classes()
	assert.Equal(t, 2, len(classes))
	assert.Equal(t, "Point", classes[0].Name)
	assert.Equal(t, "Empty", classes[1].Name)
	assert.Equal(t, 2, len(classes[0].Fields))
	assert.Equal(t, "y", classes[0].Fields[1].Name)
	assert.Equal(t, 1, classes[0].Fields[1].Index)
	assert.Equal(t, FloatType, classes[0].Field("y").Type)
	assert.Empty(t, classes[1].Fields)
}

func TestAnalyze_Idempotent(t *testing.T) {
	program := parseProgram(t, `int x = "a"; g(); int f() { return 1; } int f() { return 2; }`)
	first, err := Analyze(program, Options{})
	assert.Nil(t, err)
	second, err := Analyze(program, Options{})
	assert.Nil(t, err)
	assert.Equal(t, 3, len(first.Diagnostics))
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

type bogusAst struct{}

func (bogusAst) NodeTP() NodeType {
	return NodeType(-1)
}

func TestAnalyze_FatalOnUnknownNode(t *testing.T) {
	testData := []*StmtListAst{
		{Statements: []Ast{bogusAst{}}},
		{Statements: []Ast{&VarsDeclAst{TypeName: "int", Vars: []*VarBindingAst{{Name: "x", Init: bogusAst{}}}}}},
		{Statements: []Ast{&LiteralAst{Value: 'c'}}},
	}
	for _, program := range testData {
		analysis, err := Analyze(program, Options{})
		assert.Nil(t, analysis)
		var fatal *FatalError
		assert.True(t, errors.As(err, &fatal))
	}
}
