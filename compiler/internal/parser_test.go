package internal

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parseProgram(t *testing.T, content string) *StmtListAst {
	parser := &Parser{}
	program, err := parser.Parse(strings.NewReader(content))
	assert.Nil(t, err, content)
	return program
}

func parseTestExpression(t *testing.T, content string) Ast {
	tokenizer := &Tokenizer{}
	parser := &Parser{}
	tokens, err := tokenizer.Tokenize(bytes.NewReader([]byte(content)))
	assert.Nil(t, err, content)
	parser.currentTokens = tokens
	expr, err := parser.parseExpression()
	assert.Nil(t, err, content)
	assert.False(t, parser.hasRemainTokens(), content)
	return expr
}

// exprString prints an expression fully parenthesized.
func exprString(node Ast) string {
	switch n := node.(type) {
	case *LiteralAst:
		if s, ok := n.Value.(string); ok {
			return `"` + s + `"`
		}
		return toString(n.Value)
	case *IdentAst:
		return n.Name
	case *BinOpAst:
		return "(" + exprString(n.Left) + " " + n.Op.String() + " " + exprString(n.Right) + ")"
	case *UnaryOpAst:
		return "(" + n.Op.String() + exprString(n.Operand) + ")"
	case *FuncCallAst:
		var args []string
		for _, arg := range n.Args {
			args = append(args, exprString(arg))
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")"
	case *MemberAccessAst:
		return exprString(n.Object) + "." + n.Member
	case *ArrayIndexAst:
		return exprString(n.Array) + "[" + exprString(n.Index) + "]"
	case *ArrayLiteralAst:
		var elements []string
		for _, element := range n.Elements {
			elements = append(elements, exprString(element))
		}
		return "{" + strings.Join(elements, ", ") + "}"
	case *NewInstanceAst:
		return "new " + n.ClassName + "()"
	case *NewArrayAst:
		return "new " + n.ElemTypeName + "[" + exprString(n.Size) + "]"
	}
	return "?"
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatDouble(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	}
	return "?"
}

func TestParser_ParseExpression(t *testing.T) {
	testData := []struct {
		content  string
		expected string
	}{
		{"a + b", "(a + b)"},
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c * d", "((a * b) + (c * d))"},
		{"a - b - c", "((a - b) - c)"},
		{"a / b % c", "((a / b) % c)"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a || b && c", "(a || (b && c))"},
		{"a && b || c && d", "((a && b) || (c && d))"},
		{"a == 1 || b != 2 && c <= 3", "((a == 1) || ((b != 2) && (c <= 3)))"},
		{"a > 0 && b * 2 > c", "((a > 0) && ((b * 2) > c))"},
		{"b || x * 2 > 3", "(b || ((x * 2) > 3))"},
		{"a + b * c - d", "((a + (b * c)) - d)"},
		{"a || b == c + 1 * d && e", "(a || ((b == (c + (1 * d))) && e))"},
		{"(a + b) * c", "((a + b) * c)"},
		{"-a * b", "((-a) * b)"},
		{"!a && b", "((!a) && b)"},
		{"a - -1", "(a - -1)"},
		{"-2.5", "-2.5"},
		{"f(a, b + 1) * 2", "(f(a, (b + 1)) * 2)"},
		{"g()", "g()"},
		{"p.x + p.y", "(p.x + p.y)"},
		{"a[i + 1] * 2", "(a[(i + 1)] * 2)"},
		{"m[1][2]", "m[1][2]"},
		{"p.arr[0]", "p.arr[0]"},
		{"{1, 2, 3}", "{1, 2, 3}"},
		{"{}", "{}"},
		{"new Point()", "new Point()"},
		{"new int[n * 2]", "new int[(n * 2)]"},
		{`"a" + "b"`, `("a" + "b")`},
		{"true && false", "(true && false)"},
	}
	for _, data := range testData {
		expr := parseTestExpression(t, data.content)
		assert.Equal(t, data.expected, exprString(expr), data.content)
	}
}

func TestParser_ParseLiterals(t *testing.T) {
	testData := []struct {
		content  string
		expected interface{}
	}{
		{"42", int64(42)},
		{"-1", int64(-1)},
		{"2147483647", int64(2147483647)},
		{"-2147483648", int64(-2147483648)},
		{"0.5", 0.5},
		{"-3.25", -3.25},
		{"true", true},
		{"false", false},
		{`"hi\n"`, "hi\n"},
	}
	for _, data := range testData {
		expr := parseTestExpression(t, data.content)
		literal, ok := expr.(*LiteralAst)
		assert.True(t, ok, data.content)
		assert.Equal(t, data.expected, literal.Value, data.content)
	}
}

func TestParser_ParseExpressionErrors(t *testing.T) {
	testData := []string{
		"2147483648",
		"-2147483649",
		"a +",
		"(a + b",
		"p.move(1)",
		"{1, 2",
		"new 3",
	}
	for _, content := range testData {
		tokenizer := &Tokenizer{}
		parser := &Parser{}
		tokens, err := tokenizer.Tokenize(strings.NewReader(content))
		assert.Nil(t, err, content)
		parser.currentTokens = tokens
		_, err = parser.parseExpression()
		assert.NotNil(t, err, content)
	}
}

func TestParser_ParseStatements(t *testing.T) {
	program := parseProgram(t, `
		int x = 1, y, z = x + 2;
		float[] fs = {1.5, 2.5};
		Point p = new Point();
		x = 3;
		p.x = 4;
		fs[0] = 0.5;
		println(x);
		{ int inner; }
		;
	`)
	assert.Equal(t, 8, len(program.Statements))

	decl := program.Statements[0].(*VarsDeclAst)
	assert.Equal(t, "int", decl.TypeName)
	assert.Equal(t, 3, len(decl.Vars))
	assert.Equal(t, "y", decl.Vars[1].Name)
	assert.Nil(t, decl.Vars[1].Init)
	assert.Equal(t, "(x + 2)", exprString(decl.Vars[2].Init))

	assert.Equal(t, "float[]", program.Statements[1].(*VarsDeclAst).TypeName)
	assert.Equal(t, "Point", program.Statements[2].(*VarsDeclAst).TypeName)

	assign := program.Statements[3].(*AssignAst)
	assert.Equal(t, "x", assign.Target.(*IdentAst).Name)

	member := program.Statements[4].(*AssignAst)
	assert.Equal(t, "p.x", exprString(member.Target))

	arrayAssign := program.Statements[5].(*ArrayAssignAst)
	assert.Equal(t, "fs", arrayAssign.ArrayName)
	assert.Equal(t, "0", exprString(arrayAssign.Index))

	call := program.Statements[6].(*FuncCallAst)
	assert.Equal(t, "println", call.Name)

	assert.Equal(t, StmtListNodeTP, program.Statements[7].NodeTP())
}

func TestParser_ParseControlFlow(t *testing.T) {
	program := parseProgram(t, `
		if (a > 1) b = 1; else { b = 2; }
		if (a) { }
		while (i < 10) i = i + 1;
		for (int i = 0; i < 3; i = i + 1) { println(i); }
		for (;;) { }
	`)
	assert.Equal(t, 5, len(program.Statements))

	ifStm := program.Statements[0].(*IfAst)
	assert.Equal(t, "(a > 1)", exprString(ifStm.Condition))
	assert.Equal(t, AssignNodeTP, ifStm.Then.NodeTP())
	assert.Equal(t, StmtListNodeTP, ifStm.Else.NodeTP())
	assert.Nil(t, program.Statements[1].(*IfAst).Else)

	whileStm := program.Statements[2].(*WhileAst)
	assert.Equal(t, "(i < 10)", exprString(whileStm.Condition))

	forStm := program.Statements[3].(*ForAst)
	assert.Equal(t, VarsDeclNodeTP, forStm.Init.NodeTP())
	assert.Equal(t, "(i < 3)", exprString(forStm.Condition))
	assert.Equal(t, AssignNodeTP, forStm.Step.NodeTP())

	empty := program.Statements[4].(*ForAst)
	assert.Nil(t, empty.Init)
	assert.Nil(t, empty.Condition)
	assert.Nil(t, empty.Step)
}

func TestParser_ParseDeclarations(t *testing.T) {
	program := parseProgram(t, `
		int add(int a, int b) { return a + b; }
		void hello() { println("hi"); return; }
		int[] make(int n) { return new int[n]; }
		class Point {
			int x = 1;
			int y;
			int norm(Point p) { return p.x * p.x; }
		}
	`)
	assert.Equal(t, 4, len(program.Statements))

	add := program.Statements[0].(*FuncDeclAst)
	assert.Equal(t, "add", add.Name)
	assert.Equal(t, "int", add.ReturnTypeName)
	assert.Equal(t, 2, len(add.Params))
	assert.Equal(t, "b", add.Params[1].Name)
	ret := add.Body.Statements[0].(*ReturnAst)
	assert.Equal(t, "(a + b)", exprString(ret.Value))

	hello := program.Statements[1].(*FuncDeclAst)
	assert.Equal(t, "void", hello.ReturnTypeName)
	assert.Nil(t, hello.Body.Statements[1].(*ReturnAst).Value)

	assert.Equal(t, "int[]", program.Statements[2].(*FuncDeclAst).ReturnTypeName)

	class := program.Statements[3].(*ClassDeclAst)
	assert.Equal(t, "Point", class.Name)
	assert.Equal(t, 3, len(class.Body.Statements))
	assert.Equal(t, FuncDeclNodeTP, class.Body.Statements[2].NodeTP())
}

func TestParser_SyntaxErrors(t *testing.T) {
	testData := []string{
		"int x = 1",
		"x + 1;",
		"f(1) = 2;",
		"if a > 1 { }",
		"while (a { }",
		"int f(int a int b) { }",
		"class { }",
		"{ int x;",
		"for (int i = 0; i < 3) { }",
		"return",
	}
	for _, content := range testData {
		parser := &Parser{}
		_, err := parser.Parse(strings.NewReader(content))
		assert.NotNil(t, err, content)
	}
}

func TestParser_ErrorMentionsLine(t *testing.T) {
	parser := &Parser{}
	_, err := parser.Parse(strings.NewReader("int x = 1;\nint y = ;\n"))
	assert.NotNil(t, err)
	assert.Equal(t, "syntax error near ; at line 2", err.Error())
}
