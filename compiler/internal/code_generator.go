package internal

import (
	"math"
	"strconv"
	"strings"

	"github.com/idashbox/Compiler-Task-1/util"
)

// Unit is one generated class: its name and the lines of its Jasmin source.
type Unit struct {
	Name  string
	Lines []string
}

type CodeGenerator struct {
	mainClass     string
	allowWidening bool
	tables        *SymbolTables
	globals       map[string]*Type
	globalOrder   []string
	stream        *InstructionStream
}

// NewCodeGenerator returns a generator using the functions and classes collected by the semantic
// pass. With nil tables the generator collects them from the program itself.
func NewCodeGenerator(tables *SymbolTables, options Options) *CodeGenerator {
	return &CodeGenerator{
		mainClass:     options.mainClassName(),
		allowWidening: options.AllowWidening,
		tables:        tables,
		globals:       map[string]*Type{},
	}
}

type localVar struct {
	slot int
	t    *Type
}

// frame is the local-variable environment of the method being generated. Every block gets a child
// frame; all frames of one method share the slot counter, so slots are never reused.
type frame struct {
	vars     map[string]*localVar
	parent   *frame
	nextSlot *int
	global   bool           // program body: declarations are static fields
	class    *ClassLayout   // constructors: fields reachable through this
	function *FuncSignature // enclosing function
}

func newFrame(firstSlot int) *frame {
	next := firstSlot
	return &frame{vars: map[string]*localVar{}, nextSlot: &next}
}

func (fr *frame) child() *frame {
	return &frame{vars: map[string]*localVar{}, parent: fr, nextSlot: fr.nextSlot, class: fr.class,
		function: fr.function}
}

func (fr *frame) allocate(name string, t *Type) *localVar {
	v := &localVar{slot: *fr.nextSlot, t: t}
	*fr.nextSlot += slotSize(t)
	fr.vars[name] = v
	return v
}

type varKind int

const (
	localVarKind varKind = iota
	fieldVarKind
	globalVarKind
)

type varRef struct {
	kind  varKind
	name  string
	t     *Type
	slot  int
	owner string
}

// Generate emits the main unit followed by one unit per class in declaration order. A name or type
// that cannot be resolved aborts generation with a *FatalError.
func (generator *CodeGenerator) Generate(program *StmtListAst) (units []Unit, err error) {
	defer recoverFatal(&err)
	if generator.tables == nil {
		generator.tables = buildSymbolTables(program)
	}
	generator.collectGlobals(program)
	units = append(units, generator.generateMainUnit(program))
	seen := map[string]bool{}
	for _, stm := range program.Statements {
		decl, ok := stm.(*ClassDeclAst)
		if !ok || seen[decl.Name] {
			continue
		}
		seen[decl.Name] = true
		units = append(units, generator.generateClassUnit(decl))
	}
	return units, nil
}

func (generator *CodeGenerator) collectGlobals(program *StmtListAst) {
	for _, stm := range program.Statements {
		decl, ok := stm.(*VarsDeclAst)
		if !ok {
			continue
		}
		for _, v := range decl.Vars {
			if _, exist := generator.globals[v.Name]; !exist {
				generator.globalOrder = append(generator.globalOrder, v.Name)
			}
			generator.globals[v.Name] = TypeOfName(decl.TypeName)
		}
	}
}

func (generator *CodeGenerator) finishUnit() Unit {
	lines, err := generator.stream.Finalize()
	if err != nil {
		fatalf("%s", err.Error())
	}
	return Unit{Name: generator.stream.Name(), Lines: lines}
}

func (generator *CodeGenerator) writeOutput(format string, args ...interface{}) {
	generator.stream.Emit(format, args...)
}

func (generator *CodeGenerator) generateMainUnit(program *StmtListAst) Unit {
	generator.stream = NewInstructionStream(generator.mainClass)
	generator.writeOutput(".class public %s", generator.mainClass)
	generator.writeOutput(".super java/lang/Object")
	for _, name := range generator.globalOrder {
		generator.writeOutput(".field public static %s %s", name, generator.descriptor(generator.globals[name]))
	}
	generator.generateConstructor(nil, nil)

	generator.beginMethod("public static main([Ljava/lang/String;)V")
	fr := newFrame(1)
	fr.global = true
	for _, stm := range program.Statements {
		switch stm.NodeTP() {
		case FuncDeclNodeTP, ClassDeclNodeTP:
			continue
		}
		generator.generateStatementCode(stm, fr)
	}
	generator.writeOutput("return")
	generator.endMethod()

	for _, stm := range program.Statements {
		if decl, ok := stm.(*FuncDeclAst); ok {
			generator.generateFunctionCode(decl)
		}
	}
	return generator.finishUnit()
}

func (generator *CodeGenerator) generateClassUnit(decl *ClassDeclAst) Unit {
	layout := generator.tables.Classes.lookUpClass(decl.Name)
	if layout == nil {
		fatalf("class `%s` is not registered", decl.Name)
	}
	generator.stream = NewInstructionStream(decl.Name)
	generator.writeOutput(".class public %s", decl.Name)
	generator.writeOutput(".super java/lang/Object")
	for _, field := range layout.Fields {
		generator.writeOutput(".field public %s %s", field.Name, generator.descriptor(field.Type))
	}
	generator.generateConstructor(layout, decl)
	for _, member := range decl.Body.Statements {
		if fn, ok := member.(*FuncDeclAst); ok {
			generator.generateFunctionCode(fn)
		}
	}
	return generator.finishUnit()
}

func (generator *CodeGenerator) beginMethod(header string) {
	generator.stream.Blank()
	generator.writeOutput(".method %s", header)
	generator.stream.Indent()
}

func (generator *CodeGenerator) endMethod() {
	generator.stream.Dedent()
	generator.writeOutput(".end method")
}

// generateConstructor emits <init>: the call to the base initializer, then every field set to its
// initializer or to the default of its type, in declaration order.
func (generator *CodeGenerator) generateConstructor(layout *ClassLayout, decl *ClassDeclAst) {
	generator.beginMethod("public <init>()V")
	generator.writeOutput("aload_0")
	generator.writeOutput("invokespecial java/lang/Object/<init>()V")
	if decl != nil {
		fr := newFrame(1)
		fr.class = layout
		for _, member := range decl.Body.Statements {
			vars, ok := member.(*VarsDeclAst)
			if !ok {
				continue
			}
			for _, v := range vars.Vars {
				field := layout.Field(v.Name)
				if field == nil {
					fatalf("class `%s` has no field `%s`", layout.Name, v.Name)
				}
				generator.writeOutput("aload_0")
				if v.Init != nil {
					generator.generateValueCode(v.Init, field.Type, fr)
				} else {
					generator.generateDefaultValueCode(field.Type)
				}
				generator.writeOutput("putfield %s/%s %s", layout.Name, field.Name, generator.descriptor(field.Type))
			}
		}
	}
	generator.writeOutput("return")
	generator.endMethod()
}

func (generator *CodeGenerator) generateFunctionCode(decl *FuncDeclAst) {
	signature := generator.tables.Functions.lookUpFunc(decl.Name)
	if signature == nil {
		fatalf("function `%s` is not registered", decl.Name)
	}
	generator.beginMethod("public static " + decl.Name + generator.methodDescriptor(signature))
	fr := newFrame(0)
	fr.function = signature
	for i, name := range signature.ParamNames {
		fr.allocate(name, signature.ParamTypes[i])
	}
	generator.generateStatementCode(decl.Body, fr)
	if !isReturnInstruction(generator.stream.LastText()) {
		if !TypesEqual(signature.ReturnType, VoidType) {
			generator.generateDefaultValueCode(signature.ReturnType)
		}
		generator.writeOutput(generator.returnInstruction(signature.ReturnType))
	}
	generator.endMethod()
}

func isReturnInstruction(text string) bool {
	switch text {
	case "return", "ireturn", "dreturn", "areturn":
		return true
	}
	return false
}

func (generator *CodeGenerator) generateStatementCode(node Ast, fr *frame) {
	switch node.NodeTP() {
	case VarsDeclNodeTP:
		generator.generateVarsDeclCode(node.(*VarsDeclAst), fr)
	case AssignNodeTP:
		generator.generateAssignCode(node.(*AssignAst), fr)
	case ArrayAssignNodeTP:
		stm := node.(*ArrayAssignAst)
		arrayType := generator.generateLoadCode(generator.resolveVariable(stm.ArrayName, fr))
		if arrayType.Tag != ArrayTypeTag {
			fatalf("`%s` is not an array", stm.ArrayName)
		}
		generator.generateValueCode(stm.Index, IntType, fr)
		generator.generateValueCode(stm.Value, arrayType.Elem, fr)
		generator.writeOutput(arrayInstruction(arrayType.Elem, "astore"))
	case IfNodeTP:
		generator.generateIfStatementCode(node.(*IfAst), fr)
	case WhileNodeTP:
		generator.generateWhileStatementCode(node.(*WhileAst), fr)
	case ForNodeTP:
		generator.generateForStatementCode(node.(*ForAst), fr)
	case StmtListNodeTP:
		block := fr.child()
		for _, stm := range node.(*StmtListAst).Statements {
			generator.generateStatementCode(stm, block)
		}
	case ReturnNodeTP:
		generator.generateReturnStatementCode(node.(*ReturnAst), fr)
	case FuncCallNodeTP, LiteralNodeTP, IdentNodeTP, BinOpNodeTP, UnaryOpNodeTP, MemberAccessNodeTP,
		NewInstanceNodeTP, ArrayLiteralNodeTP, ArrayIndexNodeTP, NewArrayNodeTP:
		t := generator.generateExpressionCode(node, nil, fr)
		switch {
		case TypesEqual(t, VoidType):
		case slotSize(t) == 2:
			generator.writeOutput("pop2")
		default:
			generator.writeOutput("pop")
		}
	case FuncDeclNodeTP, ClassDeclNodeTP:
		fatalf("%s is only allowed at top level", node.NodeTP())
	default:
		fatalf("code generation has no rule for node kind %s", node.NodeTP())
	}
}

func (generator *CodeGenerator) generateVarsDeclCode(decl *VarsDeclAst, fr *frame) {
	t := TypeOfName(decl.TypeName)
	for _, v := range decl.Vars {
		if fr.global {
			if v.Init != nil {
				generator.generateValueCode(v.Init, t, fr)
			} else {
				generator.generateDefaultValueCode(t)
			}
			generator.generateStoreCode(generator.resolveVariable(v.Name, fr))
			continue
		}
		// The initializer is evaluated before the name is bound, so it still sees an outer variable
		// of the same name.
		if v.Init != nil {
			generator.generateValueCode(v.Init, t, fr)
		} else {
			generator.generateDefaultValueCode(t)
		}
		local := fr.allocate(v.Name, t)
		generator.generateStoreCode(varRef{kind: localVarKind, name: v.Name, t: t, slot: local.slot})
	}
}

func (generator *CodeGenerator) generateAssignCode(stm *AssignAst, fr *frame) {
	switch target := stm.Target.(type) {
	case *IdentAst:
		ref := generator.resolveVariable(target.Name, fr)
		if ref.kind == fieldVarKind {
			generator.writeOutput("aload_0")
		}
		generator.generateValueCode(stm.Value, ref.t, fr)
		generator.generateStoreCode(ref)
	case *MemberAccessAst:
		objectType := generator.generateExpressionCode(target.Object, nil, fr)
		layout, field := generator.resolveField(objectType, target.Member)
		generator.generateValueCode(stm.Value, field.Type, fr)
		generator.writeOutput("putfield %s/%s %s", layout.Name, field.Name, generator.descriptor(field.Type))
	default:
		fatalf("cannot assign to node kind %s", stm.Target.NodeTP())
	}
}

// if (cond) then else:
//   cond; ifeq else; then; goto end; else: ...; end:
func (generator *CodeGenerator) generateIfStatementCode(stm *IfAst, fr *frame) {
	elseLabel := generator.stream.NewLabel()
	endLabel := generator.stream.NewLabel()
	generator.generateValueCode(stm.Condition, BoolType, fr)
	generator.stream.EmitJump("ifeq", elseLabel)
	generator.generateStatementCode(stm.Then, fr.child())
	generator.stream.EmitJump("goto", endLabel)
	generator.stream.Define(elseLabel)
	if stm.Else != nil {
		generator.generateStatementCode(stm.Else, fr.child())
	}
	generator.stream.Define(endLabel)
}

// while (cond) body:
//   start: cond; ifeq end; body; goto start; end:
func (generator *CodeGenerator) generateWhileStatementCode(stm *WhileAst, fr *frame) {
	startLabel := generator.stream.NewLabel()
	endLabel := generator.stream.NewLabel()
	generator.stream.Define(startLabel)
	generator.generateValueCode(stm.Condition, BoolType, fr)
	generator.stream.EmitJump("ifeq", endLabel)
	generator.generateStatementCode(stm.Body, fr.child())
	generator.stream.EmitJump("goto", startLabel)
	generator.stream.Define(endLabel)
}

// for (init; cond; step) body:
//   init; start: cond; ifeq end; body; step; goto start; end:
func (generator *CodeGenerator) generateForStatementCode(stm *ForAst, fr *frame) {
	loop := fr.child()
	if stm.Init != nil {
		generator.generateStatementCode(stm.Init, loop)
	}
	startLabel := generator.stream.NewLabel()
	endLabel := generator.stream.NewLabel()
	generator.stream.Define(startLabel)
	if stm.Condition != nil {
		generator.generateValueCode(stm.Condition, BoolType, loop)
		generator.stream.EmitJump("ifeq", endLabel)
	}
	generator.generateStatementCode(stm.Body, loop.child())
	if stm.Step != nil {
		generator.generateStatementCode(stm.Step, loop)
	}
	generator.stream.EmitJump("goto", startLabel)
	generator.stream.Define(endLabel)
}

func (generator *CodeGenerator) generateReturnStatementCode(stm *ReturnAst, fr *frame) {
	if fr.function == nil {
		fatalf("return outside of function")
	}
	if stm.Value != nil {
		generator.generateValueCode(stm.Value, fr.function.ReturnType, fr)
	}
	generator.writeOutput(generator.returnInstruction(fr.function.ReturnType))
}

func (generator *CodeGenerator) returnInstruction(t *Type) string {
	if TypesEqual(t, VoidType) {
		return "return"
	}
	return typePrefix(t) + "return"
}

// generateValueCode pushes node converted for a destination of type target.
func (generator *CodeGenerator) generateValueCode(node Ast, target *Type, fr *frame) {
	t := generator.generateExpressionCode(node, target, fr)
	if generator.allowWidening && TypesEqual(target, FloatType) && TypesEqual(t, IntType) {
		generator.writeOutput("i2d")
	}
}

// generateExpressionCode pushes the value of node and returns its type. hint is the type expected
// by the destination; array literals take their element type from it.
func (generator *CodeGenerator) generateExpressionCode(node Ast, hint *Type, fr *frame) *Type {
	switch node.NodeTP() {
	case LiteralNodeTP:
		return generator.generateConstantCode(node.(*LiteralAst).Value)
	case IdentNodeTP:
		return generator.generateLoadCode(generator.resolveVariable(node.(*IdentAst).Name, fr))
	case BinOpNodeTP:
		return generator.generateBinOpCode(node.(*BinOpAst), fr)
	case UnaryOpNodeTP:
		expr := node.(*UnaryOpAst)
		t := generator.generateExpressionCode(expr.Operand, nil, fr)
		if expr.Op == NotOpTP {
			generator.writeOutput("iconst_1")
			generator.writeOutput("ixor")
			return BoolType
		}
		generator.writeOutput(typePrefix(t) + "neg")
		return t
	case FuncCallNodeTP:
		return generator.generateFuncCallCode(node.(*FuncCallAst), fr)
	case MemberAccessNodeTP:
		access := node.(*MemberAccessAst)
		objectType := generator.generateExpressionCode(access.Object, nil, fr)
		layout, field := generator.resolveField(objectType, access.Member)
		generator.writeOutput("getfield %s/%s %s", layout.Name, field.Name, generator.descriptor(field.Type))
		return field.Type
	case NewInstanceNodeTP:
		name := node.(*NewInstanceAst).ClassName
		if !generator.tables.Classes.isClassNameExist(name) {
			fatalf("unresolved type `%s`", name)
		}
		generator.writeOutput("new %s", name)
		generator.writeOutput("dup")
		generator.writeOutput("invokespecial %s/<init>()V", name)
		return ClassOf(name)
	case ArrayLiteralNodeTP:
		return generator.generateArrayLiteralCode(node.(*ArrayLiteralAst), hint, fr)
	case ArrayIndexNodeTP:
		expr := node.(*ArrayIndexAst)
		arrayType := generator.generateExpressionCode(expr.Array, nil, fr)
		if arrayType.Tag != ArrayTypeTag {
			fatalf("indexing a value of type `%s`", arrayType)
		}
		generator.generateValueCode(expr.Index, IntType, fr)
		generator.writeOutput(arrayInstruction(arrayType.Elem, "aload"))
		return arrayType.Elem
	case NewArrayNodeTP:
		alloc := node.(*NewArrayAst)
		elemType := TypeOfName(alloc.ElemTypeName)
		generator.generateValueCode(alloc.Size, IntType, fr)
		generator.generateNewArrayCode(elemType)
		return ArrayOf(elemType)
	default:
		fatalf("code generation has no rule for expression kind %s", node.NodeTP())
	}
	return nil
}

// generateConstantCode selects the shortest push for a literal.
func (generator *CodeGenerator) generateConstantCode(value interface{}) *Type {
	switch v := value.(type) {
	case int64:
		generator.generateIntCode(v)
		return IntType
	case int:
		generator.generateIntCode(int64(v))
		return IntType
	case float64:
		switch {
		case v == 0 && !math.Signbit(v):
			generator.writeOutput("dconst_0")
		case v == 1:
			generator.writeOutput("dconst_1")
		default:
			generator.writeOutput("ldc2_w %s", formatDouble(v))
		}
		return FloatType
	case bool:
		if v {
			generator.writeOutput("iconst_1")
		} else {
			generator.writeOutput("iconst_0")
		}
		return BoolType
	case string:
		generator.writeOutput("ldc %s", util.EscapeString(v))
		return StringType
	}
	fatalf("literal of unsupported kind %T", value)
	return nil
}

func (generator *CodeGenerator) generateIntCode(v int64) {
	switch {
	case v == -1:
		generator.writeOutput("iconst_m1")
	case v >= 0 && v <= 5:
		generator.writeOutput("iconst_%d", v)
	case v >= math.MinInt8 && v <= math.MaxInt8:
		generator.writeOutput("bipush %d", v)
	case v >= math.MinInt16 && v <= math.MaxInt16:
		generator.writeOutput("sipush %d", v)
	default:
		generator.writeOutput("ldc %d", v)
	}
}

// formatDouble prints v so that it is always read back as a double constant.
func formatDouble(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

var arithmeticInstructions = map[OpCode]string{
	AddOpTP: "add",
	SubOpTP: "sub",
	MulOpTP: "mul",
	DivOpTP: "div",
	ModOpTP: "rem",
}

var conditionSuffixes = map[OpCode]string{
	GreaterOpTP:      "gt",
	GreaterEqualOpTP: "ge",
	LessOpTP:         "lt",
	LessEqualOpTP:    "le",
	EqualOpTP:        "eq",
	NotEqualOpTP:     "ne",
}

func (generator *CodeGenerator) generateBinOpCode(expr *BinOpAst, fr *frame) *Type {
	if expr.Op.IsComparison() {
		return generator.generateComparisonCode(expr, fr)
	}
	left := generator.generateExpressionCode(expr.Left, nil, fr)
	generator.generateExpressionCode(expr.Right, nil, fr)
	switch {
	case expr.Op == AndOpTP:
		generator.writeOutput("iand")
		return BoolType
	case expr.Op == OrOpTP:
		generator.writeOutput("ior")
		return BoolType
	case expr.Op == AddOpTP && TypesEqual(left, StringType):
		generator.writeOutput("invokevirtual java/lang/String/concat(Ljava/lang/String;)Ljava/lang/String;")
		return StringType
	case left.IsNumeric():
		generator.writeOutput(typePrefix(left) + arithmeticInstructions[expr.Op])
		return left
	}
	fatalf("operator `%s` on `%s`", expr.Op, left)
	return nil
}

// generateComparisonCode leaves 0 or 1 on the stack:
//   <compare and branch> true; iconst_0; goto end; true: iconst_1; end:
func (generator *CodeGenerator) generateComparisonCode(expr *BinOpAst, fr *frame) *Type {
	left := generator.generateExpressionCode(expr.Left, nil, fr)
	generator.generateExpressionCode(expr.Right, nil, fr)
	cond := conditionSuffixes[expr.Op]
	trueLabel := generator.stream.NewLabel()
	endLabel := generator.stream.NewLabel()
	switch {
	case TypesEqual(left, IntType), TypesEqual(left, BoolType):
		generator.stream.EmitJump("if_icmp"+cond, trueLabel)
	case TypesEqual(left, FloatType):
		// dcmpl yields -1 and dcmpg yields 1 on NaN, which keeps every ordered comparison false.
		if expr.Op == GreaterOpTP || expr.Op == GreaterEqualOpTP {
			generator.writeOutput("dcmpl")
		} else {
			generator.writeOutput("dcmpg")
		}
		generator.stream.EmitJump("if"+cond, trueLabel)
	case TypesEqual(left, StringType):
		generator.writeOutput("invokevirtual java/lang/String/compareTo(Ljava/lang/String;)I")
		generator.stream.EmitJump("if"+cond, trueLabel)
	case left.IsReference() && (expr.Op == EqualOpTP || expr.Op == NotEqualOpTP):
		generator.stream.EmitJump("if_acmp"+cond, trueLabel)
	default:
		fatalf("operator `%s` on `%s`", expr.Op, left)
	}
	generator.writeOutput("iconst_0")
	generator.stream.EmitJump("goto", endLabel)
	generator.stream.Define(trueLabel)
	generator.writeOutput("iconst_1")
	generator.stream.Define(endLabel)
	return BoolType
}

func (generator *CodeGenerator) generateFuncCallCode(call *FuncCallAst, fr *frame) *Type {
	if builtinFuncs[call.Name] {
		if len(call.Args) != 1 {
			fatalf("function `%s` called with %d arguments", call.Name, len(call.Args))
		}
		generator.writeOutput("getstatic java/lang/System/out Ljava/io/PrintStream;")
		t := generator.generateExpressionCode(call.Args[0], nil, fr)
		generator.writeOutput("invokevirtual java/io/PrintStream/%s(%s)V", call.Name, printDescriptor(t))
		return VoidType
	}
	signature := generator.tables.Functions.lookUpFunc(call.Name)
	if signature == nil {
		fatalf("unknown function `%s`", call.Name)
	}
	if len(call.Args) != len(signature.ParamTypes) {
		fatalf("function `%s` called with %d arguments", call.Name, len(call.Args))
	}
	for i, arg := range call.Args {
		generator.generateValueCode(arg, signature.ParamTypes[i], fr)
	}
	owner := signature.Owner
	if owner == "" {
		owner = generator.mainClass
	}
	generator.writeOutput("invokestatic %s/%s%s", owner, signature.Name, generator.methodDescriptor(signature))
	return signature.ReturnType
}

// Array literal: length; newarray; then dup, index, value, store for each element.
func (generator *CodeGenerator) generateArrayLiteralCode(literal *ArrayLiteralAst, hint *Type, fr *frame) *Type {
	var elemType *Type
	switch {
	case hint != nil && hint.Tag == ArrayTypeTag:
		elemType = hint.Elem
	case len(literal.Elements) > 0:
		elemType = generator.typeOf(literal.Elements[0], fr)
	default:
		elemType = IntType
	}
	generator.generateIntCode(int64(len(literal.Elements)))
	generator.generateNewArrayCode(elemType)
	for i, element := range literal.Elements {
		generator.writeOutput("dup")
		generator.generateIntCode(int64(i))
		generator.generateValueCode(element, elemType, fr)
		generator.writeOutput(arrayInstruction(elemType, "astore"))
	}
	return ArrayOf(elemType)
}

func (generator *CodeGenerator) generateNewArrayCode(elemType *Type) {
	switch {
	case TypesEqual(elemType, IntType):
		generator.writeOutput("newarray int")
	case TypesEqual(elemType, FloatType):
		generator.writeOutput("newarray double")
	case TypesEqual(elemType, BoolType):
		generator.writeOutput("newarray boolean")
	case TypesEqual(elemType, StringType):
		generator.writeOutput("anewarray java/lang/String")
	case elemType.Tag == ArrayTypeTag:
		generator.writeOutput("anewarray %s", generator.descriptor(elemType))
	default:
		generator.descriptor(elemType)
		generator.writeOutput("anewarray %s", elemType.Name)
	}
}

func (generator *CodeGenerator) generateDefaultValueCode(t *Type) {
	switch {
	case TypesEqual(t, IntType), TypesEqual(t, BoolType):
		generator.writeOutput("iconst_0")
	case TypesEqual(t, FloatType):
		generator.writeOutput("dconst_0")
	case TypesEqual(t, StringType):
		generator.writeOutput(`ldc ""`)
	default:
		generator.writeOutput("aconst_null")
	}
}

// resolveVariable finds name in the local frames, then among the fields of the class under
// construction, then among the globals.
func (generator *CodeGenerator) resolveVariable(name string, fr *frame) varRef {
	for f := fr; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return varRef{kind: localVarKind, name: name, t: v.t, slot: v.slot}
		}
	}
	if fr.class != nil {
		if field := fr.class.Field(name); field != nil {
			return varRef{kind: fieldVarKind, name: name, t: field.Type, owner: fr.class.Name}
		}
	}
	if t, ok := generator.globals[name]; ok {
		return varRef{kind: globalVarKind, name: name, t: t, owner: generator.mainClass}
	}
	fatalf("undeclared variable `%s`", name)
	return varRef{}
}

func (generator *CodeGenerator) resolveField(objectType *Type, member string) (*ClassLayout, *FieldDesc) {
	layout, field := generator.tables.Classes.lookUpClassField(objectType, member)
	if layout == nil {
		fatalf("unresolved type `%s`", objectType)
	}
	if field == nil {
		fatalf("class `%s` has no field `%s`", layout.Name, member)
	}
	return layout, field
}

func (generator *CodeGenerator) generateLoadCode(ref varRef) *Type {
	switch ref.kind {
	case localVarKind:
		generator.writeOutput(slotInstruction(typePrefix(ref.t)+"load", ref.slot))
	case fieldVarKind:
		generator.writeOutput("aload_0")
		generator.writeOutput("getfield %s/%s %s", ref.owner, ref.name, generator.descriptor(ref.t))
	case globalVarKind:
		generator.writeOutput("getstatic %s/%s %s", ref.owner, ref.name, generator.descriptor(ref.t))
	}
	return ref.t
}

// generateStoreCode stores the value on top of the stack. A field store expects the receiver below
// the value.
func (generator *CodeGenerator) generateStoreCode(ref varRef) {
	switch ref.kind {
	case localVarKind:
		generator.writeOutput(slotInstruction(typePrefix(ref.t)+"store", ref.slot))
	case fieldVarKind:
		generator.writeOutput("putfield %s/%s %s", ref.owner, ref.name, generator.descriptor(ref.t))
	case globalVarKind:
		generator.writeOutput("putstatic %s/%s %s", ref.owner, ref.name, generator.descriptor(ref.t))
	}
}

// slotInstruction uses the one byte form for the first four slots.
func slotInstruction(op string, slot int) string {
	if slot <= 3 {
		return op + "_" + strconv.Itoa(slot)
	}
	return op + " " + strconv.Itoa(slot)
}

func typePrefix(t *Type) string {
	switch {
	case TypesEqual(t, IntType), TypesEqual(t, BoolType):
		return "i"
	case TypesEqual(t, FloatType):
		return "d"
	}
	return "a"
}

func slotSize(t *Type) int {
	if TypesEqual(t, FloatType) {
		return 2
	}
	return 1
}

func arrayInstruction(elemType *Type, op string) string {
	switch {
	case TypesEqual(elemType, IntType):
		return "i" + op
	case TypesEqual(elemType, BoolType):
		return "b" + op
	case TypesEqual(elemType, FloatType):
		return "d" + op
	}
	return "a" + op
}

func (generator *CodeGenerator) descriptor(t *Type) string {
	if t == nil {
		fatalf("unresolved type")
	}
	switch t.Tag {
	case ArrayTypeTag:
		return "[" + generator.descriptor(t.Elem)
	case ClassTypeTag:
		if !generator.tables.Classes.isClassNameExist(t.Name) {
			fatalf("unresolved type `%s`", t.Name)
		}
		return "L" + t.Name + ";"
	}
	switch t.Name {
	case "int":
		return "I"
	case "float":
		return "D"
	case "bool":
		return "Z"
	case "string":
		return "Ljava/lang/String;"
	case "void":
		return "V"
	}
	fatalf("unresolved type `%s`", t.Name)
	return ""
}

func (generator *CodeGenerator) methodDescriptor(signature *FuncSignature) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, t := range signature.ParamTypes {
		sb.WriteString(generator.descriptor(t))
	}
	sb.WriteByte(')')
	sb.WriteString(generator.descriptor(signature.ReturnType))
	return sb.String()
}

// printDescriptor picks the PrintStream overload for a value of type t.
func printDescriptor(t *Type) string {
	switch {
	case TypesEqual(t, IntType):
		return "I"
	case TypesEqual(t, FloatType):
		return "D"
	case TypesEqual(t, BoolType):
		return "Z"
	case TypesEqual(t, StringType):
		return "Ljava/lang/String;"
	}
	return "Ljava/lang/Object;"
}

// typeOf re-derives the type of an expression without emitting anything.
func (generator *CodeGenerator) typeOf(node Ast, fr *frame) *Type {
	switch expr := node.(type) {
	case *LiteralAst:
		return TypeOfLiteral(expr.Value)
	case *IdentAst:
		return generator.resolveVariable(expr.Name, fr).t
	case *BinOpAst:
		if expr.Op.IsArithmetic() {
			return generator.typeOf(expr.Left, fr)
		}
		return BoolType
	case *UnaryOpAst:
		if expr.Op == NotOpTP {
			return BoolType
		}
		return generator.typeOf(expr.Operand, fr)
	case *FuncCallAst:
		if builtinFuncs[expr.Name] {
			return VoidType
		}
		if signature := generator.tables.Functions.lookUpFunc(expr.Name); signature != nil {
			return signature.ReturnType
		}
		fatalf("unknown function `%s`", expr.Name)
	case *MemberAccessAst:
		_, field := generator.resolveField(generator.typeOf(expr.Object, fr), expr.Member)
		return field.Type
	case *NewInstanceAst:
		return ClassOf(expr.ClassName)
	case *ArrayLiteralAst:
		if len(expr.Elements) == 0 {
			return ArrayOf(IntType)
		}
		return ArrayOf(generator.typeOf(expr.Elements[0], fr))
	case *ArrayIndexAst:
		arrayType := generator.typeOf(expr.Array, fr)
		if arrayType == nil || arrayType.Tag != ArrayTypeTag {
			fatalf("indexing a value of type `%s`", arrayType)
		}
		return arrayType.Elem
	case *NewArrayAst:
		return ArrayOf(TypeOfName(expr.ElemTypeName))
	}
	fatalf("code generation has no rule for expression kind %s", node.NodeTP())
	return nil
}
