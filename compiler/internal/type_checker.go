package internal

import "fmt"

// Analysis is the result of the semantic pass.
type Analysis struct {
	Diagnostics []string
	Tables      *SymbolTables
}

type placement int

const (
	topLevelPlacement placement = iota
	classBodyPlacement
	nestedPlacement
)

// checkContext is what a visit knows about where it is. It is passed by value so every nested
// visit extends its own copy.
type checkContext struct {
	scope     *Scope
	function  *FuncSignature
	class     *ClassLayout
	placement placement
}

func (ctx checkContext) nested(scope *Scope) checkContext {
	ctx.scope, ctx.placement = scope, nestedPlacement
	return ctx
}

type typeChecker struct {
	allowWidening bool
	mainClass     string
	tables        *SymbolTables
	globals       *Scope
	diagnostics   []string
	reported      map[string]bool
}

// Analyze checks program and collects its functions and classes. Semantic problems never stop the
// traversal, they are returned in Analysis.Diagnostics. The returned error is a *FatalError and
// only happens for node kinds the checker has no rule for.
func Analyze(program *StmtListAst, options Options) (analysis *Analysis, err error) {
	checker := &typeChecker{
		allowWidening: options.AllowWidening,
		mainClass:     options.mainClassName(),
		tables:        newSymbolTables(),
		globals:       NewScope(nil),
		reported:      map[string]bool{},
	}
	defer recoverFatal(&err)
	ctx := checkContext{scope: checker.globals, placement: topLevelPlacement}
	for _, stm := range program.Statements {
		checker.checkStatement(stm, ctx)
	}
	return &Analysis{Diagnostics: checker.diagnostics, Tables: checker.tables}, nil
}

// addError records a diagnostic. A message already reported is not repeated.
func (checker *typeChecker) addError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if checker.reported[msg] {
		return
	}
	checker.reported[msg] = true
	checker.diagnostics = append(checker.diagnostics, msg)
}

func (checker *typeChecker) checkStatement(node Ast, ctx checkContext) {
	switch node.NodeTP() {
	case VarsDeclNodeTP:
		checker.checkVarsDecl(node.(*VarsDeclAst), ctx)
	case AssignNodeTP:
		checker.checkAssign(node.(*AssignAst), ctx)
	case ArrayAssignNodeTP:
		checker.checkArrayAssign(node.(*ArrayAssignAst), ctx)
	case IfNodeTP:
		stm := node.(*IfAst)
		checker.checkCondition(stm.Condition, ctx)
		checker.checkBranch(stm.Then, ctx)
		if stm.Else != nil {
			checker.checkBranch(stm.Else, ctx)
		}
	case WhileNodeTP:
		stm := node.(*WhileAst)
		checker.checkCondition(stm.Condition, ctx)
		checker.checkBranch(stm.Body, ctx)
	case ForNodeTP:
		checker.checkFor(node.(*ForAst), ctx)
	case StmtListNodeTP:
		block := ctx.nested(ctx.scope.Child())
		for _, stm := range node.(*StmtListAst).Statements {
			checker.checkStatement(stm, block)
		}
	case FuncDeclNodeTP:
		checker.checkFuncDecl(node.(*FuncDeclAst), ctx)
	case ClassDeclNodeTP:
		checker.checkClassDecl(node.(*ClassDeclAst), ctx)
	case ReturnNodeTP:
		checker.checkReturn(node.(*ReturnAst), ctx)
	case FuncCallNodeTP, LiteralNodeTP, IdentNodeTP, BinOpNodeTP, UnaryOpNodeTP, MemberAccessNodeTP,
		NewInstanceNodeTP, ArrayLiteralNodeTP, ArrayIndexNodeTP, NewArrayNodeTP:
		checker.typeOf(node, ctx)
	default:
		fatalf("semantic analysis has no rule for node kind %s", node.NodeTP())
	}
}

// checkBranch analyzes the body of an if, while or for in its own scope.
func (checker *typeChecker) checkBranch(stm Ast, ctx checkContext) {
	if stm.NodeTP() == StmtListNodeTP {
		checker.checkStatement(stm, ctx.nested(ctx.scope))
		return
	}
	checker.checkStatement(stm, ctx.nested(ctx.scope.Child()))
}

func (checker *typeChecker) checkCondition(cond Ast, ctx checkContext) {
	t := checker.typeOf(cond, ctx)
	if t != nil && !TypesEqual(t, BoolType) {
		checker.addError("condition must be boolean, got `%s`", t)
	}
}

func (checker *typeChecker) checkFor(stm *ForAst, ctx checkContext) {
	forCtx := ctx.nested(ctx.scope.Child())
	if stm.Init != nil {
		checker.checkStatement(stm.Init, forCtx)
	}
	if stm.Condition != nil {
		checker.checkCondition(stm.Condition, forCtx)
	}
	if stm.Step != nil {
		checker.checkStatement(stm.Step, forCtx)
	}
	checker.checkBranch(stm.Body, forCtx)
}

// checkVariableType reports declared types that name unknown classes or void.
func (checker *typeChecker) checkVariableType(t *Type) {
	base := t.BaseType()
	switch {
	case base.Tag == ClassTypeTag && !checker.tables.Classes.isClassNameExist(base.Name):
		checker.addError("unknown type `%s`", base.Name)
	case TypesEqual(base, VoidType):
		checker.addError("cannot declare variables of type `%s`", t)
	}
}

func (checker *typeChecker) checkVarsDecl(decl *VarsDeclAst, ctx checkContext) {
	declared := TypeOfName(decl.TypeName)
	checker.checkVariableType(declared)
	for _, v := range decl.Vars {
		if v.Init != nil {
			valueType := checker.typeOf(v.Init, ctx)
			if valueType != nil && !Assignable(declared, valueType, checker.allowWidening) {
				checker.addError("cannot assign `%s` to `%s`", valueType, declared)
			}
		}
		if err := ctx.scope.Declare(v.Name, declared); err != nil {
			checker.addError("%s", err.Error())
			continue
		}
		if ctx.placement == classBodyPlacement {
			ctx.class.AddField(v.Name, declared)
		}
	}
}

func (checker *typeChecker) checkAssign(stm *AssignAst, ctx checkContext) {
	switch target := stm.Target.(type) {
	case *IdentAst:
		targetType, ok := ctx.scope.Lookup(target.Name)
		if !ok {
			checker.addError("variable `%s` is not declared", target.Name)
			return
		}
		valueType := checker.typeOf(stm.Value, ctx)
		if valueType != nil && !Assignable(targetType, valueType, checker.allowWidening) {
			checker.addError("cannot assign `%s` to `%s`", valueType, targetType)
		}
	case *MemberAccessAst:
		objectType := checker.typeOf(target.Object, ctx)
		valueType := checker.typeOf(stm.Value, ctx)
		layout, field := checker.tables.Classes.lookUpClassField(objectType, target.Member)
		if layout == nil {
			return
		}
		if field == nil {
			checker.addError("class `%s` has no field `%s`", layout.Name, target.Member)
			return
		}
		if valueType != nil && !Assignable(field.Type, valueType, checker.allowWidening) {
			checker.addError("cannot assign `%s` to `%s`", valueType, field.Type)
		}
	default:
		fatalf("cannot assign to node kind %s", stm.Target.NodeTP())
	}
}

// checkArrayAssign reports a non-array target, a non-int index and a mismatching element independently.
func (checker *typeChecker) checkArrayAssign(stm *ArrayAssignAst, ctx checkContext) {
	arrayType, declared := ctx.scope.Lookup(stm.ArrayName)
	isArray := declared && arrayType.Tag == ArrayTypeTag
	if !declared {
		checker.addError("variable `%s` is not declared", stm.ArrayName)
	} else if !isArray {
		checker.addError("`%s` is not an array", stm.ArrayName)
	}
	indexType := checker.typeOf(stm.Index, ctx)
	if indexType != nil && !TypesEqual(indexType, IntType) {
		checker.addError("array index must be `int`, got `%s`", indexType)
	}
	valueType := checker.typeOf(stm.Value, ctx)
	if isArray && valueType != nil && !Assignable(arrayType.Elem, valueType, checker.allowWidening) {
		checker.addError("cannot assign `%s` to `%s`", valueType, arrayType.Elem)
	}
}

func (checker *typeChecker) checkFuncDecl(decl *FuncDeclAst, ctx checkContext) {
	if ctx.placement == nestedPlacement {
		checker.addError("function `%s` must be declared at top level or inside a class", decl.Name)
		return
	}
	if reservedFuncNames[decl.Name] {
		checker.addError("function `%s` is reserved", decl.Name)
		return
	}
	owner := ""
	if ctx.placement == classBodyPlacement {
		owner = ctx.class.Name
	}
	signature := buildFuncSignature(decl, owner)
	if !TypesEqual(signature.ReturnType, VoidType) {
		checker.checkVariableType(signature.ReturnType)
	}
	if checker.tables.Functions.lookUpFunc(decl.Name) != nil {
		checker.addError("function `%s` is already declared", decl.Name)
	}
	// Registered before the body so that recursive calls resolve.
	checker.tables.Functions[decl.Name] = signature

	// Functions are static: their parameters see the globals, never the fields of an enclosing class.
	paramScope := checker.globals.Child()
	for i, name := range signature.ParamNames {
		checker.checkVariableType(signature.ParamTypes[i])
		if err := paramScope.Declare(name, signature.ParamTypes[i]); err != nil {
			checker.addError("%s", err.Error())
		}
	}
	fnCtx := checkContext{scope: paramScope, function: signature, placement: nestedPlacement}
	checker.checkStatement(decl.Body, fnCtx)
	if !TypesEqual(signature.ReturnType, VoidType) && !alwaysReturns(decl.Body) {
		checker.addError("function `%s` may finish without returning `%s`", decl.Name, signature.ReturnType)
	}
}

// alwaysReturns reports whether every path through stm ends in a return statement. An if only
// counts when both of its branches return.
func alwaysReturns(stm Ast) bool {
	switch s := stm.(type) {
	case *ReturnAst:
		return true
	case *StmtListAst:
		for _, child := range s.Statements {
			if alwaysReturns(child) {
				return true
			}
		}
	case *IfAst:
		return s.Else != nil && alwaysReturns(s.Then) && alwaysReturns(s.Else)
	}
	return false
}

func (checker *typeChecker) checkReturn(stm *ReturnAst, ctx checkContext) {
	if ctx.function == nil {
		checker.addError("return outside of function")
		return
	}
	returnType := ctx.function.ReturnType
	isVoid := TypesEqual(returnType, VoidType)
	if stm.Value == nil {
		if !isVoid {
			checker.addError("missing return value in function `%s`", ctx.function.Name)
		}
		return
	}
	valueType := checker.typeOf(stm.Value, ctx)
	switch {
	case isVoid:
		checker.addError("cannot return a value from void function `%s`", ctx.function.Name)
	case valueType != nil && !Assignable(returnType, valueType, checker.allowWidening):
		checker.addError("cannot return `%s` from function `%s` returning `%s`", valueType, ctx.function.Name,
			returnType)
	}
}

// checkClassDecl registers the class and its fields. The members are analyzed in a scope of their own
// that is dropped afterwards; only the registry entry outlives the declaration.
func (checker *typeChecker) checkClassDecl(decl *ClassDeclAst, ctx checkContext) {
	if ctx.placement != topLevelPlacement {
		checker.addError("class `%s` must be declared at top level", decl.Name)
		return
	}
	if decl.Name == checker.mainClass {
		checker.addError("class `%s` clashes with the main class name", decl.Name)
	}
	if checker.tables.Classes.isClassNameExist(decl.Name) {
		checker.addError("class `%s` is already declared", decl.Name)
	}
	layout := NewClassLayout(decl.Name)
	checker.tables.Classes.Register(layout)
	classCtx := checkContext{scope: ctx.scope.Child(), class: layout, placement: classBodyPlacement}
	for _, member := range decl.Body.Statements {
		switch member.NodeTP() {
		case VarsDeclNodeTP, FuncDeclNodeTP:
			checker.checkStatement(member, classCtx)
		default:
			checker.addError("only fields and functions may appear in class `%s`", decl.Name)
		}
	}
}

// typeOf computes the type of an expression, reporting what is wrong with it on the way. It returns
// nil when the type cannot be determined; callers skip their own checks in that case.
func (checker *typeChecker) typeOf(node Ast, ctx checkContext) *Type {
	switch node.NodeTP() {
	case LiteralNodeTP:
		literal := node.(*LiteralAst)
		t := TypeOfLiteral(literal.Value)
		if t == nil {
			fatalf("literal of unsupported kind %T", literal.Value)
		}
		return t
	case IdentNodeTP:
		name := node.(*IdentAst).Name
		t, ok := ctx.scope.Lookup(name)
		if !ok {
			checker.addError("variable `%s` is not declared", name)
			return nil
		}
		return t
	case BinOpNodeTP:
		return checker.typeOfBinOp(node.(*BinOpAst), ctx)
	case UnaryOpNodeTP:
		return checker.typeOfUnaryOp(node.(*UnaryOpAst), ctx)
	case FuncCallNodeTP:
		return checker.typeOfFuncCall(node.(*FuncCallAst), ctx)
	case MemberAccessNodeTP:
		access := node.(*MemberAccessAst)
		objectType := checker.typeOf(access.Object, ctx)
		layout, field := checker.tables.Classes.lookUpClassField(objectType, access.Member)
		if layout == nil {
			return nil
		}
		if field == nil {
			checker.addError("class `%s` has no field `%s`", layout.Name, access.Member)
			return nil
		}
		return field.Type
	case NewInstanceNodeTP:
		name := node.(*NewInstanceAst).ClassName
		if !checker.tables.Classes.isClassNameExist(name) {
			checker.addError("class `%s` is not declared", name)
			return nil
		}
		return ClassOf(name)
	case ArrayLiteralNodeTP:
		return checker.typeOfArrayLiteral(node.(*ArrayLiteralAst), ctx)
	case ArrayIndexNodeTP:
		return checker.typeOfArrayIndex(node.(*ArrayIndexAst), ctx)
	case NewArrayNodeTP:
		alloc := node.(*NewArrayAst)
		elemType := TypeOfName(alloc.ElemTypeName)
		checker.checkVariableType(elemType)
		if sizeType := checker.typeOf(alloc.Size, ctx); sizeType != nil && !TypesEqual(sizeType, IntType) {
			checker.addError("array size must be `int`, got `%s`", sizeType)
		}
		return ArrayOf(elemType)
	case VarsDeclNodeTP, AssignNodeTP, ArrayAssignNodeTP, IfNodeTP, WhileNodeTP, ForNodeTP, StmtListNodeTP,
		FuncDeclNodeTP, ClassDeclNodeTP, ReturnNodeTP:
		fatalf("node kind %s is not an expression", node.NodeTP())
	default:
		fatalf("semantic analysis has no rule for node kind %s", node.NodeTP())
	}
	return nil
}

func (checker *typeChecker) typeOfBinOp(expr *BinOpAst, ctx checkContext) *Type {
	left := checker.typeOf(expr.Left, ctx)
	right := checker.typeOf(expr.Right, ctx)
	if left == nil || right == nil {
		if expr.Op.IsArithmetic() {
			return nil
		}
		return BoolType
	}
	switch {
	case expr.Op.IsArithmetic():
		concat := expr.Op == AddOpTP && TypesEqual(left, StringType)
		if !TypesEqual(left, right) || !(left.IsNumeric() || concat) {
			checker.addError("operator `%s` cannot be applied to `%s` and `%s`", expr.Op, left, right)
			return nil
		}
		return left
	case expr.Op.IsComparison():
		ordered := expr.Op != EqualOpTP && expr.Op != NotEqualOpTP
		if !TypesEqual(left, right) || TypesEqual(left, VoidType) ||
			(ordered && !left.IsNumeric() && !TypesEqual(left, StringType)) {
			checker.addError("operator `%s` cannot be applied to `%s` and `%s`", expr.Op, left, right)
		}
		return BoolType
	default:
		if !TypesEqual(left, BoolType) || !TypesEqual(right, BoolType) {
			checker.addError("operator `%s` cannot be applied to `%s` and `%s`", expr.Op, left, right)
		}
		return BoolType
	}
}

func (checker *typeChecker) typeOfUnaryOp(expr *UnaryOpAst, ctx checkContext) *Type {
	operand := checker.typeOf(expr.Operand, ctx)
	if expr.Op == NotOpTP {
		if operand != nil && !TypesEqual(operand, BoolType) {
			checker.addError("operator `%s` cannot be applied to `%s`", expr.Op, operand)
		}
		return BoolType
	}
	if operand == nil {
		return nil
	}
	if !operand.IsNumeric() {
		checker.addError("operator `%s` cannot be applied to `%s`", expr.Op, operand)
		return nil
	}
	return operand
}

// typeOfFuncCall checks a call against the callee's signature. An arity mismatch stops the check of
// that call; otherwise every mismatching argument is reported.
func (checker *typeChecker) typeOfFuncCall(call *FuncCallAst, ctx checkContext) *Type {
	if builtinFuncs[call.Name] {
		if len(call.Args) != 1 {
			checker.addError("function `%s` expects 1 argument(s), got %d", call.Name, len(call.Args))
			return VoidType
		}
		if argType := checker.typeOf(call.Args[0], ctx); TypesEqual(argType, VoidType) {
			checker.addError("argument 1 of `%s`: cannot pass `void`", call.Name)
		}
		return VoidType
	}
	signature := checker.tables.Functions.lookUpFunc(call.Name)
	if signature == nil {
		checker.addError("function `%s` is not declared", call.Name)
		return nil
	}
	if len(call.Args) != len(signature.ParamTypes) {
		checker.addError("function `%s` expects %d argument(s), got %d", call.Name, len(signature.ParamTypes),
			len(call.Args))
		return signature.ReturnType
	}
	for i, arg := range call.Args {
		argType := checker.typeOf(arg, ctx)
		if argType != nil && !Assignable(signature.ParamTypes[i], argType, checker.allowWidening) {
			checker.addError("argument %d of `%s`: cannot pass `%s` as `%s`", i+1, call.Name, argType,
				signature.ParamTypes[i])
		}
	}
	return signature.ReturnType
}

// typeOfArrayLiteral takes the element type from the first typed element. An empty literal has no
// type of its own.
func (checker *typeChecker) typeOfArrayLiteral(literal *ArrayLiteralAst, ctx checkContext) *Type {
	var elemType *Type
	for _, element := range literal.Elements {
		t := checker.typeOf(element, ctx)
		if t == nil {
			continue
		}
		if TypesEqual(t, VoidType) {
			checker.addError("array elements cannot be `void`")
			continue
		}
		if elemType == nil {
			elemType = t
			continue
		}
		if !TypesEqual(elemType, t) {
			checker.addError("array elements must share one type, got `%s` and `%s`", elemType, t)
		}
	}
	if elemType == nil {
		return nil
	}
	return ArrayOf(elemType)
}

func (checker *typeChecker) typeOfArrayIndex(expr *ArrayIndexAst, ctx checkContext) *Type {
	arrayType := checker.typeOf(expr.Array, ctx)
	if indexType := checker.typeOf(expr.Index, ctx); indexType != nil && !TypesEqual(indexType, IntType) {
		checker.addError("array index must be `int`, got `%s`", indexType)
	}
	if arrayType == nil {
		return nil
	}
	if arrayType.Tag != ArrayTypeTag {
		if ident, ok := expr.Array.(*IdentAst); ok {
			checker.addError("`%s` is not an array", ident.Name)
		} else {
			checker.addError("value of type `%s` is not an array", arrayType)
		}
		return nil
	}
	return arrayType.Elem
}
