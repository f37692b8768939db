package internal

// In this file, we define all ast nodes of the mel language. A mel source file is a list of statements:
// variable declarations, functions, classes and the statements forming the main program body.
// Every node reports its NodeType so that the passes can switch over a closed set of kinds.

type NodeType int

const (
	LiteralNodeTP NodeType = iota
	IdentNodeTP
	BinOpNodeTP
	UnaryOpNodeTP
	AssignNodeTP
	ArrayAssignNodeTP
	VarsDeclNodeTP
	IfNodeTP
	WhileNodeTP
	ForNodeTP
	StmtListNodeTP
	FuncDeclNodeTP
	FuncCallNodeTP
	ClassDeclNodeTP
	MemberAccessNodeTP
	NewInstanceNodeTP
	ReturnNodeTP
	ArrayLiteralNodeTP
	ArrayIndexNodeTP
	NewArrayNodeTP
)

var nodeTypeNames = map[NodeType]string{
	LiteralNodeTP:      "Literal",
	IdentNodeTP:        "Ident",
	BinOpNodeTP:        "BinOp",
	UnaryOpNodeTP:      "UnaryOp",
	AssignNodeTP:       "Assign",
	ArrayAssignNodeTP:  "ArrayAssign",
	VarsDeclNodeTP:     "VarsDecl",
	IfNodeTP:           "If",
	WhileNodeTP:        "While",
	ForNodeTP:          "For",
	StmtListNodeTP:     "StmtList",
	FuncDeclNodeTP:     "FuncDecl",
	FuncCallNodeTP:     "FuncCall",
	ClassDeclNodeTP:    "ClassDecl",
	MemberAccessNodeTP: "MemberAccess",
	NewInstanceNodeTP:  "NewInstance",
	ReturnNodeTP:       "Return",
	ArrayLiteralNodeTP: "ArrayLiteral",
	ArrayIndexNodeTP:   "ArrayIndex",
	NewArrayNodeTP:     "NewArray",
}

func (tp NodeType) String() string {
	if name, ok := nodeTypeNames[tp]; ok {
		return name
	}
	return "Unknown"
}

// Ast is implemented by every node of the tree.
type Ast interface {
	NodeTP() NodeType
}

// LiteralAst holds an int64, float64, bool or string value.
type LiteralAst struct {
	Value interface{}
}

type IdentAst struct {
	Name string
}

type BinOpAst struct {
	Op    OpCode
	Left  Ast
	Right Ast
}

type UnaryOpAst struct {
	Op      OpCode
	Operand Ast
}

// AssignAst assigns Value to Target, which is an *IdentAst or a *MemberAccessAst.
type AssignAst struct {
	Target Ast
	Value  Ast
}

type ArrayAssignAst struct {
	ArrayName string
	Index     Ast
	Value     Ast
}

type VarsDeclAst struct {
	TypeName string
	Vars     []*VarBindingAst
}

// VarBindingAst is one declared name of a VarsDeclAst. Init is nil when there is no initializer.
type VarBindingAst struct {
	Name string
	Init Ast
}

type IfAst struct {
	Condition Ast
	Then      Ast
	Else      Ast
}

type WhileAst struct {
	Condition Ast
	Body      Ast
}

// ForAst parts other than Body may be nil.
type ForAst struct {
	Init      Ast
	Condition Ast
	Step      Ast
	Body      Ast
}

type StmtListAst struct {
	Statements []Ast
}

type FuncParamAst struct {
	TypeName string
	Name     string
}

type FuncDeclAst struct {
	ReturnTypeName string
	Name           string
	Params         []*FuncParamAst
	Body           *StmtListAst
}

type FuncCallAst struct {
	Name string
	Args []Ast
}

type ClassDeclAst struct {
	Name string
	Body *StmtListAst
}

type MemberAccessAst struct {
	Object Ast
	Member string
}

type NewInstanceAst struct {
	ClassName string
}

// ReturnAst Value is nil for a bare return.
type ReturnAst struct {
	Value Ast
}

type ArrayLiteralAst struct {
	Elements []Ast
}

type ArrayIndexAst struct {
	Array Ast
	Index Ast
}

type NewArrayAst struct {
	ElemTypeName string
	Size         Ast
}

func (*LiteralAst) NodeTP() NodeType      { return LiteralNodeTP }
func (*IdentAst) NodeTP() NodeType        { return IdentNodeTP }
func (*BinOpAst) NodeTP() NodeType        { return BinOpNodeTP }
func (*UnaryOpAst) NodeTP() NodeType      { return UnaryOpNodeTP }
func (*AssignAst) NodeTP() NodeType       { return AssignNodeTP }
func (*ArrayAssignAst) NodeTP() NodeType  { return ArrayAssignNodeTP }
func (*VarsDeclAst) NodeTP() NodeType     { return VarsDeclNodeTP }
func (*IfAst) NodeTP() NodeType           { return IfNodeTP }
func (*WhileAst) NodeTP() NodeType        { return WhileNodeTP }
func (*ForAst) NodeTP() NodeType          { return ForNodeTP }
func (*StmtListAst) NodeTP() NodeType     { return StmtListNodeTP }
func (*FuncDeclAst) NodeTP() NodeType     { return FuncDeclNodeTP }
func (*FuncCallAst) NodeTP() NodeType     { return FuncCallNodeTP }
func (*ClassDeclAst) NodeTP() NodeType    { return ClassDeclNodeTP }
func (*MemberAccessAst) NodeTP() NodeType { return MemberAccessNodeTP }
func (*NewInstanceAst) NodeTP() NodeType  { return NewInstanceNodeTP }
func (*ReturnAst) NodeTP() NodeType       { return ReturnNodeTP }
func (*ArrayLiteralAst) NodeTP() NodeType { return ArrayLiteralNodeTP }
func (*ArrayIndexAst) NodeTP() NodeType   { return ArrayIndexNodeTP }
func (*NewArrayAst) NodeTP() NodeType     { return NewArrayNodeTP }

type OpCode int

const (
	AddOpTP OpCode = iota
	SubOpTP
	MulOpTP
	DivOpTP
	ModOpTP
	GreaterOpTP
	GreaterEqualOpTP
	LessOpTP
	LessEqualOpTP
	EqualOpTP
	NotEqualOpTP
	AndOpTP
	OrOpTP
	NegationOpTP
	NotOpTP
)

// OpAst describes an operator: its source symbol and the binding priority used when building
// expression trees. A higher priority binds tighter.
type OpAst struct {
	Op       OpCode
	Name     string
	priority int
}

var (
	AddOpAst          = OpAst{Op: AddOpTP, Name: "+", priority: 5}
	SubOpAst          = OpAst{Op: SubOpTP, Name: "-", priority: 5}
	MulOpAst          = OpAst{Op: MulOpTP, Name: "*", priority: 6}
	DivOpAst          = OpAst{Op: DivOpTP, Name: "/", priority: 6}
	ModOpAst          = OpAst{Op: ModOpTP, Name: "%", priority: 6}
	GreaterOpAst      = OpAst{Op: GreaterOpTP, Name: ">", priority: 4}
	GreaterEqualOpAst = OpAst{Op: GreaterEqualOpTP, Name: ">=", priority: 4}
	LessOpAst         = OpAst{Op: LessOpTP, Name: "<", priority: 4}
	LessEqualOpAst    = OpAst{Op: LessEqualOpTP, Name: "<=", priority: 4}
	EqualOpAst        = OpAst{Op: EqualOpTP, Name: "==", priority: 3}
	NotEqualOpAst     = OpAst{Op: NotEqualOpTP, Name: "!=", priority: 3}
	AndOpAst          = OpAst{Op: AndOpTP, Name: "&&", priority: 2}
	OrOpAst           = OpAst{Op: OrOpTP, Name: "||", priority: 1}
	NegationOpAst     = OpAst{Op: NegationOpTP, Name: "-"}
	NotOpAst          = OpAst{Op: NotOpTP, Name: "!"}
)

var binaryOps = map[TokenType]*OpAst{
	AddTP:          &AddOpAst,
	MinusTP:        &SubOpAst,
	MultiplyTP:     &MulOpAst,
	DivideTP:       &DivOpAst,
	ModTP:          &ModOpAst,
	GreaterTP:      &GreaterOpAst,
	GreaterEqualTP: &GreaterEqualOpAst,
	LessTP:         &LessOpAst,
	LessEqualTP:    &LessEqualOpAst,
	EqualTP:        &EqualOpAst,
	NotEqualTP:     &NotEqualOpAst,
	AndTP:          &AndOpAst,
	OrTP:           &OrOpAst,
}

var opNames = map[OpCode]string{}

func init() {
	for _, op := range []*OpAst{&AddOpAst, &SubOpAst, &MulOpAst, &DivOpAst, &ModOpAst, &GreaterOpAst,
		&GreaterEqualOpAst, &LessOpAst, &LessEqualOpAst, &EqualOpAst, &NotEqualOpAst, &AndOpAst, &OrOpAst,
		&NegationOpAst, &NotOpAst} {
		opNames[op.Op] = op.Name
	}
}

func (op OpCode) String() string {
	return opNames[op]
}

func (op OpCode) IsArithmetic() bool {
	return op >= AddOpTP && op <= ModOpTP
}

func (op OpCode) IsComparison() bool {
	return op >= GreaterOpTP && op <= NotEqualOpTP
}

func (op OpCode) IsLogical() bool {
	return op == AndOpTP || op == OrOpTP
}
