package internal

// FuncSignature describes a declared function. Owner is the unit the function is emitted into:
// empty for top-level functions, the class name for functions declared inside a class body.
type FuncSignature struct {
	Name       string
	ParamNames []string
	ParamTypes []*Type
	ReturnType *Type
	Owner      string
}

// FieldDesc is one field of a class, Index is its position in declaration order.
type FieldDesc struct {
	Name  string
	Type  *Type
	Index int
}

type ClassLayout struct {
	Name   string
	Fields []*FieldDesc
	index  map[string]*FieldDesc
}

func NewClassLayout(name string) *ClassLayout {
	return &ClassLayout{Name: name, index: map[string]*FieldDesc{}}
}

// AddField appends a field. It returns false when a field with that name already exists.
func (layout *ClassLayout) AddField(name string, t *Type) bool {
	if _, ok := layout.index[name]; ok {
		return false
	}
	field := &FieldDesc{Name: name, Type: t, Index: len(layout.Fields)}
	layout.Fields = append(layout.Fields, field)
	layout.index[name] = field
	return true
}

func (layout *ClassLayout) Field(name string) *FieldDesc {
	return layout.index[name]
}

type FunctionTable map[string]*FuncSignature

func (table FunctionTable) lookUpFunc(name string) *FuncSignature {
	return table[name]
}

// ClassTable keeps classes by name and remembers the order in which they were first declared.
type ClassTable struct {
	classes map[string]*ClassLayout
	order   []string
}

func NewClassTable() *ClassTable {
	return &ClassTable{classes: map[string]*ClassLayout{}}
}

// Register stores layout, replacing an earlier class of the same name. The first declaration
// position is kept.
func (table *ClassTable) Register(layout *ClassLayout) {
	if _, ok := table.classes[layout.Name]; !ok {
		table.order = append(table.order, layout.Name)
	}
	table.classes[layout.Name] = layout
}

func (table *ClassTable) lookUpClass(name string) *ClassLayout {
	return table.classes[name]
}

func (table *ClassTable) isClassNameExist(name string) bool {
	_, ok := table.classes[name]
	return ok
}

// Classes returns the layouts in first declaration order.
func (table *ClassTable) Classes() []*ClassLayout {
	ret := make([]*ClassLayout, 0, len(table.order))
	for _, name := range table.order {
		ret = append(ret, table.classes[name])
	}
	return ret
}

// lookUpClassField resolves t to a class layout and the named field on it. The layout is nil when
// t is not a registered class; the field is nil when the class has no such field.
func (table *ClassTable) lookUpClassField(t *Type, fieldName string) (*ClassLayout, *FieldDesc) {
	if t == nil || t.Tag != ClassTypeTag {
		return nil, nil
	}
	layout := table.lookUpClass(t.Name)
	if layout == nil {
		return nil, nil
	}
	return layout, layout.Field(fieldName)
}

// Builtin functions print their single argument. They are not part of the FunctionTable and
// cannot be declared by programs.
var builtinFuncs = map[string]bool{
	"print":   true,
	"println": true,
}

// reservedFuncNames may not be declared by programs.
var reservedFuncNames = map[string]bool{
	"main":    true,
	"print":   true,
	"println": true,
}

// SymbolTables is what the semantic pass hands to the code generator.
type SymbolTables struct {
	Functions FunctionTable
	Classes   *ClassTable
}

func newSymbolTables() *SymbolTables {
	return &SymbolTables{Functions: FunctionTable{}, Classes: NewClassTable()}
}

// buildSymbolTables collects function signatures and class layouts from the declarations of a
// program without checking anything. The code generator uses it when it runs on its own.
func buildSymbolTables(program *StmtListAst) *SymbolTables {
	tables := newSymbolTables()
	for _, stm := range program.Statements {
		switch decl := stm.(type) {
		case *FuncDeclAst:
			tables.Functions[decl.Name] = buildFuncSignature(decl, "")
		case *ClassDeclAst:
			layout := NewClassLayout(decl.Name)
			for _, member := range decl.Body.Statements {
				switch m := member.(type) {
				case *VarsDeclAst:
					for _, v := range m.Vars {
						layout.AddField(v.Name, TypeOfName(m.TypeName))
					}
				case *FuncDeclAst:
					tables.Functions[m.Name] = buildFuncSignature(m, decl.Name)
				}
			}
			tables.Classes.Register(layout)
		}
	}
	return tables
}

func buildFuncSignature(decl *FuncDeclAst, owner string) *FuncSignature {
	signature := &FuncSignature{Name: decl.Name, ReturnType: TypeOfName(decl.ReturnTypeName), Owner: owner}
	for _, param := range decl.Params {
		signature.ParamNames = append(signature.ParamNames, param.Name)
		signature.ParamTypes = append(signature.ParamTypes, TypeOfName(param.TypeName))
	}
	return signature
}
