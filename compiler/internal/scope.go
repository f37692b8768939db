package internal

import "fmt"

// Scope is one lexical environment. Each block, function and class body owns a scope that refers
// to its enclosing scope; the global scope has no parent.
type Scope struct {
	parent  *Scope
	symbols map[string]*Type
}

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("variable `%s` is already declared in this scope", e.Name)
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: map[string]*Type{}}
}

func (scope *Scope) Child() *Scope {
	return NewScope(scope)
}

func (scope *Scope) Parent() *Scope {
	return scope.parent
}

// Declare binds name in this scope. It fails without touching the existing binding when the name
// is already declared here; names of enclosing scopes may be shadowed.
func (scope *Scope) Declare(name string, t *Type) error {
	if _, ok := scope.symbols[name]; ok {
		return &DuplicateNameError{Name: name}
	}
	scope.symbols[name] = t
	return nil
}

// Lookup walks the scope chain outward and returns the innermost binding of name.
func (scope *Scope) Lookup(name string) (*Type, bool) {
	for s := scope; s != nil; s = s.parent {
		if t, ok := s.symbols[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (scope *Scope) LookupLocal(name string) (*Type, bool) {
	t, ok := scope.symbols[name]
	return t, ok
}
