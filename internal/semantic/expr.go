package semantic

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/twizzar/fixturegen/internal/lang"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// LocalKind classifies a name bound inside a member body.
type LocalKind int

const (
	LocalVariable LocalKind = iota
	LocalParameter
	LambdaParameter
)

// Local is a variable or parameter visible at some position.
type Local struct {
	Name string
	Kind LocalKind
	// Type is nil for implicitly typed lambda parameters and for `var`
	// locals whose initializer could not be typed.
	Type symbols.Type
	// Explicit reports whether Type comes from a written type rather than
	// from inference.
	Explicit bool
	// Lambda is the declaring lambda_expression for lambda parameters.
	Lambda *sitter.Node
}

// maxExprDepth bounds TypeOf recursion through local initializers that
// refer to themselves in invalid code.
const maxExprDepth = 32

// EnclosingType returns the definition of the innermost type declaration
// containing node.
func (m *Model) EnclosingType(f *parse.File, node *sitter.Node) (*NamedType, bool) {
	for cur := node; cur != nil; cur = cur.Parent() {
		if lang.IsTypeDeclaration(cur) {
			return m.DeclaredType(f, cur)
		}
	}
	return nil, false
}

// LookupLocal finds the local variable or parameter an identifier refers
// to.
func (m *Model) LookupLocal(f *parse.File, ident *sitter.Node) (*Local, bool) {
	return m.lookupLocal(f, ident, 0)
}

func (m *Model) lookupLocal(f *parse.File, ident *sitter.Node, depth int) (*Local, bool) {
	name := f.Text(ident)
	pos := ident.StartByte()
	for cur := ident.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Type() {
		case lang.LambdaExpression:
			for _, p := range lang.LambdaParameters(cur, f.Source) {
				if p != name {
					continue
				}
				local := &Local{Name: name, Kind: LambdaParameter, Lambda: cur}
				if list := lang.FirstChildOfType(cur, lang.ParameterList); list != nil {
					for _, pn := range lang.ChildrenOfType(list, lang.ParameterNode) {
						if lang.DeclarationName(pn, f.Source) == name {
							if tn := pn.ChildByFieldName("type"); tn != nil {
								local.Type = m.ResolveTypeSyntax(f, tn)
								local.Explicit = true
							}
						}
					}
				}
				return local, true
			}
		case lang.MethodDeclaration, lang.ConstructorDeclaration, lang.LocalFunctionStatement:
			list := lang.Field(cur, "parameters")
			if list == nil {
				list = lang.FirstChildOfType(cur, lang.ParameterList)
			}
			if list == nil {
				continue
			}
			for _, pn := range lang.ChildrenOfType(list, lang.ParameterNode) {
				if lang.DeclarationName(pn, f.Source) == name {
					return &Local{
						Name:     name,
						Kind:     LocalParameter,
						Type:     m.ResolveTypeSyntax(f, pn.ChildByFieldName("type")),
						Explicit: true,
					}, true
				}
			}
		case "block", lang.CompilationUnit:
			if local, ok := m.localIn(f, cur, name, pos, depth); ok {
				return local, true
			}
		}
		if lang.IsTypeDeclaration(cur) {
			break
		}
	}
	return nil, false
}

// localIn finds a local declared by a statement of block that starts before
// pos.
func (m *Model) localIn(f *parse.File, block *sitter.Node, name string, pos uint32, depth int) (*Local, bool) {
	for _, stmt := range lang.NamedChildren(block) {
		if stmt.StartByte() >= pos {
			break
		}
		if stmt.Type() == "global_statement" {
			if inner := lang.FirstChildOfType(stmt, lang.LocalDeclarationStatement); inner != nil {
				stmt = inner
			}
		}
		if stmt.Type() != lang.LocalDeclarationStatement {
			continue
		}
		decl := lang.FirstChildOfType(stmt, lang.VariableDeclaration)
		if decl == nil {
			continue
		}
		for _, v := range lang.ChildrenOfType(decl, lang.VariableDeclarator) {
			if lang.DeclarationName(v, f.Source) != name {
				continue
			}
			local := &Local{Name: name, Kind: LocalVariable}
			typeNode := decl.ChildByFieldName("type")
			if typ := m.ResolveTypeSyntax(f, typeNode); typ != nil {
				local.Type = typ
				local.Explicit = true
			} else if init := initializer(v); init != nil && depth < maxExprDepth {
				local.Type = m.typeOf(f, init, depth+1)
			}
			return local, true
		}
	}
	return nil, false
}

// initializer returns the expression assigned by a variable declarator.
func initializer(declarator *sitter.Node) *sitter.Node {
	if eq := lang.FirstChildOfType(declarator, lang.EqualsValueClause); eq != nil {
		if children := lang.NamedChildren(eq); len(children) > 0 {
			return children[0]
		}
		return nil
	}
	if v := declarator.ChildByFieldName("value"); v != nil {
		return v
	}
	children := lang.NamedChildren(declarator)
	if len(children) > 1 {
		return children[len(children)-1]
	}
	return nil
}

// TypeOf returns the type of an expression, or nil when the model cannot
// tell.
func (m *Model) TypeOf(f *parse.File, expr *sitter.Node) symbols.Type {
	return m.typeOf(f, expr, 0)
}

func (m *Model) typeOf(f *parse.File, expr *sitter.Node, depth int) symbols.Type {
	if expr == nil || depth > maxExprDepth {
		return nil
	}
	switch {
	case lang.IsThis(expr):
		if t, ok := m.EnclosingType(f, expr); ok {
			return t
		}
		return nil
	case lang.IsBase(expr):
		if t, ok := m.EnclosingType(f, expr); ok {
			return t.BaseType()
		}
		return nil
	}

	switch expr.Type() {
	case lang.ObjectCreationExpression:
		return m.ResolveTypeSyntax(f, expr.ChildByFieldName("type"))
	case lang.CastExpression:
		return m.ResolveTypeSyntax(f, expr.ChildByFieldName("type"))
	case lang.ParenthesizedExpression:
		if children := lang.NamedChildren(expr); len(children) > 0 {
			return m.typeOf(f, children[0], depth+1)
		}
	case lang.Identifier:
		if local, ok := m.lookupLocal(f, expr, depth); ok {
			return local.Type
		}
		if t, ok := m.EnclosingType(f, expr); ok {
			return memberType(t, f.Text(expr))
		}
	case lang.MemberAccessExpression:
		recv := m.typeOf(f, expr.ChildByFieldName("expression"), depth+1)
		name := expr.ChildByFieldName("name")
		if recv == nil || name == nil {
			return nil
		}
		return memberType(recv, lang.SimpleName(name, f.Source))
	case lang.InvocationExpression:
		res := m.resolveInvocation(f, expr, depth+1)
		if res.Symbol != nil {
			return res.Symbol.Type()
		}
	}
	return nil
}

func memberType(t symbols.Type, name string) symbols.Type {
	for _, c := range symbols.BaseChain(t) {
		for _, mem := range c.Members() {
			if mem.Name() != name {
				continue
			}
			switch mem.Kind() {
			case symbols.Field, symbols.Property:
				return mem.Type()
			}
		}
	}
	return nil
}

// MethodResolution is the outcome of binding an invocation. Symbol is set
// when exactly one method fits; otherwise Candidates holds the methods
// overload resolution considered.
type MethodResolution struct {
	Symbol     *Method
	Candidates []*Method
	// Receiver is the type the method was looked up on, nil when unknown.
	Receiver symbols.Type
}

// ResolveInvocation binds an invocation_expression to a method.
func (m *Model) ResolveInvocation(f *parse.File, inv *sitter.Node) MethodResolution {
	return m.resolveInvocation(f, inv, 0)
}

func (m *Model) resolveInvocation(f *parse.File, inv *sitter.Node, depth int) MethodResolution {
	fn := inv.ChildByFieldName("function")
	if fn == nil {
		return MethodResolution{}
	}

	var recv symbols.Type
	var name string
	switch fn.Type() {
	case lang.MemberAccessExpression:
		nameNode := fn.ChildByFieldName("name")
		if nameNode == nil {
			return MethodResolution{}
		}
		name = lang.SimpleName(nameNode, f.Source)
		recv = m.typeOf(f, fn.ChildByFieldName("expression"), depth+1)
	case lang.Identifier, lang.GenericName:
		name = lang.SimpleName(fn, f.Source)
		if t, ok := m.EnclosingType(f, fn); ok {
			recv = t
		}
	default:
		return MethodResolution{}
	}

	argc := 0
	if args := inv.ChildByFieldName("arguments"); args != nil {
		argc = len(lang.ChildrenOfType(args, lang.ArgumentNode))
	}

	res := MethodResolution{Receiver: recv}
	var named []*Method
	if recv != nil {
		for _, mem := range symbols.AllMembers(recv) {
			if mm, ok := mem.(*Method); ok && mm.name == name {
				named = append(named, mm)
			}
		}
	}
	if len(named) == 0 {
		// Receiver unknown or without such a method: every method of that
		// name is a candidate.
		res.Candidates = m.methods[name]
		return res
	}

	var fitting []*Method
	for _, mm := range named {
		if len(mm.params) == argc {
			fitting = append(fitting, mm)
		}
	}
	switch len(fitting) {
	case 1:
		res.Symbol = fitting[0]
	case 0:
		res.Candidates = named
	default:
		res.Candidates = fitting
	}
	return res
}
