package semantic

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/twizzar/fixturegen/internal/lang"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// scope is the name-lookup context at one syntax position.
type scope struct {
	namespace string
	usings    []string
	// typeParams of the enclosing type declarations, innermost first.
	typeParams []*TypeParam
	enclosing  *NamedType
}

// scopeAt computes the lookup scope at node. node itself counts as an
// enclosing declaration when it declares a type.
func (m *Model) scopeAt(f *parse.File, node *sitter.Node) scope {
	var sc scope
	var names []string
	for cur := node; cur != nil; cur = cur.Parent() {
		switch {
		case lang.IsTypeDeclaration(cur):
			if t, ok := m.DeclaredType(f, cur); ok {
				if sc.enclosing == nil {
					sc.enclosing = t
				}
				sc.typeParams = append(sc.typeParams, t.params...)
			}
		case cur.Type() == lang.NamespaceDeclaration:
			if n := cur.ChildByFieldName("name"); n != nil {
				names = append(names, lang.CollapseWhitespace(f.Text(n)))
			}
			if body := lang.FirstChildOfType(cur, lang.DeclarationList); body != nil {
				sc.usings = append(sc.usings, usings(f, body)...)
			}
		case cur.Type() == lang.CompilationUnit:
			sc.usings = append(sc.usings, usings(f, cur)...)
			if fs := lang.FirstChildOfType(cur, lang.FileScopedNamespace); fs != nil {
				if n := fs.ChildByFieldName("name"); n != nil {
					names = append(names, lang.CollapseWhitespace(f.Text(n)))
				}
				sc.usings = append(sc.usings, usings(f, fs)...)
			}
		}
	}
	for i := len(names) - 1; i >= 0; i-- {
		if sc.namespace == "" {
			sc.namespace = names[i]
		} else {
			sc.namespace += "." + names[i]
		}
	}
	return sc
}

// usings returns the namespaces imported by plain using directives directly
// below node. Aliases and static imports are ignored.
func usings(f *parse.File, node *sitter.Node) []string {
	var out []string
	for _, u := range lang.ChildrenOfType(node, lang.UsingDirective) {
		skip := false
		for i := 0; i < int(u.ChildCount()); i++ {
			switch u.Child(i).Type() {
			case "static", "=", "name_equals":
				skip = true
			}
		}
		if skip {
			continue
		}
		if n := lang.FirstChildOfType(u, lang.QualifiedName, lang.Identifier); n != nil {
			out = append(out, strings.ReplaceAll(lang.CollapseWhitespace(f.Text(n)), " ", ""))
		}
	}
	return out
}

// ResolveTypeSyntax resolves a type syntax node in its own scope. It returns
// nil for `var` and for a nil node.
func (m *Model) ResolveTypeSyntax(f *parse.File, node *sitter.Node) symbols.Type {
	if node == nil {
		return nil
	}
	return m.resolveTypeIn(f, node, m.scopeAt(f, node))
}

// NamespaceAt returns the namespace enclosing node.
func (m *Model) NamespaceAt(f *parse.File, node *sitter.Node) string {
	return m.scopeAt(f, node).namespace
}

func (m *Model) resolveTypeIn(f *parse.File, node *sitter.Node, sc scope) symbols.Type {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case lang.PredefinedType:
		if t, ok := m.keywords[f.Text(node)]; ok {
			return t
		}
		return m.errorType("", f.Text(node), 0)
	case lang.Identifier:
		name := f.Text(node)
		if name == "var" {
			return nil
		}
		if t, ok := m.keywords[name]; ok && name == "dynamic" {
			return t
		}
		return m.lookupName(name, nil, sc)
	case lang.GenericName:
		return m.lookupName(lang.SimpleName(node, f.Source), m.resolveArgs(f, node, sc), sc)
	case lang.QualifiedName:
		return m.resolveQualified(f, node, sc)
	case lang.NullableType:
		if inner := lang.Field(node, "type"); inner != nil {
			return m.resolveTypeIn(f, inner, sc)
		}
		if children := lang.NamedChildren(node); len(children) > 0 {
			return m.resolveTypeIn(f, children[0], sc)
		}
	case lang.ArrayType:
		elem := lang.Field(node, "type")
		if elem == nil {
			if children := lang.NamedChildren(node); len(children) > 0 {
				elem = children[0]
			}
		}
		if elem != nil {
			if et := m.resolveTypeIn(f, elem, sc); et != nil {
				return m.array(et)
			}
		}
	case lang.ImplicitType:
		return nil
	}
	return m.errorType(sc.namespace, lang.CollapseWhitespace(f.Text(node)), 0)
}

func (m *Model) resolveArgs(f *parse.File, node *sitter.Node, sc scope) []symbols.Type {
	argNodes := lang.TypeArguments(node)
	args := make([]symbols.Type, 0, len(argNodes))
	for _, a := range argNodes {
		t := m.resolveTypeIn(f, a, sc)
		if t == nil {
			t = m.errorType(sc.namespace, lang.CollapseWhitespace(f.Text(a)), 0)
		}
		args = append(args, t)
	}
	return args
}

func (m *Model) resolveQualified(f *parse.File, node *sitter.Node, sc scope) symbols.Type {
	text := strings.ReplaceAll(lang.CollapseWhitespace(f.Text(node)), " ", "")
	if i := strings.IndexByte(text, '<'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimPrefix(text, "global::")
	qualifier := parentNamespace(text)
	name := lang.SimpleName(node, f.Source)
	args := m.resolveArgs(f, node, sc)

	candidates := []string{qualifier}
	for ns := sc.namespace; ns != ""; ns = parentNamespace(ns) {
		candidates = append(candidates, ns+"."+qualifier)
	}
	for _, ns := range candidates {
		if def, ok := m.defs[defKey(ns, name, len(args))]; ok {
			return m.construct(def, args)
		}
	}
	return m.construct(m.errorType(qualifier, name, len(args)), args)
}

// lookupName resolves a simple type name: enclosing type parameters, then
// the enclosing namespaces from the innermost out, then using directives.
// Unknown names become error types in the current namespace.
func (m *Model) lookupName(name string, args []symbols.Type, sc scope) symbols.Type {
	if len(args) == 0 {
		for _, p := range sc.typeParams {
			if p.name == name {
				return p
			}
		}
	}
	for ns := sc.namespace; ; ns = parentNamespace(ns) {
		if def, ok := m.defs[defKey(ns, name, len(args))]; ok {
			return m.construct(def, args)
		}
		if ns == "" {
			break
		}
	}
	for _, u := range sc.usings {
		if def, ok := m.defs[defKey(u, name, len(args))]; ok {
			return m.construct(def, args)
		}
	}
	return m.construct(m.errorType(sc.namespace, name, len(args)), args)
}
