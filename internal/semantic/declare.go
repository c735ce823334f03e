package semantic

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/twizzar/fixturegen/internal/lang"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/symbols"
)

func (m *Model) declareFile(f *parse.File) {
	m.declareIn(f, f.Root())
}

func (m *Model) declareIn(f *parse.File, node *sitter.Node) {
	for _, c := range lang.NamedChildren(node) {
		switch {
		case lang.IsTypeDeclaration(c):
			m.declareType(f, c)
			if body := lang.FirstChildOfType(c, lang.DeclarationList); body != nil {
				m.declareIn(f, body)
			}
		case c.Type() == lang.NamespaceDeclaration,
			c.Type() == lang.FileScopedNamespace,
			c.Type() == lang.DeclarationList:
			m.declareIn(f, c)
		}
	}
}

func declarationKind(node *sitter.Node) symbols.TypeKind {
	switch node.Type() {
	case lang.StructDeclaration, lang.RecordStructDeclaration:
		return symbols.Struct
	case lang.InterfaceDeclaration:
		return symbols.Interface
	case lang.EnumDeclaration:
		return symbols.Enum
	default:
		return symbols.Class
	}
}

func typeParameterNames(node *sitter.Node, source []byte) []string {
	list := lang.Field(node, "type_parameters")
	if list == nil {
		list = lang.FirstChildOfType(node, lang.TypeParameterList)
	}
	if list == nil {
		return nil
	}
	var names []string
	for _, p := range lang.ChildrenOfType(list, lang.TypeParameterNode) {
		if name := lang.DeclarationName(p, source); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (m *Model) declareType(f *parse.File, node *sitter.Node) {
	name := lang.DeclarationName(node, f.Source)
	if name == "" {
		return
	}
	sc := m.scopeAt(f, node.Parent())
	params := typeParameterNames(node, f.Source)
	d := &declaration{file: f, node: node}

	// Partial declarations merge into the first one.
	if existing, ok := m.Lookup(sc.namespace, name, len(params)); ok && len(existing.decls) > 0 {
		existing.decls = append(existing.decls, d)
		m.declared[declKey{file: f.Path, start: node.StartByte()}] = existing
		return
	}

	t := &NamedType{
		name:      name,
		namespace: sc.namespace,
		kind:      declarationKind(node),
		decls:     []*declaration{d},
	}
	t.params = m.typeParams(t, params...)
	m.define(t)
	m.declared[declKey{file: f.Path, start: node.StartByte()}] = t
}

// resolveShape resolves base types and members of a source definition.
func (m *Model) resolveShape(t *NamedType) {
	var bases []symbols.Type
	for _, d := range t.decls {
		sc := m.scopeAt(d.file, d.node)
		if list := lang.FirstChildOfType(d.node, lang.BaseList); list != nil && t.kind != symbols.Enum {
			for _, typeNode := range baseTypeNodes(list) {
				bases = append(bases, m.resolveTypeIn(d.file, typeNode, sc))
			}
		}
		m.declareMembers(t, d, sc)
	}

	switch t.kind {
	case symbols.Interface:
		t.ifaces = bases
	case symbols.Struct:
		t.base = m.valueType
		t.ifaces = bases
	case symbols.Enum:
		t.base = m.enum
	default:
		t.base = m.object
		if len(bases) > 0 && isClassLike(bases[0]) {
			t.base = bases[0]
			bases = bases[1:]
		}
		t.ifaces = bases
	}
}

func baseTypeNodes(list *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range lang.NamedChildren(list) {
		switch c.Type() {
		case lang.PrimaryConstructorBaseType:
			if inner := lang.Field(c, "type"); inner != nil {
				out = append(out, inner)
			} else if children := lang.NamedChildren(c); len(children) > 0 {
				out = append(out, children[0])
			}
		case lang.ArgumentList:
			// record base arguments
		default:
			out = append(out, c)
		}
	}
	return out
}

// isClassLike reports whether a base list entry is the base class. Unresolved
// names follow the I-prefix interface convention.
func isClassLike(t symbols.Type) bool {
	switch t.Kind() {
	case symbols.Class:
		return true
	case symbols.Error:
		name := t.Name()
		return !(len(name) > 1 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z')
	}
	return false
}

func (m *Model) declareMembers(t *NamedType, d *declaration, sc scope) {
	src := d.file.Source

	// Positional records declare a property per primary constructor parameter.
	if d.node.Type() == lang.RecordDeclaration || d.node.Type() == lang.RecordStructDeclaration {
		if list := lang.FirstChildOfType(d.node, lang.ParameterList); list != nil {
			for _, p := range m.parameters(d.file, list, sc) {
				t.members = append(t.members, &Field{name: p.name, kind: symbols.Property, typ: p.typ})
			}
		}
	}

	body := lang.FirstChildOfType(d.node, lang.DeclarationList)
	if body == nil {
		return
	}
	for _, c := range lang.NamedChildren(body) {
		switch c.Type() {
		case lang.FieldDeclaration:
			decl := lang.FirstChildOfType(c, lang.VariableDeclaration)
			if decl == nil {
				continue
			}
			typ := m.resolveTypeIn(d.file, decl.ChildByFieldName("type"), sc)
			for _, v := range lang.ChildrenOfType(decl, lang.VariableDeclarator) {
				if name := lang.DeclarationName(v, src); name != "" {
					t.members = append(t.members, &Field{name: name, kind: symbols.Field, typ: typ})
				}
			}
		case lang.PropertyDeclaration:
			name := lang.DeclarationName(c, src)
			if name == "" {
				continue
			}
			typ := m.resolveTypeIn(d.file, c.ChildByFieldName("type"), sc)
			t.members = append(t.members, &Field{name: name, kind: symbols.Property, typ: typ})
		case lang.MethodDeclaration:
			name := lang.DeclarationName(c, src)
			if name == "" {
				continue
			}
			var params []*Parameter
			if list := lang.Field(c, "parameters"); list != nil {
				params = m.parameters(d.file, list, sc)
			} else if list := lang.FirstChildOfType(c, lang.ParameterList); list != nil {
				params = m.parameters(d.file, list, sc)
			}
			m.addMethod(t, &Method{
				name:    name,
				unique:  uniqueMethodName(name, params),
				params:  params,
				returns: m.resolveTypeIn(d.file, lang.MethodReturnType(c), sc),
			})
		case lang.ConstructorDeclaration:
			list := lang.FirstChildOfType(c, lang.ParameterList)
			if list == nil {
				continue
			}
			for _, p := range m.parameters(d.file, list, sc) {
				if !hasMember(t, p.name) {
					t.members = append(t.members, p)
				}
			}
		}
	}
}

func hasMember(t *NamedType, name string) bool {
	for _, m := range t.members {
		if m.Name() == name {
			return true
		}
	}
	return false
}

func (m *Model) parameters(f *parse.File, list *sitter.Node, sc scope) []*Parameter {
	var out []*Parameter
	for _, p := range lang.ChildrenOfType(list, lang.ParameterNode) {
		name := lang.DeclarationName(p, f.Source)
		if name == "" {
			continue
		}
		out = append(out, &Parameter{name: name, typ: m.resolveTypeIn(f, p.ChildByFieldName("type"), sc)})
	}
	return out
}
