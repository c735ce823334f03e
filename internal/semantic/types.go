package semantic

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// NamedType is a class, struct, interface, enum or unresolved type, either
// as a definition or as a constructed generic instance.
type NamedType struct {
	id        int
	model     *Model
	name      string
	namespace string
	kind      symbols.TypeKind
	special   special

	// Definitions carry their type parameters and resolved shape.
	params  []*TypeParam
	base    symbols.Type
	ifaces  []symbols.Type
	members []symbols.Member
	decls   []*declaration

	// Constructed instances point at their definition.
	def  *NamedType
	args []symbols.Type
}

type special int

const (
	notSpecial special = iota
	specialObject
)

type declaration struct {
	file *parse.File
	node *sitter.Node
}

func (t *NamedType) Name() string      { return t.name }
func (t *NamedType) Namespace() string { return t.namespace }

func (t *NamedType) Kind() symbols.TypeKind { return t.kind }
func (t *NamedType) IsObject() bool         { return t.definition().special == specialObject }

func (t *NamedType) MetadataName() string {
	arity := len(t.definition().params)
	if arity == 0 {
		return t.name
	}
	return t.name + "`" + strconv.Itoa(arity)
}

func (t *NamedType) definition() *NamedType {
	if t.def != nil {
		return t.def
	}
	return t
}

func (t *NamedType) OriginalDefinition() symbols.Type { return t.definition() }

func (t *NamedType) TypeArguments() []symbols.Type {
	if t.def != nil {
		return t.args
	}
	out := make([]symbols.Type, len(t.params))
	for i, p := range t.params {
		out[i] = p
	}
	return out
}

func (t *NamedType) substitution() map[*TypeParam]symbols.Type {
	def := t.definition()
	if t.def == nil || len(def.params) == 0 {
		return nil
	}
	m := make(map[*TypeParam]symbols.Type, len(def.params))
	for i, p := range def.params {
		if i < len(t.args) {
			m[p] = t.args[i]
		}
	}
	return m
}

func (t *NamedType) BaseType() symbols.Type {
	def := t.definition()
	if def.base == nil {
		return nil
	}
	return t.model.substitute(def.base, t.substitution())
}

func (t *NamedType) Interfaces() []symbols.Type {
	def := t.definition()
	sub := t.substitution()
	out := make([]symbols.Type, len(def.ifaces))
	for i, it := range def.ifaces {
		out[i] = t.model.substitute(it, sub)
	}
	return out
}

func (t *NamedType) Members() []symbols.Member {
	def := t.definition()
	sub := t.substitution()
	if sub == nil {
		return def.members
	}
	out := make([]symbols.Member, len(def.members))
	for i, m := range def.members {
		out[i] = t.model.substituteMember(m, sub, t)
	}
	return out
}

// TypeParam is a generic type parameter of a definition.
type TypeParam struct {
	id      int
	name    string
	ordinal int
	owner   *NamedType
}

func (p *TypeParam) Name() string                     { return p.name }
func (p *TypeParam) MetadataName() string             { return p.name }
func (p *TypeParam) Namespace() string                { return "" }
func (p *TypeParam) Kind() symbols.TypeKind           { return symbols.TypeParameter }
func (p *TypeParam) OriginalDefinition() symbols.Type { return p }
func (p *TypeParam) TypeArguments() []symbols.Type    { return nil }
func (p *TypeParam) BaseType() symbols.Type           { return nil }
func (p *TypeParam) Interfaces() []symbols.Type       { return nil }
func (p *TypeParam) Members() []symbols.Member        { return nil }
func (p *TypeParam) IsObject() bool                   { return false }
func (p *TypeParam) Ordinal() int                     { return p.ordinal }

// ArrayType is a single-dimensional array of an element type.
type ArrayType struct {
	id   int
	elem symbols.Type
	base symbols.Type
}

func (a *ArrayType) Name() string                     { return a.elem.Name() + "[]" }
func (a *ArrayType) MetadataName() string             { return a.elem.MetadataName() + "[]" }
func (a *ArrayType) Namespace() string                { return a.elem.Namespace() }
func (a *ArrayType) Kind() symbols.TypeKind           { return symbols.Array }
func (a *ArrayType) OriginalDefinition() symbols.Type { return a }
func (a *ArrayType) TypeArguments() []symbols.Type    { return []symbols.Type{a.elem} }
func (a *ArrayType) BaseType() symbols.Type           { return a.base }
func (a *ArrayType) Interfaces() []symbols.Type       { return nil }
func (a *ArrayType) Members() []symbols.Member        { return nil }
func (a *ArrayType) IsObject() bool                   { return false }

// Field is a field or property.
type Field struct {
	name string
	kind symbols.MemberKind
	typ  symbols.Type
}

func (f *Field) Name() string             { return f.name }
func (f *Field) UniqueName() string       { return f.name }
func (f *Field) Kind() symbols.MemberKind { return f.kind }
func (f *Field) Type() symbols.Type       { return f.typ }

// Parameter is a method or constructor parameter. Constructor parameters
// are exposed as members of the declaring type.
type Parameter struct {
	name string
	typ  symbols.Type
}

func (p *Parameter) Name() string             { return p.name }
func (p *Parameter) UniqueName() string       { return p.name }
func (p *Parameter) Kind() symbols.MemberKind { return symbols.Parameter }
func (p *Parameter) Type() symbols.Type       { return p.typ }

// Method is a method declared on a type.
type Method struct {
	name      string
	unique    string
	params    []*Parameter
	returns   symbols.Type
	declaring symbols.Type
}

func (m *Method) Name() string             { return m.name }
func (m *Method) UniqueName() string       { return m.unique }
func (m *Method) Kind() symbols.MemberKind { return symbols.Method }
func (m *Method) Type() symbols.Type       { return m.returns }

// Namespace returns the namespace of the method's declaring definition.
func (m *Method) Namespace() string {
	if m.declaring == nil {
		return ""
	}
	return m.declaring.OriginalDefinition().Namespace()
}

func uniqueMethodName(name string, params []*Parameter) string {
	u := name
	for _, p := range params {
		if p.typ == nil {
			u += "_Unknown"
			continue
		}
		u += "_" + typeToken(p.typ)
	}
	return u
}

func typeToken(t symbols.Type) string {
	switch t.Kind() {
	case symbols.Array:
		return typeToken(t.TypeArguments()[0]) + "Array"
	case symbols.TypeParameter:
		return t.Name()
	}
	s := t.Name()
	for _, a := range t.TypeArguments() {
		s += typeToken(a)
	}
	return s
}
