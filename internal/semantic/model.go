// Package semantic resolves C# syntax trees into type symbols.
//
// The model is deliberately small: it knows the types declared in the
// analyzed forest, the System keyword types and the fixture builder API, and
// resolves just enough expressions to find the receiver of a configuration
// call. Everything else resolves to an error type named after the source
// text, which keeps analysis of partially written code total.
package semantic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/twizzar/fixturegen/internal/config"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// Model is the semantic view of one forest. It is safe for concurrent use
// once Build returns.
type Model struct {
	api config.API

	// Declared and builtin definitions by "namespace.name`arity".
	defs map[string]*NamedType
	// Definitions by source location of their declaration node.
	declared map[declKey]*NamedType
	// Methods by simple name, for overload candidate lookup.
	methods map[string][]*Method
	// Dotted namespaces that contain at least one definition.
	namespaces map[string]struct{}
	ordered    []*NamedType

	object    *NamedType
	valueType *NamedType
	enum      *NamedType
	keywords  map[string]*NamedType

	mu          sync.Mutex
	nextID      int
	constructed map[string]*NamedType
	errors      map[string]*NamedType
	arrays      map[int]*ArrayType
}

type declKey struct {
	file  string
	start uint32
}

// Build declares every type of the forest and resolves their shapes.
func Build(ctx context.Context, forest *parse.Forest, api config.API) (*Model, error) {
	m := &Model{
		api:         api,
		defs:        make(map[string]*NamedType),
		declared:    make(map[declKey]*NamedType),
		methods:     make(map[string][]*Method),
		namespaces:  make(map[string]struct{}),
		keywords:    make(map[string]*NamedType),
		constructed: make(map[string]*NamedType),
		errors:      make(map[string]*NamedType),
		arrays:      make(map[int]*ArrayType),
	}
	m.declareBuiltins()
	m.declareAPI()

	for _, f := range forest.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.declareFile(f)
	}
	for _, t := range m.ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(t.decls) > 0 {
			m.resolveShape(t)
		}
	}
	return m, nil
}

// API returns the builder API the model was built for.
func (m *Model) API() config.API {
	return m.api
}

// Object returns System.Object.
func (m *Model) Object() symbols.Type {
	return m.object
}

// Lookup returns the definition with the given namespace, name and arity.
func (m *Model) Lookup(namespace, name string, arity int) (*NamedType, bool) {
	t, ok := m.defs[defKey(namespace, name, arity)]
	return t, ok
}

// Types returns every definition declared in source, in declaration order.
func (m *Model) Types() []*NamedType {
	var out []*NamedType
	for _, t := range m.ordered {
		if len(t.decls) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// DeclaredType returns the definition declared by a type declaration node.
func (m *Model) DeclaredType(f *parse.File, node *sitter.Node) (*NamedType, bool) {
	t, ok := m.declared[declKey{file: f.Path, start: node.StartByte()}]
	return t, ok
}

// IsBuilder reports whether t is the API builder definition or one of its
// constructions.
func (m *Model) IsBuilder(t symbols.Type) bool {
	return symbols.IsDefinition(t, m.api.Namespace, m.api.Builder)
}

// IsPathProvider reports whether t is the API path provider base.
func (m *Model) IsPathProvider(t symbols.Type) bool {
	return symbols.IsDefinition(t, m.api.Namespace, m.api.PathProvider)
}

func defKey(namespace, name string, arity int) string {
	k := name
	if namespace != "" {
		k = namespace + "." + name
	}
	if arity > 0 {
		k += "`" + strconv.Itoa(arity)
	}
	return k
}

func (m *Model) newID() int {
	m.nextID++
	return m.nextID
}

func (m *Model) define(t *NamedType) *NamedType {
	t.model = m
	t.id = m.newID()
	m.defs[defKey(t.namespace, t.name, len(t.params))] = t
	m.ordered = append(m.ordered, t)
	for ns := t.namespace; ns != ""; ns = parentNamespace(ns) {
		m.namespaces[ns] = struct{}{}
	}
	return t
}

func (m *Model) typeParams(owner *NamedType, names ...string) []*TypeParam {
	out := make([]*TypeParam, len(names))
	for i, n := range names {
		out[i] = &TypeParam{id: m.newID(), name: n, ordinal: i, owner: owner}
	}
	return out
}

func (m *Model) addMethod(owner *NamedType, method *Method) {
	method.declaring = owner
	owner.members = append(owner.members, method)
	m.methods[method.name] = append(m.methods[method.name], method)
}

// construct returns the interned instance of def with args.
func (m *Model) construct(def *NamedType, args []symbols.Type) *NamedType {
	if len(args) == 0 || len(def.params) != len(args) {
		return def
	}
	identity := true
	for i, a := range args {
		if p, ok := a.(*TypeParam); !ok || p != def.params[i] {
			identity = false
			break
		}
	}
	if identity {
		return def
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(def.id))
	for _, a := range args {
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(m.idOf(a)))
	}
	key := b.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.constructed[key]; ok {
		return t
	}
	t := &NamedType{
		id:        m.newID(),
		model:     m,
		name:      def.name,
		namespace: def.namespace,
		kind:      def.kind,
		def:       def,
		args:      append([]symbols.Type(nil), args...),
	}
	m.constructed[key] = t
	return t
}

func (m *Model) idOf(t symbols.Type) int {
	switch v := t.(type) {
	case *NamedType:
		return v.id
	case *TypeParam:
		return v.id
	case *ArrayType:
		return v.id
	}
	return 0
}

func (m *Model) array(elem symbols.Type) *ArrayType {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.idOf(elem)
	if a, ok := m.arrays[key]; ok {
		return a
	}
	a := &ArrayType{id: m.newID(), elem: elem, base: m.object}
	m.arrays[key] = a
	return a
}

// errorType returns the interned unresolved type name in namespace.
func (m *Model) errorType(namespace, name string, arity int) *NamedType {
	key := defKey(namespace, name, arity)
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.errors[key]; ok {
		return t
	}
	t := &NamedType{
		id:        m.newID(),
		model:     m,
		name:      name,
		namespace: namespace,
		kind:      symbols.Error,
	}
	names := make([]string, arity)
	for i := range names {
		names[i] = "T" + strconv.Itoa(i)
	}
	for i, n := range names {
		t.params = append(t.params, &TypeParam{id: m.newID(), name: n, ordinal: i, owner: t})
	}
	m.errors[key] = t
	return t
}

func (m *Model) substitute(t symbols.Type, sub map[*TypeParam]symbols.Type) symbols.Type {
	if t == nil || len(sub) == 0 {
		return t
	}
	switch v := t.(type) {
	case *TypeParam:
		if r, ok := sub[v]; ok {
			return r
		}
		return v
	case *ArrayType:
		return m.array(m.substitute(v.elem, sub))
	case *NamedType:
		args := v.TypeArguments()
		if len(args) == 0 {
			return v
		}
		changed := false
		out := make([]symbols.Type, len(args))
		for i, a := range args {
			out[i] = m.substitute(a, sub)
			if out[i] != a {
				changed = true
			}
		}
		if !changed {
			return v
		}
		return m.construct(v.definition(), out)
	}
	return t
}

func (m *Model) substituteMember(member symbols.Member, sub map[*TypeParam]symbols.Type, owner symbols.Type) symbols.Member {
	switch v := member.(type) {
	case *Field:
		return &Field{name: v.name, kind: v.kind, typ: m.substitute(v.typ, sub)}
	case *Parameter:
		return &Parameter{name: v.name, typ: m.substitute(v.typ, sub)}
	case *Method:
		params := make([]*Parameter, len(v.params))
		for i, p := range v.params {
			params[i] = &Parameter{name: p.name, typ: m.substitute(p.typ, sub)}
		}
		return &Method{
			name:      v.name,
			unique:    v.unique,
			params:    params,
			returns:   m.substitute(v.returns, sub),
			declaring: owner,
		}
	}
	return member
}

func parentNamespace(ns string) string {
	if i := strings.LastIndexByte(ns, '.'); i >= 0 {
		return ns[:i]
	}
	return ""
}

// String summarizes the model for debugging.
func (m *Model) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("semantic.Model{%d definitions, %d constructed}", len(m.ordered), len(m.constructed))
}
