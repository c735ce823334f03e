// Package symbols defines the capability interfaces the analysis core needs
// from a type system: identity, members, base types, interfaces and generic
// arguments.
package symbols

import "strings"

// TypeKind classifies a type symbol.
type TypeKind string

const (
	Class         TypeKind = "class"
	Struct        TypeKind = "struct"
	Interface     TypeKind = "interface"
	Enum          TypeKind = "enum"
	Array         TypeKind = "array"
	TypeParameter TypeKind = "type-parameter"
	Error         TypeKind = "error"
)

// MemberKind classifies a member symbol.
type MemberKind string

const (
	Field     MemberKind = "field"
	Property  MemberKind = "property"
	Method    MemberKind = "method"
	Parameter MemberKind = "parameter"
)

// Type is an opaque handle to a type known to the host compiler.
//
// Implementations must return the same value for the same constructed type
// within one compilation so that reference identity can be used for cycle
// detection.
type Type interface {
	// Name is the simple source name, e.g. "Node".
	Name() string
	// MetadataName is the arity-qualified name, e.g. "Node`1".
	MetadataName() string
	// Namespace is the dotted containing namespace, "" for the global one.
	Namespace() string
	Kind() TypeKind
	// OriginalDefinition returns the unconstructed definition. A definition
	// returns itself.
	OriginalDefinition() Type
	// TypeArguments returns the generic arguments. For a generic definition
	// these are its type parameters.
	TypeArguments() []Type
	BaseType() Type
	Interfaces() []Type
	// Members returns the members declared directly on this type.
	Members() []Member
	// IsObject reports whether this is the universal base object type.
	IsObject() bool
}

// Member is a field, property, method or constructor parameter of a type.
type Member interface {
	Name() string
	// UniqueName disambiguates overloads, e.g. "Calculate_Int32_String".
	UniqueName() string
	Kind() MemberKind
	// Type is the field/property/parameter type or the method return type.
	Type() Type
}

// Ordinal is implemented by type parameters.
type Ordinal interface {
	Ordinal() int
}

// QualifiedName returns the fully qualified display name of t, including
// generic arguments: "global::Demo.Node<T>".
func QualifiedName(t Type) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	writeQualified(&b, t, true)
	return b.String()
}

// DisplayName is QualifiedName without the global alias prefix.
func DisplayName(t Type) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	writeQualified(&b, t, false)
	return b.String()
}

func writeQualified(b *strings.Builder, t Type, global bool) {
	switch t.Kind() {
	case TypeParameter:
		b.WriteString(t.Name())
		return
	case Array:
		args := t.TypeArguments()
		if len(args) == 1 {
			writeQualified(b, args[0], global)
		}
		b.WriteString("[]")
		return
	}
	if global && t.Kind() != Error {
		b.WriteString("global::")
	}
	if ns := t.Namespace(); ns != "" {
		b.WriteString(ns)
		b.WriteByte('.')
	}
	b.WriteString(t.Name())
	args := t.TypeArguments()
	if len(args) == 0 {
		return
	}
	b.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		writeQualified(b, a, global)
	}
	b.WriteByte('>')
}

// maxBaseDepth bounds base chain walks over invalid, circular declarations.
const maxBaseDepth = 64

// BaseChain returns t followed by its transitive base types.
func BaseChain(t Type) []Type {
	var chain []Type
	for cur := t; cur != nil && len(chain) < maxBaseDepth; cur = cur.BaseType() {
		chain = append(chain, cur)
	}
	return chain
}

// FindInChain returns the first type in t's base chain matching pred.
func FindInChain(t Type, pred func(Type) bool) (Type, bool) {
	for _, c := range BaseChain(t) {
		if pred(c) {
			return c, true
		}
	}
	return nil, false
}

// IsDefinition reports whether t's original definition has the given
// namespace and simple name.
func IsDefinition(t Type, namespace, name string) bool {
	if t == nil {
		return false
	}
	def := t.OriginalDefinition()
	return def.Namespace() == namespace && def.Name() == name
}

// IsRelevant reports whether a member takes part in path navigation.
func IsRelevant(m Member) bool {
	switch m.Kind() {
	case Field, Property, Method, Parameter:
		return true
	default:
		return false
	}
}

// AllMembers returns the relevant members of t and its bases. A member
// hidden by a more derived member with the same unique name is skipped.
func AllMembers(t Type) []Member {
	seen := make(map[string]struct{})
	var out []Member
	for _, c := range BaseChain(t) {
		for _, m := range c.Members() {
			if !IsRelevant(m) {
				continue
			}
			if _, dup := seen[m.UniqueName()]; dup {
				continue
			}
			seen[m.UniqueName()] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

// MembersMatching returns the members of t and its bases whose name or
// unique name equals key.
func MembersMatching(t Type, key string) []Member {
	var out []Member
	for _, m := range AllMembers(t) {
		if m.Name() == key || m.UniqueName() == key {
			out = append(out, m)
		}
	}
	return out
}
