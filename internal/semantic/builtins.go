package semantic

import (
	"github.com/twizzar/fixturegen/internal/symbols"
)

// keywordTypes maps C# keywords to their System type names.
var keywordTypes = map[string]string{
	"bool":    "Boolean",
	"byte":    "Byte",
	"sbyte":   "SByte",
	"char":    "Char",
	"decimal": "Decimal",
	"double":  "Double",
	"float":   "Single",
	"int":     "Int32",
	"uint":    "UInt32",
	"long":    "Int64",
	"ulong":   "UInt64",
	"short":   "Int16",
	"ushort":  "UInt16",
	"string":  "String",
	"void":    "Void",
	"nint":    "IntPtr",
	"nuint":   "UIntPtr",
}

const systemNamespace = "System"

func (m *Model) declareBuiltins() {
	m.object = m.define(&NamedType{
		name:      "Object",
		namespace: systemNamespace,
		kind:      symbols.Class,
		special:   specialObject,
	})
	m.keywords["object"] = m.object
	// dynamic erases to object.
	m.keywords["dynamic"] = m.object

	m.valueType = m.define(&NamedType{name: "ValueType", namespace: systemNamespace, kind: symbols.Class, base: m.object})
	m.enum = m.define(&NamedType{name: "Enum", namespace: systemNamespace, kind: symbols.Class, base: m.valueType})

	for kw, name := range keywordTypes {
		kind, base := symbols.Struct, symbols.Type(m.valueType)
		if name == "String" {
			kind, base = symbols.Class, m.object
		}
		t, ok := m.Lookup(systemNamespace, name, 0)
		if !ok {
			t = m.define(&NamedType{name: name, namespace: systemNamespace, kind: kind, base: base})
		}
		m.keywords[kw] = t
	}
}

// declareAPI synthesizes the fixture builder API:
//
//	class ItemBuilder<TFixtureItem> { ItemBuilder<TFixtureItem> With(object); TFixtureItem Build(); ... }
//	class ItemBuilder<TFixtureItem, TPathProvider> { ... }
//	class PathProvider<TFixtureItem> { }
func (m *Model) declareAPI() {
	ns := m.api.Namespace

	provider := &NamedType{name: m.api.PathProvider, namespace: ns, kind: symbols.Class, base: m.object}
	provider.params = m.typeParams(provider, "TFixtureItem")
	m.define(provider)

	for _, params := range [][]string{{"TFixtureItem"}, {"TFixtureItem", "TPathProvider"}} {
		b := &NamedType{name: m.api.Builder, namespace: ns, kind: symbols.Class, base: m.object}
		b.params = m.typeParams(b, params...)
		m.define(b)

		fixture := symbols.Type(b.params[0])
		m.addAPIMethod(b, "With", b, &Parameter{name: "configure", typ: m.object})
		m.addAPIMethod(b, "Build", fixture)
		m.addAPIMethod(b, "BuildMany", m.array(fixture), &Parameter{name: "count", typ: m.keywords["int"]})
	}
}

func (m *Model) addAPIMethod(owner *NamedType, name string, returns symbols.Type, params ...*Parameter) {
	m.addMethod(owner, &Method{
		name:    name,
		unique:  uniqueMethodName(name, params),
		params:  params,
		returns: returns,
	})
}
