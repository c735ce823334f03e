package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twizzar/fixturegen/internal/config"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/pathtree"
	"github.com/twizzar/fixturegen/internal/semantic"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// fakeType is a hand-built symbol for shapes the C# model cannot declare.
type fakeType struct {
	name, namespace string
	kind            symbols.TypeKind
	def             *fakeType
	args            []symbols.Type
	base            symbols.Type
	ifaces          []symbols.Type
	members         []symbols.Member
	object          bool
}

func (f *fakeType) Name() string           { return f.name }
func (f *fakeType) MetadataName() string   { return f.name }
func (f *fakeType) Namespace() string      { return f.namespace }
func (f *fakeType) Kind() symbols.TypeKind { return f.kind }
func (f *fakeType) OriginalDefinition() symbols.Type {
	if f.def != nil {
		return f.def
	}
	return f
}
func (f *fakeType) TypeArguments() []symbols.Type { return f.args }
func (f *fakeType) BaseType() symbols.Type        { return f.base }
func (f *fakeType) Interfaces() []symbols.Type    { return f.ifaces }
func (f *fakeType) Members() []symbols.Member     { return f.members }
func (f *fakeType) IsObject() bool                { return f.object }

type fakeMember struct {
	name string
	typ  symbols.Type
}

func (m *fakeMember) Name() string             { return m.name }
func (m *fakeMember) UniqueName() string       { return m.name }
func (m *fakeMember) Kind() symbols.MemberKind { return symbols.Property }
func (m *fakeMember) Type() symbols.Type       { return m.typ }

func model(t *testing.T, source string) *semantic.Model {
	t.Helper()
	forest, err := parse.Sources(context.Background(), []string{"Types.cs"}, map[string]string{"Types.cs": source})
	require.NoError(t, err)
	t.Cleanup(forest.Close)
	m, err := semantic.Build(context.Background(), forest, config.DefaultAPI())
	require.NoError(t, err)
	return m
}

func lookup(t *testing.T, m *semantic.Model, name string, arity int) *semantic.NamedType {
	t.Helper()
	typ, ok := m.Lookup("Demo", name, arity)
	require.True(t, ok, "Demo.%s`%d not declared", name, arity)
	return typ
}

const carV1 = `
namespace Demo
{
    public class Engine { public int Cylinders; public string Vendor; }
    public class Car
    {
        public Engine Engine { get; set; }
        public int Speed;
    }
}
`

// Same Car, but an unreferenced member changed type.
const carV2 = `
namespace Demo
{
    public class Engine { public int Cylinders; public string Vendor; }
    public class Car
    {
        public Engine Engine { get; set; }
        public string Speed;
    }
}
`

// Same Car, but a member reached through the tree changed type.
const carV3 = `
namespace Demo
{
    public class Engine { public long Cylinders; public string Vendor; }
    public class Car
    {
        public Engine Engine { get; set; }
        public int Speed;
    }
}
`

func TestHashReflexive(t *testing.T) {
	t.Parallel()

	car := lookup(t, model(t, carV1), "Car", 0)
	tree := pathtree.Build([][]string{{"Engine", "Cylinders"}})

	for _, c := range []Comparer{New(tree), New(nil), Unscoped()} {
		assert.Equal(t, c.Hash(car), c.Hash(car))
		assert.True(t, c.Equal(car, car))
	}
}

func TestScopeSensitivity(t *testing.T) {
	t.Parallel()

	v1 := lookup(t, model(t, carV1), "Car", 0)
	v2 := lookup(t, model(t, carV2), "Car", 0)
	v3 := lookup(t, model(t, carV3), "Car", 0)
	tree := pathtree.Build([][]string{{"Engine", "Cylinders"}})

	scoped := New(tree)
	assert.True(t, scoped.Equal(v1, v2), "unreferenced member change must not matter")
	assert.Equal(t, scoped.Hash(v1), scoped.Hash(v2))
	assert.False(t, scoped.Equal(v1, v3), "referenced member change must matter")
	assert.NotEqual(t, scoped.Hash(v1), scoped.Hash(v3))

	full := Unscoped()
	assert.False(t, full.Equal(v1, v2))
	assert.NotEqual(t, full.Hash(v1), full.Hash(v2))
}

func TestScopeMatchesOverloadsByName(t *testing.T) {
	t.Parallel()

	src := func(ret string) string {
		return `
namespace Demo
{
    public class Calc
    {
        public int Add(int a) { return 0; }
        public ` + ret + ` Add(int a, int b) { return 0; }
    }
}
`
	}
	a := lookup(t, model(t, src("int")), "Calc", 0)
	b := lookup(t, model(t, src("long")), "Calc", 0)

	assert.False(t, New(pathtree.Build([][]string{{"Add"}})).Equal(a, b))
	assert.True(t, New(pathtree.Build([][]string{{"Add_Int32"}})).Equal(a, b))
	assert.False(t, New(pathtree.Build([][]string{{"Add_Int32_Int32"}})).Equal(a, b))
}

func TestGenericArgumentsAlwaysCompared(t *testing.T) {
	t.Parallel()

	m := model(t, `
namespace Demo
{
    public class Box<T> { public T Value; }
    public class Holder { public Box<int> A; public Box<string> B; public Box<int> C; }
}
`)
	holder := lookup(t, m, "Holder", 0)
	members := holder.Members()
	require.Len(t, members, 3)

	c := New(nil)
	assert.False(t, c.Equal(members[0].Type(), members[1].Type()))
	assert.True(t, c.Equal(members[0].Type(), members[2].Type()))
}

func TestBaseAndInterfaces(t *testing.T) {
	t.Parallel()

	m := model(t, `
namespace Demo
{
    public interface IA { }
    public interface IB { }
    public class Base { }
    public class X : Base, IA, IB { }
    public class Y : Base, IB, IA { }
    public class Z : IA, IB { }
}
`)
	x, y, z := lookup(t, m, "X", 0), lookup(t, m, "Y", 0), lookup(t, m, "Z", 0)
	c := New(nil)

	// X and Y differ in name; compare their inheritance contribution only.
	strip := func(t symbols.Type) []uint64 {
		var out []uint64
		first := true
		for v := range c.Stream(t) {
			if first {
				first = false
				continue
			}
			out = append(out, v)
		}
		return out
	}
	assert.Equal(t, strip(x), strip(y), "interface order must not matter")
	assert.NotEqual(t, strip(x), strip(z), "base type must matter")
}

func TestCycleSafety(t *testing.T) {
	t.Parallel()

	m := model(t, `
namespace Demo
{
    public interface IEquatable<T> { }
    public class Node<T> : IEquatable<Node<Node<T>>>
    {
        public Node<Node<T>> Next;
        public T Value;
    }
    public class A : IEquatable<A> { public A Self; public A[] Many; }
}
`)
	node := lookup(t, m, "Node", 1)
	a := lookup(t, m, "A", 0)
	deep := pathtree.Build([][]string{{"Next", "Next", "Next", "Value"}})

	for _, c := range []Comparer{New(deep), New(nil), Unscoped()} {
		for _, typ := range []symbols.Type{node, a} {
			h := c.Hash(typ)
			assert.Equal(t, h, c.Hash(typ))
		}
	}
}

func TestFakeSelfReferentialGeneric(t *testing.T) {
	t.Parallel()

	object := &fakeType{name: "Object", namespace: "System", kind: symbols.Class, object: true}
	def := &fakeType{name: "Node`1", namespace: "Demo", kind: symbols.Class, base: object}
	// Node<Node<...>> where the argument is the type itself.
	self := &fakeType{name: "Node`1", namespace: "Demo", kind: symbols.Class, def: def, base: object}
	self.args = []symbols.Type{self}
	self.members = []symbols.Member{&fakeMember{name: "Next", typ: self}}

	for _, c := range []Comparer{New(pathtree.Build([][]string{{"Next", "Next"}})), Unscoped()} {
		assert.Equal(t, c.Hash(self), c.Hash(self))
		assert.True(t, c.Equal(self, self))
	}
}

func TestObjectAndNilSentinels(t *testing.T) {
	t.Parallel()

	m := model(t, `namespace Demo { public class D { public dynamic X; public object Y; } }`)
	d := lookup(t, m, "D", 0)
	members := d.Members()
	require.Len(t, members, 2)

	c := New(nil)
	assert.True(t, c.Equal(members[0].Type(), members[1].Type()))
	assert.True(t, c.Equal(nil, nil))
	assert.False(t, c.Equal(nil, m.Object()))
}

func TestEqualRejectsDifferentArity(t *testing.T) {
	t.Parallel()

	m := model(t, `
namespace Demo
{
    public class One<T> { }
    public class Two { }
}
`)
	one, two := lookup(t, m, "One", 1), lookup(t, m, "Two", 0)
	assert.False(t, Unscoped().Equal(one, two))
}
