package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twizzar/fixturegen/internal/config"
	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/semantic"
	"github.com/twizzar/fixturegen/internal/symbols"
)

const domain = `
namespace Demo
{
    public class Engine { public int Cylinders { get; set; } }
    public class Member1Type { public int Member2; }
    public class Car
    {
        public Engine Engine { get; set; }
        public Member1Type Member1 { get; set; }
        public int Member3;
        public string Name;
    }
}
`

func analyze(t *testing.T, sources ...string) (*Discoverer, *parse.Forest) {
	t.Helper()
	paths := make([]string, len(sources))
	files := make(map[string]string, len(sources))
	for i, s := range sources {
		paths[i] = fmt.Sprintf("File%d.cs", i)
		files[paths[i]] = s
	}
	forest, err := parse.Sources(context.Background(), paths, files)
	require.NoError(t, err)
	t.Cleanup(forest.Close)

	m, err := semantic.Build(context.Background(), forest, config.DefaultAPI())
	require.NoError(t, err)
	return New(m, nil), forest
}

func TestBuilderCreationDefaultProvider(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, `
using Twizzar.Fixture;
namespace Demo
{
    public class Tests
    {
        public void Run()
        {
            new ItemBuilder<int>();
        }
    }
}
`)
	facts, err := d.Discover(context.Background(), forest.Files[0])
	require.NoError(t, err)
	require.Len(t, facts, 1, dump(facts))

	creation, ok := facts[0].(model.BuilderCreation)
	require.True(t, ok, "got %T", facts[0])
	assert.Equal(t, "Int32", creation.Target.Name())
	assert.Equal(t, "System", creation.Target.Namespace())
	assert.Equal(t, "Twizzar.Fixture", creation.Identity.Namespace)
	assert.Equal(t, "Int32Path", creation.Identity.Name)
	assert.Equal(t, 9, creation.Loc.Line)
}

func TestBuilderCreationExplicitProvider(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, domain, `
using Twizzar.Fixture;
namespace Demo
{
    public class Tests
    {
        public void Run() { var b = new ItemBuilder<Car, CarPath>(); }
    }
}
`)
	creations, err := d.BuilderCreations(context.Background(), forest.Files[1])
	require.NoError(t, err)
	require.Len(t, creations, 1)
	assert.Equal(t, "Demo.Car", symbols.DisplayName(creations[0].Target))
	assert.Equal(t, model.ProviderKey{Target: "Demo.Car", Namespace: "Demo", Name: "CarPath"}, creations[0].Identity.Key())
}

func TestBuilderCreationIgnoresForeignBuilders(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, `
namespace Other { public class ItemBuilder<T> { } }
namespace Demo
{
    using Other;
    public class Tests { public void Run() { new ItemBuilder<int>(); } }
}
`)
	creations, err := d.BuilderCreations(context.Background(), forest.Files[0])
	require.NoError(t, err)
	assert.Empty(t, creations)
}

func TestMemberSelectionOnCreatedBuilder(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, `
using Twizzar.Fixture;
namespace Demo
{
    public class Tests
    {
        public void Run()
        {
            new ItemBuilder<int>().With(p => p.Member1.Member2.Value(3));
        }
    }
}
`)
	selections, err := d.MemberSelections(context.Background(), forest.Files[0])
	require.NoError(t, err)
	require.Len(t, selections, 1, dump(selections))

	s := selections[0]
	assert.Equal(t, "p", s.Identifier)
	assert.Equal(t, []string{"Member1", "Member2"}, s.Chain)
	assert.Equal(t, "Int32Path", s.Identity.Name)
	assert.Equal(t, "Twizzar.Fixture", s.Identity.Namespace)
}

func TestMemberSelectionsInCustomBuilder(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, domain, `
using Twizzar.Fixture;
namespace Demo
{
    public class CarBuilder : ItemBuilder<Car, CarPath>
    {
        public CarBuilder()
        {
            this.With(p => p.Member3.Value(3));
            With(p => p.Member1.InstanceOf<Car>());
        }
    }
}
`)
	facts, err := d.Discover(context.Background(), forest.Files[1])
	require.NoError(t, err)
	require.Len(t, facts, 3, dump(facts))

	custom, ok := facts[0].(model.CustomBuilderDeclaration)
	require.True(t, ok, "got %T", facts[0])
	assert.Equal(t, "Demo.CarBuilder", custom.Builder)
	assert.Equal(t, "CarPath", custom.Identity.Name)
	assert.Equal(t, "Demo", custom.Identity.Namespace)

	first := facts[1].(model.MemberSelection)
	second := facts[2].(model.MemberSelection)
	assert.Equal(t, []string{"Member3"}, first.Chain)
	assert.Equal(t, []string{"Member1"}, second.Chain)
	assert.Equal(t, custom.Identity.Key(), first.Identity.Key())
	assert.Equal(t, custom.Identity.Key(), second.Identity.Key())
}

func TestCustomBuilderThroughIntermediateBase(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, domain, `
using Twizzar.Fixture;
namespace Demo
{
    public class BaseBuilder<T> : ItemBuilder<T> { }
    public class EngineBuilder : BaseBuilder<Engine> { }
}
`)
	customs, err := d.CustomBuilders(context.Background(), forest.Files[1])
	require.NoError(t, err)
	require.Len(t, customs, 1, "generic intermediate builders have no fixture type")
	assert.Equal(t, "Demo.EngineBuilder", customs[0].Builder)
	assert.Equal(t, "EnginePath", customs[0].Identity.Name)
	assert.Equal(t, "Twizzar.Fixture", customs[0].Identity.Namespace)
}

func TestMemberSelectionOnPathProviderLocal(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, domain, `
using Twizzar.Fixture;
namespace Demo
{
    public partial class CarPath : PathProvider<Car> { }
    public class Tests
    {
        public void Run()
        {
            var path = new CarPath();
            var cylinders = path.Engine.Cylinders;
            CarPath other = null;
            var name = other.Name;
        }
    }
}
`)
	selections, err := d.MemberSelections(context.Background(), forest.Files[1])
	require.NoError(t, err)
	require.Len(t, selections, 2, dump(selections))
	assert.Equal(t, []string{"Engine", "Cylinders"}, selections[0].Chain)
	assert.Equal(t, []string{"Name"}, selections[1].Chain)
	for _, s := range selections {
		assert.Equal(t, model.ProviderKey{Target: "Demo.Car", Namespace: "Demo", Name: "CarPath"}, s.Identity.Key())
	}

	// Declared targets keep syntax nodes; dumping them must not walk into those.
	var out string
	assert.NotPanics(t, func() { out = dump(selections) })
	assert.Contains(t, out, "selection path.Engine.Cylinders of Demo.CarPath for Demo.Car at File1.cs:11:")
}

func TestMemberSelectionIgnoresForeignLambdas(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, domain, `
using System;
using Twizzar.Fixture;
namespace Demo
{
    public class Other { public Other With(Func<Car, int> f) { return this; } }
    public class Tests
    {
        public void Run()
        {
            new Other().With(c => c.Engine.Cylinders);
            Func<Car, string> f = c => c.Name;
        }
    }
}
`)
	selections, err := d.MemberSelections(context.Background(), forest.Files[1])
	require.NoError(t, err)
	assert.Empty(t, selections)
}

func TestMemberSelectionThroughBuilderLocal(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, domain, `
using Twizzar.Fixture;
namespace Demo
{
    public class Tests
    {
        public void Run()
        {
            var builder = new ItemBuilder<Car>();
            builder.With(p => p.Engine.Cylinders.Value(4));
        }
    }
}
`)
	selections, err := d.MemberSelections(context.Background(), forest.Files[1])
	require.NoError(t, err)
	require.Len(t, selections, 1)
	assert.Equal(t, []string{"Engine", "Cylinders"}, selections[0].Chain)
	assert.Equal(t, "CarPath", selections[0].Identity.Name)
	assert.Equal(t, "Twizzar.Fixture", selections[0].Identity.Namespace)
}

func TestDefaultProviderName(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, domain, `
using System.Collections.Generic;
using Twizzar.Fixture;
namespace Demo
{
    public class Tests
    {
        public void Run()
        {
            new ItemBuilder<List<int>>();
            new ItemBuilder<Car[]>();
            new ItemBuilder<string>();
        }
    }
}
`)
	creations, err := d.BuilderCreations(context.Background(), forest.Files[1])
	require.NoError(t, err)

	var names []string
	for _, c := range creations {
		names = append(names, c.Identity.Name)
	}
	assert.Equal(t, []string{"ListInt32Path", "CarArrayPath", "StringPath"}, names)
}

func TestDiscoverForestKeepsFileOrder(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t,
		`using Twizzar.Fixture; class A { void M() { new ItemBuilder<int>(); } }`,
		`using Twizzar.Fixture; class B { void M() { new ItemBuilder<string>(); } }`,
	)
	facts, err := d.DiscoverForest(context.Background(), forest, 2)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "File0.cs", facts[0].Location().File)
	assert.Equal(t, "StringPath", facts[1].Provider().Name)
}

func TestDiscoverCancelled(t *testing.T) {
	t.Parallel()

	d, forest := analyze(t, `using Twizzar.Fixture; class A { void M() { new ItemBuilder<int>(); } }`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.DiscoverForest(ctx, forest, 0)
	require.ErrorIs(t, err, context.Canceled)
}

// dump renders facts for failure messages. Targets hold syntax nodes, so
// only the fact strings are dumped.
func dump[F model.Fact](facts []F) string {
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = fmt.Sprint(f)
	}
	return spew.Sdump(out)
}
