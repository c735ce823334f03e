package generate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twizzar/fixturegen/internal/config"
	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/pathtree"
	"github.com/twizzar/fixturegen/internal/semantic"
	"github.com/twizzar/fixturegen/internal/symbols"
)

const source = `
namespace Demo
{
    public class Engine
    {
        public int Cylinders { get; set; }
        public int Tune(int rpm) { return rpm; }
        public int Tune(int rpm, bool eco) { return rpm; }
    }
    public class Car
    {
        public Engine Engine { get; set; }
        public string Name;
    }
}
`

func carInput(t *testing.T, chains ...[]string) Input {
	t.Helper()
	forest, err := parse.Sources(context.Background(), []string{"Car.cs"}, map[string]string{"Car.cs": source})
	require.NoError(t, err)
	t.Cleanup(forest.Close)
	m, err := semantic.Build(context.Background(), forest, config.DefaultAPI())
	require.NoError(t, err)

	car, ok := m.Lookup("Demo", "Car", 0)
	require.True(t, ok)
	return Input{
		Identity: model.ProviderIdentity{Target: car, Namespace: "Demo", Name: "CarPath"},
		Tree:     pathtree.Build(chains),
		Target:   car,
		Location: model.Location{File: "CarBuilder.cs", Line: 5, Column: 18},
	}
}

func TestGenerateSucceeds(t *testing.T) {
	t.Parallel()

	in := carInput(t, []string{"Engine", "Cylinders"}, []string{"Name"})
	res := New(config.DefaultAPI(), nil).Generate(context.Background(), in)

	require.Equal(t, Succeeded, res.Status, "%+v", res.Failure)
	assert.Equal(t, "Demo.CarPath.g.cs", res.HintName)
	assert.Contains(t, res.Source, "namespace Demo")
	assert.Contains(t, res.Source, "public partial class CarPath : global::Twizzar.Fixture.PathProvider<global::Demo.Car>")
	assert.Contains(t, res.Source, "public EngineMemberPath Engine => new EngineMemberPath();")
	assert.Contains(t, res.Source, "public Engine_CylindersMemberPath Cylinders => new Engine_CylindersMemberPath();")
	assert.Contains(t, res.Source, `base("Engine.Cylinders", "Cylinders")`)
	assert.Contains(t, res.Source, "MemberPath<global::Demo.Car, global::System.String>")

	_, hasDiag := res.Diagnostic()
	assert.False(t, hasDiag)
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	in := carInput(t, []string{"Name"}, []string{"Engine", "Cylinders"})
	g := New(config.DefaultAPI(), nil)
	first := g.Generate(context.Background(), in)
	second := g.Generate(context.Background(), in)
	assert.Equal(t, first.Source, second.Source)
}

func TestGenerateEmptyTree(t *testing.T) {
	t.Parallel()

	in := carInput(t)
	res := New(config.DefaultAPI(), nil).Generate(context.Background(), in)
	require.Equal(t, Succeeded, res.Status)
	assert.NotContains(t, res.Source, "MemberPath<")
}

func TestGenerateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		chains [][]string
		rename string
		want   *model.Descriptor
	}{
		{"unknown member", [][]string{{"Wheels"}}, "", model.MemberNotFound},
		{"unknown nested member", [][]string{{"Engine", "Turbo"}}, "", model.MemberNotFound},
		{"ambiguous overload", [][]string{{"Engine", "Tune"}}, "", model.AmbiguousMember},
		{"invalid provider name", nil, "Car-Path", model.InvalidProviderName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := carInput(t, tt.chains...)
			if tt.rename != "" {
				in.Identity.Name = tt.rename
			}
			res := New(config.DefaultAPI(), nil).Generate(context.Background(), in)
			require.Equal(t, Failed, res.Status)

			diag, ok := res.Diagnostic()
			require.True(t, ok)
			assert.Same(t, tt.want, diag.Descriptor)
			assert.Equal(t, in.Location, diag.Loc)
			assert.NotEmpty(t, diag.Message)
		})
	}
}

func TestGenerateSelectsOverloadByUniqueName(t *testing.T) {
	t.Parallel()

	in := carInput(t, []string{"Engine", "Tune_Int32_Boolean"})
	res := New(config.DefaultAPI(), nil).Generate(context.Background(), in)
	require.Equal(t, Succeeded, res.Status, "%+v", res.Failure)
	assert.Contains(t, res.Source, "Engine_Tune_Int32_BooleanMemberPath")
}

func TestGenerateCancelledHasNoDiagnostic(t *testing.T) {
	t.Parallel()

	in := carInput(t, []string{"Engine"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(config.DefaultAPI(), nil).Generate(ctx, in)
	assert.Equal(t, Cancelled, res.Status)
	_, ok := res.Diagnostic()
	assert.False(t, ok)
}

// panicType fails while its members are enumerated.
type panicType struct{ symbols.Type }

func (panicType) Name() string                       { return "Boom" }
func (panicType) Namespace() string                  { return "Demo" }
func (panicType) Kind() symbols.TypeKind             { return symbols.Class }
func (panicType) TypeArguments() []symbols.Type      { return nil }
func (p panicType) OriginalDefinition() symbols.Type { return p }
func (panicType) BaseType() symbols.Type             { return nil }
func (panicType) Members() []symbols.Member          { panic("members unavailable") }

func TestGenerateRecoversPanics(t *testing.T) {
	t.Parallel()

	in := Input{
		Identity: model.ProviderIdentity{Namespace: "Demo", Name: "BoomPath"},
		Tree:     pathtree.Build([][]string{{"X"}}),
		Target:   panicType{},
	}
	res := New(config.DefaultAPI(), nil).Generate(context.Background(), in)
	require.Equal(t, Failed, res.Status)
	diag, ok := res.Diagnostic()
	require.True(t, ok)
	assert.Same(t, model.Unexpected, diag.Descriptor)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
