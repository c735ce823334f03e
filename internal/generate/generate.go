// Package generate renders the C# source of one path provider from its path
// tree.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/twizzar/fixturegen/internal/config"
	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/pathtree"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// Status is the outcome of one generation.
type Status int

const (
	Succeeded Status = iota
	Failed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Input is everything needed to generate one provider.
type Input struct {
	Identity model.ProviderIdentity
	Tree     *pathtree.Node
	Target   symbols.Type
	// Location is where the provider was requested; diagnostics point here.
	Location model.Location
}

// Failure describes why generation failed. Descriptor is nil for failures
// that are logged but not reported to the user.
type Failure struct {
	Message    string
	Symbol     symbols.Type
	Descriptor *model.Descriptor
	Loc        model.Location
}

// Result is the typed outcome of Generate.
type Result struct {
	Status   Status
	HintName string
	Source   string
	Failure  *Failure
}

// Diagnostic returns the user-facing diagnostic of a failed result. Successful
// and cancelled results, and failures without a descriptor, have none.
func (r Result) Diagnostic() (model.Diagnostic, bool) {
	if r.Status != Failed || r.Failure == nil || r.Failure.Descriptor == nil {
		return model.Diagnostic{}, false
	}
	msg := r.Failure.Message
	if msg == "" {
		msg = r.Failure.Descriptor.Title
	}
	return model.Diagnostic{Descriptor: r.Failure.Descriptor, Message: msg, Loc: r.Failure.Loc}, true
}

// Revision identifies the rendering of providers. Bump it whenever the
// template or the planning changes the generated source.
const Revision = "fixturegen/1"

// HintName returns the artifact name of a provider: "Demo.CarPath.g.cs".
func HintName(id model.ProviderIdentity) string {
	return id.FullName() + ".g.cs"
}

// Generator renders providers for one builder API.
type Generator struct {
	api    config.API
	logger *slog.Logger
}

// New returns a Generator. A nil logger discards output.
func New(api config.API, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{api: api, logger: logger}
}

// failure is returned by planning to abort generation with a result.
type failure struct {
	f *Failure
}

func (e *failure) Error() string { return e.f.Message }

// Generate renders in. It never panics: internal faults become FG0001
// failures, and a cancelled ctx yields a Cancelled result.
func (g *Generator) Generate(ctx context.Context, in Input) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("path provider generation failed",
				slog.String("provider", in.Identity.FullName()),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			res = Result{Status: Failed, Failure: &Failure{
				Message:    fmt.Sprintf("unexpected error generating %s: %v", in.Identity.FullName(), r),
				Symbol:     in.Target,
				Descriptor: model.Unexpected,
				Loc:        in.Location,
			}}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result{Status: Cancelled}
	}
	if !config.IsIdentifier(in.Identity.Name) {
		return Result{Status: Failed, Failure: &Failure{
			Message:    fmt.Sprintf("%q is not a valid path provider name", in.Identity.Name),
			Symbol:     in.Target,
			Descriptor: model.InvalidProviderName,
			Loc:        in.Location,
		}}
	}

	data, err := g.plan(ctx, in)
	if err != nil {
		return g.fromError(in, err)
	}

	var buf bytes.Buffer
	if err := providerTemplate.Execute(&buf, data); err != nil {
		return g.fromError(in, fmt.Errorf("executing template: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return Result{Status: Cancelled}
	}
	return Result{Status: Succeeded, HintName: HintName(in.Identity), Source: buf.String()}
}

func (g *Generator) fromError(in Input, err error) Result {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Result{Status: Cancelled}
	}
	var f *failure
	if errors.As(err, &f) {
		return Result{Status: Failed, Failure: f.f}
	}
	g.logger.Warn("path provider generation failed",
		slog.String("provider", in.Identity.FullName()),
		slog.String("error", err.Error()),
	)
	return Result{Status: Failed, Failure: &Failure{Message: err.Error(), Symbol: in.Target, Loc: in.Location}}
}
