// Package discovery scans C# syntax trees for usages of the fixture builder
// API and reports them as model facts.
//
// Three independent scans run over each file: builder creations
// (`new ItemBuilder<T>()`), custom builder declarations
// (`class CarBuilder : ItemBuilder<Car, CarPath>`) and member selections
// (`p => p.Engine.Cylinders.Value(4)`). Their results are concatenated, not
// merged; grouping happens downstream.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/semantic"
)

// Discoverer runs the scans against one semantic model.
type Discoverer struct {
	model  *semantic.Model
	logger *slog.Logger
}

// New returns a Discoverer. A nil logger discards output.
func New(m *semantic.Model, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Discoverer{model: m, logger: logger}
}

// Discover runs all three scans over f.
func (d *Discoverer) Discover(ctx context.Context, f *parse.File) ([]model.Fact, error) {
	var facts []model.Fact

	creations, err := d.BuilderCreations(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, c := range creations {
		facts = append(facts, c)
	}

	customs, err := d.CustomBuilders(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, c := range customs {
		facts = append(facts, c)
	}

	selections, err := d.MemberSelections(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, s := range selections {
		facts = append(facts, s)
	}
	return facts, nil
}

// DiscoverForest scans every file of forest concurrently. A file whose scan
// panics is logged and contributes no facts. Facts keep file order.
func (d *Discoverer) DiscoverForest(ctx context.Context, forest *parse.Forest, jobs int) ([]model.Fact, error) {
	perFile := make([][]model.Fact, len(forest.Files))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, f := range forest.Files {
		g.Go(func() error {
			facts, err := d.discoverSafely(gctx, f)
			if err != nil {
				return err
			}
			perFile[i] = facts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Fact
	for _, facts := range perFile {
		all = append(all, facts...)
	}
	return all, nil
}

func (d *Discoverer) discoverSafely(ctx context.Context, f *parse.File) (facts []model.Fact, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("discovery failed",
				slog.String("file", f.Path),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			facts, err = nil, nil
		}
	}()
	return d.Discover(ctx, f)
}
