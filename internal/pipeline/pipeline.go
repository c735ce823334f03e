// Package pipeline wires discovery, grouping, caching and generation into
// one analysis pass over a directory or an in-memory forest.
package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/twizzar/fixturegen/internal/config"
	"github.com/twizzar/fixturegen/internal/discover"
	"github.com/twizzar/fixturegen/internal/discovery"
	"github.com/twizzar/fixturegen/internal/generate"
	"github.com/twizzar/fixturegen/internal/grouping"
	"github.com/twizzar/fixturegen/internal/incremental"
	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/pathtree"
	"github.com/twizzar/fixturegen/internal/semantic"
)

// Status is the per-provider outcome of a run.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusCached    Status = "cached"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Options configures a run. Store and Table are optional caches; both may
// be set.
type Options struct {
	Root   string
	Config config.Config
	Logger *slog.Logger
	Store  *incremental.Store
	Table  *incremental.Table
}

// Provider summarizes one path provider.
type Provider struct {
	Key        model.ProviderKey
	HintName   string
	Status     Status
	Origins    int
	Selections int
	Tree       *pathtree.Node
	Location   model.Location
}

// Artifact is one generated source file.
type Artifact struct {
	HintName string
	Source   string
	Provider model.ProviderKey
}

// Report is the result of a run.
type Report struct {
	Root        string
	Files       []string
	Facts       []model.Fact
	Providers   []Provider
	Artifacts   []Artifact
	Diagnostics []model.Diagnostic
	// Dropped counts member selections outside any known provider.
	Dropped  int
	Duration time.Duration
}

// Count returns how many providers ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, p := range r.Providers {
		if p.Status == s {
			n++
		}
	}
	return n
}

// Run discovers and parses the C# files under opts.Root and analyzes them.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := loggerFor(opts)

	entries, err := discover.Files(ctx, opts.Root, discover.Options{
		Exclude:     opts.Config.Exclude,
		MaxFileSize: int64(opts.Config.MaxFileSize),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	logger.Debug("discovered files", slog.Int("count", len(entries)))

	forest, err := parse.Files(ctx, opts.Root, discover.Paths(entries), parse.Options{
		Jobs:   opts.Config.Jobs,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing files: %w", err)
	}
	defer forest.Close()

	return Analyze(ctx, forest, opts)
}

// Analyze runs every stage after parsing over forest. A cancelled ctx
// returns the partial report together with ctx's error.
func Analyze(ctx context.Context, forest *parse.Forest, opts Options) (*Report, error) {
	start := time.Now()
	logger := loggerFor(opts)
	report := &Report{Root: opts.Root}
	for _, f := range forest.Files {
		report.Files = append(report.Files, f.Path)
	}

	m, err := semantic.Build(ctx, forest, opts.Config.API)
	if err != nil {
		return nil, fmt.Errorf("building semantic model: %w", err)
	}
	logger.Debug("built semantic model", slog.String("model", m.String()))

	facts, err := discovery.New(m, logger).DiscoverForest(ctx, forest, opts.Config.Jobs)
	if err != nil {
		return nil, fmt.Errorf("discovering builder usages: %w", err)
	}
	report.Facts = facts

	trees, dropped, diag := groupSafely(facts, logger)
	report.Dropped = dropped
	if diag != nil {
		report.Diagnostics = append(report.Diagnostics, *diag)
	}
	report.Providers = make([]Provider, len(trees))
	results := make([]generate.Result, len(trees))
	gen := generate.New(opts.Config.API, logger)

	jobs := opts.Config.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, tr := range trees {
		report.Providers[i] = Provider{
			Key:        tr.Group.Key(),
			HintName:   generate.HintName(tr.Group.Identity),
			Origins:    len(tr.Group.Origins),
			Selections: len(tr.Group.Selections),
			Tree:       tr.Root,
			Location:   tr.Group.Location(),
		}
		g.Go(func() error {
			res, status := produce(ctx, gen, opts, logger, tr)
			results[i] = res
			report.Providers[i].Status = status
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if d, ok := res.Diagnostic(); ok {
			report.Diagnostics = append(report.Diagnostics, d)
		}
		if res.Status == generate.Succeeded {
			report.Artifacts = append(report.Artifacts, Artifact{
				HintName: res.HintName,
				Source:   res.Source,
				Provider: report.Providers[i].Key,
			})
		}
	}
	slices.SortFunc(report.Artifacts, func(a, b Artifact) int { return cmp.Compare(a.HintName, b.HintName) })
	report.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// groupSafely groups facts and builds one tree per provider. A fault in
// either step yields no trees and an FG0001 diagnostic.
func groupSafely(facts []model.Fact, logger *slog.Logger) (trees []grouping.Tree, dropped int, diag *model.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grouping failed",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			trees, dropped = nil, 0
			diag = &model.Diagnostic{
				Descriptor: model.Unexpected,
				Message:    fmt.Sprintf("unexpected error grouping builder usages: %v", r),
			}
		}
	}()

	groups := grouping.Facts(facts)
	for _, s := range groups.Dropped {
		logger.Debug("dropping member selection without provider",
			slog.String("at", s.Loc.String()),
			slog.String("provider", s.Identity.Key().String()),
		)
	}
	return groups.Trees(), len(groups.Dropped), nil
}

// produce returns the cached result for tr or generates a new one.
func produce(ctx context.Context, gen *generate.Generator, opts Options, logger *slog.Logger, tr grouping.Tree) (generate.Result, Status) {
	in := incremental.Input{
		Identity: tr.Group.Identity,
		Tree:     tr.Root,
		Target:   tr.Group.Identity.Target,
		API:      opts.Config.API,
	}

	if opts.Table != nil {
		if res, ok := opts.Table.Lookup(in); ok {
			return res, StatusCached
		}
	}
	if opts.Store != nil {
		res, ok, err := opts.Store.Get(in)
		if err != nil {
			logger.Warn("ignoring unreadable cache entry", slog.String("provider", tr.Group.Key().String()), slog.String("error", err.Error()))
		}
		if ok {
			if opts.Table != nil {
				opts.Table.Store(in, res)
			}
			return res, StatusCached
		}
	}

	res := gen.Generate(ctx, generate.Input{
		Identity: tr.Group.Identity,
		Tree:     tr.Root,
		Target:   tr.Group.Identity.Target,
		Location: tr.Group.Location(),
	})
	if res.Status == generate.Cancelled {
		return res, StatusCancelled
	}

	if opts.Table != nil {
		opts.Table.Store(in, res)
	}
	if opts.Store != nil {
		if err := opts.Store.Put(in, res); err != nil {
			logger.Warn("cannot write cache entry", slog.String("provider", tr.Group.Key().String()), slog.String("error", err.Error()))
		}
	}
	if res.Status == generate.Failed {
		return res, StatusFailed
	}
	return res, StatusGenerated
}

func loggerFor(opts Options) *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.New(slog.DiscardHandler)
}
