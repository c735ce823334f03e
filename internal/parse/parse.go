// Package parse turns C# source files into a forest of tree-sitter syntax
// trees.
package parse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/twizzar/fixturegen/internal/lang"
)

// File is one parsed source file. The tree stays valid until the owning
// Forest is closed.
type File struct {
	Path   string // Relative to the forest root
	Source []byte
	Tree   *sitter.Tree
}

// Root returns the compilation_unit node of f.
func (f *File) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Text returns the source text of node.
func (f *File) Text(node *sitter.Node) string {
	return lang.NodeText(node, f.Source)
}

// Forest is the set of files analyzed together.
type Forest struct {
	Files []*File
}

// Close releases every syntax tree.
func (fr *Forest) Close() {
	for _, f := range fr.Files {
		if f.Tree != nil {
			f.Tree.Close()
		}
	}
}

// Source parses a single in-memory file.
func Source(ctx context.Context, parser *sitter.Parser, path string, source []byte) (*File, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &File{Path: path, Source: source, Tree: tree}, nil
}

// Sources parses in-memory files keyed by path, in the order given.
func Sources(ctx context.Context, paths []string, sources map[string]string) (*Forest, error) {
	parser := lang.CSharp.NewParser()
	defer parser.Close()

	forest := &Forest{}
	for _, p := range paths {
		f, err := Source(ctx, parser, p, []byte(sources[p]))
		if err != nil {
			forest.Close()
			return nil, err
		}
		forest.Files = append(forest.Files, f)
	}
	return forest, nil
}

// Options configures Files.
type Options struct {
	Jobs   int
	Logger *slog.Logger
}

// Files reads and parses paths relative to root concurrently. Files that
// cannot be read are logged and skipped; the result keeps the input order.
func Files(ctx context.Context, root string, paths []string, opts Options) (*Forest, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	type result struct {
		index int
		file  *File
	}

	numWorkers := opts.Jobs
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	work := make(chan int, len(paths))
	results := make(chan result, len(paths))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			parser := lang.CSharp.NewParser()
			defer parser.Close()

			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				rel := paths[idx]
				source, err := os.ReadFile(filepath.Join(root, rel))
				if err != nil {
					logger.Warn("skipping unreadable file", slog.String("file", rel), slog.String("error", err.Error()))
					continue
				}
				f, err := Source(ctx, parser, rel, source)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						logger.Warn("skipping unparseable file", slog.String("file", rel), slog.String("error", err.Error()))
					}
					continue
				}
				results <- result{index: idx, file: f}
			}
		}()
	}

	for i := range paths {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]*File, len(paths))
	for r := range results {
		indexed[r.index] = r.file
	}

	forest := &Forest{}
	for _, f := range indexed {
		if f != nil {
			forest.Files = append(forest.Files, f)
		}
	}

	if err := ctx.Err(); err != nil {
		forest.Close()
		return nil, err
	}
	return forest, nil
}
