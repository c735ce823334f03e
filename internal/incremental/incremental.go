// Package incremental decides whether a previously generated provider is
// still valid for the current analysis.
package incremental

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/twizzar/fixturegen/internal/config"
	"github.com/twizzar/fixturegen/internal/generate"
	"github.com/twizzar/fixturegen/internal/identity"
	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/pathtree"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// Input is the cache key material of one provider. API is part of it
// because the builder API names are baked into the generated source.
type Input struct {
	Identity model.ProviderIdentity
	Tree     *pathtree.Node
	Target   symbols.Type
	API      config.API
}

// InputComparer compares inputs across analysis runs. Targets are compared
// with an identity.Comparer scoped to the input's tree unless Unscoped is
// set.
type InputComparer struct {
	Unscoped bool
}

func (c InputComparer) types(tree *pathtree.Node) identity.Comparer {
	if c.Unscoped {
		return identity.Unscoped()
	}
	return identity.New(tree)
}

// Equal reports whether b can reuse the result generated for a.
func (c InputComparer) Equal(a, b Input) bool {
	return a.Identity.Key() == b.Identity.Key() &&
		a.API == b.API &&
		pathtree.Equal(a.Tree, b.Tree) &&
		c.types(a.Tree).Equal(a.Target, b.Target)
}

// Fingerprint summarizes the generator revision, the API names, the tree
// and the scoped shape of the target. It is stable across processes.
func (c InputComparer) Fingerprint(in Input) uint64 {
	d := xxhash.New()
	for _, s := range []string{generate.Revision, in.API.Namespace, in.API.Builder, in.API.PathProvider, in.API.ProviderSuffix} {
		_, _ = d.WriteString(s)
		_, _ = d.WriteString("\x00")
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], in.Tree.Fingerprint())
	_, _ = d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], c.types(in.Tree).Hash(in.Target))
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

type tableEntry struct {
	input  Input
	result generate.Result
}

// Table keeps the last successful result per provider for hosts that run
// many analyses in one process.
type Table struct {
	mu       sync.Mutex
	comparer InputComparer
	entries  map[model.ProviderKey]tableEntry
}

// NewTable returns an empty table.
func NewTable(cmp InputComparer) *Table {
	return &Table{comparer: cmp, entries: make(map[model.ProviderKey]tableEntry)}
}

// Lookup returns the stored result when in equals the input it was
// generated for.
func (t *Table) Lookup(in Input) (generate.Result, bool) {
	t.mu.Lock()
	e, ok := t.entries[in.Identity.Key()]
	t.mu.Unlock()
	if !ok || !t.comparer.Equal(e.input, in) {
		return generate.Result{}, false
	}
	return e.result, true
}

// Store records a successful result. Other results are ignored so that the
// next run regenerates.
func (t *Table) Store(in Input, res generate.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if res.Status != generate.Succeeded {
		delete(t.entries, in.Identity.Key())
		return
	}
	t.entries[in.Identity.Key()] = tableEntry{input: in, result: res}
}

// Len returns the number of stored results.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
