package incremental

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/twizzar/fixturegen/internal/generate"
	"github.com/twizzar/fixturegen/internal/model"
)

// Current schema version - increment when Entry changes.
const schemaVersion uint16 = 1

// Entry is one cached provider on disk.
type Entry struct {
	Schema      uint16
	Key         model.ProviderKey
	Fingerprint uint64
	HintName    string
	Source      string
}

// Store persists generated providers between runs, one msgpack file per
// provider. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	dir      string
	comparer InputComparer
}

// OpenStore creates dir if needed and returns a store rooted there.
func OpenStore(dir string, cmp InputComparer) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Store{dir: dir, comparer: cmp}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) pathFor(key model.ProviderKey) string {
	sum := xxhash.Sum64String(key.Target + "\x00" + key.Namespace + "\x00" + key.Name)
	return filepath.Join(s.dir, strconv.FormatUint(sum, 16)+".mp")
}

// Get returns the cached result for in. Entries written by another schema
// version, for another key or for a different fingerprint are misses.
func (s *Store) Get(in Input) (generate.Result, bool, error) {
	if s == nil {
		return generate.Result{}, false, nil
	}
	key := in.Identity.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return generate.Result{}, false, nil
		}
		return generate.Result{}, false, fmt.Errorf("reading cache entry: %w", err)
	}
	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return generate.Result{}, false, fmt.Errorf("decoding cache entry for %s: %w", key, err)
	}
	if e.Schema != schemaVersion || e.Key != key || e.Fingerprint != s.comparer.Fingerprint(in) {
		return generate.Result{}, false, nil
	}
	return generate.Result{Status: generate.Succeeded, HintName: e.HintName, Source: e.Source}, true, nil
}

// Put stores a successful result. Failed and cancelled results remove any
// previous entry.
func (s *Store) Put(in Input, res generate.Result) error {
	if s == nil {
		return nil
	}
	key := in.Identity.Key()
	p := s.pathFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Status != generate.Succeeded {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing cache entry: %w", err)
		}
		return nil
	}

	data, err := msgpack.Marshal(&Entry{
		Schema:      schemaVersion,
		Key:         key,
		Fingerprint: s.comparer.Fingerprint(in),
		HintName:    res.HintName,
		Source:      res.Source,
	})
	if err != nil {
		return fmt.Errorf("encoding cache entry for %s: %w", key, err)
	}

	f, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	// Atomic replace
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading cache dir: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".mp" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("removing cache entry: %w", err)
		}
	}
	return nil
}
