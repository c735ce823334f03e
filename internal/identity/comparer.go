// Package identity compares type symbols by the shape that generated code
// depends on.
//
// A Comparer scoped to a path tree only looks at the members the tree
// reaches, so an unrelated change to a large fixture type does not
// invalidate its generated provider. Generic arguments, base types and
// interfaces are always compared, regardless of scope.
package identity

import (
	"encoding/binary"
	"iter"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/twizzar/fixturegen/internal/pathtree"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// Sentinel values emitted in place of a type.
const (
	nilSentinel    uint64 = 0x6e696c
	objectSentinel uint64 = 0x6f626a656374
	cycleSentinel  uint64 = 0x6379636c65
)

// Comparer hashes and compares type symbols. The zero value compares
// identity and inheritance only.
type Comparer struct {
	scope    *pathtree.Node
	unscoped bool
}

// New returns a Comparer limited to the members reachable through scope.
// A nil scope compares no members.
func New(scope *pathtree.Node) Comparer {
	return Comparer{scope: scope}
}

// Unscoped returns a Comparer that compares every member of every type it
// reaches.
func Unscoped() Comparer {
	return Comparer{unscoped: true}
}

// Stream yields the hash codes describing t, in a fixed order.
func (c Comparer) Stream(t symbols.Type) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		w := &walker{c: c, path: make(map[symbols.Type]int), yield: yield}
		w.walk(t, c.scope)
	}
}

// Hash combines the stream of t into one value.
func (c Comparer) Hash(t symbols.Type) uint64 {
	return combine(c.Stream(t))
}

// Equal reports whether a and b produce identical streams.
func (c Comparer) Equal(a, b symbols.Type) bool {
	if a == b {
		return true
	}
	nextA, stopA := iter.Pull(c.Stream(a))
	defer stopA()
	nextB, stopB := iter.Pull(c.Stream(b))
	defer stopB()

	for {
		va, okA := nextA()
		vb, okB := nextB()
		if okA != okB {
			return false
		}
		if !okA {
			return true
		}
		if va != vb {
			return false
		}
	}
}

func combine(seq iter.Seq[uint64]) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for v := range seq {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

func hashStrings(parts ...string) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// walker carries the state of one Stream call. path counts the
// definitions on the current recursion path.
type walker struct {
	c       Comparer
	path    map[symbols.Type]int
	yield   func(uint64) bool
	stopped bool
}

func (w *walker) emit(v uint64) {
	if w.stopped {
		return
	}
	if !w.yield(v) {
		w.stopped = true
	}
}

func (w *walker) walk(t symbols.Type, node *pathtree.Node) {
	if w.stopped {
		return
	}
	if t == nil {
		w.emit(nilSentinel)
		return
	}
	if t.IsObject() {
		w.emit(objectSentinel)
		return
	}

	def := t.OriginalDefinition()
	w.emit(hashStrings(def.MetadataName(), symbols.QualifiedName(def)))
	if t.Kind() == symbols.TypeParameter {
		if o, ok := t.(symbols.Ordinal); ok {
			w.emit(uint64(o.Ordinal()))
		}
		return
	}

	if node == nil && w.path[def] > 0 {
		w.emit(cycleSentinel)
		return
	}
	w.path[def]++
	defer func() { w.path[def]-- }()

	for _, arg := range t.TypeArguments() {
		w.walk(arg, nil)
	}

	w.walk(t.BaseType(), nil)

	ifaces := t.Interfaces()
	hashes := make([]uint64, 0, len(ifaces))
	for _, it := range ifaces {
		hashes = append(hashes, w.hashOf(it))
	}
	slices.Sort(hashes)
	for _, h := range hashes {
		w.emit(h)
	}

	switch {
	case node != nil:
		w.scopedMembers(t, node)
	case w.c.unscoped:
		w.allMembers(t)
	}
}

// hashOf walks t on its own stream and returns the combined hash. The
// recursion path is shared so cycles through interfaces still terminate.
func (w *walker) hashOf(t symbols.Type) uint64 {
	d := xxhash.New()
	var buf [8]byte
	sub := &walker{c: w.c, path: w.path, yield: func(v uint64) bool {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
		return true
	}}
	sub.walk(t, nil)
	return d.Sum64()
}

func (w *walker) scopedMembers(t symbols.Type, node *pathtree.Node) {
	for _, key := range node.Keys() {
		child, _ := node.Child(key)
		for _, m := range symbols.MembersMatching(t, key) {
			w.member(m, child)
		}
	}
}

func (w *walker) allMembers(t symbols.Type) {
	for _, m := range t.Members() {
		if symbols.IsRelevant(m) {
			w.member(m, nil)
		}
	}
}

func (w *walker) member(m symbols.Member, node *pathtree.Node) {
	if w.stopped {
		return
	}
	w.emit(hashStrings(string(m.Kind()), m.Name(), m.UniqueName()))
	w.walk(m.Type(), node)
}
