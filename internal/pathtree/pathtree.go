// Package pathtree merges member selection chains into a prefix tree.
//
// Trees are persistent: Insert copies the nodes along the inserted chain and
// shares every other subtree with the previous root, so a tree handed to
// another goroutine never changes underneath it.
package pathtree

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RootName is the sentinel name carried by every root node.
const RootName = "$root"

// Node is one member name in a path tree.
type Node struct {
	name     string
	children map[string]*Node
}

// NewRoot returns an empty tree.
func NewRoot() *Node {
	return &Node{name: RootName}
}

// Name returns the member name of the node, or RootName for the root.
func (n *Node) Name() string {
	return n.name
}

// IsRoot reports whether n carries the root sentinel.
func (n *Node) IsRoot() bool {
	return n.name == RootName
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Child returns the child with the given member name.
func (n *Node) Child(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	c, ok := n.children[name]
	return c, ok
}

// Keys returns the child names in lexical order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Children returns the children ordered by name.
func (n *Node) Children() []*Node {
	keys := n.Keys()
	out := make([]*Node, len(keys))
	for i, k := range keys {
		out[i] = n.children[k]
	}
	return out
}

// Lookup follows chain from n and returns the node it ends at.
func (n *Node) Lookup(chain []string) (*Node, bool) {
	cur := n
	for _, name := range chain {
		next, ok := cur.Child(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// Insert returns a tree containing every chain of root plus chain. root is
// not modified; a nil root is treated as an empty tree.
//
// Insert panics if chain contains an empty member name.
func Insert(root *Node, chain []string) *Node {
	for i, name := range chain {
		if name == "" {
			panic(fmt.Sprintf("pathtree: empty member name at position %d of %q", i, chain))
		}
	}
	if root == nil {
		root = NewRoot()
	}
	return insert(root, chain)
}

func insert(n *Node, chain []string) *Node {
	if len(chain) == 0 {
		return n
	}
	existing, ok := n.children[chain[0]]
	if !ok {
		existing = &Node{name: chain[0]}
	}
	updated := insert(existing, chain[1:])
	if ok && updated == existing {
		return n
	}
	cp := &Node{name: n.name, children: make(map[string]*Node, len(n.children)+1)}
	for k, v := range n.children {
		cp.children[k] = v
	}
	cp.children[chain[0]] = updated
	return cp
}

// Build folds chains into a single root.
func Build(chains [][]string) *Node {
	root := NewRoot()
	for _, c := range chains {
		root = Insert(root, c)
	}
	return root
}

// BuildEach builds one tree per key. Keys with no chains get an empty root.
func BuildEach[K comparable](chains map[K][][]string) map[K]*Node {
	out := make(map[K]*Node, len(chains))
	for k, cs := range chains {
		out[k] = Build(cs)
	}
	return out
}

// Equal reports whether a and b have the same shape and names.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a.Len() == 0 && b.Len() == 0 && (a == nil || a.IsRoot()) && (b == nil || b.IsRoot())
	}
	if a == b {
		return true
	}
	if a.name != b.name || len(a.children) != len(b.children) {
		return false
	}
	for k, ac := range a.children {
		bc, ok := b.children[k]
		if !ok || !Equal(ac, bc) {
			return false
		}
	}
	return true
}

// Walk visits n and its descendants depth-first in name order. path holds
// the member names from the root down to the visited node. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(path []string, node *Node) bool) {
	var visit func(path []string, node *Node)
	visit = func(path []string, node *Node) {
		if !fn(path, node) {
			return
		}
		for _, c := range node.Children() {
			visit(append(path[:len(path):len(path)], c.name), c)
		}
	}
	if n != nil {
		visit(nil, n)
	}
}

// Chains returns every root-to-leaf chain in name order.
func (n *Node) Chains() [][]string {
	var out [][]string
	n.Walk(func(path []string, node *Node) bool {
		if node.Len() == 0 && len(path) > 0 {
			out = append(out, append([]string(nil), path...))
		}
		return true
	})
	return out
}

// Fingerprint hashes the shape of the tree. Equal trees have equal
// fingerprints across processes.
func (n *Node) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	n.Walk(func(path []string, node *Node) bool {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(path)))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(node.name)
		return true
	})
	return d.Sum64()
}

// String renders the tree one node per line, indented by depth.
func (n *Node) String() string {
	var b strings.Builder
	n.Walk(func(path []string, node *Node) bool {
		b.WriteString(strings.Repeat("  ", len(path)))
		b.WriteString(node.name)
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
