// Package lang provides the tree-sitter C# grammar and helpers for walking
// its syntax trees.
package lang

import (
	"regexp"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
}

// CSharp is the only language fixturegen analyzes.
var CSharp = &Language{
	Name:       "csharp",
	Extensions: []string{".cs"},
	lang:       csharp.GetLanguage(),
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Handles reports whether path has one of the language's extensions.
// Generated files (*.g.cs) are never analyzed.
func (l *Language) Handles(path string) bool {
	if strings.HasSuffix(path, ".g.cs") {
		return false
	}
	for _, ext := range l.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Position returns the 1-based line and column of node.
func Position(node *sitter.Node) (line, column int) {
	p := node.StartPoint()
	row, err := safecast.Conv[int](p.Row)
	if err != nil {
		return 0, 0
	}
	col, err := safecast.Conv[int](p.Column)
	if err != nil {
		return row + 1, 0
	}
	return row + 1, col + 1
}

// SameNode reports whether a and b denote the same syntax node. Node
// handles returned by Child and Parent are fresh values, so pointer
// comparison is not enough.
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// Field returns the first non-nil child for the given field names.
func Field(node *sitter.Node, names ...string) *sitter.Node {
	for _, name := range names {
		if c := node.ChildByFieldName(name); c != nil {
			return c
		}
	}
	return nil
}

// NamedChildren returns the named children of node.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	n := int(node.NamedChildCount())
	out := make([]*sitter.Node, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// FirstChildOfType returns the first named child whose type is one of types.
func FirstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}

// ChildrenOfType returns the named children whose type is one of types.
func ChildrenOfType(node *sitter.Node, types ...string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		for _, t := range types {
			if child.Type() == t {
				out = append(out, child)
				break
			}
		}
	}
	return out
}

// Collect returns every descendant of root (root included) whose type is
// one of types, in document order.
func Collect(root *sitter.Node, types ...string) []*sitter.Node {
	want := make(map[string]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	var out []*sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if _, ok := want[n.Type()]; ok {
			out = append(out, n)
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(root)
	return out
}

// Ancestor returns the closest proper ancestor of node whose type is one of
// types.
func Ancestor(node *sitter.Node, types ...string) *sitter.Node {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		for _, t := range types {
			if cur.Type() == t {
				return cur
			}
		}
	}
	return nil
}
