package discovery

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/twizzar/fixturegen/internal/lang"
	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// DefaultProviderName returns the provider name used when a builder does not
// name one: the fixture type name followed by suffix, with generic arguments
// spelled out, e.g. "Int32Path" or "ListInt32Path".
func DefaultProviderName(target symbols.Type, suffix string) string {
	var b strings.Builder
	writeTypeToken(&b, target)
	b.WriteString(suffix)
	return b.String()
}

func writeTypeToken(b *strings.Builder, t symbols.Type) {
	switch t.Kind() {
	case symbols.Array:
		writeTypeToken(b, t.TypeArguments()[0])
		b.WriteString("Array")
		return
	case symbols.TypeParameter:
		b.WriteString(t.Name())
		return
	}
	for _, r := range t.Name() {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	for _, a := range t.TypeArguments() {
		writeTypeToken(b, a)
	}
}

// providerOf derives the provider identity from a type whose base chain
// contains the API builder. It reports false when t is not a builder or its
// fixture type is still an unbound type parameter.
func (d *Discoverer) providerOf(t symbols.Type) (model.ProviderIdentity, bool) {
	builder, ok := symbols.FindInChain(t, d.model.IsBuilder)
	if !ok {
		return model.ProviderIdentity{}, false
	}
	args := builder.TypeArguments()
	if len(args) == 0 || args[0].Kind() == symbols.TypeParameter {
		return model.ProviderIdentity{}, false
	}
	target := args[0]
	if len(args) >= 2 {
		p := args[1]
		if p.Kind() == symbols.TypeParameter {
			return model.ProviderIdentity{}, false
		}
		return model.ProviderIdentity{Target: target, Namespace: p.Namespace(), Name: p.Name()}, true
	}
	api := d.model.API()
	return model.ProviderIdentity{
		Target:    target,
		Namespace: api.Namespace,
		Name:      DefaultProviderName(target, api.ProviderSuffix),
	}, true
}

// pathProviderOf derives the identity of a declared path provider type from
// its PathProvider<T> base.
func (d *Discoverer) pathProviderOf(t symbols.Type) (model.ProviderIdentity, bool) {
	if t == nil || d.model.IsPathProvider(t) {
		return model.ProviderIdentity{}, false
	}
	base, ok := symbols.FindInChain(t, d.model.IsPathProvider)
	if !ok {
		return model.ProviderIdentity{}, false
	}
	args := base.TypeArguments()
	if len(args) == 0 || args[0].Kind() == symbols.TypeParameter {
		return model.ProviderIdentity{}, false
	}
	return model.ProviderIdentity{Target: args[0], Namespace: t.Namespace(), Name: t.Name()}, true
}

func location(f *parse.File, node *sitter.Node) model.Location {
	line, col := lang.Position(node)
	return model.Location{File: f.Path, Line: line, Column: col}
}
