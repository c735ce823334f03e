// Package model defines the discovery facts, provider identities and
// diagnostics shared by the analysis stages.
package model

import (
	"fmt"
	"strings"

	"github.com/twizzar/fixturegen/internal/symbols"
)

// Location is a 1-based source position.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ProviderIdentity names the path provider generated for one fixture type.
type ProviderIdentity struct {
	Target    symbols.Type
	Namespace string
	Name      string
}

// ProviderKey is the comparable grouping key of a ProviderIdentity. Two
// identities requesting the same named provider for the same fixture type
// share a key even when their target symbols are distinct references.
type ProviderKey struct {
	Target    string
	Namespace string
	Name      string
}

// Key returns the grouping key of p.
func (p ProviderIdentity) Key() ProviderKey {
	return ProviderKey{
		Target:    symbols.DisplayName(p.Target),
		Namespace: p.Namespace,
		Name:      p.Name,
	}
}

// FullName returns the dotted provider type name.
func (p ProviderIdentity) FullName() string {
	if p.Namespace == "" {
		return p.Name
	}
	return p.Namespace + "." + p.Name
}

func (k ProviderKey) String() string {
	if k.Namespace == "" {
		return k.Name + " for " + k.Target
	}
	return k.Namespace + "." + k.Name + " for " + k.Target
}

// Fact is one recognized usage of the builder API. The set of facts is
// closed: BuilderCreation, CustomBuilderDeclaration and MemberSelection.
type Fact interface {
	Provider() ProviderIdentity
	Location() Location
	fact()
}

// BuilderCreation records `new ItemBuilder<T>()` or
// `new ItemBuilder<T, TPath>()`.
type BuilderCreation struct {
	Target   symbols.Type
	Identity ProviderIdentity
	Loc      Location
}

// CustomBuilderDeclaration records a class deriving from the builder.
type CustomBuilderDeclaration struct {
	Builder  string
	Identity ProviderIdentity
	Loc      Location
}

// MemberSelection records a path such as `p.Member1.Member2` rooted at the
// identifier Identifier. Chain holds the selected member names.
type MemberSelection struct {
	Identifier string
	Chain      []string
	Identity   ProviderIdentity
	Loc        Location
}

func (f BuilderCreation) String() string {
	return fmt.Sprintf("creation of %s at %s", f.Identity.Key(), f.Loc)
}

func (f CustomBuilderDeclaration) String() string {
	return fmt.Sprintf("custom builder %s of %s at %s", f.Builder, f.Identity.Key(), f.Loc)
}

func (f MemberSelection) String() string {
	return fmt.Sprintf("selection %s.%s of %s at %s", f.Identifier, strings.Join(f.Chain, "."), f.Identity.Key(), f.Loc)
}

func (f BuilderCreation) Provider() ProviderIdentity          { return f.Identity }
func (f BuilderCreation) Location() Location                  { return f.Loc }
func (BuilderCreation) fact()                                 {}
func (f CustomBuilderDeclaration) Provider() ProviderIdentity { return f.Identity }
func (f CustomBuilderDeclaration) Location() Location         { return f.Loc }
func (CustomBuilderDeclaration) fact()                        {}
func (f MemberSelection) Provider() ProviderIdentity          { return f.Identity }
func (f MemberSelection) Location() Location                  { return f.Loc }
func (MemberSelection) fact()                                 {}
