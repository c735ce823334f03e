// Package grouping buckets discovery facts by the path provider they
// configure.
package grouping

import (
	"fmt"

	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/pathtree"
)

// Group is every fact that configures one path provider.
type Group struct {
	Identity model.ProviderIdentity
	// Origins are the creations and custom builders that requested the
	// provider, in discovery order.
	Origins []model.Fact
	// Selections keep insertion order and may repeat chains.
	Selections []model.MemberSelection
}

// Key returns the grouping key.
func (g *Group) Key() model.ProviderKey {
	return g.Identity.Key()
}

// Location returns where the provider was first requested.
func (g *Group) Location() model.Location {
	if len(g.Origins) == 0 {
		return model.Location{}
	}
	return g.Origins[0].Location()
}

// Chains returns the member chains of every selection.
func (g *Group) Chains() [][]string {
	out := make([][]string, 0, len(g.Selections))
	for _, s := range g.Selections {
		out = append(out, s.Chain)
	}
	return out
}

// Groups is the result of grouping. Groups iterate in first-seen order.
type Groups struct {
	order []model.ProviderKey
	byKey map[model.ProviderKey]*Group
	// Dropped holds selections whose provider was never requested by a
	// creation or custom builder.
	Dropped []model.MemberSelection
}

// ByProvider seeds one group per provider requested by a custom builder or
// builder creation, then appends every member selection to its group.
func ByProvider(custom []model.CustomBuilderDeclaration, selections []model.MemberSelection, creations []model.BuilderCreation) *Groups {
	g := &Groups{byKey: make(map[model.ProviderKey]*Group)}
	for _, c := range custom {
		g.seed(c)
	}
	for _, c := range creations {
		g.seed(c)
	}
	for _, s := range selections {
		group, ok := g.byKey[s.Identity.Key()]
		if !ok {
			g.Dropped = append(g.Dropped, s)
			continue
		}
		group.Selections = append(group.Selections, s)
	}
	return g
}

// Facts splits a mixed fact list by shape and groups it.
func Facts(facts []model.Fact) *Groups {
	var (
		custom     []model.CustomBuilderDeclaration
		selections []model.MemberSelection
		creations  []model.BuilderCreation
	)
	for _, f := range facts {
		switch f := f.(type) {
		case model.CustomBuilderDeclaration:
			custom = append(custom, f)
		case model.MemberSelection:
			selections = append(selections, f)
		case model.BuilderCreation:
			creations = append(creations, f)
		default:
			panic(fmt.Sprintf("grouping: unknown fact %T", f))
		}
	}
	return ByProvider(custom, selections, creations)
}

func (g *Groups) seed(f model.Fact) {
	key := f.Provider().Key()
	group, ok := g.byKey[key]
	if !ok {
		group = &Group{Identity: f.Provider()}
		g.byKey[key] = group
		g.order = append(g.order, key)
	}
	group.Origins = append(group.Origins, f)
}

// Len returns the number of groups.
func (g *Groups) Len() int {
	return len(g.order)
}

// All returns the groups in first-seen order.
func (g *Groups) All() []*Group {
	out := make([]*Group, len(g.order))
	for i, k := range g.order {
		out[i] = g.byKey[k]
	}
	return out
}

// Get returns the group for key.
func (g *Groups) Get(key model.ProviderKey) (*Group, bool) {
	group, ok := g.byKey[key]
	return group, ok
}

// Chains returns the selection chains of every group, keyed by provider.
func (g *Groups) Chains() map[model.ProviderKey][][]string {
	out := make(map[model.ProviderKey][][]string, len(g.order))
	for k, group := range g.byKey {
		out[k] = group.Chains()
	}
	return out
}

// Tree pairs a group with its path tree.
type Tree struct {
	Group *Group
	Root  *pathtree.Node
}

// Trees builds one path tree per group, in first-seen order.
func (g *Groups) Trees() []Tree {
	roots := pathtree.BuildEach(g.Chains())
	out := make([]Tree, len(g.order))
	for i, k := range g.order {
		out[i] = Tree{Group: g.byKey[k], Root: roots[k]}
	}
	return out
}
