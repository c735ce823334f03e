package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/pathtree"
	"github.com/twizzar/fixturegen/internal/symbols"
)

type providerData struct {
	Namespace string
	Name      string
	Target    string
	Base      string
	MemberAPI string
	Roots     []*segmentData
	Segments  []*segmentData
}

type segmentData struct {
	Member   string
	Unique   string
	Path     string
	Kind     symbols.MemberKind
	Type     string
	Class    string
	Children []*segmentData
}

// plan resolves every tree node against the members of its parent type.
func (g *Generator) plan(ctx context.Context, in Input) (*providerData, error) {
	target := symbols.QualifiedName(in.Target)
	data := &providerData{
		Namespace: in.Identity.Namespace,
		Name:      in.Identity.Name,
		Target:    target,
		Base:      fmt.Sprintf("global::%s.%s<%s>", g.api.Namespace, g.api.PathProvider, target),
		MemberAPI: "global::" + g.api.Namespace,
	}

	var visit func(t symbols.Type, node *pathtree.Node, parent *pathtree.Segment) ([]*segmentData, error)
	visit = func(t symbols.Type, node *pathtree.Node, parent *pathtree.Segment) ([]*segmentData, error) {
		var out []*segmentData
		for _, key := range node.Keys() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			member, err := selectMember(in, t, key, parent)
			if err != nil {
				return nil, err
			}
			seg := pathtree.NewSegment(parent, member.Name(), member.UniqueName())
			sd := &segmentData{
				Member: member.Name(),
				Unique: member.UniqueName(),
				Path:   seg.PathToHere,
				Kind:   member.Kind(),
				Type:   typeName(member.Type()),
				Class:  className(seg),
			}
			data.Segments = append(data.Segments, sd)

			child, _ := node.Child(key)
			sd.Children, err = visit(member.Type(), child, seg)
			if err != nil {
				return nil, err
			}
			out = append(out, sd)
		}
		return out, nil
	}

	roots, err := visit(in.Target, in.Tree, nil)
	if err != nil {
		return nil, err
	}
	data.Roots = roots
	return data, nil
}

// selectMember finds the member a path key names. Overloads must be
// selected by their unique name.
func selectMember(in Input, t symbols.Type, key string, parent *pathtree.Segment) (symbols.Member, error) {
	where := "fixture"
	if parent != nil {
		where = parent.PathToHere
	}
	if t == nil {
		return nil, &failure{&Failure{
			Message:    fmt.Sprintf("cannot select %s on %s: its type is unknown", key, where),
			Symbol:     in.Target,
			Descriptor: model.MemberNotFound,
			Loc:        in.Location,
		}}
	}

	candidates := symbols.MembersMatching(t, key)
	switch len(candidates) {
	case 0:
		return nil, &failure{&Failure{
			Message:    fmt.Sprintf("%s has no member %s (at %s)", symbols.DisplayName(t), key, where),
			Symbol:     t,
			Descriptor: model.MemberNotFound,
			Loc:        in.Location,
		}}
	case 1:
		return candidates[0], nil
	}
	for _, c := range candidates {
		if c.UniqueName() == key {
			return c, nil
		}
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.UniqueName()
	}
	return nil, &failure{&Failure{
		Message:    fmt.Sprintf("%s.%s is ambiguous between %s", symbols.DisplayName(t), key, strings.Join(names, ", ")),
		Symbol:     t,
		Descriptor: model.AmbiguousMember,
		Loc:        in.Location,
	}}
}

func typeName(t symbols.Type) string {
	if t == nil {
		return "object"
	}
	return symbols.QualifiedName(t)
}

// className derives the nested class name of a segment from the unique
// names along its path.
func className(seg *pathtree.Segment) string {
	var parts []string
	for cur := seg; cur != nil; cur = cur.Parent {
		parts = append(parts, cur.UniqueMemberName)
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		b.WriteString(parts[i])
	}
	b.WriteString("MemberPath")
	return b.String()
}
