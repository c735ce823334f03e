package discovery

import (
	"context"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/twizzar/fixturegen/internal/lang"
	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/parse"
	"github.com/twizzar/fixturegen/internal/semantic"
	"github.com/twizzar/fixturegen/internal/symbols"
)

// BuilderCreations finds `new ItemBuilder<T>()` and
// `new ItemBuilder<T, TPath>()` expressions.
func (d *Discoverer) BuilderCreations(ctx context.Context, f *parse.File) ([]model.BuilderCreation, error) {
	api := d.model.API()
	var out []model.BuilderCreation
	for _, node := range lang.Collect(f.Root(), lang.ObjectCreationExpression) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		typeNode := node.ChildByFieldName("type")
		if typeNode == nil || lang.SimpleName(typeNode, f.Source) != api.Builder {
			continue
		}
		t := d.model.ResolveTypeSyntax(f, typeNode)
		if !d.model.IsBuilder(t) {
			continue
		}
		id, ok := d.providerOf(t)
		if !ok {
			continue
		}
		out = append(out, model.BuilderCreation{
			Target:   id.Target,
			Identity: id,
			Loc:      location(f, node),
		})
	}
	return out, nil
}

// CustomBuilders finds class declarations deriving, directly or not, from
// the builder.
func (d *Discoverer) CustomBuilders(ctx context.Context, f *parse.File) ([]model.CustomBuilderDeclaration, error) {
	var out []model.CustomBuilderDeclaration
	for _, node := range lang.Collect(f.Root(), lang.ClassDeclaration, lang.RecordDeclaration) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, ok := d.model.DeclaredType(f, node)
		if !ok || d.model.IsBuilder(t) {
			continue
		}
		id, ok := d.providerOf(t)
		if !ok {
			continue
		}
		at := node
		if name := node.ChildByFieldName("name"); name != nil {
			at = name
		}
		out = append(out, model.CustomBuilderDeclaration{
			Builder:  symbols.DisplayName(t),
			Identity: id,
			Loc:      location(f, at),
		})
	}
	return out, nil
}

// MemberSelections finds member paths rooted at a configuration lambda
// parameter or at a local of a path provider type.
func (d *Discoverer) MemberSelections(ctx context.Context, f *parse.File) ([]model.MemberSelection, error) {
	var out []model.MemberSelection
	// Lambdas already classified, keyed by start byte.
	lambdas := make(map[uint32]lambdaVerdict)

	for _, access := range lang.Collect(f.Root(), lang.MemberAccessExpression) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ident := access.ChildByFieldName("expression")
		if ident == nil || ident.Type() != lang.Identifier {
			continue
		}
		chain := selectionChain(f, ident)
		if len(chain) == 0 {
			continue
		}
		local, ok := d.model.LookupLocal(f, ident)
		if !ok {
			continue
		}

		var id model.ProviderIdentity
		switch local.Kind {
		case semantic.LambdaParameter:
			v, seen := lambdas[local.Lambda.StartByte()]
			if !seen {
				v = d.classifyLambda(f, local.Lambda)
				lambdas[local.Lambda.StartByte()] = v
			}
			if !v.ok {
				continue
			}
			id = v.identity
		default:
			id, ok = d.pathProviderOf(local.Type)
			if !ok {
				continue
			}
		}

		out = append(out, model.MemberSelection{
			Identifier: local.Name,
			Chain:      chain,
			Identity:   id,
			Loc:        location(f, ident),
		})
	}
	return out, nil
}

type lambdaVerdict struct {
	identity model.ProviderIdentity
	ok       bool
}

// classifyLambda decides whether lambda is an argument of a configuration
// call and, if so, which provider the call configures.
func (d *Discoverer) classifyLambda(f *parse.File, lambda *sitter.Node) lambdaVerdict {
	arg := lambda.Parent()
	if arg == nil || arg.Type() != lang.ArgumentNode {
		return lambdaVerdict{}
	}
	list := arg.Parent()
	if list == nil || list.Type() != lang.ArgumentList {
		return lambdaVerdict{}
	}
	inv := list.Parent()
	if inv == nil || inv.Type() != lang.InvocationExpression {
		return lambdaVerdict{}
	}

	res := d.model.ResolveInvocation(f, inv)
	if !d.isAPICall(res) {
		return lambdaVerdict{}
	}
	if res.Receiver == nil {
		line, col := lang.Position(inv)
		d.logger.Debug("configuration call without receiver type",
			slog.String("file", f.Path), slog.Int("line", line), slog.Int("column", col))
		return lambdaVerdict{}
	}
	if id, ok := d.providerOf(res.Receiver); ok {
		return lambdaVerdict{identity: id, ok: true}
	}
	if id, ok := d.pathProviderOf(res.Receiver); ok {
		return lambdaVerdict{identity: id, ok: true}
	}
	return lambdaVerdict{}
}

// isAPICall accepts the bound method or, when binding failed, any overload
// candidate declared in the API namespace.
func (d *Discoverer) isAPICall(res semantic.MethodResolution) bool {
	ns := d.model.API().Namespace
	if res.Symbol != nil {
		return res.Symbol.Namespace() == ns
	}
	for _, c := range res.Candidates {
		if c.Namespace() == ns {
			return true
		}
	}
	return false
}

// selectionChain walks the member accesses enclosing ident. A member access
// that is invoked is the configuration call itself and ends the chain.
func selectionChain(f *parse.File, ident *sitter.Node) []string {
	var chain []string
	cur := ident
	for {
		parent := cur.Parent()
		if parent == nil || parent.Type() != lang.MemberAccessExpression {
			break
		}
		if !lang.SameNode(parent.ChildByFieldName("expression"), cur) {
			break
		}
		if isCallee(parent) {
			break
		}
		name := parent.ChildByFieldName("name")
		if name == nil {
			break
		}
		chain = append(chain, lang.SimpleName(name, f.Source))
		cur = parent
	}
	return chain
}

func isCallee(access *sitter.Node) bool {
	parent := access.Parent()
	if parent == nil || parent.Type() != lang.InvocationExpression {
		return false
	}
	return lang.SameNode(parent.ChildByFieldName("function"), access)
}
