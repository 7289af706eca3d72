package template

import (
	"maps"
	"strings"

	starctx "github.com/leapstack-labs/pgdef/internal/starlark"
	"go.starlark.net/starlark"
)

// RenderString parses and renders input in one step.
func RenderString(input, file string, ctx *starctx.ExecutionContext) (string, error) {
	tmpl, err := ParseString(input, file)
	if err != nil {
		return "", err
	}
	return Render(tmpl, ctx)
}

// Render executes a parsed template against ctx.
func Render(tmpl *Template, ctx *starctx.ExecutionContext) (string, error) {
	r := &renderer{ctx: ctx, file: tmpl.File}
	if err := r.renderNodes(tmpl.Nodes, nil); err != nil {
		return "", err
	}
	return r.out.String(), nil
}

type renderer struct {
	ctx  *starctx.ExecutionContext
	file string
	out  strings.Builder
}

func (r *renderer) renderNodes(nodes []Node, locals starlark.StringDict) error {
	for _, node := range nodes {
		if err := r.renderNode(node, locals); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderNode(node Node, locals starlark.StringDict) error {
	switch n := node.(type) {
	case *TextNode:
		r.out.WriteString(n.Text)

	case *ExprNode:
		s, err := r.ctx.EvalExprStringWithLocals(n.Expr, r.file, n.Pos().Line, locals)
		if err != nil {
			return WrapRenderError(n.Pos(), "expression failed", err)
		}
		r.out.WriteString(s)

	case *ForBlock:
		return r.renderFor(n, locals)

	case *IfBlock:
		return r.renderIf(n, locals)

	default:
		return NewRenderErrorf(node.Pos(), "unexpected node %T", node)
	}
	return nil
}

func (r *renderer) renderFor(n *ForBlock, locals starlark.StringDict) error {
	v, err := r.ctx.EvalExprWithLocals(n.IterExpr, r.file, n.Pos().Line, locals)
	if err != nil {
		return WrapRenderError(n.Pos(), "for iterator failed", err)
	}

	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return NewRenderErrorf(n.Pos(), "cannot iterate over %s", v.Type())
	}

	iter := iterable.Iterate()
	defer iter.Done()

	scope := maps.Clone(locals)
	if scope == nil {
		scope = make(starlark.StringDict, 1)
	}

	var item starlark.Value
	for iter.Next(&item) {
		scope[n.VarName] = item
		if err := r.renderNodes(n.Body, scope); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderIf(n *IfBlock, locals starlark.StringDict) error {
	ok, err := r.truth(n.Condition, n.Pos(), locals)
	if err != nil {
		return err
	}
	if ok {
		return r.renderNodes(n.Body, locals)
	}

	for _, branch := range n.ElseIfs {
		ok, err := r.truth(branch.Condition, branch.pos, locals)
		if err != nil {
			return err
		}
		if ok {
			return r.renderNodes(branch.Body, locals)
		}
	}

	return r.renderNodes(n.Else, locals)
}

func (r *renderer) truth(cond string, pos Position, locals starlark.StringDict) (bool, error) {
	v, err := r.ctx.EvalExprWithLocals(cond, r.file, pos.Line, locals)
	if err != nil {
		return false, WrapRenderError(pos, "condition failed", err)
	}
	return bool(v.Truth()), nil
}
