package query

import (
	"context"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/graphstore/pkg/expression"
	"github.com/mandelsoft/graphstore/pkg/graph"
)

// Selector is the argument of a global lookup:
// Label or Label[prop=value].
type Selector struct {
	Label  string  `parser:"@Ident"`
	Filter *Filter `parser:"(\"[\" @@ \"]\")?"`
}

type Filter struct {
	Property string `parser:"@Ident \"=\""`
	Value    string `parser:"@(String | Ident | \"-\"? (Float | Int))"`
}

var selectorParser = participle.MustBuild[Selector](participle.Unquote("String"))

func ParseSelector(s string) (*Selector, error) {
	sel, err := selectorParser.ParseString("", s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid selector %q", s)
	}
	return sel, nil
}

// Match checks the property filter. Values are compared by
// their display text, numeric filter values are normalized
// for number properties, so 1.0 matches 1.
func (s *Selector) Match(v *graph.Vertex) bool {
	if s.Filter == nil {
		return true
	}
	p, ok := v.Property(s.Filter.Property)
	if !ok {
		return false
	}
	value := s.Filter.Value
	if _, ok := p.AsNumber(); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			value = graph.FormatNumber(f)
		}
	}
	return p.String() == value
}

func (s *Selector) Lookup(st *graph.Store) Vertices {
	r := Vertices{}
	for _, v := range st.VerticesWithLabel(s.Label) {
		if s.Match(v) {
			r = append(r, v)
		}
	}
	return r
}

func selector(e *expression.Evaluation, n *expression.Node) (*Selector, error) {
	t, ok, err := operandText(e, n)
	if err != nil || !ok {
		return nil, err
	}
	sel, err := ParseSelector(t)
	if err != nil {
		log.Warn("global lookup: {{error}}", "error", err)
		return nil, nil
	}
	return sel, nil
}

func global(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
	sel, err := selector(e, operands[0])
	if err != nil || sel == nil {
		return expression.Undefined, err
	}
	return sel.Lookup(queryContext(e).Store), nil
}

// globalAsync loads the vertices of labels not yet
// resident using the context's loader.
func globalAsync(ctx context.Context, e *expression.Evaluation, operands ...*expression.Node) (any, error) {
	c := queryContext(e)
	sel, err := selector(e, operands[0])
	if err != nil || sel == nil {
		return expression.Undefined, err
	}
	if c.Loader != nil && len(c.Store.VerticesWithLabel(sel.Label)) == 0 {
		log.Debug("loading vertices for label {{label}}", "label", sel.Label)
		f, err := c.Loader.LoadLabel(ctx, sel.Label)
		if err != nil {
			return nil, errors.Wrapf(err, "loading label %q", sel.Label)
		}
		if err := c.merge(f); err != nil {
			return nil, errors.Wrapf(err, "merging label %q", sel.Label)
		}
	}
	return sel.Lookup(c.Store), nil
}

func byId(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
	c := queryContext(e)
	t, ok, err := operandText(e, operands[0])
	if err != nil || !ok {
		return expression.Undefined, err
	}
	seen := sets.New[graph.Id]()
	r := Vertices{}
	for _, id := range graph.ParseIds(t) {
		if seen.Has(id) {
			continue
		}
		if v := c.Store.Vertex(id); v != nil {
			seen.Insert(id)
			r = append(r, v)
		}
	}
	return r, nil
}
