package query

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/graphstore/pkg/expression"
	"github.com/mandelsoft/graphstore/pkg/graph"
)

// PrimaryLabelPlaceholder is replaced in traversal labels by the
// primary label of each source vertex.
const PrimaryLabelPlaceholder = "$0"

type direction struct {
	name  string
	edges func(s *graph.Store, id graph.Id, label string) []*graph.Edge
	other func(e *graph.Edge) graph.Id
}

var outgoing = &direction{
	name:  "->",
	edges: (*graph.Store).Out,
	other: func(e *graph.Edge) graph.Id { return e.Target },
}

var incoming = &direction{
	name:  "<-",
	edges: (*graph.Store).In,
	other: func(e *graph.Edge) graph.Id { return e.Source },
}

// Traverse follows the edges with the given label in the given
// direction for all source vertices. The result is de-duplicated
// and keeps the first-seen order.
func Traverse(s *graph.Store, sources Vertices, label string, out bool) Vertices {
	d := incoming
	if out {
		d = outgoing
	}
	return d.traverse(s, sources, label)
}

func (d *direction) traverse(s *graph.Store, sources Vertices, label string) Vertices {
	seen := sets.New[graph.Id]()
	result := Vertices{}
	for _, src := range sources {
		l := strings.ReplaceAll(label, PrimaryLabelPlaceholder, src.PrimaryLabel())
		for _, e := range d.edges(s, src.Id, l) {
			id := d.other(e)
			if seen.Has(id) {
				continue
			}
			if v := s.Vertex(id); v != nil {
				seen.Insert(id)
				result = append(result, v)
			}
		}
	}
	return result
}

func (d *direction) hop(c *Context, sources Vertices, label string) any {
	if v, ok := c.WithVertexes(sources).Positional(label); ok {
		if v == nil {
			return expression.Undefined
		}
		return Vertices{v}
	}
	return d.traverse(c.Store, sources, label)
}

// traverse implements the unary form acting on the
// current vertex set of the context.
func traverse(d *direction) expression.Func {
	return func(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
		c := queryContext(e)
		label, ok, err := operandText(e, operands[0])
		if err != nil || !ok {
			return expression.Undefined, err
		}
		return d.hop(c, c.Vertexes, label), nil
	}
}

// traverseFrom implements the binary form. In strict mode a hop
// from or to an empty vertex set does not resolve.
func traverseFrom(d *direction) expression.Func {
	return func(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
		c := queryContext(e)
		left, err := e.Eval(operands[0])
		if err != nil {
			return nil, err
		}
		if expression.IsUndefined(left) {
			return left, nil
		}
		sources, ok := AsVertices(left)
		if !ok {
			return expression.Undefined, nil
		}
		label, ok, err := operandText(e, operands[1])
		if err != nil || !ok {
			return expression.Undefined, err
		}
		if c.Strict && len(sources) == 0 {
			log.Trace("strict traversal {{dir}}{{label}} from empty set", "dir", d.name, "label", label)
			return expression.Undefined, nil
		}
		r := d.hop(c, sources, label)
		if list, ok := r.(Vertices); ok && c.Strict && len(list) == 0 {
			log.Trace("strict traversal {{dir}}{{label}} has no matches", "dir", d.name, "label", label)
			return expression.Undefined, nil
		}
		return r, nil
	}
}
