package validation

import (
	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/query"
)

// Rule checks a constraint for a vertex.
type Rule interface {
	Name() string
	// AppliesTo reports whether the rule is responsible for a vertex.
	AppliesTo(v *graph.Vertex) bool
	Check(c *query.Context, v *graph.Vertex) ([]Reason, error)
}

// ReferenceRule blocks changes to vertices still referenced.
// The query is evaluated with the checked vertex as current
// vertex set, every matched vertex is a blocking reference.
type ReferenceRule struct {
	name    string
	label   string
	query   *query.Query
	message string
}

var _ Rule = (*ReferenceRule)(nil)

// NewReferenceRule creates a reference rule for vertices with the
// given label (all vertices for the empty label).
func NewReferenceRule(name, label, expr, message string) (*ReferenceRule, error) {
	q, err := query.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ReferenceRule{name: name, label: label, query: q, message: message}, nil
}

func (r *ReferenceRule) Name() string {
	return r.name
}

func (r *ReferenceRule) AppliesTo(v *graph.Vertex) bool {
	return r.label == "" || v.HasLabel(r.label)
}

func (r *ReferenceRule) Check(c *query.Context, v *graph.Vertex) ([]Reason, error) {
	res, err := r.query.Result(c.WithVertexes(query.Vertices{v}))
	if err != nil {
		return nil, err
	}
	if res.State != query.Matched {
		return nil, nil
	}
	return []Reason{{
		Rule:     r.name,
		Vertex:   v.Id,
		Message:  r.message,
		Blocking: res.Vertices.Ids(),
	}}, nil
}

// UniqueRule requires a property value to be unique among all
// vertices of a label. Values are compared by their display text.
type UniqueRule struct {
	label    string
	property string
}

var _ Rule = (*UniqueRule)(nil)

func NewUniqueRule(label, property string) *UniqueRule {
	return &UniqueRule{label: label, property: property}
}

func (r *UniqueRule) Name() string {
	return "unique " + r.label + "." + r.property
}

func (r *UniqueRule) AppliesTo(v *graph.Vertex) bool {
	return v.HasLabel(r.label)
}

func (r *UniqueRule) Check(c *query.Context, v *graph.Vertex) ([]Reason, error) {
	val, ok := v.Property(r.property)
	if !ok {
		return nil, nil
	}
	return r.CheckValue(c, v.Id, val.String()), nil
}

// CheckValue checks a prospective value for a vertex
// before it is written.
func (r *UniqueRule) CheckValue(c *query.Context, id graph.Id, value string) []Reason {
	sel := &query.Selector{
		Label:  r.label,
		Filter: &query.Filter{Property: r.property, Value: value},
	}
	var blocking []graph.Id
	for _, o := range sel.Lookup(c.Store) {
		if o.Id != id {
			blocking = append(blocking, o.Id)
		}
	}
	if len(blocking) == 0 {
		return nil
	}
	return []Reason{{
		Rule:     r.Name(),
		Vertex:   id,
		Message:  r.property + " " + value + " is already used",
		Blocking: blocking,
	}}
}
