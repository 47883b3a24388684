package query

import (
	"context"

	"github.com/mandelsoft/graphstore/pkg/expression"
)

// Query is a parsed graph query.
type Query struct {
	text     string
	node     *expression.Node
	registry *expression.Registry
}

// Compile parses a query with the default registry.
// Syntax errors are reported once here, never during evaluation.
func Compile(text string) (*Query, error) {
	return CompileWith(registry, text)
}

// CompileWith parses a query with a registry extending the
// graph operators.
func CompileWith(r *expression.Registry, text string) (*Query, error) {
	n, err := r.Parse(text)
	if err != nil {
		return nil, err
	}
	return &Query{text: text, node: n, registry: r}, nil
}

func MustCompile(text string) *Query {
	q, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Query) String() string {
	return q.text
}

func (q *Query) Node() *expression.Node {
	return q.node
}

// Evaluate evaluates the query synchronously.
func (q *Query) Evaluate(c *Context) (any, error) {
	return q.registry.Evaluate(q.node, c)
}

// EvaluateAsync evaluates the query using the async operator
// implementations, for example loading missing labels for
// global lookups.
func (q *Query) EvaluateAsync(ctx context.Context, c *Context) (any, error) {
	return q.registry.EvaluateAsync(ctx, q.node, c)
}

// Result evaluates the query and classifies the result.
func (q *Query) Result(c *Context) (Result, error) {
	v, err := q.Evaluate(c)
	if err != nil {
		return Result{}, err
	}
	return AsResult(v), nil
}

func (q *Query) ResultAsync(ctx context.Context, c *Context) (Result, error) {
	v, err := q.EvaluateAsync(ctx, c)
	if err != nil {
		return Result{}, err
	}
	return AsResult(v), nil
}

// Text evaluates the query and provides the display text of the result.
func (q *Query) Text(c *Context) (string, error) {
	v, err := q.Evaluate(c)
	if err != nil {
		return "", err
	}
	return Display(v), nil
}

// Evaluate compiles and evaluates a query.
func Evaluate(c *Context, text string) (any, error) {
	q, err := Compile(text)
	if err != nil {
		return nil, err
	}
	return q.Evaluate(c)
}
