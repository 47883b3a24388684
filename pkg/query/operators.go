package query

import (
	"github.com/mandelsoft/graphstore/pkg/expression"
	"github.com/mandelsoft/graphstore/pkg/graph"
)

// Precedences of the graph operators.
const (
	PrecUnion     = expression.PrecConcat
	PrecTraversal = 90
	PrecPrefix    = 100
)

// AddGraphOperators installs the graph query operators
// and the query name resolution on a builder.
func AddGraphOperators(b *expression.Builder) *expression.Builder {
	return b.
		Binary("->", PrecTraversal, expression.LeftAssoc, traverseFrom(outgoing)).
		Binary("<-", PrecTraversal, expression.LeftAssoc, traverseFrom(incoming)).
		Binary("::", PrecTraversal, expression.LeftAssoc, projectFrom).
		Binary("++", PrecUnion, expression.LeftAssoc, union).
		Unary("->", PrecPrefix, traverse(outgoing)).
		Unary("<-", PrecPrefix, traverse(incoming)).
		Unary("::", PrecPrefix, project).
		Unary("g:", PrecPrefix, global).
		UnaryAsync("g:", globalAsync).
		Unary("id:", PrecPrefix, byId).
		Unary("json:", PrecPrefix, parseJSON).
		Unary("T:", PrecPrefix, text).
		Names(resolveName).
		Display(Display)
}

// NewBuilder provides a builder with the standard and graph
// operators, which can be used to add domain operators.
func NewBuilder() *expression.Builder {
	return AddGraphOperators(expression.NewStandardBuilder())
}

var registry = NewBuilder().MustBuild()

// Registry returns the default query operator registry.
func Registry() *expression.Registry {
	return registry
}

func queryContext(e *expression.Evaluation) *Context {
	if c, ok := e.Context.(*Context); ok && c != nil {
		return c
	}
	return &Context{Store: graph.NewStore()}
}

func resolveName(e *expression.Evaluation, name string) (any, error) {
	c := queryContext(e)
	if v, ok := c.Positional(name); ok {
		if v == nil {
			return expression.Undefined, nil
		}
		return Vertices{v}, nil
	}
	if v, ok := c.Variable(name); ok {
		return v, nil
	}
	return expression.Undefined, nil
}

// operandText provides the text of raw operands like labels and
// selectors. Other operand expressions are evaluated and displayed.
func operandText(e *expression.Evaluation, n *expression.Node) (string, bool, error) {
	if s, ok := n.Text(); ok {
		return s, true, nil
	}
	v, err := e.Eval(n)
	if err != nil || expression.IsUndefined(v) {
		return "", false, err
	}
	return Display(v), true, nil
}

func union(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
	args, err := e.EvalAll(operands...)
	if err != nil {
		return nil, err
	}
	if expression.IsUndefined(args[0]) && expression.IsUndefined(args[1]) {
		return expression.Undefined, nil
	}
	r := Vertices{}
	for _, a := range args {
		if expression.IsUndefined(a) {
			continue
		}
		list, ok := AsVertices(a)
		if !ok {
			return expression.Undefined, nil
		}
		r = append(r, list...)
	}
	return r, nil
}

func text(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
	v, err := e.Eval(operands[0])
	if err != nil {
		return nil, err
	}
	return Display(v), nil
}
