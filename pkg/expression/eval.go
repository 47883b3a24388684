package expression

import (
	"context"
	"fmt"
)

// Evaluation is the state of a single evaluation pass.
// Context is the domain specific evaluation context passed
// to operators and the name resolver.
type Evaluation struct {
	registry *Registry
	ctx      context.Context
	Context  any
}

// Evaluate evaluates an expression tree synchronously.
func (r *Registry) Evaluate(n *Node, c any) (any, error) {
	e := &Evaluation{registry: r, Context: c}
	return e.Eval(n)
}

// EvaluateAsync evaluates an expression tree in async mode.
// Operators with an async implementation use it, all others
// fall back to their synchronous implementation.
func (r *Registry) EvaluateAsync(ctx context.Context, n *Node, c any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	e := &Evaluation{registry: r, ctx: ctx, Context: c}
	return e.Eval(n)
}

func (e *Evaluation) Registry() *Registry {
	return e.registry
}

func (e *Evaluation) IsAsync() bool {
	return e.ctx != nil
}

// Ctx returns the context of an async evaluation and a background
// context for synchronous ones.
func (e *Evaluation) Ctx() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// With provides an evaluation in the same mode using
// another domain context.
func (e *Evaluation) With(c any) *Evaluation {
	return &Evaluation{registry: e.registry, ctx: e.ctx, Context: c}
}

func (e *Evaluation) Display(v any) string {
	return e.registry.Display(v)
}

func (e *Evaluation) Eval(n *Node) (any, error) {
	switch n.Kind {
	case KindLiteral:
		return n.Value, nil
	case KindName:
		if e.registry.names == nil {
			return Undefined, nil
		}
		return e.registry.names(e, n.Name)
	case KindUnary:
		if e.ctx != nil {
			if f := e.registry.async[unaryKey(n.Name)]; f != nil {
				return f(e.ctx, e, n.Operands...)
			}
		}
		op := e.registry.unary[n.Name]
		if op == nil {
			return nil, fmt.Errorf("unknown unary operator %q", n.Name)
		}
		return op.Func(e, n.Operands...)
	case KindBinary:
		if e.ctx != nil {
			if f := e.registry.async[binaryKey(n.Name)]; f != nil {
				return f(e.ctx, e, n.Operands...)
			}
		}
		op := e.registry.binary[n.Name]
		if op == nil {
			return nil, fmt.Errorf("unknown binary operator %q", n.Name)
		}
		return op.Func(e, n.Operands...)
	}
	return nil, fmt.Errorf("invalid node kind %d", n.Kind)
}

// EvalAll evaluates a list of operands.
func (e *Evaluation) EvalAll(operands ...*Node) ([]any, error) {
	r := make([]any, len(operands))
	for i, o := range operands {
		v, err := e.Eval(o)
		if err != nil {
			return nil, err
		}
		r[i] = v
	}
	return r, nil
}
