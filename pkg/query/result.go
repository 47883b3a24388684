package query

import (
	"github.com/mandelsoft/graphstore/pkg/expression"
	"github.com/mandelsoft/graphstore/pkg/graph"
)

type State int

const (
	// Matched results carry at least one vertex.
	Matched State = iota
	// Empty results resolved to an empty vertex set.
	Empty
	// Unresolved results stem from a path which did not resolve.
	Unresolved
)

func (s State) String() string {
	switch s {
	case Matched:
		return "matched"
	case Empty:
		return "empty"
	case Unresolved:
		return "unresolved"
	}
	return "invalid"
}

// Result is the explicit tri-state form of a vertex set
// evaluation result.
type Result struct {
	State    State
	Vertices Vertices
	// Value is the raw evaluation result.
	Value any
}

// AsResult classifies an evaluation result. Scalar values
// are reported as Empty vertex sets.
func AsResult(v any) Result {
	if expression.IsUndefined(v) {
		return Result{State: Unresolved, Value: v}
	}
	list, ok := AsVertices(v)
	if !ok || len(list) == 0 {
		return Result{State: Empty, Vertices: Vertices{}, Value: v}
	}
	return Result{State: Matched, Vertices: list, Value: v}
}

func (r Result) IsUnresolved() bool {
	return r.State == Unresolved
}

// Err returns ErrUnresolvedPath for unresolved results.
func (r Result) Err() error {
	if r.State == Unresolved {
		return ErrUnresolvedPath
	}
	return nil
}

// AsVertices converts vertex valued evaluation results.
func AsVertices(v any) (Vertices, bool) {
	switch t := v.(type) {
	case Vertices:
		return t, true
	case []*graph.Vertex:
		return t, true
	case *graph.Vertex:
		if t == nil {
			return Vertices{}, true
		}
		return Vertices{t}, true
	}
	return nil, false
}
