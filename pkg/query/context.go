package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/utils"
)

// Vertices is an ordered vertex set.
type Vertices []*graph.Vertex

func (v Vertices) Ids() []graph.Id {
	return utils.TransformSlice(v, func(e *graph.Vertex) graph.Id { return e.Id })
}

// GlobalLoader supplies all vertices of a label which are
// not yet resident in a store. It is used by the async
// evaluation of the global lookup.
type GlobalLoader interface {
	LoadLabel(ctx context.Context, label string) (*graph.Fragment, error)
}

type GlobalLoaderFunc func(ctx context.Context, label string) (*graph.Fragment, error)

func (f GlobalLoaderFunc) LoadLabel(ctx context.Context, label string) (*graph.Fragment, error) {
	return f(ctx, label)
}

// Merger merges fetched fragments into a store without
// making them undoable.
type Merger interface {
	MergeUntracked(f *graph.Fragment) error
}

// Context is the evaluation context of a query.
type Context struct {
	Store *graph.Store
	// Vertexes is the current vertex set unary traversals act on.
	Vertexes Vertices
	// Strict lets multi-hop traversals with an empty hop
	// yield an unresolved result.
	Strict bool
	// Variables are used for bare and $ prefixed names and
	// for interpolation in projection paths.
	Variables map[string]any

	Loader GlobalLoader
	// Merger is used to merge loaded fragments. If not set,
	// fragments are merged directly into the store.
	Merger Merger
}

func NewContext(s *graph.Store, vertexes ...*graph.Vertex) *Context {
	return &Context{
		Store:    s,
		Vertexes: vertexes,
	}
}

// WithVertexes provides a copy of the context using another
// current vertex set.
func (c *Context) WithVertexes(vertexes Vertices) *Context {
	n := *c
	n.Vertexes = vertexes
	return &n
}

func (c *Context) WithStrict(b bool) *Context {
	n := *c
	n.Strict = b
	return &n
}

func (c *Context) WithVariable(name string, value any) *Context {
	n := *c
	n.Variables = map[string]any{}
	for k, v := range c.Variables {
		n.Variables[k] = v
	}
	n.Variables[strings.TrimPrefix(name, "$")] = value
	return &n
}

// Positional resolves a $N reference to the Nth vertex of
// the current vertex set.
func (c *Context) Positional(name string) (*graph.Vertex, bool) {
	n, ok := positional(name)
	if !ok {
		return nil, false
	}
	if n >= len(c.Vertexes) {
		return nil, true
	}
	return c.Vertexes[n], true
}

func positional(name string) (int, bool) {
	if !strings.HasPrefix(name, "$") || len(name) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (c *Context) Variable(name string) (any, bool) {
	v, ok := c.Variables[strings.TrimPrefix(name, "$")]
	return v, ok
}

func (c *Context) merge(f *graph.Fragment) error {
	if c.Merger != nil {
		return c.Merger.MergeUntracked(f)
	}
	return c.Store.MergeFragment(f)
}
