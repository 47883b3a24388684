package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mandelsoft/graphstore/pkg/expression"
	"github.com/mandelsoft/graphstore/pkg/graph"
)

// DisplayNameProperties are the properties used, in this order,
// to provide the display text of a vertex. Vertices without
// any of them are displayed by their primary label.
var DisplayNameProperties = []string{"name", "key"}

// Display provides the canonical display text for
// evaluation results.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *graph.Vertex:
		return VertexDisplay(t)
	case Vertices:
		return join(len(t), func(i int) string { return VertexDisplay(t[i]) })
	case []*graph.Vertex:
		return Display(Vertices(t))
	case graph.Value:
		return t.String()
	case graph.Id:
		return string(t)
	case []any:
		return join(len(t), func(i int) string { return Display(t[i]) })
	case []string:
		return strings.Join(t, ", ")
	case map[string]any, graph.Properties:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
	if expression.IsUndefined(v) {
		return ""
	}
	return expression.DefaultDisplay(v)
}

func join(n int, f func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = f(i)
	}
	return strings.Join(parts, ", ")
}

func VertexDisplay(v *graph.Vertex) string {
	if v == nil {
		return ""
	}
	for _, p := range DisplayNameProperties {
		if e, ok := v.Property(p); ok {
			if s := e.String(); s != "" {
				return s
			}
		}
	}
	return v.PrimaryLabel()
}
