package query

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/mandelsoft/graphstore/pkg/expression"
	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/utils"
)

// Path roots of projections. Paths without one of these
// roots address properties.
const (
	RootProperties = "P"
	RootLabels     = "L"
	RootId         = "id"
)

// MaxInterpolationDepth limits the recursive resolution
// of variables in projection paths.
const MaxInterpolationDepth = 10

var variable = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Interpolate replaces $name references by the display text of
// the variable values. Values may again contain references.
func Interpolate(path string, vars map[string]any) string {
	for i := 0; i < MaxInterpolationDepth && strings.Contains(path, "$"); i++ {
		changed := false
		path = variable.ReplaceAllStringFunc(path, func(m string) string {
			if v, ok := vars[m[1:]]; ok {
				changed = true
				return Display(v)
			}
			return m
		})
		if !changed {
			break
		}
	}
	return path
}

// Project resolves a dotted path on a vertex.
func Project(v *graph.Vertex, path string) (any, bool) {
	segs := strings.Split(path, ".")
	var val graph.Value
	switch segs[0] {
	case RootProperties:
		if len(segs) == 1 {
			return v.Properties, true
		}
		p, ok := v.Property(segs[1])
		if !ok {
			return nil, false
		}
		val = p
		segs = segs[2:]
	case RootLabels:
		val = graph.List(utils.TransformSlice(v.Labels, graph.String)...)
		segs = segs[1:]
	case RootId:
		if len(segs) > 1 {
			return nil, false
		}
		return v.Id, true
	default:
		p, ok := v.Property(segs[0])
		if !ok {
			return nil, false
		}
		val = p
		segs = segs[1:]
	}

	for _, s := range segs {
		switch val.Kind() {
		case graph.KindMap:
			m, _ := val.AsMap()
			e, ok := m[s]
			if !ok || e.IsNull() {
				return nil, false
			}
			val = e
		case graph.KindList:
			l, _ := val.AsList()
			i, err := strconv.Atoi(s)
			if err != nil || i < 0 || i >= len(l) {
				return nil, false
			}
			val = l[i]
		default:
			return nil, false
		}
	}
	return val, true
}

func projection(e *expression.Evaluation, vertices Vertices, n *expression.Node) (any, error) {
	c := queryContext(e)
	path, ok, err := operandText(e, n)
	if err != nil || !ok {
		return expression.Undefined, err
	}
	path = Interpolate(path, c.Variables)

	var parts []string
	for _, v := range vertices {
		if r, ok := Project(v, path); ok {
			parts = append(parts, Display(r))
		}
	}
	if len(parts) == 0 {
		return expression.Undefined, nil
	}
	return strings.Join(parts, ", "), nil
}

func project(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
	return projection(e, queryContext(e).Vertexes, operands[0])
}

func projectFrom(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
	left, err := e.Eval(operands[0])
	if err != nil || expression.IsUndefined(left) {
		return left, err
	}
	vertices, ok := AsVertices(left)
	if !ok {
		return expression.Undefined, nil
	}
	return projection(e, vertices, operands[1])
}

// parseJSON never fails, invalid documents are logged
// and yield undefined.
func parseJSON(e *expression.Evaluation, operands ...*expression.Node) (any, error) {
	t, ok, err := operandText(e, operands[0])
	if err != nil || !ok {
		return expression.Undefined, err
	}
	var r any
	if err := json.Unmarshal([]byte(t), &r); err != nil {
		log.Error("invalid json operand {{text}}", "text", t, "error", err)
		return expression.Undefined, nil
	}
	return r, nil
}
