// Package random generates page trees and random edit
// scenarios for exercising the transaction engine.
package random

import (
	"fmt"
	"math/rand"

	"github.com/goombaio/namegenerator"
	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/ordering"
	"github.com/mandelsoft/graphstore/pkg/transaction"
)

var REALM = logging.DefineRealm("graphstore/random", "random graph scenarios")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

const (
	LabelSite      = "Site"
	LabelPage      = "Page"
	LabelComponent = "Component"

	RelChildren   = "children"
	RelComponents = "components"

	Root = graph.Id("site")
)

type Generator struct {
	rand  *rand.Rand
	names namegenerator.Generator
}

func New(seed int64) *Generator {
	return &Generator{
		rand:  rand.New(rand.NewSource(seed)),
		names: namegenerator.NewNameGenerator(seed),
	}
}

func (g *Generator) Name() string {
	name := ""
	for name == "" {
		name = g.names.Generate()
	}
	return name
}

func Random[T any](g *Generator, list []T) T {
	return list[g.rand.Intn(len(list))]
}

// Tree generates a site with the given number of pages, randomly
// nested, each referring to up to maxComponents components.
func (g *Generator) Tree(pages, components, maxComponents int) *graph.Fragment {
	f := &graph.Fragment{}
	f.Vertices = append(f.Vertices, graph.NewVertex(Root, LabelSite).WithProperty("name", "site"))

	var comps []graph.Id
	for i := 0; i < components; i++ {
		id := graph.Id(fmt.Sprintf("c%d", i+1))
		f.Vertices = append(f.Vertices, graph.NewVertex(id, LabelComponent).WithProperty("key", g.Name()))
		comps = append(comps, id)
	}

	parents := []graph.Id{Root}
	children := map[graph.Id]int{}
	for i := 0; i < pages; i++ {
		id := graph.Id(fmt.Sprintf("p%d", i+1))
		parent := Random(g, parents)
		f.Vertices = append(f.Vertices, graph.NewVertex(id, LabelPage).
			WithProperty("name", g.Name()).
			WithProperty(ordering.DisplayOrder, children[parent]))
		children[parent]++
		f.Edges = append(f.Edges, &graph.Edge{Label: RelChildren, Source: parent, Target: id})
		parents = append(parents, id)

		if len(comps) > 0 && maxComponents > 0 {
			for n := g.rand.Intn(maxComponents + 1); n > 0; n-- {
				f.Edges = append(f.Edges, &graph.Edge{Label: RelComponents, Source: id, Target: Random(g, comps)})
			}
		}
	}
	return f
}

// Scenario executes random edit operations on the page tree
// of a store. Every modification is finished with an undo point.
// It returns the number of modifications.
func (g *Generator) Scenario(e *transaction.Engine, txn int, steps int) (int, error) {
	layer := ordering.New(e)
	count := 0
	for n := 0; n < steps; n++ {
		var mod bool
		var err error
		i := g.rand.Intn(100)
		switch {
		case i < 25:
			mod, err = g.CreatePage(layer, txn)
		case i < 35:
			mod, err = g.DeletePage(e, txn)
		case i < 50:
			mod, err = g.MovePage(layer, txn)
		case i < 65:
			mod, err = g.RenamePage(e, txn)
		case i < 75:
			mod, err = g.SortChildren(layer, txn)
		case i < 90:
			_, err = e.Undo(txn)
		default:
			_, err = e.Redo(txn)
		}
		if err != nil {
			return count, err
		}
		if mod {
			count++
			if err := e.SaveUndoPoint(txn); err != nil {
				return count, err
			}
		}
	}
	return count, nil
}

func (g *Generator) parents(s *graph.Store) []*graph.Vertex {
	return append(s.VerticesWithLabel(LabelSite), s.VerticesWithLabel(LabelPage)...)
}

func (g *Generator) CreatePage(layer *ordering.Layer, txn int) (bool, error) {
	e := layer.Engine()
	parents := g.parents(e.Store())
	if len(parents) == 0 {
		return false, nil
	}
	parent := Random(g, parents)
	id, err := e.AddVertex(txn, graph.NewVertex("", LabelPage).WithProperty("name", g.Name()))
	if err != nil {
		return false, err
	}
	log.Debug("create page {{id}} below {{parent}}", "id", id, "parent", parent)
	return true, layer.Append(txn, parent.Id, RelChildren, id)
}

func (g *Generator) DeletePage(e *transaction.Engine, txn int) (bool, error) {
	pages := e.Store().VerticesWithLabel(LabelPage)
	if len(pages) == 0 {
		return false, nil
	}
	p := Random(g, pages)
	log.Debug("delete page {{id}}", "id", p)
	_, err := e.DeleteSubtree(txn, p.Id, RelChildren)
	return err == nil, err
}

func (g *Generator) MovePage(layer *ordering.Layer, txn int) (bool, error) {
	e := layer.Engine()
	s := e.Store()
	pages := s.VerticesWithLabel(LabelPage)
	if len(pages) == 0 {
		return false, nil
	}
	p := Random(g, pages)
	parent := Random(g, g.parents(s))
	if IsCycle(s, p.Id, parent.Id) {
		return false, nil
	}
	log.Debug("move page {{id}} to {{parent}}", "id", p, "parent", parent)
	return true, layer.Move(txn, RelChildren, p.Id, parent.Id, "")
}

func (g *Generator) RenamePage(e *transaction.Engine, txn int) (bool, error) {
	pages := e.Store().VerticesWithLabel(LabelPage)
	if len(pages) == 0 {
		return false, nil
	}
	p := Random(g, pages)
	name := g.Name()
	log.Debug("rename page {{id}} to {{name}}", "id", p, "name", name)
	return true, e.MergeProperties(txn, p.Id, graph.Properties{"name": graph.String(name)})
}

func (g *Generator) SortChildren(layer *ordering.Layer, txn int) (bool, error) {
	parent := Random(g, g.parents(layer.Engine().Store()))
	n, err := layer.SortChildren(txn, parent.Id, RelChildren)
	return n > 0, err
}

// IsCycle reports whether target is the vertex itself or
// one of its descendants.
func IsCycle(s *graph.Store, id, target graph.Id) bool {
	visited := map[graph.Id]bool{}
	var walk func(graph.Id) bool
	walk = func(cur graph.Id) bool {
		if cur == target {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for _, e := range s.Out(cur, RelChildren) {
			if walk(e.Target) {
				return true
			}
		}
		return false
	}
	return walk(id)
}
