package transaction

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/graphstore/pkg/graph"
)

// The recorded mutation primitives. All store writes of clients
// are expected to go through them. Mutations for the Untracked
// transaction are applied without being recorded.

// AddVertex adds a vertex. An empty id is replaced by a new local id.
func (e *Engine) AddVertex(txn int, v *graph.Vertex) (graph.Id, error) {
	id, err := e.store.AddVertex(v)
	if err != nil {
		return "", err
	}
	e.RecordStep(txn,
		Mutation{Op: OpDeleteVertex, Id: id},
		Mutation{Op: OpAddVertex, Vertex: e.store.Vertex(id).Clone()},
	)
	return id, nil
}

// AddEdge appends a new edge to the adjacency lists of its endpoints.
func (e *Engine) AddEdge(txn int, label string, source, target graph.Id) (graph.Id, error) {
	id, err := e.store.AddEdge(label, source, target)
	if err != nil {
		return "", err
	}
	return id, e.recordEdge(txn, id)
}

// InsertEdge inserts an edge at the given positions. An empty edge
// id is replaced by a new local id.
func (e *Engine) InsertEdge(txn int, p graph.EdgePlacement) (graph.Id, error) {
	if p.Id == "" {
		p.Id = e.store.NewLocalId()
	}
	if err := e.store.InsertEdge(p); err != nil {
		return "", err
	}
	return p.Id, e.recordEdge(txn, p.Id)
}

func (e *Engine) recordEdge(txn int, id graph.Id) error {
	p, err := e.store.Placement(id)
	if err != nil {
		return err
	}
	e.RecordStep(txn,
		Mutation{Op: OpDeleteEdge, Id: id},
		Mutation{Op: OpAddEdge, Edge: &p},
	)
	return nil
}

func (e *Engine) DeleteEdge(txn int, id graph.Id) error {
	p, err := e.store.DeleteEdge(id)
	if err != nil {
		return err
	}
	e.RecordStep(txn,
		Mutation{Op: OpAddEdge, Edge: &p},
		Mutation{Op: OpDeleteEdge, Id: id},
	)
	return nil
}

// DeleteVertex deletes a vertex and all edges touching it.
func (e *Engine) DeleteVertex(txn int, id graph.Id) error {
	v, edges, err := e.store.DeleteVertex(id)
	if err != nil {
		return err
	}
	e.RecordStep(txn,
		Mutation{Op: OpAddVertex, Vertex: v.Clone(), Edges: edges},
		Mutation{Op: OpDeleteVertex, Id: id},
	)
	return nil
}

// DeleteSubtree deletes a vertex and all vertices reachable through
// outgoing edges with the given label. Descendants are deleted
// before their parents. It returns the deleted ids in deletion order.
func (e *Engine) DeleteSubtree(txn int, id graph.Id, label string) ([]graph.Id, error) {
	if _, err := e.store.GetVertex(id); err != nil {
		return nil, err
	}
	var order []graph.Id
	visited := sets.New[graph.Id]()
	var walk func(id graph.Id)
	walk = func(id graph.Id) {
		visited.Insert(id)
		for _, edge := range e.store.Out(id, label) {
			if !visited.Has(edge.Target) {
				walk(edge.Target)
			}
		}
		order = append(order, id)
	}
	walk(id)

	for i, v := range order {
		if err := e.DeleteVertex(txn, v); err != nil {
			return order[:i], err
		}
	}
	return order, nil
}

// MergeProperties shallow merges properties into a vertex.
func (e *Engine) MergeProperties(txn int, id graph.Id, patch graph.Properties) error {
	prior, err := e.store.MergeProperties(id, patch)
	if err != nil {
		return err
	}
	e.RecordStep(txn,
		Mutation{Op: OpReplaceProperties, Id: id, Properties: prior},
		Mutation{Op: OpMergeProperties, Id: id, Properties: patch.Clone()},
	)
	return nil
}

func (e *Engine) ReplaceProperties(txn int, id graph.Id, props graph.Properties) error {
	prior, err := e.store.ReplaceProperties(id, props)
	if err != nil {
		return err
	}
	e.RecordStep(txn,
		Mutation{Op: OpReplaceProperties, Id: id, Properties: prior},
		Mutation{Op: OpReplaceProperties, Id: id, Properties: props.Clone()},
	)
	return nil
}

// Apply applies a mutation through the matching primitive.
// Positions of added edges are respected, the adjacency
// and the edges of added vertices are ignored.
func (e *Engine) Apply(txn int, m *Mutation) error {
	if err := m.Validate(); err != nil {
		return err
	}
	var err error
	switch m.Op {
	case OpAddVertex:
		_, err = e.AddVertex(txn, m.Vertex)
	case OpDeleteVertex:
		err = e.DeleteVertex(txn, m.Id)
	case OpAddEdge:
		_, err = e.InsertEdge(txn, *m.Edge)
	case OpDeleteEdge:
		err = e.DeleteEdge(txn, m.Id)
	case OpMergeProperties:
		err = e.MergeProperties(txn, m.Id, m.Properties)
	case OpReplaceProperties:
		err = e.ReplaceProperties(txn, m.Id, m.Properties)
	}
	return err
}

// Import adds a fragment. Known vertices get their properties
// merged, edges with known ids are skipped.
func (e *Engine) Import(txn int, f *graph.Fragment) error {
	if f == nil {
		return nil
	}
	for _, v := range f.Vertices {
		if e.store.Vertex(v.Id) != nil {
			if err := e.MergeProperties(txn, v.Id, v.Properties); err != nil {
				return err
			}
			continue
		}
		n := v.Clone()
		n.Seq = 0
		if _, err := e.AddVertex(txn, n); err != nil {
			return err
		}
	}
	for _, edge := range f.Edges {
		if edge.Id != "" && e.store.Edge(edge.Id) != nil {
			continue
		}
		_, err := e.InsertEdge(txn, graph.EdgePlacement{Edge: *edge, OutPos: -1, InPos: -1})
		if err != nil {
			return err
		}
	}
	return nil
}

// MergeUntracked imports a fragment without recording it.
// It is used to merge fetched elements into the store, the
// incoming edge order of the fragment is kept.
func (e *Engine) MergeUntracked(f *graph.Fragment) error {
	if err := e.Import(Untracked, f); err != nil {
		return err
	}
	e.store.ApplyIncomingOrder(f)
	return nil
}
