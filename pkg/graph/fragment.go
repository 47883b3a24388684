package graph

import (
	"slices"
)

// Fragment is a detached part of a graph, used to import
// fetched or loaded elements into a store.
// The adjacency of fragment vertices is derived from the order of
// the fragment edges. Only the incoming lists of a vertex may be
// given, if they deviate from the edge order. MergeFragment uses
// them to restore the incoming order.
type Fragment struct {
	Vertices []*Vertex `json:"vertices,omitempty"`
	Edges    []*Edge   `json:"edges,omitempty"`
}

func (f *Fragment) Len() (int, int) {
	if f == nil {
		return 0, 0
	}
	return len(f.Vertices), len(f.Edges)
}

// MergeFragment merges a fragment into the store. Unknown vertices
// and edges are added, the properties of known vertices are merged.
// Edges with a known id are left untouched.
func (s *Store) MergeFragment(f *Fragment) error {
	if f == nil {
		return nil
	}
	for _, v := range f.Vertices {
		if s.vertices[v.Id] != nil {
			if _, err := s.MergeProperties(v.Id, v.Properties); err != nil {
				return err
			}
			continue
		}
		if _, err := s.AddVertex(v); err != nil {
			return err
		}
	}
	for _, e := range f.Edges {
		if e.Id != "" && s.edges[e.Id] != nil {
			continue
		}
		err := s.InsertEdge(EdgePlacement{Edge: *e, OutPos: -1, InPos: -1})
		if err != nil {
			return err
		}
	}
	s.ApplyIncomingOrder(f)
	return nil
}

// ApplyIncomingOrder rearranges the incoming edges of stored
// vertices as listed by the fragment vertices.
func (s *Store) ApplyIncomingOrder(f *Fragment) {
	if f == nil {
		return
	}
	for _, v := range f.Vertices {
		n := s.vertices[v.Id]
		if n == nil {
			continue
		}
		for l, order := range v.In {
			n.In.reorder(l, order)
		}
	}
}

// Export provides the complete store content as fragment. Vertices
// are listed in creation order, edges in the outgoing adjacency
// order of their sources, so that a merge into an empty store
// reproduces the outgoing order. Incoming lists not implied by
// the edge order are kept with the target vertices.
func (s *Store) Export() *Fragment {
	return s.fragment(func(*Vertex) bool { return true })
}

// Select provides the vertices matching a filter together with
// the edges between them.
func (s *Store) Select(match func(v *Vertex) bool) *Fragment {
	return s.fragment(match)
}

func (s *Store) fragment(match func(v *Vertex) bool) *Fragment {
	f := &Fragment{}
	var selected []*Vertex
	ids := map[Id]bool{}
	for _, v := range s.Vertices() {
		if match(v) {
			selected = append(selected, v)
			ids[v.Id] = true
		}
	}

	implied := map[Id]Adjacency{}
	for _, v := range selected {
		for _, l := range v.Out.Labels() {
			for _, e := range s.Out(v.Id, l) {
				if !ids[e.Target] {
					continue
				}
				c := *e
				f.Edges = append(f.Edges, &c)
				if implied[e.Target] == nil {
					implied[e.Target] = Adjacency{}
				}
				implied[e.Target][l] = append(implied[e.Target][l], e.Id)
			}
		}
	}

	for _, v := range selected {
		c := v.Clone()
		c.Out, c.In, c.Seq = nil, nil, 0
		for _, l := range v.In.Labels() {
			var order []Id
			for _, e := range s.In(v.Id, l) {
				if ids[e.Source] {
					order = append(order, e.Id)
				}
			}
			if !slices.Equal(order, implied[v.Id][l]) {
				if c.In == nil {
					c.In = Adjacency{}
				}
				c.In[l] = order
			}
		}
		f.Vertices = append(f.Vertices, c)
	}
	return f
}
