package graph

import (
	"github.com/pkg/errors"
)

// RemapIds replaces ids according to the given mapping. Vertex ids,
// edge ids, edge endpoints, adjacency entries and Ref property values
// are rewritten consistently.
func (s *Store) RemapIds(m map[Id]Id) error {
	if len(m) == 0 {
		return nil
	}
	for o, n := range m {
		if o == n {
			continue
		}
		if _, ok := m[n]; ok {
			continue
		}
		if s.vertices[n] != nil || s.edges[n] != nil {
			return errors.Wrapf(ErrConflict, "remap %q to %q", o, n)
		}
	}

	vertices := make(map[Id]*Vertex, len(s.vertices))
	for _, v := range s.vertices {
		v.Remap(m)
		vertices[v.Id] = v
	}
	s.vertices = vertices

	edges := make(map[Id]*Edge, len(s.edges))
	for _, e := range s.edges {
		e.Remap(m)
		edges[e.Id] = e
	}
	s.edges = edges
	log.Info("remapped {{count}} ids", "count", len(m))
	return nil
}

// Remap rewrites the id, the adjacency and the Ref properties
// of a vertex in place.
func (v *Vertex) Remap(m map[Id]Id) {
	v.Id = mapId(m, v.Id)
	for _, a := range []Adjacency{v.Out, v.In} {
		for _, list := range a {
			for i, e := range list {
				list[i] = mapId(m, e)
			}
		}
	}
	RemapProperties(v.Properties, m)
}

// Remap rewrites the id and the endpoints of an edge in place.
func (e *Edge) Remap(m map[Id]Id) {
	e.Id = mapId(m, e.Id)
	e.Source = mapId(m, e.Source)
	e.Target = mapId(m, e.Target)
}

func mapId(m map[Id]Id, id Id) Id {
	if n, ok := m[id]; ok {
		return n
	}
	return id
}

// RemapProperties rewrites Ref values of a property set
// according to the given id mapping.
func RemapProperties(p Properties, m map[Id]Id) Properties {
	for k, v := range p {
		p[k] = v.remap(m)
	}
	return p
}

// RemapId maps a single id.
func RemapId(m map[Id]Id, id Id) Id {
	return mapId(m, id)
}
