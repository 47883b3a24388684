package graph

import (
	"github.com/mandelsoft/graphstore/pkg/utils"
)

// Snapshot is a deep copy of the complete store content.
type Snapshot struct {
	Vertices map[Id]*Vertex `json:"vertices"`
	Edges    map[Id]*Edge   `json:"edges"`
}

func (s *Store) Snapshot() *Snapshot {
	r := &Snapshot{
		Vertices: make(map[Id]*Vertex, len(s.vertices)),
		Edges:    make(map[Id]*Edge, len(s.edges)),
	}
	for id, v := range s.vertices {
		r.Vertices[id] = v.Clone()
	}
	for id, e := range s.edges {
		c := *e
		r.Edges[id] = &c
	}
	return r
}

// Digest provides a hash of the canonical JSON form of the snapshot.
func (s *Snapshot) Digest() (string, error) {
	return utils.HashData(s)
}
