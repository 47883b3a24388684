package transaction

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/mandelsoft/graphstore/pkg/graph"
)

type Op string

const (
	// OpAddVertex adds Vertex together with the adjacency
	// entries for Edges (restore).
	OpAddVertex Op = "addVertex"
	// OpDeleteVertex deletes vertex Id and all touching edges.
	OpDeleteVertex Op = "deleteVertex"
	// OpAddEdge inserts Edge at its recorded positions.
	OpAddEdge Op = "addEdge"
	// OpDeleteEdge deletes edge Id.
	OpDeleteEdge Op = "deleteEdge"
	// OpMergeProperties merges Properties into vertex Id.
	OpMergeProperties Op = "mergeProperties"
	// OpReplaceProperties replaces the properties of vertex Id.
	OpReplaceProperties Op = "replaceProperties"
)

// Mutation is a single store mutation. It carries all
// information to be applied and replayed exactly.
type Mutation struct {
	Op         Op                    `json:"op"`
	Vertex     *graph.Vertex         `json:"vertex,omitempty"`
	Edges      []graph.EdgePlacement `json:"edges,omitempty"`
	Edge       *graph.EdgePlacement  `json:"edge,omitempty"`
	Id         graph.Id              `json:"id,omitempty"`
	Properties graph.Properties      `json:"properties,omitempty"`
}

func (m *Mutation) Validate() error {
	switch m.Op {
	case OpAddVertex:
		if m.Vertex == nil {
			return errors.Wrapf(ErrInvalidMutation, "%s: vertex missing", m.Op)
		}
	case OpAddEdge:
		if m.Edge == nil {
			return errors.Wrapf(ErrInvalidMutation, "%s: edge missing", m.Op)
		}
	case OpDeleteVertex, OpDeleteEdge, OpMergeProperties, OpReplaceProperties:
		if m.Id == "" {
			return errors.Wrapf(ErrInvalidMutation, "%s: id missing", m.Op)
		}
	default:
		return errors.Wrapf(ErrInvalidMutation, "unknown operation %q", m.Op)
	}
	return nil
}

// Apply applies the mutation to a store.
func (m *Mutation) Apply(s *graph.Store) error {
	var err error
	switch m.Op {
	case OpAddVertex:
		err = s.RestoreVertex(m.Vertex, m.Edges)
	case OpDeleteVertex:
		_, _, err = s.DeleteVertex(m.Id)
	case OpAddEdge:
		err = s.InsertEdge(*m.Edge)
	case OpDeleteEdge:
		_, err = s.DeleteEdge(m.Id)
	case OpMergeProperties:
		_, err = s.MergeProperties(m.Id, m.Properties)
	case OpReplaceProperties:
		_, err = s.ReplaceProperties(m.Id, m.Properties)
	default:
		err = m.Validate()
	}
	return err
}

func (m *Mutation) Clone() *Mutation {
	c := *m
	if m.Vertex != nil {
		c.Vertex = m.Vertex.Clone()
	}
	c.Edges = slices.Clone(m.Edges)
	if m.Edge != nil {
		e := *m.Edge
		c.Edge = &e
	}
	if m.Properties != nil {
		c.Properties = m.Properties.Clone()
	}
	return &c
}

// Remap rewrites all ids of the mutation in place.
func (m *Mutation) Remap(ids map[graph.Id]graph.Id) {
	if m.Vertex != nil {
		m.Vertex.Remap(ids)
	}
	for i := range m.Edges {
		m.Edges[i].Edge.Remap(ids)
	}
	if m.Edge != nil {
		m.Edge.Edge.Remap(ids)
	}
	m.Id = graph.RemapId(ids, m.Id)
	graph.RemapProperties(m.Properties, ids)
}

func (m *Mutation) String() string {
	switch m.Op {
	case OpAddVertex:
		return string(m.Op) + " " + m.Vertex.String()
	case OpAddEdge:
		return string(m.Op) + " " + m.Edge.Edge.String()
	}
	return string(m.Op) + " " + string(m.Id)
}

// Step is a recorded mutation together with its inverse.
type Step struct {
	Forward Mutation `json:"forward"`
	Inverse Mutation `json:"inverse"`
}

func (s *Step) Remap(ids map[graph.Id]graph.Id) {
	s.Forward.Remap(ids)
	s.Inverse.Remap(ids)
}
