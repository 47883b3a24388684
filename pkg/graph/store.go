package graph

import (
	"slices"
	"sort"
)

// Store is an in-memory labeled graph. Vertices and edges are kept
// in arenas keyed by id, all references between them are ids.
//
// A Store is not synchronized. All calls are expected to be issued
// from a single logical thread of control.
type Store struct {
	vertices map[Id]*Vertex
	edges    map[Id]*Edge
	seq      uint64
	local    int64
	notifier Notifier
}

func NewStore(n ...Notifier) *Store {
	s := &Store{
		vertices: map[Id]*Vertex{},
		edges:    map[Id]*Edge{},
	}
	if len(n) > 0 {
		s.notifier = n[0]
	}
	return s
}

// SetNotifier sets the receiver for mutation events.
func (s *Store) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Store) notify(op EventOp, kind ElementKind, id Id, label string) {
	if s.notifier != nil {
		s.notifier.TriggerEvent(Event{Op: op, Kind: kind, Id: id, Label: label})
	}
}

// NewLocalId provides a new unused local placeholder id.
func (s *Store) NewLocalId() Id {
	for {
		s.local--
		id := LocalId(s.local)
		if s.vertices[id] == nil && s.edges[id] == nil {
			return id
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// queries

func (s *Store) Len() (vertices int, edges int) {
	return len(s.vertices), len(s.edges)
}

func (s *Store) Vertex(id Id) *Vertex {
	return s.vertices[id]
}

func (s *Store) GetVertex(id Id) (*Vertex, error) {
	v := s.vertices[id]
	if v == nil {
		return nil, vertexNotFound(id)
	}
	return v, nil
}

func (s *Store) Edge(id Id) *Edge {
	return s.edges[id]
}

func (s *Store) GetEdge(id Id) (*Edge, error) {
	e := s.edges[id]
	if e == nil {
		return nil, edgeNotFound(id)
	}
	return e, nil
}

// Vertices returns all vertices in creation order.
func (s *Store) Vertices() []*Vertex {
	r := make([]*Vertex, 0, len(s.vertices))
	for _, v := range s.vertices {
		r = append(r, v)
	}
	sortBySeq(r)
	return r
}

// VerticesWithLabel returns all vertices carrying the given label
// in creation order.
func (s *Store) VerticesWithLabel(label string) []*Vertex {
	var r []*Vertex
	for _, v := range s.vertices {
		if v.HasLabel(label) {
			r = append(r, v)
		}
	}
	sortBySeq(r)
	return r
}

func sortBySeq(list []*Vertex) {
	sort.Slice(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
}

// Out returns the outgoing edges of a vertex for a label
// in insertion order.
func (s *Store) Out(id Id, label string) []*Edge {
	v := s.vertices[id]
	if v == nil {
		return nil
	}
	return s.resolveEdges(v.Out[label])
}

// In returns the incoming edges of a vertex for a label
// in insertion order.
func (s *Store) In(id Id, label string) []*Edge {
	v := s.vertices[id]
	if v == nil {
		return nil
	}
	return s.resolveEdges(v.In[label])
}

func (s *Store) resolveEdges(ids []Id) []*Edge {
	r := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		if e := s.edges[id]; e != nil {
			r = append(r, e)
		}
	}
	return r
}

////////////////////////////////////////////////////////////////////////////////
// mutations

// AddVertex registers a new vertex. An empty id is replaced by a new
// local id. The adjacency of the given vertex is ignored.
func (s *Store) AddVertex(v *Vertex) (Id, error) {
	if v.Id == "" {
		v.Id = s.NewLocalId()
	}
	if s.vertices[v.Id] != nil {
		return "", conflict("vertex", v.Id)
	}
	n := v.Clone()
	n.Out = Adjacency{}
	n.In = Adjacency{}
	s.insertVertex(n)
	log.Debug("added vertex {{vertex}}", "vertex", n)
	s.notify(EventAdded, ElementVertex, n.Id, n.PrimaryLabel())
	return n.Id, nil
}

func (s *Store) insertVertex(v *Vertex) {
	if v.Seq == 0 {
		s.seq++
		v.Seq = s.seq
	} else if v.Seq > s.seq {
		s.seq = v.Seq
	}
	s.vertices[v.Id] = v
}

// RestoreVertex re-inserts a deleted vertex together with its
// adjacency and the given edges at their former positions.
// It is the inverse of DeleteVertex.
func (s *Store) RestoreVertex(v *Vertex, edges []EdgePlacement) error {
	if s.vertices[v.Id] != nil {
		return conflict("vertex", v.Id)
	}
	for _, p := range edges {
		if s.edges[p.Id] != nil {
			return conflict("edge", p.Id)
		}
		if p.Source != v.Id && s.vertices[p.Source] == nil {
			return vertexNotFound(p.Source)
		}
		if p.Target != v.Id && s.vertices[p.Target] == nil {
			return vertexNotFound(p.Target)
		}
	}

	s.insertVertex(v.Clone())

	sources := slices.Clone(edges)
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].OutPos < sources[j].OutPos })
	for _, p := range sources {
		e := p.Edge
		s.edges[e.Id] = &e
		if p.Source != v.Id {
			s.vertices[p.Source].Out.add(p.Label, p.Id, p.OutPos)
		}
	}
	targets := slices.Clone(edges)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].InPos < targets[j].InPos })
	for _, p := range targets {
		if p.Target != v.Id {
			s.vertices[p.Target].In.add(p.Label, p.Id, p.InPos)
		}
	}
	log.Debug("restored vertex {{vertex}} with {{edges}} edges", "vertex", v, "edges", len(edges))
	s.notify(EventAdded, ElementVertex, v.Id, v.PrimaryLabel())
	for _, p := range edges {
		s.notify(EventAdded, ElementEdge, p.Id, p.Label)
	}
	return nil
}

// AddEdge creates a new edge with a local id and appends it to
// the adjacency lists of both endpoints.
func (s *Store) AddEdge(label string, source, target Id) (Id, error) {
	p := EdgePlacement{
		Edge:   Edge{Id: s.NewLocalId(), Label: label, Source: source, Target: target},
		OutPos: -1,
		InPos:  -1,
	}
	if err := s.InsertEdge(p); err != nil {
		return "", err
	}
	return p.Id, nil
}

// InsertEdge inserts an edge with a given id at the given
// adjacency positions.
func (s *Store) InsertEdge(p EdgePlacement) error {
	if p.Id == "" {
		p.Id = s.NewLocalId()
	}
	if s.edges[p.Id] != nil {
		return conflict("edge", p.Id)
	}
	src := s.vertices[p.Source]
	if src == nil {
		return vertexNotFound(p.Source)
	}
	tgt := s.vertices[p.Target]
	if tgt == nil {
		return vertexNotFound(p.Target)
	}
	e := p.Edge
	s.edges[e.Id] = &e
	src.Out.add(e.Label, e.Id, p.OutPos)
	tgt.In.add(e.Label, e.Id, p.InPos)
	log.Debug("added edge {{edge}}", "edge", &e)
	s.notify(EventAdded, ElementEdge, e.Id, e.Label)
	return nil
}

// DeleteEdge removes an edge and returns its former placement.
func (s *Store) DeleteEdge(id Id) (EdgePlacement, error) {
	e := s.edges[id]
	if e == nil {
		return EdgePlacement{}, edgeNotFound(id)
	}
	p := s.placement(e)
	s.vertices[e.Source].Out.remove(e.Label, id)
	s.vertices[e.Target].In.remove(e.Label, id)
	delete(s.edges, id)
	log.Debug("deleted edge {{edge}}", "edge", e)
	s.notify(EventRemoved, ElementEdge, e.Id, e.Label)
	return p, nil
}

// Placement returns an edge together with its current
// adjacency positions.
func (s *Store) Placement(id Id) (EdgePlacement, error) {
	e := s.edges[id]
	if e == nil {
		return EdgePlacement{}, edgeNotFound(id)
	}
	return s.placement(e), nil
}

func (s *Store) placement(e *Edge) EdgePlacement {
	return EdgePlacement{
		Edge:   *e,
		OutPos: s.vertices[e.Source].Out.index(e.Label, e.Id),
		InPos:  s.vertices[e.Target].In.index(e.Label, e.Id),
	}
}

// DeleteVertex removes a vertex and cascades to all edges touching it.
// The reciprocal adjacency entries of neighbors are stripped.
// It returns the removed vertex and the placements of the removed edges.
func (s *Store) DeleteVertex(id Id) (*Vertex, []EdgePlacement, error) {
	v := s.vertices[id]
	if v == nil {
		return nil, nil, vertexNotFound(id)
	}

	var ids []Id
	for _, l := range v.Out.Labels() {
		ids = append(ids, v.Out[l]...)
	}
	for _, l := range v.In.Labels() {
		for _, eid := range v.In[l] {
			if !slices.Contains(ids, eid) {
				ids = append(ids, eid)
			}
		}
	}

	placements := make([]EdgePlacement, 0, len(ids))
	for _, eid := range ids {
		if e := s.edges[eid]; e != nil {
			placements = append(placements, s.placement(e))
		}
	}

	for _, p := range placements {
		if p.Source != id {
			s.vertices[p.Source].Out.remove(p.Label, p.Id)
		}
		if p.Target != id {
			s.vertices[p.Target].In.remove(p.Label, p.Id)
		}
		delete(s.edges, p.Id)
	}
	delete(s.vertices, id)

	log.Debug("deleted vertex {{vertex}} with {{edges}} edges", "vertex", v, "edges", len(placements))
	for _, p := range placements {
		s.notify(EventRemoved, ElementEdge, p.Id, p.Label)
	}
	s.notify(EventRemoved, ElementVertex, v.Id, v.PrimaryLabel())
	return v, placements, nil
}

// MergeProperties shallow merges the given keys into the properties
// of a vertex. Null values are stored and hide the effective value.
// It returns the former properties.
func (s *Store) MergeProperties(id Id, patch Properties) (Properties, error) {
	v := s.vertices[id]
	if v == nil {
		return nil, vertexNotFound(id)
	}
	prior := v.Properties.Clone()
	if v.Properties == nil {
		v.Properties = Properties{}
	}
	for k, e := range patch {
		v.Properties[k] = e.Clone()
	}
	log.Debug("merged {{count}} properties into {{vertex}}", "count", len(patch), "vertex", v)
	s.notify(EventModified, ElementVertex, v.Id, v.PrimaryLabel())
	return prior, nil
}

// ReplaceProperties replaces all properties of a vertex and returns
// the former properties.
func (s *Store) ReplaceProperties(id Id, props Properties) (Properties, error) {
	v := s.vertices[id]
	if v == nil {
		return nil, vertexNotFound(id)
	}
	prior := v.Properties.Clone()
	v.Properties = props.Clone()
	log.Debug("replaced properties of {{vertex}}", "vertex", v)
	s.notify(EventModified, ElementVertex, v.Id, v.PrimaryLabel())
	return prior, nil
}

// ListEvents provides added events for all current vertices
// carrying the given label (all vertices for the empty label).
func (s *Store) ListEvents(label string) []Event {
	list := s.Vertices()
	if label != "" {
		list = s.VerticesWithLabel(label)
	}
	r := make([]Event, 0, len(list))
	for _, v := range list {
		r = append(r, Event{Op: EventAdded, Kind: ElementVertex, Id: v.Id, Label: v.PrimaryLabel()})
	}
	return r
}
