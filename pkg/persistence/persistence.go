// Package persistence provides a persistence collaborator for the
// transaction engine. A Server keeps the persisted graph, applies
// committed payloads to it and assigns durable ids for local
// placeholder ids. The storage itself is delegated to a Backend.
package persistence

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/query"
	"github.com/mandelsoft/graphstore/pkg/transaction"
	"github.com/mandelsoft/graphstore/pkg/utils"
)

// Backend is the storage used by a Server.
type Backend interface {
	// Load provides the persisted graph. An empty store
	// is reported with a nil fragment.
	Load(ctx context.Context) (*graph.Fragment, error)
	// Store replaces the persisted graph and journals the
	// applied payload.
	Store(ctx context.Context, f *graph.Fragment, journal *transaction.Payload) error
	// NewId provides a new durable element id.
	NewId(ctx context.Context) (graph.Id, error)
}

var ErrNotEmpty = errors.New("persisted graph not empty")

// IdGenerator provides durable ids.
type IdGenerator func(ctx context.Context) (graph.Id, error)

type Server struct {
	lock    sync.Mutex
	backend Backend
	store   *graph.Store
}

var (
	_ transaction.Persister = (*Server)(nil)
	_ query.GlobalLoader    = (*Server)(nil)
)

func New(b Backend) *Server {
	return &Server{backend: b}
}

func (s *Server) current(ctx context.Context) (*graph.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	f, err := s.backend.Load(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "loading graph")
	}
	store := graph.NewStore()
	if err := store.MergeFragment(f); err != nil {
		return nil, errors.Wrapf(err, "loading graph")
	}
	v, e := store.Len()
	log.Debug("loaded graph with {{vertices}} vertices and {{edges}} edges", "vertices", v, "edges", e)
	s.store = store
	return store, nil
}

// Persist applies the mutations of a payload to the persisted graph.
// Local ids are replaced by new durable ids, the mapping is reported
// back with the reconciliation. A payload is applied completely or
// not at all.
func (s *Server) Persist(ctx context.Context, p *transaction.Payload) (*transaction.Reconciliation, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	store, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := AssignIds(ctx, p, s.backend.NewId)
	if err != nil {
		return nil, err
	}

	journal := &transaction.Payload{Transaction: p.Transaction, Submitted: p.Submitted}
	for _, m := range p.Mutations {
		c := m.Clone()
		c.Remap(ids)
		if c.Vertex != nil {
			// creation order is defined by the server
			c.Vertex.Seq = 0
		}
		if err := c.Apply(store); err != nil {
			// the graph is partially modified, reload on next use
			s.store = nil
			return nil, errors.Wrapf(err, "txn %d: %s", p.Transaction, c)
		}
		journal.Mutations = append(journal.Mutations, c)
	}
	if err := s.backend.Store(ctx, store.Export(), journal); err != nil {
		s.store = nil
		return nil, errors.Wrapf(err, "storing txn %d", p.Transaction)
	}
	log.Info("persisted txn {{txn}} with {{count}} mutations ({{assigned}} new ids)", "txn", p.Transaction, "count", len(journal.Mutations), "assigned", len(ids))
	return &transaction.Reconciliation{IdMap: ids}, nil
}

// Initialize fills an empty persisted graph with the content of
// a fragment. Missing and local ids are replaced by durable ids.
// It returns the persisted content.
func (s *Server) Initialize(ctx context.Context, f *graph.Fragment) (*graph.Fragment, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	store, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if v, _ := store.Len(); v > 0 {
		return nil, ErrNotEmpty
	}

	ids := map[graph.Id]graph.Id{}
	durable := func(id graph.Id) (graph.Id, error) {
		if id != "" && !id.IsLocal() {
			return id, nil
		}
		n, err := s.backend.NewId(ctx)
		if err != nil {
			return "", err
		}
		if id != "" {
			ids[id] = n
		}
		return n, nil
	}

	journal := &transaction.Payload{Submitted: utils.NewTimestamp()}
	incoming := &graph.Fragment{}
	for _, v := range f.Vertices {
		c := v.Clone()
		c.Out, c.In, c.Seq = nil, nil, 0
		if c.Id, err = durable(c.Id); err != nil {
			return nil, err
		}
		if len(v.In) > 0 {
			incoming.Vertices = append(incoming.Vertices, &graph.Vertex{Id: c.Id, In: v.In.Clone()})
		}
		journal.Mutations = append(journal.Mutations, &transaction.Mutation{Op: transaction.OpAddVertex, Vertex: c})
	}
	for _, e := range f.Edges {
		c := *e
		if c.Id, err = durable(c.Id); err != nil {
			return nil, err
		}
		journal.Mutations = append(journal.Mutations, &transaction.Mutation{
			Op:   transaction.OpAddEdge,
			Edge: &graph.EdgePlacement{Edge: c, OutPos: -1, InPos: -1},
		})
	}
	for _, m := range journal.Mutations {
		m.Remap(ids)
		if err := m.Apply(store); err != nil {
			s.store = nil
			return nil, errors.Wrapf(err, "initialize: %s", m)
		}
	}
	for _, v := range incoming.Vertices {
		v.Remap(ids)
	}
	store.ApplyIncomingOrder(incoming)
	if err := s.backend.Store(ctx, store.Export(), journal); err != nil {
		s.store = nil
		return nil, errors.Wrapf(err, "storing initial graph")
	}
	log.Info("initialized graph with {{count}} elements", "count", len(journal.Mutations))
	return store.Export(), nil
}

// LoadLabel provides the persisted vertices with the given label
// together with the edges between them.
func (s *Server) LoadLabel(ctx context.Context, label string) (*graph.Fragment, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	store, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return store.Select(func(v *graph.Vertex) bool { return v.HasLabel(label) }), nil
}

// Graph provides the complete persisted graph.
func (s *Server) Graph(ctx context.Context) (*graph.Fragment, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	store, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return store.Export(), nil
}

// AssignIds provides new ids for all local ids introduced by the
// mutations of a payload, in order of appearance.
func AssignIds(ctx context.Context, p *transaction.Payload, gen IdGenerator) (map[graph.Id]graph.Id, error) {
	ids := map[graph.Id]graph.Id{}
	assign := func(id graph.Id) error {
		if !id.IsLocal() || ids[id] != "" {
			return nil
		}
		n, err := gen(ctx)
		if err != nil {
			return errors.Wrapf(err, "assigning id for %s", id)
		}
		ids[id] = n
		return nil
	}
	for _, m := range p.Mutations {
		var list []graph.Id
		switch m.Op {
		case transaction.OpAddVertex:
			list = append(list, m.Vertex.Id)
			for _, e := range m.Edges {
				list = append(list, e.Id)
			}
		case transaction.OpAddEdge:
			list = append(list, m.Edge.Id)
		}
		for _, id := range list {
			if err := assign(id); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}
