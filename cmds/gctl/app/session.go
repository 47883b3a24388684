package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/graphstore/pkg/fixture"
	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/persistence"
	"github.com/mandelsoft/graphstore/pkg/persistence/badgerdb"
	"github.com/mandelsoft/graphstore/pkg/persistence/filesystem"
	"github.com/mandelsoft/graphstore/pkg/query"
	"github.com/mandelsoft/graphstore/pkg/transaction"
)

// Session is the engine working on the configured graph.
type Session struct {
	Engine *transaction.Engine
	Server *persistence.Server
	strict bool
	closer func() error
}

// OpenPersistence provides a persistence server for a
// persistence location (fs:<dir> or badger:<dir>).
func OpenPersistence(spec string, fs vfs.FileSystem) (*persistence.Server, func() error, error) {
	kind, path, _ := strings.Cut(spec, ":")
	switch kind {
	case "fs":
		if path == "" {
			return nil, nil, fmt.Errorf("directory required for filesystem persistence")
		}
		srv, err := filesystem.NewServer(path, fs)
		return srv, nil, err
	case "badger":
		var b *badgerdb.Backend
		var err error
		if path == "" {
			b, err = badgerdb.NewInMemory()
		} else {
			b, err = badgerdb.New(path)
		}
		if err != nil {
			return nil, nil, err
		}
		return persistence.New(b), b.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown persistence %q", spec)
}

// Open creates the store for the configured fixture. If persistence
// is configured the persisted graph is used. An empty persisted
// graph is initialized with the fixture.
func (o *Options) Open(ctx context.Context) (*Session, error) {
	var f *graph.Fragment
	var err error
	if o.graph != "" {
		f, err = fixture.Load(o.graph, o.fs)
		if err != nil {
			return nil, err
		}
	}

	s := &Session{strict: o.strict}
	var opts []transaction.Option
	if o.persistence != "" {
		s.Server, s.closer, err = OpenPersistence(o.persistence, o.fs)
		if err != nil {
			return nil, err
		}
		persisted, err := s.Server.Graph(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		if v, _ := persisted.Len(); v == 0 && f != nil {
			persisted, err = s.Server.Initialize(ctx, f)
			if err != nil {
				s.Close()
				return nil, err
			}
		} else if f != nil {
			log.Info("using persisted graph, fixture {{fixture}} ignored", "fixture", o.graph)
		}
		f = persisted
		opts = append(opts, transaction.WithPersister(s.Server))
	}

	store := graph.NewStore()
	if err := store.MergeFragment(f); err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = transaction.NewEngine(store, opts...)
	return s, nil
}

func (s *Session) Store() *graph.Store {
	return s.Engine.Store()
}

// Context provides a query context for the session store.
func (s *Session) Context() *query.Context {
	c := query.NewContext(s.Store())
	c.Strict = s.strict
	c.Merger = s.Engine
	if s.Server != nil {
		c.Loader = s.Server
	}
	return c
}

func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
