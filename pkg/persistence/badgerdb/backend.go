// Package badgerdb stores the persisted graph in a badger
// key value store. Vertices and edges are stored as separate
// json values keyed by their position, element ids are taken
// from a badger sequence.
package badgerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/persistence"
	"github.com/mandelsoft/graphstore/pkg/transaction"
)

var (
	prefixVertex  = []byte("v/")
	prefixEdge    = []byte("e/")
	prefixJournal = []byte("j/")

	keyIds     = []byte("seq/ids")
	keyJournal = []byte("seq/journal")
)

const bandwidth = 100

type Backend struct {
	db      *badger.DB
	ids     *badger.Sequence
	journal *badger.Sequence
}

var _ persistence.Backend = (*Backend)(nil)

// Open opens a badger database with the given options.
func Open(opts badger.Options) (*Backend, error) {
	db, err := badger.Open(opts.WithLogger(&logger{}))
	if err != nil {
		return nil, err
	}
	ids, err := db.GetSequence(keyIds, bandwidth)
	if err != nil {
		db.Close()
		return nil, err
	}
	journal, err := db.GetSequence(keyJournal, bandwidth)
	if err != nil {
		ids.Release()
		db.Close()
		return nil, err
	}
	return &Backend{db: db, ids: ids, journal: journal}, nil
}

// New opens a badger database in a directory.
func New(path string) (*Backend, error) {
	return Open(badger.DefaultOptions(path))
}

// NewInMemory opens a transient badger database.
func NewInMemory() (*Backend, error) {
	return Open(badger.DefaultOptions("").WithInMemory(true))
}

func (b *Backend) Close() error {
	if err := b.ids.Release(); err != nil {
		return err
	}
	if err := b.journal.Release(); err != nil {
		return err
	}
	return b.db.Close()
}

func key(prefix []byte, n uint64) []byte {
	return append(append([]byte{}, prefix...), []byte(fmt.Sprintf("%020d", n))...)
}

// NewId provides the next number of the id sequence.
// Sequences start with 0, ids with 1.
func (b *Backend) NewId(ctx context.Context) (graph.Id, error) {
	n, err := b.ids.Next()
	if err != nil {
		return "", err
	}
	return graph.Id(strconv.FormatUint(n+1, 10)), nil
}

func (b *Backend) Load(ctx context.Context) (*graph.Fragment, error) {
	f := &graph.Fragment{}
	err := b.db.View(func(txn *badger.Txn) error {
		err := scan(txn, prefixVertex, func(data []byte) error {
			var v graph.Vertex
			if err := json.Unmarshal(data, &v); err != nil {
				return err
			}
			f.Vertices = append(f.Vertices, &v)
			return nil
		})
		if err != nil {
			return err
		}
		return scan(txn, prefixEdge, func(data []byte) error {
			var e graph.Edge
			if err := json.Unmarshal(data, &e); err != nil {
				return err
			}
			f.Edges = append(f.Edges, &e)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loading graph")
	}
	if len(f.Vertices) == 0 && len(f.Edges) == 0 {
		return nil, nil
	}
	return f, nil
}

func (b *Backend) Store(ctx context.Context, f *graph.Fragment, journal *transaction.Payload) error {
	n, err := b.journal.Next()
	if err != nil {
		return err
	}
	data, err := json.Marshal(journal)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key(prefixJournal, n), data); err != nil {
			return err
		}
		for _, p := range [][]byte{prefixVertex, prefixEdge} {
			if err := drop(txn, p); err != nil {
				return err
			}
		}
		for i, v := range f.Vertices {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			if err := txn.Set(key(prefixVertex, uint64(i)), data); err != nil {
				return err
			}
		}
		for i, e := range f.Edges {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := txn.Set(key(prefixEdge, uint64(i)), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Journal provides all journaled payloads in the order
// they have been applied.
func (b *Backend) Journal() ([]*transaction.Payload, error) {
	var result []*transaction.Payload
	err := b.db.View(func(txn *badger.Txn) error {
		return scan(txn, prefixJournal, func(data []byte) error {
			var p transaction.Payload
			if err := json.Unmarshal(data, &p); err != nil {
				return err
			}
			result = append(result, &p)
			return nil
		})
	})
	return result, err
}

func scan(txn *badger.Txn, prefix []byte, f func(data []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := f(data); err != nil {
			return errors.Wrapf(err, "key %s", it.Item().Key())
		}
	}
	return nil
}

func drop(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
