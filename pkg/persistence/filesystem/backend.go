// Package filesystem stores the persisted graph as yaml
// documents in a directory of a virtual filesystem.
// The graph is kept in graph.yaml, every applied payload
// is journaled below journal/.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/persistence"
	"github.com/mandelsoft/graphstore/pkg/transaction"
	"github.com/mandelsoft/graphstore/pkg/utils"
)

const (
	GraphFile  = "graph.yaml"
	JournalDir = "journal"
)

type Backend struct {
	lock sync.Mutex
	path string
	fs   vfs.FileSystem
}

var _ persistence.Backend = (*Backend)(nil)

func New(path string, fss ...vfs.FileSystem) (*Backend, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)

	err := fs.MkdirAll(filepath.Join(path, JournalDir), 0o0700)
	if err != nil && !errors.Is(err, vfs.ErrExist) {
		return nil, err
	}
	return &Backend{path: path, fs: fs}, nil
}

// NewServer provides a persistence server for a directory.
func NewServer(path string, fss ...vfs.FileSystem) (*persistence.Server, error) {
	b, err := New(path, fss...)
	if err != nil {
		return nil, err
	}
	return persistence.New(b), nil
}

func (b *Backend) Path(elems ...string) string {
	return filepath.Join(append([]string{b.path}, elems...)...)
}

func (b *Backend) Load(ctx context.Context) (*graph.Fragment, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	data, err := vfs.ReadFile(b.fs, b.Path(GraphFile))
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var f graph.Fragment
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("corrupted graph file %s: %w", b.Path(GraphFile), err)
	}
	return &f, nil
}

func (b *Backend) Store(ctx context.Context, f *graph.Fragment, journal *transaction.Payload) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	names, err := b.journal()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(journal)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%06d-txn%d.yaml", len(names)+1, journal.Transaction)
	err = vfs.WriteFile(b.fs, b.Path(JournalDir, name), data, 0o600)
	if err != nil {
		return err
	}

	data, err = yaml.Marshal(f)
	if err != nil {
		return err
	}
	return vfs.WriteFile(b.fs, b.Path(GraphFile), data, 0o600)
}

// NewId provides a random uuid.
func (b *Backend) NewId(ctx context.Context) (graph.Id, error) {
	return graph.Id(uuid.NewString()), nil
}

func (b *Backend) journal() ([]string, error) {
	list, err := vfs.ReadDir(b.fs, b.Path(JournalDir))
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range list {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Journal provides all journaled payloads in the order
// they have been applied.
func (b *Backend) Journal() ([]*transaction.Payload, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	names, err := b.journal()
	if err != nil {
		return nil, err
	}
	var result []*transaction.Payload
	for _, n := range names {
		data, err := vfs.ReadFile(b.fs, b.Path(JournalDir, n))
		if err != nil {
			return nil, err
		}
		var p transaction.Payload
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("corrupted journal entry %s: %w", n, err)
		}
		result = append(result, &p)
	}
	return result, nil
}
