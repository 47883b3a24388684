// Package fixture reads and writes graph fragments as yaml
// documents of the form
//
//	vertices:
//	- id: home
//	  labels: [ Page ]
//	  properties:
//	    name: Home
//	edges:
//	- label: children
//	  source: home
//	  target: about
//
// Edge ids are optional, missing ones are replaced by local ids
// on import.
// A vertex may list the edge ids of incoming edges per label
// under in, if their order deviates from the edge list.
package fixture

import (
	"errors"
	"fmt"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/transaction"
	"github.com/mandelsoft/graphstore/pkg/utils"
)

var ErrInvalidFixture = errors.New("invalid fixture")

// Parse decodes and validates a fixture document.
func Parse(data []byte) (*graph.Fragment, error) {
	var f graph.Fragment
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the elements of a fragment. Edges may refer
// to vertices not contained in the fragment.
func Validate(f *graph.Fragment) error {
	ids := map[graph.Id]bool{}
	for i, v := range f.Vertices {
		if v.Id == "" {
			return fmt.Errorf("%w: vertex %d: id missing", ErrInvalidFixture, i)
		}
		if len(v.Labels) == 0 {
			return fmt.Errorf("%w: vertex %q: labels missing", ErrInvalidFixture, v.Id)
		}
		if ids[v.Id] {
			return fmt.Errorf("%w: vertex %q: duplicate id", ErrInvalidFixture, v.Id)
		}
		ids[v.Id] = true
	}
	for i, e := range f.Edges {
		if e.Label == "" || e.Source == "" || e.Target == "" {
			return fmt.Errorf("%w: edge %d: label, source and target required", ErrInvalidFixture, i)
		}
	}
	return nil
}

func Load(path string, fss ...vfs.FileSystem) (*graph.Fragment, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	v, e := f.Len()
	log.Debug("loaded fixture {{path}} with {{vertices}} vertices and {{edges}} edges", "path", path, "vertices", v, "edges", e)
	return f, nil
}

func Save(path string, f *graph.Fragment, fss ...vfs.FileSystem) error {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return vfs.WriteFile(fs, path, data, 0o644)
}

// LoadStore provides a new store filled with the content of a fixture.
func LoadStore(path string, fss ...vfs.FileSystem) (*graph.Store, error) {
	f, err := Load(path, fss...)
	if err != nil {
		return nil, err
	}
	s := graph.NewStore()
	if err := s.MergeFragment(f); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return s, nil
}

// Preview imports a fragment into a transaction. It returns the
// checkpoint to pass to RevertTransactionUpToIndex to tear the
// preview down again.
func Preview(e *transaction.Engine, txn int, f *graph.Fragment) (int, error) {
	checkpoint := e.Checkpoint(txn)
	if err := e.Import(txn, f); err != nil {
		if e.Checkpoint(txn) != checkpoint {
			if rerr := e.RevertTransactionUpToIndex(txn, checkpoint); rerr != nil {
				log.Error("cannot discard partial preview of txn {{txn}}", "txn", txn, "error", rerr)
			}
		}
		return checkpoint, err
	}
	return checkpoint, nil
}
