package graph

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is reported for a referenced vertex, edge or
	// transaction which does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is reported if an element is created with an
	// id already in use.
	ErrConflict = errors.New("conflict")
)

func vertexNotFound(id Id) error {
	return errors.Wrapf(ErrNotFound, "vertex %q", id)
}

func edgeNotFound(id Id) error {
	return errors.Wrapf(ErrNotFound, "edge %q", id)
}

func conflict(kind string, id Id) error {
	return errors.Wrapf(ErrConflict, "%s %q already exists", kind, id)
}
