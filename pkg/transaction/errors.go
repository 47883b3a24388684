package transaction

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mandelsoft/graphstore/pkg/graph"
)

var (
	// ErrUnknownTransaction is reported for transaction ids without
	// recorded steps. It is a graph.ErrNotFound.
	ErrUnknownTransaction = fmt.Errorf("unknown transaction: %w", graph.ErrNotFound)
	// ErrInvalidIndex is reported for revert targets outside
	// the applied part of a transaction log.
	ErrInvalidIndex = errors.New("invalid step index")
	// ErrInvalidMutation is reported for malformed mutation records.
	ErrInvalidMutation = errors.New("invalid mutation")
)

func unknownTransaction(id int) error {
	return errors.Wrapf(ErrUnknownTransaction, "transaction %d", id)
}
