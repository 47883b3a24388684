package transaction

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/utils"
)

// Payload is the flattened mutation list of a commit.
// Mutations of submitted steps reverted in the meantime are
// passed as inverse mutations before the new forward ones.
type Payload struct {
	Transaction int             `json:"transaction"`
	Mutations   []*Mutation     `json:"mutations"`
	Submitted   utils.Timestamp `json:"submitted"`
}

// Reconciliation is the answer of a persistence collaborator.
// IdMap maps local placeholder ids to assigned ones.
type Reconciliation struct {
	IdMap map[graph.Id]graph.Id `json:"idMap,omitempty"`
}

// Persister is the persistence collaborator.
type Persister interface {
	Persist(ctx context.Context, p *Payload) (*Reconciliation, error)
}

type PersisterFunc func(ctx context.Context, p *Payload) (*Reconciliation, error)

func (f PersisterFunc) Persist(ctx context.Context, p *Payload) (*Reconciliation, error) {
	return f(ctx, p)
}

// Pending provides the payload a commit of the given
// transaction would pass to the persistence collaborator.
func (e *Engine) Pending(id int) (*Payload, error) {
	t, err := e.getTransaction(id)
	if err != nil {
		return nil, err
	}
	return t.payload(), nil
}

func (t *Transaction) payload() *Payload {
	p := &Payload{
		Transaction: t.id,
		Submitted:   utils.NewTimestamp(),
	}
	for i := range t.reverts {
		p.Mutations = append(p.Mutations, t.reverts[i].Clone())
	}
	for i := t.submittedIndex; i > t.activeUndoIndex; i-- {
		p.Mutations = append(p.Mutations, t.steps[i].Inverse.Clone())
	}
	for i := t.submittedIndex + 1; i <= t.activeUndoIndex; i++ {
		p.Mutations = append(p.Mutations, t.steps[i].Forward.Clone())
	}
	return p
}

// Commit passes the unsubmitted mutations of a transaction to the
// persistence collaborator and advances the submitted index to the
// active index. Ids reported by the collaborator replace the local
// ids in the store and in all transaction logs.
func (e *Engine) Commit(ctx context.Context, id int) (*Payload, error) {
	t, err := e.getTransaction(id)
	if err != nil {
		return nil, err
	}
	p := t.payload()
	if len(p.Mutations) > 0 && e.persister != nil {
		rec, err := e.persister.Persist(ctx, p)
		if err != nil {
			t.err = errors.Wrapf(err, "commit txn %d", id)
			log.Error("commit of txn {{txn}} failed", "txn", id, "error", err)
			return p, t.err
		}
		if rec != nil && len(rec.IdMap) > 0 {
			if err := e.Remap(rec.IdMap); err != nil {
				t.err = errors.Wrapf(err, "commit txn %d", id)
				return p, t.err
			}
		}
	}
	t.originalSubmittedIndex = t.submittedIndex
	t.submittedIndex = t.activeUndoIndex
	t.reverts = nil
	t.err = nil
	t.committed = &p.Submitted
	log.Info("committed txn {{txn}} with {{count}} mutations up to step {{index}}", "txn", id, "count", len(p.Mutations), "index", t.submittedIndex)
	return p, nil
}
