package transaction

import (
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/graphstore/pkg/graph"
)

// Untracked is the transaction id for mutations which are
// applied without being recorded.
const Untracked = 0

// Engine records all mutations of a shared store in per
// transaction logs. Transactions are independent logs
// over the same store, there is no isolation.
//
// Like the store, an Engine is not synchronized.
type Engine struct {
	store        *graph.Store
	transactions map[int]*Transaction
	persister    Persister
}

type Option func(e *Engine)

// WithPersister sets the persistence collaborator used by Commit.
func WithPersister(p Persister) Option {
	return func(e *Engine) {
		e.persister = p
	}
}

// WithEventRegistry notifies the given registry about
// all applied mutations.
func WithEventRegistry(r graph.HandlerRegistry) Option {
	return func(e *Engine) {
		e.store.SetNotifier(r)
	}
}

func NewEngine(s *graph.Store, opts ...Option) *Engine {
	if s == nil {
		s = graph.NewStore()
	}
	e := &Engine{
		store:        s,
		transactions: map[int]*Transaction{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Store() *graph.Store {
	return e.store
}

func (e *Engine) SetPersister(p Persister) {
	e.persister = p
}

func (e *Engine) getTransaction(id int) (*Transaction, error) {
	t := e.transactions[id]
	if t == nil {
		return nil, unknownTransaction(id)
	}
	return t, nil
}

// Transactions returns the ids of all known transactions.
func (e *Engine) Transactions() []int {
	r := make([]int, 0, len(e.transactions))
	for id := range e.transactions {
		r = append(r, id)
	}
	return sets.List(sets.New(r...))
}

// State provides the state of a transaction. Unknown transactions
// are reported as uninitialized.
func (e *Engine) State(id int) State {
	t := e.transactions[id]
	if t == nil {
		return State{Id: id, Status: StatusUninitialized, ActiveUndoIndex: -1, SubmittedIndex: -1, OriginalSubmittedIndex: -1}
	}
	return t.State()
}

func (e *Engine) Status(id int) Status {
	return e.State(id).Status
}

// RecordStep records a step for a mutation already applied to the
// store. Steps after the active index are discarded.
func (e *Engine) RecordStep(id int, inverse, forward Mutation) {
	if id == Untracked {
		return
	}
	t := e.transactions[id]
	if t == nil {
		t = newTransaction(id)
		e.transactions[id] = t
		log.Debug("created transaction {{txn}}", "txn", id)
	}
	t.record(&Step{Forward: forward, Inverse: inverse})
	log.Debug("txn {{txn}} step {{index}}: {{mutation}}", "txn", id, "index", t.activeUndoIndex, "mutation", &forward)
}

// SaveUndoPoint marks the current step as boundary for undo and redo.
func (e *Engine) SaveUndoPoint(id int) error {
	t, err := e.getTransaction(id)
	if err != nil {
		return err
	}
	if t.saveUndoPoint() {
		log.Debug("txn {{txn}} undo point {{index}}", "txn", id, "index", t.activeUndoIndex)
	}
	return nil
}

// Checkpoint returns the current active index to be used
// for a later RevertTransactionUpToIndex.
func (e *Engine) Checkpoint(id int) int {
	t := e.transactions[id]
	if t == nil {
		return -1
	}
	return t.activeUndoIndex
}

func (e *Engine) CanUndo(id int) bool {
	t := e.transactions[id]
	return t != nil && t.canUndo()
}

func (e *Engine) CanRedo(id int) bool {
	t := e.transactions[id]
	return t != nil && t.canRedo()
}

// Undo reverts the steps down to the previous undo point.
// It reports whether there was something to undo.
func (e *Engine) Undo(id int) (bool, error) {
	if id == Untracked {
		return false, nil
	}
	t, err := e.getTransaction(id)
	if err != nil {
		return false, err
	}
	if !t.canUndo() {
		return false, nil
	}
	target := t.undoTarget()
	log.Debug("txn {{txn}} undo {{from}} -> {{to}}", "txn", id, "from", t.activeUndoIndex, "to", target)
	return true, e.unwind(t, target)
}

// Redo re-applies the steps up to the next undo point.
// It reports whether there was something to redo.
func (e *Engine) Redo(id int) (bool, error) {
	if id == Untracked {
		return false, nil
	}
	t, err := e.getTransaction(id)
	if err != nil {
		return false, err
	}
	if !t.canRedo() {
		return false, nil
	}
	target := t.redoTarget()
	log.Debug("txn {{txn}} redo {{from}} -> {{to}}", "txn", id, "from", t.activeUndoIndex, "to", target)
	for t.activeUndoIndex < target {
		s := t.steps[t.activeUndoIndex+1]
		if err := s.Forward.Apply(e.store); err != nil {
			t.err = errors.Wrapf(err, "redo step %d", t.activeUndoIndex+1)
			return true, t.err
		}
		t.activeUndoIndex++
	}
	return true, nil
}

// unwind applies the inverses of all steps after target.
func (e *Engine) unwind(t *Transaction, target int) error {
	for t.activeUndoIndex > target {
		s := t.steps[t.activeUndoIndex]
		if err := s.Inverse.Apply(e.store); err != nil {
			t.err = errors.Wrapf(err, "undo step %d", t.activeUndoIndex)
			return t.err
		}
		t.activeUndoIndex--
	}
	return nil
}

// RevertTransactionUpToIndex reverts all steps after the given
// index and discards them from the log.
func (e *Engine) RevertTransactionUpToIndex(id int, index int) error {
	t, err := e.getTransaction(id)
	if err != nil {
		return err
	}
	if index < -1 || index > t.activeUndoIndex {
		return errors.Wrapf(ErrInvalidIndex, "revert txn %d to %d (active %d)", id, index, t.activeUndoIndex)
	}
	log.Info("reverting txn {{txn}} to step {{index}}", "txn", id, "index", index)
	if err := e.unwind(t, index); err != nil {
		return err
	}
	t.truncate(index)
	return nil
}

// Remap replaces ids in the store and in all recorded
// mutations of all transactions.
func (e *Engine) Remap(ids map[graph.Id]graph.Id) error {
	if len(ids) == 0 {
		return nil
	}
	if err := e.store.RemapIds(ids); err != nil {
		return err
	}
	for _, t := range e.transactions {
		t.remap(ids)
	}
	return nil
}
