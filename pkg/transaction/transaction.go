package transaction

import (
	"slices"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/utils"
)

type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusActive        Status = "active"
	StatusModified      Status = "modified"
	StatusReverted      Status = "reverted"
	StatusCommitted     Status = "committed"
	StatusError         Status = "error"
)

// Transaction is the mutation log of a transaction id.
type Transaction struct {
	id    int
	steps []*Step

	// activeUndoIndex is the index of the last applied step.
	activeUndoIndex int
	// undoStepIndexes are the undo points, ascending.
	undoStepIndexes []int
	// submittedIndex is the index of the last step passed
	// to the persistence collaborator.
	submittedIndex int
	// originalSubmittedIndex is the submitted index before
	// the last commit.
	originalSubmittedIndex int
	// reverts are inverses of submitted steps discarded from
	// the log. They are passed with the next commit.
	reverts []Mutation

	committed *utils.Timestamp
	err       error
}

func newTransaction(id int) *Transaction {
	return &Transaction{
		id:                     id,
		activeUndoIndex:        -1,
		submittedIndex:         -1,
		originalSubmittedIndex: -1,
	}
}

func (t *Transaction) Id() int {
	return t.id
}

func (t *Transaction) Status() Status {
	switch {
	case t.err != nil:
		return StatusError
	case t.activeUndoIndex > t.submittedIndex:
		return StatusModified
	case t.activeUndoIndex < t.submittedIndex || len(t.reverts) > 0:
		return StatusReverted
	case len(t.steps) > 0 && t.activeUndoIndex >= 0:
		return StatusCommitted
	}
	return StatusActive
}

func (t *Transaction) canUndo() bool {
	return t.activeUndoIndex >= 0
}

func (t *Transaction) canRedo() bool {
	return t.activeUndoIndex < len(t.steps)-1
}

// undoTarget is the index to undo to: the closest undo
// point below the active index.
func (t *Transaction) undoTarget() int {
	target := -1
	for _, i := range t.undoStepIndexes {
		if i < t.activeUndoIndex {
			target = i
		}
	}
	return target
}

// redoTarget is the index to redo to: the closest undo point
// above the active index or the end of the log.
func (t *Transaction) redoTarget() int {
	for _, i := range t.undoStepIndexes {
		if i > t.activeUndoIndex && i < len(t.steps) {
			return i
		}
	}
	return len(t.steps) - 1
}

func (t *Transaction) saveUndoPoint() bool {
	if t.activeUndoIndex < 0 || slices.Contains(t.undoStepIndexes, t.activeUndoIndex) {
		return false
	}
	t.undoStepIndexes = append(t.undoStepIndexes, t.activeUndoIndex)
	slices.Sort(t.undoStepIndexes)
	return true
}

// truncate discards all steps after index. Inverses of
// discarded steps already submitted are kept for the
// next commit.
func (t *Transaction) truncate(index int) {
	if t.submittedIndex > index {
		for i := t.submittedIndex; i > index; i-- {
			t.reverts = append(t.reverts, t.steps[i].Inverse)
		}
		t.submittedIndex = index
	}
	for i := index + 1; i < len(t.steps); i++ {
		t.steps[i] = nil
	}
	t.steps = t.steps[:index+1]
	t.undoStepIndexes = slices.DeleteFunc(t.undoStepIndexes, func(i int) bool { return i > index })
}

func (t *Transaction) record(s *Step) {
	t.truncate(t.activeUndoIndex)
	t.steps = append(t.steps, s)
	t.activeUndoIndex = len(t.steps) - 1
}

func (t *Transaction) remap(ids map[graph.Id]graph.Id) {
	for _, s := range t.steps {
		s.Remap(ids)
	}
	for i := range t.reverts {
		t.reverts[i].Remap(ids)
	}
}

// State is a read-only view of a transaction.
type State struct {
	Id                     int
	Status                 Status
	Steps                  int
	ActiveUndoIndex        int
	UndoStepIndexes        []int
	SubmittedIndex         int
	OriginalSubmittedIndex int
	PendingReverts         int
	Committed              *utils.Timestamp
	Error                  error
}

func (t *Transaction) State() State {
	return State{
		Id:                     t.id,
		Status:                 t.Status(),
		Steps:                  len(t.steps),
		ActiveUndoIndex:        t.activeUndoIndex,
		UndoStepIndexes:        slices.Clone(t.undoStepIndexes),
		SubmittedIndex:         t.submittedIndex,
		OriginalSubmittedIndex: t.originalSubmittedIndex,
		PendingReverts:         len(t.reverts),
		Committed:              t.committed,
		Error:                  t.err,
	}
}
