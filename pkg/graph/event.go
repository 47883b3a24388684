package graph

import (
	"fmt"
)

type EventOp string

const (
	EventAdded    EventOp = "added"
	EventRemoved  EventOp = "removed"
	EventModified EventOp = "modified"
)

type ElementKind string

const (
	ElementVertex ElementKind = "vertex"
	ElementEdge   ElementKind = "edge"
)

// Event describes a single applied store mutation.
// For vertices Label is the primary label, for edges
// the relationship label.
type Event struct {
	Op    EventOp
	Kind  ElementKind
	Id    Id
	Label string
}

func (e Event) GetType() string {
	return e.Label
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %s(%s)", e.Op, e.Kind, e.Label, e.Id)
}

// Notifier receives events for all applied mutations.
type Notifier interface {
	TriggerEvent(Event)
}
