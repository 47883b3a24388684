package graph

import (
	"github.com/mandelsoft/graphstore/pkg/events"
)

type EventHandler = events.EventHandler[Event]
type HandlerRegistry = events.HandlerRegistry[Event]

// NewHandlerRegistry provides a registry for store events, which
// can be used as notifier for the given store. New handlers
// can be ramped up with the current vertices of the store.
func NewHandlerRegistry(s *Store) HandlerRegistry {
	r := events.NewHandlerRegistry[Event](s)
	s.SetNotifier(r)
	return r
}
