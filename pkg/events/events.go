package events

import (
	"reflect"
	"slices"
	"sync"
)

// Event is anything featuring a type used to
// select the interested handlers.
type Event interface {
	GetType() string
}

// Lister provides events describing the current state
// for a type. It is used to ramp up new handlers.
type Lister[E Event] interface {
	ListEvents(typ string) []E
}

type EventHandler[E Event] interface {
	HandleEvent(E)
}

// HandlerFunc adapts a function to the EventHandler interface.
// Function handlers cannot be unregistered.
type HandlerFunc[E Event] func(E)

func (f HandlerFunc[E]) HandleEvent(e E) {
	f(e)
}

type HandlerRegistration[E Event] interface {
	// RegisterHandler registers a handler for the given types.
	// The empty type (or no type at all) registers the handler
	// for all events. If current is set, the handler is first
	// fed with the events provided by the registry's lister.
	RegisterHandler(h EventHandler[E], current bool, types ...string)
	UnregisterHandler(h EventHandler[E], types ...string)
}

type HandlerRegistry[E Event] interface {
	HandlerRegistration[E]
	EventHandler[E]

	TriggerEvent(E)
}

type eventhandlers[E Event] []EventHandler[E]

type registry[E Event] struct {
	lock   sync.Mutex
	types  map[string]eventhandlers[E]
	lister Lister[E]
}

var _ HandlerRegistry[Event] = (*registry[Event])(nil)

func NewHandlerRegistry[E Event](l Lister[E]) HandlerRegistry[E] {
	return &registry[E]{
		types:  map[string]eventhandlers[E]{},
		lister: l,
	}
}

func (r *registry[E]) HandleEvent(e E) {
	r.TriggerEvent(e)
}

// index finds a registered handler. Handlers of incomparable
// types like HandlerFunc are never found.
func index[E Event](list []EventHandler[E], h EventHandler[E]) int {
	if !reflect.TypeOf(h).Comparable() {
		return -1
	}
	return slices.IndexFunc(list, func(e EventHandler[E]) bool { return e == h })
}

func (r *registry[E]) RegisterHandler(h EventHandler[E], current bool, types ...string) {
	if len(types) == 0 {
		types = []string{""}
	}

	for _, typ := range types {
		r.lock.Lock()
		handlers := r.types[typ]
		if index(handlers, h) >= 0 {
			r.lock.Unlock()
			continue
		}
		r.types[typ] = append(handlers, h)
		r.lock.Unlock()

		if current && r.lister != nil {
			for _, e := range r.lister.ListEvents(typ) {
				h.HandleEvent(e)
			}
		}
	}
}

func (r *registry[E]) UnregisterHandler(h EventHandler[E], types ...string) {
	if len(types) == 0 {
		types = []string{""}
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, typ := range types {
		handlers := r.types[typ]
		if i := index(handlers, h); i >= 0 {
			handlers = slices.Delete(handlers, i, i+1)
		}
		if len(handlers) > 0 {
			r.types[typ] = handlers
		} else {
			delete(r.types, typ)
		}
	}
}

func (r *registry[E]) getHandlers(e E) []EventHandler[E] {
	r.lock.Lock()
	defer r.lock.Unlock()

	handlers := slices.Clone(r.types[""])
	if t := e.GetType(); t != "" {
		handlers = append(handlers, r.types[t]...)
	}
	return handlers
}

// TriggerEvent calls all handlers registered for all types
// or the type of the given event.
func (r *registry[E]) TriggerEvent(e E) {
	for _, h := range r.getHandlers(e) {
		h.HandleEvent(e)
	}
}
