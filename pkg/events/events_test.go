package events_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	me "github.com/mandelsoft/graphstore/pkg/events"
)

type event string

func (e event) GetType() string {
	return string(e[:1])
}

type lister []event

func (l lister) ListEvents(typ string) []event {
	var r []event
	for _, e := range l {
		if typ == "" || e.GetType() == typ {
			r = append(r, e)
		}
	}
	return r
}

type handler struct {
	events []event
}

func (h *handler) HandleEvent(e event) {
	h.events = append(h.events, e)
}

var _ = Describe("handler registry", func() {
	var reg me.HandlerRegistry[event]

	BeforeEach(func() {
		reg = me.NewHandlerRegistry[event](lister{"a1", "b1", "a2"})
	})

	It("dispatches by type", func() {
		all := &handler{}
		onlyA := &handler{}
		reg.RegisterHandler(all, false)
		reg.RegisterHandler(onlyA, false, "a")

		reg.TriggerEvent("a3")
		reg.TriggerEvent("b3")
		Expect(all.events).To(Equal([]event{"a3", "b3"}))
		Expect(onlyA.events).To(Equal([]event{"a3"}))
	})

	It("ramps up with current events", func() {
		h := &handler{}
		reg.RegisterHandler(h, true, "a")
		reg.TriggerEvent("a3")
		Expect(h.events).To(Equal([]event{"a1", "a2", "a3"}))
	})

	It("unregisters", func() {
		h := &handler{}
		reg.RegisterHandler(h, false, "a", "b")
		reg.UnregisterHandler(h, "a")
		reg.TriggerEvent("a3")
		reg.TriggerEvent("b3")
		Expect(h.events).To(Equal([]event{"b3"}))
	})

	It("accepts functions", func() {
		var got []event
		reg.RegisterHandler(me.HandlerFunc[event](func(e event) { got = append(got, e) }), false)
		reg.TriggerEvent("b9")
		Expect(got).To(Equal([]event{"b9"}))
	})
})
