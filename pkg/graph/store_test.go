package graph_test

import (
	"errors"

	"github.com/go-test/deep"
	. "github.com/mandelsoft/graphstore/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	me "github.com/mandelsoft/graphstore/pkg/graph"
)

type recorder struct {
	events []me.Event
}

func (r *recorder) TriggerEvent(e me.Event) {
	r.events = append(r.events, e)
}

// checkSymmetry validates that adjacency lists and the edge table agree.
func checkSymmetry(s *me.Store) {
	snap := s.Snapshot()
	for id, e := range snap.Edges {
		ExpectWithOffset(1, snap.Vertices[e.Source]).NotTo(BeNil())
		ExpectWithOffset(1, snap.Vertices[e.Target]).NotTo(BeNil())
		ExpectWithOffset(1, snap.Vertices[e.Source].Out[e.Label]).To(ContainElement(id))
		ExpectWithOffset(1, snap.Vertices[e.Target].In[e.Label]).To(ContainElement(id))
	}
	for vid, v := range snap.Vertices {
		for l, ids := range v.Out {
			for _, eid := range ids {
				e := snap.Edges[eid]
				ExpectWithOffset(1, e).NotTo(BeNil())
				ExpectWithOffset(1, e.Source).To(Equal(vid))
				ExpectWithOffset(1, e.Label).To(Equal(l))
			}
		}
		for l, ids := range v.In {
			for _, eid := range ids {
				e := snap.Edges[eid]
				ExpectWithOffset(1, e).NotTo(BeNil())
				ExpectWithOffset(1, e.Target).To(Equal(vid))
				ExpectWithOffset(1, e.Label).To(Equal(l))
			}
		}
	}
}

var _ = Describe("store", func() {
	var store *me.Store
	var events *recorder

	BeforeEach(func() {
		events = &recorder{}
		store = me.NewStore(events)
	})

	Context("vertices", func() {
		It("adds vertices", func() {
			id := Must(store.AddVertex(me.NewVertex("p1", "Page").WithProperty("key", "Home")))
			Expect(id).To(Equal(me.Id("p1")))

			v := store.Vertex("p1")
			Expect(v.PrimaryLabel()).To(Equal("Page"))
			Expect(v.Properties["key"]).To(Equal(me.String("Home")))
			Expect(events.events).To(Equal([]me.Event{{Op: me.EventAdded, Kind: me.ElementVertex, Id: "p1", Label: "Page"}}))
		})

		It("assigns local ids", func() {
			id := Must(store.AddVertex(me.NewVertex("", "Page")))
			Expect(id.IsLocal()).To(BeTrue())
			Expect(store.Vertex(id)).NotTo(BeNil())
		})

		It("rejects id collisions", func() {
			Must(store.AddVertex(me.NewVertex("p1", "Page")))
			_, err := store.AddVertex(me.NewVertex("p1", "Component"))
			Expect(errors.Is(err, me.ErrConflict)).To(BeTrue())
		})

		It("reports missing vertices", func() {
			_, err := store.GetVertex("unknown")
			Expect(errors.Is(err, me.ErrNotFound)).To(BeTrue())
			_, _, err = store.DeleteVertex("unknown")
			Expect(errors.Is(err, me.ErrNotFound)).To(BeTrue())
			_, err = store.MergeProperties("unknown", me.Properties{})
			Expect(errors.Is(err, me.ErrNotFound)).To(BeTrue())
		})

		It("lists vertices by label in creation order", func() {
			Must(store.AddVertex(me.NewVertex("b", "Page")))
			Must(store.AddVertex(me.NewVertex("a", "Component", "Page")))
			Must(store.AddVertex(me.NewVertex("c", "Attr")))

			ids := []me.Id{}
			for _, v := range store.VerticesWithLabel("Page") {
				ids = append(ids, v.Id)
			}
			Expect(ids).To(Equal([]me.Id{"b", "a"}))
		})
	})

	Context("edges", func() {
		BeforeEach(func() {
			Must(store.AddVertex(me.NewVertex("p", "Page")))
			Must(store.AddVertex(me.NewVertex("a1", "Attr")))
			Must(store.AddVertex(me.NewVertex("a2", "Attr")))
		})

		It("keeps adjacency symmetric", func() {
			e1 := Must(store.AddEdge("Attr", "p", "a1"))
			e2 := Must(store.AddEdge("Attr", "p", "a2"))

			Expect(store.Vertex("p").Out["Attr"]).To(Equal([]me.Id{e1, e2}))
			Expect(store.Vertex("a1").In["Attr"]).To(Equal([]me.Id{e1}))
			checkSymmetry(store)
		})

		It("allows parallel edges", func() {
			e1 := Must(store.AddEdge("Attr", "p", "a1"))
			e2 := Must(store.AddEdge("Attr", "p", "a1"))
			Expect(e1).NotTo(Equal(e2))
			Expect(store.Out("p", "Attr")).To(HaveLen(2))
			checkSymmetry(store)
		})

		It("fails for missing endpoints", func() {
			_, err := store.AddEdge("Attr", "p", "missing")
			Expect(errors.Is(err, me.ErrNotFound)).To(BeTrue())
			Expect(store.Vertex("p").Out).To(BeEmpty())
		})

		It("deletes edges", func() {
			e1 := Must(store.AddEdge("Attr", "p", "a1"))
			e2 := Must(store.AddEdge("Attr", "p", "a2"))
			p := Must(store.DeleteEdge(e1))
			Expect(p.OutPos).To(Equal(0))
			Expect(p.InPos).To(Equal(0))
			Expect(store.Vertex("p").Out["Attr"]).To(Equal([]me.Id{e2}))
			Expect(store.Vertex("a1").In).To(BeEmpty())

			MustBeSuccessful(store.InsertEdge(p))
			Expect(store.Vertex("p").Out["Attr"]).To(Equal([]me.Id{e1, e2}))
			checkSymmetry(store)
		})
	})

	Context("vertex deletion", func() {
		BeforeEach(func() {
			Must(store.AddVertex(me.NewVertex("p", "Page")))
			Must(store.AddVertex(me.NewVertex("a1", "Attr")))
			Must(store.AddVertex(me.NewVertex("a2", "Attr")))
			Must(store.AddVertex(me.NewVertex("a3", "Attr")))
			Must(store.AddEdge("Attr", "p", "a1"))
			Must(store.AddEdge("Attr", "p", "a2"))
			Must(store.AddEdge("Attr", "p", "a3"))
			Must(store.AddEdge("Ref", "a3", "a2"))
			Must(store.AddEdge("Self", "a2", "a2"))
		})

		It("cascades to edges and neighbors", func() {
			_, placements := Must2(store.DeleteVertex("a2"))
			Expect(placements).To(HaveLen(3))
			Expect(store.Vertex("a2")).To(BeNil())
			Expect(store.Vertex("p").Out["Attr"]).To(HaveLen(2))
			Expect(store.Vertex("a3").Out).To(BeEmpty())
			_, edges := store.Len()
			Expect(edges).To(Equal(2))
			checkSymmetry(store)
		})

		It("restores a deleted vertex exactly", func() {
			before := store.Snapshot()
			v, placements := Must2(store.DeleteVertex("a2"))
			MustBeSuccessful(store.RestoreVertex(v, placements))
			Expect(deep.Equal(store.Snapshot(), before)).To(BeNil())
			checkSymmetry(store)
		})

		It("restores several vertices in reverse order", func() {
			before := store.Snapshot()
			v1, p1 := Must2(store.DeleteVertex("a1"))
			v2, p2 := Must2(store.DeleteVertex("a3"))
			MustBeSuccessful(store.RestoreVertex(v2, p2))
			MustBeSuccessful(store.RestoreVertex(v1, p1))
			Expect(deep.Equal(store.Snapshot(), before)).To(BeNil())
			Expect(Must(store.Snapshot().Digest())).To(Equal(Must(before.Digest())))
		})
	})

	Context("properties", func() {
		BeforeEach(func() {
			Must(store.AddVertex(me.NewVertex("p", "Page").WithProperty("key", "Home").WithProperty("title", "Start")))
		})

		It("merges shallowly", func() {
			prior := Must(store.MergeProperties("p", me.Properties{"title": me.String("X"), "order": me.Int(2)}))
			Expect(prior).To(Equal(me.Properties{"key": me.String("Home"), "title": me.String("Start")}))
			props := store.Vertex("p").Properties
			Expect(props).To(HaveLen(3))
			Expect(props["key"]).To(Equal(me.String("Home")))
			Expect(props["title"]).To(Equal(me.String("X")))
		})

		It("clears values with null", func() {
			Must(store.MergeProperties("p", me.Properties{"title": me.Null()}))
			v := store.Vertex("p")
			Expect(v.Properties).To(HaveKey("title"))
			_, ok := v.Property("title")
			Expect(ok).To(BeFalse())
		})

		It("replaces", func() {
			Must(store.ReplaceProperties("p", me.Properties{"name": me.String("n")}))
			Expect(store.Vertex("p").Properties).To(Equal(me.Properties{"name": me.String("n")}))
		})
	})

	Context("fragments", func() {
		ids := func(edges []*me.Edge, end func(e *me.Edge) me.Id) []me.Id {
			r := []me.Id{}
			for _, e := range edges {
				r = append(r, end(e))
			}
			return r
		}
		source := func(e *me.Edge) me.Id { return e.Source }
		target := func(e *me.Edge) me.Id { return e.Target }

		BeforeEach(func() {
			for _, id := range []me.Id{"a", "b", "c", "d"} {
				Must(store.AddVertex(me.NewVertex(id, "Node")))
			}
		})

		It("keeps adjacency order across export and merge", func() {
			Must(store.AddEdge("L", "b", "c"))
			Must(store.AddEdge("L", "a", "c"))
			Must(store.AddEdge("L", "a", "d"))
			Must(store.AddEdge("L", "a", "b"))
			Expect(ids(store.In("c", "L"), source)).To(Equal([]me.Id{"b", "a"}))

			f := store.Export()
			n := me.NewStore()
			MustBeSuccessful(n.MergeFragment(f))
			Expect(ids(n.In("c", "L"), source)).To(Equal([]me.Id{"b", "a"}))
			Expect(ids(n.Out("a", "L"), target)).To(Equal([]me.Id{"c", "d", "b"}))
			Expect(deep.Equal(n.Snapshot(), store.Snapshot())).To(BeEmpty())
			checkSymmetry(n)
		})

		It("lists incoming order only if not implied by the edges", func() {
			Must(store.AddEdge("L", "a", "c"))
			Must(store.AddEdge("L", "b", "c"))
			for _, v := range store.Export().Vertices {
				Expect(v.In).To(BeNil())
			}

			Must(store.AddEdge("L", "b", "d"))
			Must(store.AddEdge("L", "a", "d"))
			f := store.Export()
			Expect(f.Vertices[3].Id).To(Equal(me.Id("d")))
			Expect(f.Vertices[3].In["L"]).To(Equal(ids(store.In("d", "L"), func(e *me.Edge) me.Id { return e.Id })))
			Expect(f.Vertices[2].In).To(BeNil())
		})

		It("restricts selections to contained edges", func() {
			Must(store.AddEdge("L", "d", "c"))
			Must(store.AddEdge("L", "b", "c"))
			Must(store.AddEdge("L", "a", "c"))
			f := store.Select(func(v *me.Vertex) bool { return v.Id != "b" })
			vertices, edges := f.Len()
			Expect(vertices).To(Equal(3))
			Expect(edges).To(Equal(2))
			n := me.NewStore()
			MustBeSuccessful(n.MergeFragment(f))
			Expect(ids(n.In("c", "L"), source)).To(Equal([]me.Id{"d", "a"}))
		})
	})

	Context("remapping", func() {
		It("rewrites all references", func() {
			a := Must(store.AddVertex(me.NewVertex("", "Page")))
			b := Must(store.AddVertex(me.NewVertex("", "Attr").WithProperty("page", a)))
			e := Must(store.AddEdge("Attr", a, b))

			MustBeSuccessful(store.RemapIds(map[me.Id]me.Id{a: "100", b: "101", e: "200"}))

			Expect(store.Vertex(a)).To(BeNil())
			Expect(store.Vertex("100").Out["Attr"]).To(Equal([]me.Id{"200"}))
			Expect(store.Vertex("101").In["Attr"]).To(Equal([]me.Id{"200"}))
			Expect(store.Vertex("101").Properties["page"]).To(Equal(me.Ref("100")))
			Expect(*store.Edge("200")).To(Equal(me.Edge{Id: "200", Label: "Attr", Source: "100", Target: "101"}))
			checkSymmetry(store)
		})

		It("detects conflicts", func() {
			a := Must(store.AddVertex(me.NewVertex("", "Page")))
			Must(store.AddVertex(me.NewVertex("100", "Page")))
			err := store.RemapIds(map[me.Id]me.Id{a: "100"})
			Expect(errors.Is(err, me.ErrConflict)).To(BeTrue())
		})
	})
})
