package transaction_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-test/deep"
	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/query"
	. "github.com/mandelsoft/graphstore/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	me "github.com/mandelsoft/graphstore/pkg/transaction"
)

const TXN = 1

func props(kv ...any) graph.Properties {
	p := graph.Properties{}
	for i := 0; i+1 < len(kv); i += 2 {
		p[kv[i].(string)] = graph.MustValueOf(kv[i+1])
	}
	return p
}

func expectSnapshot(s *graph.Store, snap *graph.Snapshot) {
	cur := s.Snapshot()
	ExpectWithOffset(1, deep.Equal(cur, snap)).To(BeEmpty())
	ExpectWithOffset(1, Must(cur.Digest())).To(Equal(Must(snap.Digest())))
}

// remapper assigns server ids to all added local elements.
type remapper struct {
	payloads []*me.Payload
	next     int
	fail     error
}

func (r *remapper) Persist(ctx context.Context, p *me.Payload) (*me.Reconciliation, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.payloads = append(r.payloads, p)
	ids := map[graph.Id]graph.Id{}
	for _, m := range p.Mutations {
		var id graph.Id
		switch m.Op {
		case me.OpAddVertex:
			id = m.Vertex.Id
		case me.OpAddEdge:
			id = m.Edge.Id
		}
		if id.IsLocal() {
			r.next++
			ids[id] = graph.Id(fmt.Sprintf("s%d", r.next))
		}
	}
	return &me.Reconciliation{IdMap: ids}, nil
}

var _ = Describe("engine", func() {
	var store *graph.Store
	var engine *me.Engine

	BeforeEach(func() {
		store = graph.NewStore()
		engine = me.NewEngine(store)
	})

	It("runs the edit scenario", func() {
		a := Must(engine.AddVertex(TXN, graph.NewVertex("", "Page")))
		b := Must(engine.AddVertex(TXN, graph.NewVertex("", "Attribute")))
		Must(engine.AddEdge(TXN, "Attr", a, b))

		r := Must(query.MustCompile("->Attr").Result(query.NewContext(store, store.Vertex(a))))
		Expect(r.Vertices.Ids()).To(Equal([]graph.Id{b}))

		MustBeSuccessful(engine.SaveUndoPoint(TXN))
		MustBeSuccessful(engine.MergeProperties(TXN, b, props("title", "X")))

		Expect(engine.Undo(TXN)).To(BeTrue())
		Expect(store.Vertex(b).Properties.Has("title")).To(BeFalse())
		Expect(store.Vertex(a)).NotTo(BeNil())

		Expect(engine.Redo(TXN)).To(BeTrue())
		v, ok := store.Vertex(b).Property("title")
		Expect(ok).To(BeTrue())
		Expect(v.String()).To(Equal("X"))
	})

	Context("undo and redo", func() {
		It("restores the original state", func() {
			MustBeSuccessful(store.MergeFragment(&graph.Fragment{
				Vertices: []*graph.Vertex{
					graph.NewVertex("r", "Root"),
					graph.NewVertex("x", "Item").WithProperty("name", "x"),
				},
				Edges: []*graph.Edge{{Id: "e0", Label: "Child", Source: "r", Target: "x"}},
			}))
			before := store.Snapshot()

			step := func(err error) {
				ExpectWithOffset(1, err).To(Succeed())
				MustBeSuccessful(engine.SaveUndoPoint(TXN))
			}
			a := Must(engine.AddVertex(TXN, graph.NewVertex("", "Item").WithProperty("ref", graph.Id("x"))))
			step(nil)
			_, err := engine.AddEdge(TXN, "Child", "r", a)
			step(err)
			_, err = engine.InsertEdge(TXN, graph.EdgePlacement{Edge: graph.Edge{Label: "Child", Source: "r", Target: "x"}, OutPos: 0, InPos: 0})
			step(err)
			step(engine.MergeProperties(TXN, "x", props("name", "y", "size", 3)))
			step(engine.ReplaceProperties(TXN, a, props("other", true)))
			step(engine.DeleteEdge(TXN, "e0"))
			step(engine.DeleteVertex(TXN, "x"))
			after := store.Snapshot()

			n := engine.State(TXN).Steps
			Expect(n).To(Equal(7))
			for i := 0; i < n; i++ {
				Expect(engine.Undo(TXN)).To(BeTrue())
			}
			expectSnapshot(store, before)
			Expect(engine.CanUndo(TXN)).To(BeFalse())
			Expect(engine.Undo(TXN)).To(BeFalse())

			for i := 0; i < n; i++ {
				Expect(engine.Redo(TXN)).To(BeTrue())
			}
			Expect(engine.CanRedo(TXN)).To(BeFalse())
			expectSnapshot(store, after)
		})

		It("undoes to undo points", func() {
			Must(engine.AddVertex(TXN, graph.NewVertex("a", "Item")))
			Must(engine.AddVertex(TXN, graph.NewVertex("b", "Item")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))
			Must(engine.AddVertex(TXN, graph.NewVertex("c", "Item")))
			Must(engine.AddVertex(TXN, graph.NewVertex("d", "Item")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))

			Expect(engine.Undo(TXN)).To(BeTrue())
			Expect(engine.State(TXN).ActiveUndoIndex).To(Equal(1))
			Expect(store.Vertex("c")).To(BeNil())
			Expect(store.Vertex("b")).NotTo(BeNil())

			Expect(engine.Undo(TXN)).To(BeTrue())
			Expect(engine.State(TXN).ActiveUndoIndex).To(Equal(-1))
			Expect(store.Len()).To(Equal(0))

			Expect(engine.Redo(TXN)).To(BeTrue())
			Expect(engine.State(TXN).ActiveUndoIndex).To(Equal(1))
			Expect(engine.Redo(TXN)).To(BeTrue())
			Expect(engine.State(TXN).ActiveUndoIndex).To(Equal(3))
			Expect(engine.Redo(TXN)).To(BeFalse())
		})

		It("discards redo after a new edit", func() {
			Must(engine.AddVertex(TXN, graph.NewVertex("a", "Item")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))
			Must(engine.AddVertex(TXN, graph.NewVertex("b", "Item")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))

			Expect(engine.Undo(TXN)).To(BeTrue())
			Expect(engine.CanRedo(TXN)).To(BeTrue())
			Must(engine.AddVertex(TXN, graph.NewVertex("c", "Item")))

			Expect(engine.CanRedo(TXN)).To(BeFalse())
			Expect(engine.Redo(TXN)).To(BeFalse())
			Expect(store.Vertex("b")).To(BeNil())
			Expect(engine.State(TXN).Steps).To(Equal(2))
			Expect(engine.State(TXN).UndoStepIndexes).To(Equal([]int{0}))
		})

		It("keeps transactions independent", func() {
			Must(engine.AddVertex(1, graph.NewVertex("a", "Item")))
			Must(engine.AddVertex(2, graph.NewVertex("b", "Item")))
			Expect(engine.Undo(1)).To(BeTrue())
			Expect(store.Vertex("a")).To(BeNil())
			Expect(store.Vertex("b")).NotTo(BeNil())
			Expect(engine.State(2).ActiveUndoIndex).To(Equal(0))
			Expect(engine.Transactions()).To(Equal([]int{1, 2}))
		})

		It("does not record untracked mutations", func() {
			Must(engine.AddVertex(me.Untracked, graph.NewVertex("a", "Item")))
			Expect(engine.Undo(me.Untracked)).To(BeFalse())
			Expect(engine.Transactions()).To(BeEmpty())
			Expect(store.Vertex("a")).NotTo(BeNil())
		})

		It("keeps the incoming order of merged fragments", func() {
			c := graph.NewVertex("c", "Component")
			c.In = graph.Adjacency{"Uses": {"e2", "e1"}}
			MustBeSuccessful(engine.MergeUntracked(&graph.Fragment{
				Vertices: []*graph.Vertex{graph.NewVertex("a", "Page"), graph.NewVertex("b", "Page"), c},
				Edges: []*graph.Edge{
					{Id: "e1", Label: "Uses", Source: "a", Target: "c"},
					{Id: "e2", Label: "Uses", Source: "b", Target: "c"},
				},
			}))
			Expect(store.Vertex("c").In["Uses"]).To(Equal([]graph.Id{"e2", "e1"}))
			Expect(engine.Transactions()).To(BeEmpty())
		})

		It("reports unknown transactions", func() {
			_, err := engine.Undo(5)
			Expect(err).To(MatchError(me.ErrUnknownTransaction))
			Expect(errors.Is(err, graph.ErrNotFound)).To(BeTrue())
			Expect(engine.Status(5)).To(Equal(me.StatusUninitialized))
		})
	})

	Context("subtrees", func() {
		It("deletes in post order and survives cycles", func() {
			for _, id := range []graph.Id{"a", "b", "c", "d"} {
				Must(store.AddVertex(graph.NewVertex(id, "Node")))
			}
			Must(store.AddEdge("Child", "a", "b"))
			Must(store.AddEdge("Child", "b", "c"))
			Must(store.AddEdge("Child", "c", "a"))
			Must(store.AddEdge("Other", "a", "d"))
			before := store.Snapshot()

			Expect(engine.DeleteSubtree(TXN, "a", "Child")).To(Equal([]graph.Id{"c", "b", "a"}))
			Expect(store.Len()).To(Equal(1))
			Expect(store.Vertex("d").In).To(BeEmpty())

			Expect(engine.Undo(TXN)).To(BeTrue())
			expectSnapshot(store, before)
		})
	})

	Context("revert", func() {
		It("discards a preview import", func() {
			Must(engine.AddVertex(TXN, graph.NewVertex("page", "Page")))
			cp := engine.Checkpoint(TXN)
			before := store.Snapshot()

			MustBeSuccessful(engine.Import(TXN, &graph.Fragment{
				Vertices: []*graph.Vertex{graph.NewVertex("p1", "Component"), graph.NewVertex("p2", "Component")},
				Edges:    []*graph.Edge{{Label: "Child", Source: "page", Target: "p1"}, {Label: "Child", Source: "p1", Target: "p2"}},
			}))
			vertices, edges := store.Len()
			Expect(vertices).To(Equal(3))
			Expect(edges).To(Equal(2))

			MustBeSuccessful(engine.RevertTransactionUpToIndex(TXN, cp))
			expectSnapshot(store, before)
			Expect(engine.State(TXN).Steps).To(Equal(cp + 1))
			Expect(engine.CanRedo(TXN)).To(BeFalse())
		})

		It("rejects invalid indices", func() {
			Must(engine.AddVertex(TXN, graph.NewVertex("page", "Page")))
			Expect(engine.RevertTransactionUpToIndex(TXN, 3)).To(MatchError(me.ErrInvalidIndex))
			Expect(engine.RevertTransactionUpToIndex(TXN, -2)).To(MatchError(me.ErrInvalidIndex))
		})
	})

	Context("commit", func() {
		var persister *remapper

		BeforeEach(func() {
			persister = &remapper{}
			engine = me.NewEngine(store, me.WithPersister(persister))
		})

		It("remaps local ids", func() {
			a := Must(engine.AddVertex(TXN, graph.NewVertex("", "Page")))
			b := Must(engine.AddVertex(TXN, graph.NewVertex("", "Attribute").WithProperty("owner", a)))
			e := Must(engine.AddEdge(TXN, "Attr", a, b))
			Expect(a.IsLocal()).To(BeTrue())
			Expect(engine.Status(TXN)).To(Equal(me.StatusModified))

			p := Must(engine.Commit(context.Background(), TXN))
			Expect(p.Mutations).To(HaveLen(3))
			Expect(p.Mutations[0].Vertex.Id).To(Equal(a))

			Expect(store.Vertex(a)).To(BeNil())
			Expect(store.Vertex("s1")).NotTo(BeNil())
			Expect(store.Edge(e)).To(BeNil())
			Expect(store.Edge("s3").Source).To(Equal(graph.Id("s1")))
			Expect(store.Vertex("s1").Out["Attr"]).To(Equal([]graph.Id{"s3"}))
			ref, _ := store.Vertex("s2").Property("owner")
			owner, _ := ref.AsRef()
			Expect(owner).To(Equal(graph.Id("s1")))

			st := engine.State(TXN)
			Expect(st.Status).To(Equal(me.StatusCommitted))
			Expect(st.SubmittedIndex).To(Equal(st.ActiveUndoIndex))
			Expect(st.Committed).NotTo(BeNil())

			Expect(engine.Undo(TXN)).To(BeTrue())
			Expect(store.Len()).To(Equal(0))
			Expect(engine.Status(TXN)).To(Equal(me.StatusReverted))
		})

		It("submits reverted steps as inverses", func() {
			Must(engine.AddVertex(TXN, graph.NewVertex("a", "Item")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))
			Must(engine.AddVertex(TXN, graph.NewVertex("b", "Item")))
			Must(engine.Commit(context.Background(), TXN))

			Expect(engine.Undo(TXN)).To(BeTrue())
			Expect(engine.Status(TXN)).To(Equal(me.StatusReverted))
			p := Must(engine.Commit(context.Background(), TXN))
			Expect(p.Mutations).To(HaveLen(1))
			Expect(p.Mutations[0].Op).To(Equal(me.OpDeleteVertex))
			Expect(p.Mutations[0].Id).To(Equal(graph.Id("b")))
			Expect(engine.Status(TXN)).To(Equal(me.StatusCommitted))
			st := engine.State(TXN)
			Expect(st.SubmittedIndex).To(Equal(0))
			Expect(st.OriginalSubmittedIndex).To(Equal(1))
		})

		It("keeps inverses of discarded submitted steps", func() {
			Must(engine.AddVertex(TXN, graph.NewVertex("a", "Item")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))
			Must(engine.AddVertex(TXN, graph.NewVertex("b", "Item")))
			Must(engine.Commit(context.Background(), TXN))

			Expect(engine.Undo(TXN)).To(BeTrue())
			Must(engine.AddVertex(TXN, graph.NewVertex("c", "Item")))
			Expect(engine.State(TXN).PendingReverts).To(Equal(1))
			Expect(engine.Status(TXN)).To(Equal(me.StatusModified))

			p := Must(engine.Commit(context.Background(), TXN))
			Expect(p.Mutations).To(HaveLen(2))
			Expect(p.Mutations[0].Op).To(Equal(me.OpDeleteVertex))
			Expect(p.Mutations[0].Id).To(Equal(graph.Id("b")))
			Expect(p.Mutations[1].Op).To(Equal(me.OpAddVertex))
			Expect(p.Mutations[1].Vertex.Id).To(Equal(graph.Id("c")))
			Expect(engine.State(TXN).PendingReverts).To(Equal(0))
		})

		It("reports persistence failures", func() {
			Must(engine.AddVertex(TXN, graph.NewVertex("a", "Item")))
			persister.fail = fmt.Errorf("unavailable")
			_, err := engine.Commit(context.Background(), TXN)
			Expect(err).To(MatchError(ContainSubstring("unavailable")))
			Expect(engine.Status(TXN)).To(Equal(me.StatusError))
			Expect(engine.State(TXN).SubmittedIndex).To(Equal(-1))

			persister.fail = nil
			Must(engine.Commit(context.Background(), TXN))
			Expect(engine.Status(TXN)).To(Equal(me.StatusCommitted))
		})

		It("never submits beyond the active index", func() {
			Must(engine.AddVertex(TXN, graph.NewVertex("a", "Item")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))
			Must(engine.AddVertex(TXN, graph.NewVertex("b", "Item")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))
			Expect(engine.Undo(TXN)).To(BeTrue())

			Must(engine.Commit(context.Background(), TXN))
			st := engine.State(TXN)
			Expect(st.SubmittedIndex).To(Equal(0))
			Expect(st.ActiveUndoIndex).To(Equal(0))
			Expect(st.Status).To(Equal(me.StatusCommitted))
			Expect(persister.payloads[0].Mutations).To(HaveLen(1))
		})
	})

	Context("events", func() {
		It("notifies undo and redo", func() {
			registry := graph.NewHandlerRegistry(store)
			engine = me.NewEngine(store, me.WithEventRegistry(registry))
			var events []string
			registry.RegisterHandler(handler(func(e graph.Event) { events = append(events, e.String()) }), false, "Item")

			Must(engine.AddVertex(TXN, graph.NewVertex("a", "Item")))
			Must(engine.AddVertex(TXN, graph.NewVertex("b", "Other")))
			MustBeSuccessful(engine.SaveUndoPoint(TXN))
			Expect(engine.Undo(TXN)).To(BeTrue())
			Expect(events).To(Equal([]string{"added vertex Item(a)", "removed vertex Item(a)"}))
		})
	})
})

type handler func(e graph.Event)

func (h handler) HandleEvent(e graph.Event) {
	h(e)
}
