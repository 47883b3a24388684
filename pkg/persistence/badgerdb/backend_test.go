package badgerdb_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/persistence"
	. "github.com/mandelsoft/graphstore/pkg/testutils"
	"github.com/mandelsoft/graphstore/pkg/transaction"

	me "github.com/mandelsoft/graphstore/pkg/persistence/badgerdb"
)

const TXN = 1

var _ = Describe("badger persistence", func() {
	var ctx context.Context
	var backend *me.Backend
	var engine *transaction.Engine

	BeforeEach(func() {
		ctx = context.Background()
		backend = Must(me.NewInMemory())
		engine = transaction.NewEngine(graph.NewStore(), transaction.WithPersister(persistence.New(backend)))
	})

	AfterEach(func() {
		MustBeSuccessful(backend.Close())
	})

	It("provides sequential ids", func() {
		Expect(Must(backend.NewId(ctx))).To(Equal(graph.Id("1")))
		Expect(Must(backend.NewId(ctx))).To(Equal(graph.Id("2")))
	})

	It("stores graph and journal", func() {
		Expect(Must(backend.Load(ctx))).To(BeNil())

		home := Must(engine.AddVertex(TXN, graph.NewVertex("", "Page").WithProperty("name", "Home")))
		about := Must(engine.AddVertex(TXN, graph.NewVertex("", "Page").WithProperty("name", "About")))
		Must(engine.AddEdge(TXN, "children", home, about))
		Must(engine.Commit(ctx, TXN))

		store := engine.Store()
		Expect(store.Vertex("1")).NotTo(BeNil())
		Expect(store.Vertex("2")).NotTo(BeNil())
		Expect(store.Edge("3")).NotTo(BeNil())

		f := Must(backend.Load(ctx))
		vertices, edges := f.Len()
		Expect(vertices).To(Equal(2))
		Expect(edges).To(Equal(1))
		Expect(f.Vertices[0].Id).To(Equal(graph.Id("1")))
		Expect(f.Edges[0].Source).To(Equal(graph.Id("1")))

		MustBeSuccessful(engine.DeleteEdge(TXN, "3"))
		Must(engine.Commit(ctx, TXN))

		f = Must(backend.Load(ctx))
		vertices, edges = f.Len()
		Expect(vertices).To(Equal(2))
		Expect(edges).To(Equal(0))

		journal := Must(backend.Journal())
		Expect(journal).To(HaveLen(2))
		Expect(journal[1].Mutations[0].Op).To(Equal(transaction.OpDeleteEdge))
		Expect(journal[1].Mutations[0].Id).To(Equal(graph.Id("3")))
	})
})
