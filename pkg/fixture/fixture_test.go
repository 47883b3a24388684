package fixture_test

import (
	"github.com/go-test/deep"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/query"
	. "github.com/mandelsoft/graphstore/pkg/testutils"
	"github.com/mandelsoft/graphstore/pkg/transaction"

	me "github.com/mandelsoft/graphstore/pkg/fixture"
)

var _ = Describe("fixtures", func() {
	It("loads a fixture", func() {
		f := Must(me.Load("testdata/site.yaml"))
		vertices, edges := f.Len()
		Expect(vertices).To(Equal(4))
		Expect(edges).To(Equal(3))
		Expect(f.Vertices[1].Properties["displayOrder"]).To(Equal(graph.Number(0)))
		Expect(f.Vertices[3].Properties["owner"]).To(Equal(graph.Ref("home")))
		Expect(f.Edges[2].Id).To(Equal(graph.Id("e1")))
	})

	It("provides a store", func() {
		s := Must(me.LoadStore("testdata/site.yaml"))
		r := Must(query.MustCompile("g:Page").Result(query.NewContext(s)))
		Expect(r.Vertices.Ids()).To(Equal([]graph.Id{"home", "about"}))
		Expect(s.Out("site", "children")).To(HaveLen(2))
		Expect(s.Edge("e1").Target).To(Equal(graph.Id("header")))
		Expect(s.Out("site", "children")[0].Id.IsLocal()).To(BeTrue())
	})

	It("saves a fixture", func() {
		fs := memoryfs.New()
		s := Must(me.LoadStore("testdata/site.yaml"))
		MustBeSuccessful(me.Save("/site.yaml", s.Export(), fs))

		f := Must(me.Load("/site.yaml", fs))
		n := graph.NewStore()
		MustBeSuccessful(n.MergeFragment(f))
		Expect(deep.Equal(n.Snapshot(), s.Snapshot())).To(BeEmpty())
	})

	It("rejects invalid fixtures", func() {
		_, err := me.Parse([]byte("vertices:\n- id: a\n  labels: [ A ]\n  color: red\n"))
		Expect(err).To(MatchError(me.ErrInvalidFixture))

		_, err = me.Parse([]byte("vertices:\n- id: a\n"))
		Expect(err).To(MatchError(me.ErrInvalidFixture))
		Expect(err.Error()).To(ContainSubstring(`vertex "a": labels missing`))

		_, err = me.Parse([]byte("vertices:\n- id: a\n  labels: [ A ]\n- id: a\n  labels: [ B ]\n"))
		Expect(err).To(MatchError(ContainSubstring("duplicate id")))

		_, err = me.Parse([]byte("edges:\n- label: x\n  source: a\n"))
		Expect(err).To(MatchError(ContainSubstring("edge 0")))
	})

	It("previews a fragment in a transaction", func() {
		s := Must(me.LoadStore("testdata/site.yaml"))
		before := s.Snapshot()
		e := transaction.NewEngine(s)

		preview := Must(me.Parse([]byte(`
vertices:
- id: contact
  labels: [ Page ]
  properties:
    name: Contact
- id: home
  labels: [ Page ]
  properties:
    title: Welcome
edges:
- label: children
  source: site
  target: contact
`)))
		checkpoint := Must(me.Preview(e, 1, preview))
		Expect(checkpoint).To(Equal(-1))
		Expect(s.Vertex("contact")).NotTo(BeNil())
		Expect(s.Out("site", "children")).To(HaveLen(3))
		Expect(s.Vertex("home").Properties["title"]).To(Equal(graph.String("Welcome")))
		Expect(e.Status(1)).To(Equal(transaction.StatusModified))

		MustBeSuccessful(e.RevertTransactionUpToIndex(1, checkpoint))
		Expect(deep.Equal(s.Snapshot(), before)).To(BeEmpty())
	})

	It("discards a failed preview", func() {
		s := Must(me.LoadStore("testdata/site.yaml"))
		before := s.Snapshot()
		e := transaction.NewEngine(s)

		preview := &graph.Fragment{
			Vertices: []*graph.Vertex{graph.NewVertex("contact", "Page")},
			Edges:    []*graph.Edge{{Label: "children", Source: "site", Target: "missing"}},
		}
		_, err := me.Preview(e, 1, preview)
		Expect(err).To(MatchError(graph.ErrNotFound))
		Expect(deep.Equal(s.Snapshot(), before)).To(BeEmpty())
	})
})
