package expression_test

import (
	"errors"

	"github.com/mandelsoft/graphstore/pkg/expression"
	. "github.com/mandelsoft/graphstore/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Expression Parsing", func() {
	var registry *expression.Registry

	BeforeEach(func() {
		registry = expression.NewStandardBuilder().
			Binary("^", 75, expression.RightAssoc, nil).
			Binary("->", 90, expression.LeftAssoc, nil).
			Unary("->", 100, nil).
			Unary("g:", 100, nil).
			MustBuild()
	})

	Context("leafs", func() {
		It("value", func() {
			Expect(registry.Parse("12")).To(Equal(&expression.Node{Kind: expression.KindLiteral, Value: float64(12)}))
		})
		It("decimal value", func() {
			Expect(registry.Parse("1.5")).To(Equal(expression.NewValueNode(1.5)))
		})
		It("negative value", func() {
			Expect(Must(registry.Parse("---12")).String()).To(Equal("(-(-(-12)))"))
		})
		It("name", func() {
			Expect(registry.Parse("varA")).To(Equal(&expression.Node{Kind: expression.KindName, Name: "varA"}))
		})
		It("name with digits and dollar", func() {
			Expect(registry.Parse("$0Child")).To(Equal(expression.NewNameNode("$0Child")))
		})
		It("strings", func() {
			Expect(registry.Parse(`'it\'s'`)).To(Equal(expression.NewValueNode("it's")))
			Expect(registry.Parse(`"double"`)).To(Equal(expression.NewValueNode("double")))
		})
		It("keywords", func() {
			Expect(registry.Parse("true")).To(Equal(expression.NewValueNode(true)))
			Expect(registry.Parse("null")).To(Equal(expression.NewValueNode(nil)))
			Expect(registry.Parse("undefined")).To(Equal(expression.NewValueNode(expression.Undefined)))
		})
	})

	Context("expressions", func() {
		It("add", func() {
			Expect(Must(registry.Parse("A+1")).String()).To(Equal("(A+1)"))
		})
		It("chained", func() {
			Expect(Must(registry.Parse("A+B+C")).String()).To(Equal("((A+B)+C)"))
		})
		It("order", func() {
			Expect(Must(registry.Parse("A+B*C+D")).String()).To(Equal("((A+(B*C))+D)"))
		})
		It("complex", func() {
			Expect(Must(registry.Parse("A+B*(C+D)+1")).String()).To(Equal("((A+(B*(C+D)))+1)"))
		})
		It("blanks", func() {
			Expect(Must(registry.Parse(" A + B * ( C + D ) + 1 ")).String()).To(Equal("((A+(B*(C+D)))+1)"))
		})
		It("logical", func() {
			Expect(Must(registry.Parse("A||B&&!C==D")).String()).To(Equal("(A||(B&&((!C)==D)))"))
		})
		It("right associative", func() {
			Expect(Must(registry.Parse("A^B^C")).String()).To(Equal("(A^(B^C))"))
		})
		It("longest symbol match", func() {
			Expect(Must(registry.Parse("A->B-C")).String()).To(Equal("((A->B)-C)"))
			Expect(Must(registry.Parse("A <= B")).String()).To(Equal("(A<=B)"))
		})
		It("prefix operators", func() {
			Expect(Must(registry.Parse("->Attr->Parent")).String()).To(Equal("((->Attr)->Parent)"))
			Expect(Must(registry.Parse("g:'Config'")).String()).To(Equal("(g:'Config')"))
		})
	})

	Context("names", func() {
		It("lists names in order", func() {
			n := Must(registry.Parse("A+B*(C+A)+1"))
			Expect(n.Names()).To(Equal([]string{"A", "B", "C"}))
		})
	})

	Context("errors", func() {
		It("reports position", func() {
			_, err := registry.Parse("A+")
			Expect(errors.Is(err, expression.ErrInvalidExpression)).To(BeTrue())
			var serr *expression.SyntaxError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.Position).To(Equal(2))
		})
		It("rejects trailing text", func() {
			_, err := registry.Parse("A B")
			Expect(err).To(MatchError(expression.ErrInvalidExpression))
		})
		It("rejects unterminated strings", func() {
			_, err := registry.Parse("'abc")
			Expect(err).To(MatchError(ContainSubstring("unterminated string")))
		})
		It("rejects embedded NUL characters", func() {
			_, err := registry.Parse("->Attr\x00junk")
			Expect(err).To(MatchError(expression.ErrInvalidExpression))
			Expect(err).To(MatchError(ContainSubstring("unexpected character")))
			_, err = registry.Parse("A+\x00")
			Expect(err).To(MatchError(ContainSubstring("unexpected character")))
		})
		It("keeps NUL characters in strings", func() {
			Expect(registry.Parse("'a\x00b'")).To(Equal(expression.NewValueNode("a\x00b")))
			_, err := registry.Parse("'a\x00")
			Expect(err).To(MatchError(ContainSubstring("unterminated string")))
		})
		It("rejects missing parenthesis", func() {
			_, err := registry.Parse("(A+1")
			Expect(err).To(MatchError(ContainSubstring(`")" expected`)))
		})
	})
})
