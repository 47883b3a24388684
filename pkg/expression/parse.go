package expression

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type parser struct {
	registry *Registry
	in       string
	pos      int
	width    int
	no       int
	current  rune
}

func newParser(r *Registry, in string) *parser {
	p := &parser{
		registry: r,
		in:       in,
	}
	p.decode()
	return p
}

func (s *parser) decode() {
	if s.pos >= len(s.in) {
		s.current = 0
		s.width = 0
		return
	}
	s.current, s.width = utf8.DecodeRuneInString(s.in[s.pos:])
}

// AtEnd reports the end of input. A NUL rune inside the
// input is a regular (invalid) character.
func (s *parser) AtEnd() bool {
	return s.width == 0
}

func (s *parser) Next() rune {
	if s.width == 0 {
		return 0
	}
	s.pos += s.width
	s.no++
	s.decode()
	return s.current
}

// Skip skips the given number of bytes of ASCII symbols.
func (s *parser) Skip(n int) rune {
	s.pos += n
	s.no += n
	s.decode()
	return s.current
}

func (s *parser) ParseRune(r rune) error {
	if s.Current() != r {
		return s.Errorf("%q expected", string(r))
	}
	s.Next()
	return nil
}

func (s *parser) Current() rune {
	return s.current
}

func (s *parser) Rest() string {
	return s.in[s.pos:]
}

func (s *parser) Position() int {
	return s.no
}

func (s *parser) Errorf(msg string, args ...interface{}) error {
	return newSyntaxError(s.in, s.Position(), msg, args...)
}

func (s *parser) SkipBlank() rune {
	n := s.Current()
	for unicode.IsSpace(n) {
		n = s.Next()
	}
	return n
}

////////////////////////////////////////////////////////////////////////////////

func (s *parser) parseExpression(min int) (*Node, error) {
	left, err := s.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		s.SkipBlank()
		op := s.registry.matchBinary(s.Rest())
		if op == nil || op.Precedence < min {
			return left, nil
		}
		s.Skip(len(op.Symbol))
		next := op.Precedence + 1
		if op.Assoc == RightAssoc {
			next = op.Precedence
		}
		right, err := s.parseExpression(next)
		if err != nil {
			return nil, err
		}
		left = NewBinaryNode(op.Symbol, left, right)
	}
}

func (s *parser) parseUnary() (*Node, error) {
	s.SkipBlank()
	if op := s.registry.matchUnary(s.Rest()); op != nil {
		s.Skip(len(op.Symbol))
		operand, err := s.parseExpression(op.Precedence)
		if err != nil {
			return nil, err
		}
		return NewUnaryNode(op.Symbol, operand), nil
	}
	return s.parseOperand()
}

func (s *parser) parseOperand() (*Node, error) {
	n := s.SkipBlank()
	switch {
	case unicode.IsDigit(n):
		return s.parseNumber()
	case isNameStart(n):
		return s.parseName()
	case n == '\'' || n == '"':
		return s.parseString()
	case n == '(':
		s.Next()
		e, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		s.SkipBlank()
		err = s.ParseRune(')')
		if err != nil {
			return nil, err
		}
		return e, nil
	case s.AtEnd():
		return nil, s.Errorf("unexpected end of expression")
	default:
		return nil, s.Errorf("unexpected character %q for operand", string(n))
	}
}

func (s *parser) parseNumber() (*Node, error) {
	start := s.pos
	n := s.Current()
	for unicode.IsDigit(n) {
		n = s.Next()
	}
	if n == '.' {
		n = s.Next()
		if !unicode.IsDigit(n) {
			return nil, s.Errorf("digit expected after decimal point")
		}
		for unicode.IsDigit(n) {
			n = s.Next()
		}
	}
	f, err := strconv.ParseFloat(s.in[start:s.pos], 64)
	if err != nil {
		return nil, s.Errorf("invalid number: %s", err)
	}
	return NewValueNode(f), nil
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r)
}

func (s *parser) parseName() (*Node, error) {
	start := s.pos
	n := s.Current()
	for isNameChar(n) {
		n = s.Next()
	}
	name := s.in[start:s.pos]
	switch name {
	case "true":
		return NewValueNode(true), nil
	case "false":
		return NewValueNode(false), nil
	case "null":
		return NewValueNode(nil), nil
	case "undefined":
		return NewValueNode(Undefined), nil
	}
	return NewNameNode(name), nil
}

func (s *parser) parseString() (*Node, error) {
	quote := s.Current()
	var b strings.Builder
	n := s.Next()
	for !s.AtEnd() && n != quote {
		switch n {
		case '\\':
			n = s.Next()
			if s.AtEnd() {
				return nil, s.Errorf("unterminated string")
			}
			switch n {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(n)
			}
		default:
			b.WriteRune(n)
		}
		n = s.Next()
	}
	if s.AtEnd() {
		return nil, s.Errorf("unterminated string")
	}
	s.Next()
	return NewValueNode(b.String()), nil
}

// Parse parses an expression using the operators of the registry.
func (r *Registry) Parse(in string) (*Node, error) {
	p := newParser(r, in)

	n, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	p.SkipBlank()
	if !p.AtEnd() {
		return nil, p.Errorf("unexpected character %q", string(p.Current()))
	}
	return n, nil
}

// MustParse parses an expression known to be valid.
func (r *Registry) MustParse(in string) *Node {
	n, err := r.Parse(in)
	if err != nil {
		panic(err)
	}
	return n
}
