package expression

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidExpression is the cause of all parse failures.
var ErrInvalidExpression = errors.New("invalid expression")

// SyntaxError describes a parse failure at a rune position
// of the expression text.
type SyntaxError struct {
	Expression string
	Position   int
	Message    string
}

func newSyntaxError(expr string, pos int, msg string, args ...interface{}) error {
	return &SyntaxError{
		Expression: expr,
		Position:   pos,
		Message:    fmt.Sprintf(msg, args...),
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %q %d: %s", ErrInvalidExpression, e.Expression, e.Position, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return ErrInvalidExpression
}
