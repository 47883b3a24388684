package validation

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mandelsoft/graphstore/pkg/graph"
)

// ErrValidation is the cause of all validation failures.
var ErrValidation = errors.New("validation failure")

// Reason describes a single violated constraint.
type Reason struct {
	Rule    string   `json:"rule"`
	Vertex  graph.Id `json:"vertex"`
	Message string   `json:"message"`
	// Blocking are the vertices causing the violation.
	Blocking []graph.Id `json:"blocking,omitempty"`
}

func (r Reason) String() string {
	if len(r.Blocking) == 0 {
		return fmt.Sprintf("%s: %s", r.Rule, r.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", r.Rule, r.Message, graph.JoinIds(r.Blocking))
}

// Failure is a validation failure carrying all reasons.
type Failure struct {
	Reasons []Reason
}

func (f *Failure) Error() string {
	parts := make([]string, len(f.Reasons))
	for i, r := range f.Reasons {
		parts[i] = r.String()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (f *Failure) Unwrap() error {
	return ErrValidation
}

// Reasons extracts the reasons of a validation failure.
func Reasons(err error) []Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reasons
	}
	return nil
}
