package expression

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// AsyncSuffix is appended to an operator symbol to register the
// implementation used in async evaluation mode.
const AsyncSuffix = "_async"

type Assoc int

const (
	LeftAssoc Assoc = iota
	RightAssoc
)

// Func implements an operator. It receives the unevaluated
// operands and decides itself which of them to evaluate.
type Func func(e *Evaluation, operands ...*Node) (any, error)

// AsyncFunc implements an operator in async evaluation mode.
type AsyncFunc func(ctx context.Context, e *Evaluation, operands ...*Node) (any, error)

// NameFunc resolves identifiers.
type NameFunc func(e *Evaluation, name string) (any, error)

// DisplayFunc provides the display text of an evaluation result.
type DisplayFunc func(v any) string

type Operator struct {
	Symbol     string
	Precedence int
	Assoc      Assoc
	Func       Func
}

// Registry is an immutable set of operators used to parse and
// evaluate expressions. It is created with a Builder.
type Registry struct {
	unary   map[string]*Operator
	binary  map[string]*Operator
	async   map[string]AsyncFunc
	names   NameFunc
	display DisplayFunc

	unarySymbols  []string
	binarySymbols []string
}

func (r *Registry) Unary(sym string) *Operator {
	return r.unary[sym]
}

func (r *Registry) Binary(sym string) *Operator {
	return r.binary[sym]
}

func unaryKey(sym string) string {
	return "u" + sym + AsyncSuffix
}

func binaryKey(sym string) string {
	return "b" + sym + AsyncSuffix
}

// longest prefix match
func match(in string, symbols []string, ops map[string]*Operator) *Operator {
	for _, s := range symbols {
		if strings.HasPrefix(in, s) {
			return ops[s]
		}
	}
	return nil
}

func (r *Registry) matchUnary(in string) *Operator {
	return match(in, r.unarySymbols, r.unary)
}

func (r *Registry) matchBinary(in string) *Operator {
	return match(in, r.binarySymbols, r.binary)
}

// Display provides the display text for an evaluation result.
func (r *Registry) Display(v any) string {
	if r.display != nil {
		return r.display(v)
	}
	return DefaultDisplay(v)
}

////////////////////////////////////////////////////////////////////////////////

// Builder composes a Registry.
type Builder struct {
	unary   map[string]*Operator
	binary  map[string]*Operator
	async   map[string]AsyncFunc
	names   NameFunc
	display DisplayFunc
	errs    []error
}

// NewBuilder creates a builder, optionally initialized with the
// operators of existing registries.
func NewBuilder(base ...*Registry) *Builder {
	b := &Builder{
		unary:  map[string]*Operator{},
		binary: map[string]*Operator{},
		async:  map[string]AsyncFunc{},
	}
	for _, r := range base {
		for k, v := range r.unary {
			b.unary[k] = v
		}
		for k, v := range r.binary {
			b.binary[k] = v
		}
		for k, v := range r.async {
			b.async[k] = v
		}
		if r.names != nil {
			b.names = r.names
		}
		if r.display != nil {
			b.display = r.display
		}
	}
	return b
}

func (b *Builder) check(sym string) bool {
	if sym == "" || strings.ContainsAny(sym, " \t\n()'\"") {
		b.errs = append(b.errs, fmt.Errorf("invalid operator symbol %q", sym))
		return false
	}
	return true
}

func (b *Builder) Unary(sym string, prec int, f Func) *Builder {
	if b.check(sym) {
		b.unary[sym] = &Operator{Symbol: sym, Precedence: prec, Func: f}
	}
	return b
}

func (b *Builder) Binary(sym string, prec int, assoc Assoc, f Func) *Builder {
	if b.check(sym) {
		b.binary[sym] = &Operator{Symbol: sym, Precedence: prec, Assoc: assoc, Func: f}
	}
	return b
}

// UnaryAsync registers the async mode implementation of a unary operator.
func (b *Builder) UnaryAsync(sym string, f AsyncFunc) *Builder {
	b.async[unaryKey(sym)] = f
	return b
}

// BinaryAsync registers the async mode implementation of a binary operator.
func (b *Builder) BinaryAsync(sym string, f AsyncFunc) *Builder {
	b.async[binaryKey(sym)] = f
	return b
}

func (b *Builder) Names(f NameFunc) *Builder {
	b.names = f
	return b
}

func (b *Builder) Display(f DisplayFunc) *Builder {
	b.display = f
	return b
}

func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Wrapf(b.errs[0], "operator registry")
	}
	for k := range b.async {
		sym := strings.TrimSuffix(k[1:], AsyncSuffix)
		if k[0] == 'u' && b.unary[sym] == nil {
			return nil, fmt.Errorf("async implementation for unknown unary operator %q", sym)
		}
		if k[0] == 'b' && b.binary[sym] == nil {
			return nil, fmt.Errorf("async implementation for unknown binary operator %q", sym)
		}
	}
	r := &Registry{
		unary:   map[string]*Operator{},
		binary:  map[string]*Operator{},
		async:   map[string]AsyncFunc{},
		names:   b.names,
		display: b.display,
	}
	for k, v := range b.unary {
		r.unary[k] = v
		r.unarySymbols = append(r.unarySymbols, k)
	}
	for k, v := range b.binary {
		r.binary[k] = v
		r.binarySymbols = append(r.binarySymbols, k)
	}
	for k, v := range b.async {
		r.async[k] = v
	}
	bySize(r.unarySymbols)
	bySize(r.binarySymbols)
	log.Trace("operator registry with {{unary}} unary and {{binary}} binary operators", "unary", len(r.unary), "binary", len(r.binary))
	return r, nil
}

func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

func bySize(list []string) {
	sort.Slice(list, func(i, j int) bool {
		if len(list[i]) != len(list[j]) {
			return len(list[i]) > len(list[j])
		}
		return list[i] < list[j]
	})
}
