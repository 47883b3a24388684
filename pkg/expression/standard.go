package expression

import (
	"math"
	"strings"
)

// Precedences of the standard operators. Higher values bind tighter.
const (
	PrecOr         = 10
	PrecAnd        = 20
	PrecEquality   = 30
	PrecComparison = 40
	PrecConcat     = 50
	PrecAdditive   = 60
	PrecMultiply   = 70
	PrecUnary      = 80
)

// NewStandardBuilder provides a builder preconfigured with
// logical, comparison and arithmetic operators.
func NewStandardBuilder() *Builder {
	return AddStandardOperators(NewBuilder())
}

func AddStandardOperators(b *Builder) *Builder {
	return b.
		Binary("||", PrecOr, LeftAssoc, or).
		Binary("&&", PrecAnd, LeftAssoc, and).
		Binary("==", PrecEquality, LeftAssoc, compare(func(e *Evaluation, a, b any) any { return equal(e, a, b) })).
		Binary("!=", PrecEquality, LeftAssoc, compare(func(e *Evaluation, a, b any) any { return !equal(e, a, b) })).
		Binary("<", PrecComparison, LeftAssoc, order(func(c int) bool { return c < 0 })).
		Binary("<=", PrecComparison, LeftAssoc, order(func(c int) bool { return c <= 0 })).
		Binary(">", PrecComparison, LeftAssoc, order(func(c int) bool { return c > 0 })).
		Binary(">=", PrecComparison, LeftAssoc, order(func(c int) bool { return c >= 0 })).
		Binary("+", PrecAdditive, LeftAssoc, plus).
		Binary("-", PrecAdditive, LeftAssoc, arithmetic(func(a, b float64) float64 { return a - b })).
		Binary("*", PrecMultiply, LeftAssoc, arithmetic(func(a, b float64) float64 { return a * b })).
		Binary("/", PrecMultiply, LeftAssoc, arithmetic(func(a, b float64) float64 { return a / b })).
		Binary("%", PrecMultiply, LeftAssoc, arithmetic(math.Mod)).
		Unary("!", PrecUnary, not).
		Unary("-", PrecUnary, negate)
}

func or(e *Evaluation, operands ...*Node) (any, error) {
	l, err := e.Eval(operands[0])
	if err != nil || Truthy(l) {
		return l, err
	}
	return e.Eval(operands[1])
}

func and(e *Evaluation, operands ...*Node) (any, error) {
	l, err := e.Eval(operands[0])
	if err != nil || !Truthy(l) {
		return l, err
	}
	return e.Eval(operands[1])
}

func not(e *Evaluation, operands ...*Node) (any, error) {
	v, err := e.Eval(operands[0])
	if err != nil {
		return nil, err
	}
	return !Truthy(v), nil
}

func negate(e *Evaluation, operands ...*Node) (any, error) {
	v, err := e.Eval(operands[0])
	if err != nil {
		return nil, err
	}
	if f, ok := ParseNumber(v); ok {
		return -f, nil
	}
	return Undefined, nil
}

func equal(e *Evaluation, a, b any) bool {
	if IsUndefined(a) || IsUndefined(b) || a == nil || b == nil {
		return Equal(a, b)
	}
	fa, oka := ToNumber(a)
	fb, okb := ToNumber(b)
	if oka && okb {
		return fa == fb
	}
	return e.Display(a) == e.Display(b)
}

func compare(f func(e *Evaluation, a, b any) any) Func {
	return func(e *Evaluation, operands ...*Node) (any, error) {
		args, err := e.EvalAll(operands...)
		if err != nil {
			return nil, err
		}
		return f(e, args[0], args[1]), nil
	}
}

// order compares numerically if both operands are numbers or
// numeric text, otherwise by display text.
func order(f func(c int) bool) Func {
	return func(e *Evaluation, operands ...*Node) (any, error) {
		args, err := e.EvalAll(operands...)
		if err != nil {
			return nil, err
		}
		if IsUndefined(args[0]) || IsUndefined(args[1]) {
			return false, nil
		}
		fa, oka := ParseNumber(args[0])
		fb, okb := ParseNumber(args[1])
		if oka && okb {
			switch {
			case fa < fb:
				return f(-1), nil
			case fa > fb:
				return f(1), nil
			}
			return f(0), nil
		}
		return f(strings.Compare(e.Display(args[0]), e.Display(args[1]))), nil
	}
}

// plus adds numbers and concatenates the display text of
// all other operands.
func plus(e *Evaluation, operands ...*Node) (any, error) {
	args, err := e.EvalAll(operands...)
	if err != nil {
		return nil, err
	}
	if IsUndefined(args[0]) || IsUndefined(args[1]) {
		return Undefined, nil
	}
	fa, oka := ToNumber(args[0])
	fb, okb := ToNumber(args[1])
	if oka && okb {
		return fa + fb, nil
	}
	return e.Display(args[0]) + e.Display(args[1]), nil
}

func arithmetic(f func(a, b float64) float64) Func {
	return func(e *Evaluation, operands ...*Node) (any, error) {
		args, err := e.EvalAll(operands...)
		if err != nil {
			return nil, err
		}
		fa, oka := ParseNumber(args[0])
		fb, okb := ParseNumber(args[1])
		if !oka || !okb {
			return Undefined, nil
		}
		r := f(fa, fb)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return Undefined, nil
		}
		return r, nil
	}
}
