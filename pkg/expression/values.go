package expression

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

type undefined struct{}

func (undefined) String() string {
	return "undefined"
}

// Undefined is the result of expressions which cannot
// be resolved. It is distinct from nil (null).
var Undefined any = undefined{}

func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Truthy reports the boolean interpretation of a value.
// nil, Undefined, false, 0, the empty string and empty
// lists or maps are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil, undefined:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := ToNumber(v); ok {
		return f != 0
	}
	r := reflect.ValueOf(v)
	switch r.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return r.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !r.IsNil()
	}
	return true
}

// ToNumber converts numeric values to float64.
func ToNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// ParseNumber converts numbers and numeric text to float64.
// Projections yield display text, so "10" is a number here.
func ParseNumber(v any) (float64, bool) {
	if f, ok := ToNumber(v); ok {
		return f, true
	}
	t, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// DefaultDisplay is the display text used if a registry
// does not define its own.
func DefaultDisplay(v any) string {
	switch t := v.(type) {
	case nil, undefined:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	}
	if f, ok := ToNumber(v); ok {
		return FormatNumber(f)
	}
	r := reflect.ValueOf(v)
	switch r.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, r.Len())
		for i := range parts {
			parts[i] = DefaultDisplay(r.Index(i).Interface())
		}
		return strings.Join(parts, ", ")
	case reflect.Map:
		data, err := json.Marshal(v)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", v)
}

// Equal compares two evaluation results. Numbers are compared
// by value, all other values by their display text, nil and
// Undefined are only equal to themselves.
func Equal(a, b any) bool {
	if IsUndefined(a) || IsUndefined(b) {
		return IsUndefined(a) && IsUndefined(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, oka := ToNumber(a)
	fb, okb := ToNumber(b)
	if oka && okb {
		return fa == fb
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ba == bb
	}
	return DefaultDisplay(a) == DefaultDisplay(b)
}
