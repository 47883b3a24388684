package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/mandelsoft/graphstore/pkg/utils"
)

// Kind is the tag of a property Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindRef
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindRef:
		return "ref"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// refKey is the JSON object key used to encode a Ref value.
const refKey = "$ref"

// Value is a property value. The zero value is Null.
// Ref values hold the id of another vertex and are
// rewritten when ids are remapped.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	l    []Value
	m    map[string]Value
}

func Null() Value {
	return Value{}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func Number(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

func Int(n int) Value {
	return Number(float64(n))
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

func Ref(id Id) Value {
	return Value{kind: KindRef, s: string(id)}
}

func List(values ...Value) Value {
	return Value{kind: KindList, l: slices.Clone(values)}
}

func Map(m map[string]Value) Value {
	c := make(map[string]Value, len(m))
	for k, v := range m {
		c[k] = v.Clone()
	}
	return Value{kind: KindMap, m: c}
}

// ValueOf converts a plain Go value into a Value.
func ValueOf(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Value:
		if t == nil {
			return Null(), nil
		}
		return *t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(t), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case float32:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), err
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case Id:
		return Ref(t), nil
	case []Value:
		return List(t...), nil
	case []any:
		l := make([]Value, len(t))
		for i, e := range t {
			c, err := ValueOf(e)
			if err != nil {
				return Null(), err
			}
			l[i] = c
		}
		return Value{kind: KindList, l: l}, nil
	case map[string]Value:
		return Map(t), nil
	case map[string]any:
		if len(t) == 1 {
			if r, ok := t[refKey].(string); ok {
				return Ref(Id(r)), nil
			}
		}
		m := make(map[string]Value, len(t))
		for k, e := range t {
			c, err := ValueOf(e)
			if err != nil {
				return Null(), err
			}
			m[k] = c
		}
		return Value{kind: KindMap, m: m}, nil
	default:
		return Null(), fmt.Errorf("unsupported property value type %T", v)
	}
}

// MustValueOf is ValueOf for values known to be convertible.
func MustValueOf(v any) Value {
	r, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return r
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsRef() (Id, bool) {
	return Id(v.s), v.kind == KindRef
}

func (v Value) AsList() ([]Value, bool) {
	return v.l, v.kind == KindList
}

func (v Value) AsMap() (map[string]Value, bool) {
	return v.m, v.kind == KindMap
}

// Interface returns the plain Go representation of the value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindRef:
		return Id(v.s)
	case KindList:
		return utils.TransformSlice(v.l, Value.Interface)
	case KindMap:
		m := make(map[string]any, len(v.m))
		for k, e := range v.m {
			m[k] = e.Interface()
		}
		return m
	default:
		return nil
	}
}

func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		return Value{kind: KindList, l: utils.TransformSlice(v.l, Value.Clone)}
	case KindMap:
		return Map(v.m)
	default:
		return v
	}
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString, KindRef:
		return v.s == o.s
	case KindList:
		return slices.EqualFunc(v.l, o.l, Value.Equal)
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			c, ok := o.m[k]
			if !ok || !e.Equal(c) {
				return false
			}
		}
		return true
	}
	return false
}

// String provides the display text of the value.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString, KindRef:
		return v.s
	case KindList:
		return utils.JoinFunc(v.l, ", ", Value.String)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v.Interface())
		}
		return string(data)
	}
}

// FormatNumber formats integral numbers without fraction.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func (v Value) remap(m map[Id]Id) Value {
	switch v.kind {
	case KindRef:
		if n, ok := m[Id(v.s)]; ok {
			return Ref(n)
		}
	case KindList:
		for i, e := range v.l {
			v.l[i] = e.remap(m)
		}
	case KindMap:
		for k, e := range v.m {
			v.m[k] = e.remap(m)
		}
	}
	return v
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindRef:
		return json.Marshal(map[string]string{refKey: v.s})
	case KindList:
		if v.l == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.l)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	default:
		return json.Marshal(v.Interface())
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = r
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// Properties is the property bag of a vertex.
type Properties map[string]Value

// Get returns the effective value of a key. Keys cleared
// with a Null value are reported as absent.
func (p Properties) Get(key string) (Value, bool) {
	v, ok := p[key]
	if !ok || v.IsNull() {
		return Null(), false
	}
	return v, true
}

func (p Properties) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

func (p Properties) Clone() Properties {
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v.Clone()
	}
	return c
}

func (p Properties) Equal(o Properties) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		c, ok := o[k]
		if !ok || !v.Equal(c) {
			return false
		}
	}
	return true
}

// PropertiesOf converts a plain map into Properties.
func PropertiesOf(m map[string]any) (Properties, error) {
	p := make(Properties, len(m))
	for k, e := range m {
		v, err := ValueOf(e)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		p[k] = v
	}
	return p, nil
}
