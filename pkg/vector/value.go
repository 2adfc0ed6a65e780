package vector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindDouble
	KindString
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single payload value. It is a closed variant: exactly one of the
// kinds above, with the zero Value being null. Values are immutable once built.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	d      float64
	s      string
	list   []Value
	fields map[string]Value
}

func NullValue() Value { return Value{} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func IntegerValue(i int64) Value { return Value{kind: KindInteger, i: i} }

func DoubleValue(d float64) Value { return Value{kind: KindDouble, d: d} }

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ListValue builds a list value. The slice is copied.
func ListValue(values ...Value) Value {
	list := make([]Value, len(values))
	copy(list, values)
	return Value{kind: KindList, list: list}
}

// StructValue builds a nested struct value. The map is copied.
func StructValue(fields map[string]Value) Value {
	m := make(map[string]Value, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return Value{kind: KindStruct, fields: m}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInteger() (int64, bool) { return v.i, v.kind == KindInteger }

func (v Value) AsDouble() (float64, bool) { return v.d, v.kind == KindDouble }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	list := make([]Value, len(v.list))
	copy(list, v.list)
	return list, true
}

// AsStruct returns a copy of the nested fields.
func (v Value) AsStruct() (map[string]Value, bool) {
	if v.kind != KindStruct {
		return nil, false
	}
	m := make(map[string]Value, len(v.fields))
	for k, f := range v.fields {
		m[k] = f
	}
	return m, true
}

// Equal reports whether two values hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInteger:
		return v.i == o.i
	case KindDouble:
		return v.d == o.d
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for k, f := range v.fields {
			of, ok := o.fields[k]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the value as plain JSON. Doubles always carry a decimal
// point or exponent so that UnmarshalJSON restores the same kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInteger:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindDouble:
		if math.IsNaN(v.d) || math.IsInf(v.d, 0) {
			return nil, fmt.Errorf("cannot encode non-finite double %v", v.d)
		}
		s := strconv.FormatFloat(v.d, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindStruct:
		if v.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.fields)
	default:
		return nil, fmt.Errorf("cannot encode value of %s", v.kind)
	}
}

// UnmarshalJSON decodes plain JSON into the matching variant. Numbers without a
// fraction or exponent become integers.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := t.Int64(); err == nil {
				return IntegerValue(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("decoding number %q: %w", s, err)
		}
		return DoubleValue(f), nil
	case []any:
		list := make([]Value, len(t))
		for i, item := range t {
			iv, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			list[i] = iv
		}
		return Value{kind: KindList, list: list}, nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fv, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[k] = fv
		}
		return Value{kind: KindStruct, fields: fields}, nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON value %T", raw)
	}
}

// Payload is the key/value metadata attached to a point.
type Payload map[string]Value

// Clone returns a copy of the payload map. Values are immutable, so the copy
// is safe to mutate independently.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	c := make(Payload, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Select returns the subset of the payload named by fields.
// A nil fields slice selects everything.
func (p Payload) Select(fields []string) Payload {
	if fields == nil {
		return p.Clone()
	}
	out := make(Payload, len(fields))
	for _, f := range fields {
		if v, ok := p[f]; ok {
			out[f] = v
		}
	}
	return out
}
