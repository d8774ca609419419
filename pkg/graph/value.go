package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueType represents the type of a node attribute value
type ValueType uint8

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
)

// Value represents a typed node attribute. Values marshal to and from the
// bare JSON scalar so attribute maps round-trip through document storage
// without a wrapper object. The zero Value is the empty string.
type Value struct {
	kind ValueType
	str  string
	i    int64
	f    float64
	b    bool
}

// Helper functions to create typed values
func StringValue(s string) Value {
	return Value{kind: TypeString, str: s}
}

func IntValue(i int64) Value {
	return Value{kind: TypeInt, i: i}
}

func FloatValue(f float64) Value {
	return Value{kind: TypeFloat, f: f}
}

func BoolValue(b bool) Value {
	return Value{kind: TypeBool, b: b}
}

// Kind returns the value's type tag.
func (v Value) Kind() ValueType {
	return v.kind
}

// IsZero reports whether the value is the empty string. Empty strings are
// never stored as attributes.
func (v Value) IsZero() bool {
	return v.kind == TypeString && v.str == ""
}

// Decode methods
func (v Value) AsString() (string, error) {
	if v.kind != TypeString {
		return "", fmt.Errorf("value is not a string")
	}
	return v.str, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != TypeInt {
		return 0, fmt.Errorf("value is not an int")
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != TypeFloat {
		return 0, fmt.Errorf("value is not a float")
	}
	return v.f, nil
}

func (v Value) AsBool() (bool, error) {
	if v.kind != TypeBool {
		return false, fmt.Errorf("value is not a bool")
	}
	return v.b, nil
}

// Equal reports whether two values have the same type and payload.
func (v Value) Equal(other Value) bool {
	return v == other
}

// String renders the value for logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case TypeString:
		return v.str
	case TypeInt:
		return fmt.Sprintf("%d", v.i)
	case TypeFloat:
		return fmt.Sprintf("%g", v.f)
	case TypeBool:
		return fmt.Sprintf("%t", v.b)
	}
	return fmt.Sprintf("<invalid value type %d>", v.kind)
}

// MarshalJSON encodes the value as its bare scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case TypeString:
		return json.Marshal(v.str)
	case TypeInt:
		return json.Marshal(v.i)
	case TypeFloat:
		return json.Marshal(v.f)
	case TypeBool:
		return json.Marshal(v.b)
	}
	return nil, fmt.Errorf("unknown value type %d", v.kind)
}

// UnmarshalJSON decodes a bare JSON scalar into a typed value. Numbers
// without a fractional part decode as ints so integer attributes survive a
// storage round trip unchanged.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case string:
		*v = StringValue(val)
	case bool:
		*v = BoolValue(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			*v = IntValue(i)
			return nil
		}
		f, err := val.Float64()
		if err != nil {
			return fmt.Errorf("unsupported numeric attribute %q", val.String())
		}
		*v = FloatValue(f)
	default:
		return fmt.Errorf("unsupported attribute type %T", raw)
	}

	return nil
}
