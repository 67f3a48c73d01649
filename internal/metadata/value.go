package metadata

import (
	"strconv"
	"strings"
)

// Kind is the dynamic type of a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	List
	Map
	Instance
	Config
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	case Instance:
		return "instance"
	case Config:
		return "config"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a decoded annotation argument.
//
// List and Map values keep their entries in Entries; Map entries carry a
// Key. Instance values point at a nested annotation. Config values name a
// configuration entry in Str and carry the static fallback in Default.
type Value struct {
	Kind       Kind        `msgpack:"k"`
	Bool       bool        `msgpack:"b,omitempty"`
	Int        int64       `msgpack:"i,omitempty"`
	Float      float64     `msgpack:"f,omitempty"`
	Str        string      `msgpack:"s,omitempty"`
	Entries    []Entry     `msgpack:"e,omitempty"`
	Annotation *Annotation `msgpack:"a,omitempty"`
	Default    *Value      `msgpack:"d,omitempty"`
}

// Entry is one element of a list or map value.
type Entry struct {
	Key   *Value `msgpack:"k,omitempty"`
	Value Value  `msgpack:"v"`
}

// NullValue returns the null value.
func NullValue() Value { return Value{Kind: Null} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{Kind: Bool, Bool: b} }

// IntValue wraps n.
func IntValue(n int64) Value { return Value{Kind: Int, Int: n} }

// FloatValue wraps f.
func FloatValue(f float64) Value { return Value{Kind: Float, Float: f} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{Kind: String, Str: s} }

// ListValue builds a list from items.
func ListValue(items ...Value) Value {
	v := Value{Kind: List}
	for _, item := range items {
		v.Entries = append(v.Entries, Entry{Value: item})
	}
	return v
}

// InstanceValue wraps a nested annotation.
func InstanceValue(a Annotation) Value { return Value{Kind: Instance, Annotation: &a} }

// ConfigValue builds a deferred configuration reference.
func ConfigValue(name string, fallback Value) Value {
	return Value{Kind: Config, Str: name, Default: &fallback}
}

// Equal reports strict equality: kinds must match and so must contents.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Null:
		return true
	case Bool:
		return v.Bool == o.Bool
	case Int:
		return v.Int == o.Int
	case Float:
		return v.Float == o.Float
	case String:
		return v.Str == o.Str
	case List, Map:
		if len(v.Entries) != len(o.Entries) {
			return false
		}
		for i := range v.Entries {
			a, b := v.Entries[i], o.Entries[i]
			if (a.Key == nil) != (b.Key == nil) {
				return false
			}
			if a.Key != nil && !a.Key.Equal(*b.Key) {
				return false
			}
			if !a.Value.Equal(b.Value) {
				return false
			}
		}
		return true
	case Instance:
		if v.Annotation == nil || o.Annotation == nil {
			return v.Annotation == o.Annotation
		}
		return v.Annotation.Equal(*o.Annotation)
	case Config:
		if v.Str != o.Str {
			return false
		}
		if v.Default == nil || o.Default == nil {
			return v.Default == o.Default
		}
		return v.Default.Equal(*o.Default)
	}
	return false
}

// String renders the value for log messages.
func (v Value) String() string {
	switch v.Kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case String:
		return strconv.Quote(v.Str)
	case List, Map:
		parts := make([]string, 0, len(v.Entries))
		for _, e := range v.Entries {
			if e.Key != nil {
				parts = append(parts, e.Key.String()+": "+e.Value.String())
				continue
			}
			parts = append(parts, e.Value.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Instance:
		if v.Annotation == nil {
			return "@?"
		}
		return "@" + v.Annotation.Type
	case Config:
		return "config(" + v.Str + ")"
	}
	return v.Kind.String()
}
