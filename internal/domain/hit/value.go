package hit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	// KindNull is a JSON null or an absent value.
	KindNull Kind = iota
	// KindString is a JSON string.
	KindString
	// KindNumber is a JSON number, kept in its original textual form.
	KindNumber
	// KindBool is a JSON boolean.
	KindBool
	// KindObject is a JSON object with document-ordered fields.
	KindObject
	// KindArray is a JSON array.
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// maxDepth bounds recursion when decoding untrusted property trees.
const maxDepth = 64

// Value is one property value inside a property group (immutable).
type Value struct {
	kind   Kind
	text   string
	fields *Fields
	items  []Value
}

// Field is a single named member of an object value.
type Field struct {
	Name  string
	Value Value
}

// Fields is an insertion-ordered set of object members.
type Fields struct {
	names  []string
	values map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number creates a number value from its JSON text.
func Number(text string) Value { return Value{kind: KindNumber, text: text} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, text: strconv.FormatBool(b)} }

// Object creates an object value. Later duplicates replace earlier values but keep the first position.
func Object(fields ...Field) Value {
	f := &Fields{values: make(map[string]Value, len(fields))}
	for _, fl := range fields {
		f.set(fl.Name, fl.Value)
	}
	return Value{kind: KindObject, fields: f}
}

// Array creates an array value.
func Array(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, items: cp}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether the value is a string, number or boolean.
func (v Value) IsScalar() bool {
	return v.kind == KindString || v.kind == KindNumber || v.kind == KindBool
}

// IsComposite reports whether the value is an object or an array.
func (v Value) IsComposite() bool { return v.kind == KindObject || v.kind == KindArray }

// Text returns the display text of a scalar. Null yields "", composites yield their compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber, KindBool:
		return v.text
	case KindObject, KindArray:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// Fields returns the members of an object value, or nil.
func (v Value) Fields() *Fields { return v.fields }

// Items returns a copy of the elements of an array value.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp
}

// Len returns the element count of an array or the member count of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return v.fields.Len()
	default:
		return 0
	}
}

// Unwrap returns the inner object of a single-key wrapper object ({"Address": {...}}).
// The boolean is false when v is not such a wrapper.
func (v Value) Unwrap() (Value, bool) {
	if v.kind != KindObject || v.fields.Len() != 1 {
		return Value{}, false
	}
	inner, _ := v.fields.Get(v.fields.names[0])
	if inner.kind != KindObject {
		return Value{}, false
	}
	return inner, true
}

// Len returns the number of members.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Names returns member names in document order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	cp := make([]string, len(f.names))
	copy(cp, f.names)
	return cp
}

// Get returns the member with the given name.
func (f *Fields) Get(name string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	v, ok := f.values[name]
	return v, ok
}

// Each calls fn for every member in document order.
func (f *Fields) Each(fn func(name string, v Value)) {
	if f == nil {
		return
	}
	for _, n := range f.names {
		fn(n, f.values[n])
	}
}

func (f *Fields) set(name string, v Value) {
	if _, exists := f.values[name]; !exists {
		f.names = append(f.names, name)
	}
	f.values[name] = v
}

// MarshalJSON encodes the value preserving member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		b, err := json.Marshal(v.text)
		if err != nil {
			return fmt.Errorf("encode string: %w", err)
		}
		buf.Write(b)
	case KindNumber, KindBool:
		buf.WriteString(v.text)
	case KindObject:
		buf.WriteByte('{')
		for i, n := range v.fields.names {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(n)
			if err != nil {
				return fmt.Errorf("encode key %q: %w", n, err)
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := v.fields.values[n].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown value kind %d", v.kind)
	}
	return nil
}

// UnmarshalJSON decodes a value preserving member order.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// ErrEmptyValue is returned when decoding empty input.
var ErrEmptyValue = errors.New("empty JSON value")

// Decode parses raw JSON into a Value, keeping object members in document order.
func Decode(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Value{}, ErrEmptyValue
	}
	raw, dt, _, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, fmt.Errorf("decode value: %w", err)
	}
	return decodeTyped(raw, dt, 0)
}

func decodeTyped(raw []byte, dt jsonparser.ValueType, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, fmt.Errorf("value nested deeper than %d levels", maxDepth)
	}
	switch dt {
	case jsonparser.Null:
		return Null(), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("parse string: %w", err)
		}
		return String(s), nil
	case jsonparser.Number:
		return Number(string(raw)), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, fmt.Errorf("parse boolean: %w", err)
		}
		return Bool(b), nil
	case jsonparser.Object:
		f := &Fields{values: make(map[string]Value)}
		err := jsonparser.ObjectEach(raw, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
			name, err := jsonparser.ParseString(key)
			if err != nil {
				return fmt.Errorf("parse key: %w", err)
			}
			child, err := decodeTyped(value, vt, depth+1)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			f.set(name, child)
			return nil
		})
		if err != nil {
			return Value{}, fmt.Errorf("decode object: %w", err)
		}
		return Value{kind: KindObject, fields: f}, nil
	case jsonparser.Array:
		var (
			items    []Value
			firstErr error
		)
		_, err := jsonparser.ArrayEach(raw, func(value []byte, vt jsonparser.ValueType, _ int, cbErr error) {
			if firstErr != nil {
				return
			}
			if cbErr != nil {
				firstErr = cbErr
				return
			}
			child, err := decodeTyped(value, vt, depth+1)
			if err != nil {
				firstErr = err
				return
			}
			items = append(items, child)
		})
		if err == nil {
			err = firstErr
		}
		if err != nil {
			return Value{}, fmt.Errorf("decode array: %w", err)
		}
		return Value{kind: KindArray, items: items}, nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON token type %s", dt)
	}
}

// Equal reports whether two values are structurally identical, member order included.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	a, errA := v.MarshalJSON()
	b, errB := o.MarshalJSON()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}
