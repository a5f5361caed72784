package medline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/FocuswithJustin/medline/core/errors"
)

// Value is the content of one record field: a scalar string, or an ordered
// list of strings for array fields.
type Value struct {
	Text  string
	Items []string
	Array bool
}

// Strings returns the value as a list: the items of an array field, or a
// single element holding the scalar text.
func (v Value) Strings() []string {
	if v.Array {
		return v.Items
	}
	return []string{v.Text}
}

func (v Value) clone() Value {
	if v.Array {
		v.Items = slices.Clone(v.Items)
	}
	return v
}

func (v Value) equal(o Value) bool {
	if v.Array != o.Array {
		return false
	}
	if v.Array {
		return slices.Equal(v.Items, o.Items)
	}
	return v.Text == o.Text
}

type field struct {
	name  string
	value Value
}

// Record is a canonical citation: field names mapped to values, kept in the
// order the fields were first set. The zero value is an empty record.
type Record struct {
	fields []field
	index  map[string]int
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{}
}

func (r *Record) slot(name string) *field {
	if i, ok := r.index[name]; ok {
		return &r.fields[i]
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, field{name: name})
	return &r.fields[len(r.fields)-1]
}

// Set stores a scalar value, replacing any previous value but keeping the
// field's original position.
func (r *Record) Set(name, value string) *Record {
	f := r.slot(name)
	f.value = Value{Text: value}
	return r
}

// Append adds an element to an array field, creating it if needed. A scalar
// already stored under name becomes the first element.
func (r *Record) Append(name string, values ...string) *Record {
	_, existed := r.index[name]
	f := r.slot(name)
	if !f.value.Array {
		var items []string
		if existed {
			items = append(items, f.value.Text)
		}
		f.value = Value{Items: items, Array: true}
	}
	f.value.Items = append(f.value.Items, values...)
	return r
}

// AppendContinuation joins text onto a field with a single space: onto the
// scalar value, or onto the last element of an array value. It reports
// false if the field is not set.
func (r *Record) AppendContinuation(name, text string) bool {
	i, ok := r.index[name]
	if !ok {
		return false
	}
	v := &r.fields[i].value
	if v.Array {
		if len(v.Items) == 0 {
			v.Items = append(v.Items, text)
			return true
		}
		v.Items[len(v.Items)-1] += " " + text
		return true
	}
	v.Text += " " + text
	return true
}

// Value returns the value stored under name.
func (r *Record) Value(name string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].value, true
}

// Get returns the scalar value stored under name. Array fields are not scalars.
func (r *Record) Get(name string) (string, bool) {
	v, ok := r.Value(name)
	if !ok || v.Array {
		return "", false
	}
	return v.Text, true
}

// List returns the elements of an array field.
func (r *Record) List(name string) []string {
	v, ok := r.Value(name)
	if !ok || !v.Array {
		return nil
	}
	return v.Items
}

// Type returns the canonical type tag, or "" if the record has no type field.
func (r *Record) Type() string {
	t, _ := r.Get(TypeField)
	return t
}

// SetType stores the canonical type tag.
func (r *Record) SetType(tag string) *Record {
	return r.Set(TypeField, tag)
}

// Has reports whether a field is set.
func (r *Record) Has(name string) bool {
	_, ok := r.Value(name)
	return ok
}

// Delete removes a field.
func (r *Record) Delete(name string) {
	i, ok := r.index[name]
	if !ok {
		return
	}
	r.fields = slices.Delete(r.fields, i, i+1)
	delete(r.index, name)
	for j := i; j < len(r.fields); j++ {
		r.index[r.fields[j].name] = j
	}
}

// Names returns the field names in insertion order.
func (r *Record) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.name
	}
	return names
}

// Len returns the number of fields set.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// IsEmpty reports whether no field is set.
func (r *Record) IsEmpty() bool {
	return r.Len() == 0
}

// Clone returns a deep copy that shares nothing with r.
func (r *Record) Clone() *Record {
	out := &Record{}
	if r == nil || len(r.fields) == 0 {
		return out
	}
	out.fields = make([]field, len(r.fields))
	out.index = make(map[string]int, len(r.fields))
	for i, f := range r.fields {
		out.fields[i] = field{name: f.name, value: f.value.clone()}
		out.index[f.name] = i
	}
	return out
}

// Equal reports whether both records hold the same fields and values,
// irrespective of field order.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	for _, f := range r.fieldsOrNil() {
		ov, ok := o.Value(f.name)
		if !ok || !f.value.equal(ov) {
			return false
		}
	}
	return true
}

func (r *Record) fieldsOrNil() []field {
	if r == nil {
		return nil
	}
	return r.fields
}

// String renders the record as its JSON object.
func (r *Record) String() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<record: %v>", err)
	}
	return string(data)
}

// MarshalJSON encodes the record as a JSON object whose keys follow field
// order. Array fields become JSON arrays.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fieldsOrNil() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		var val []byte
		if f.value.Array {
			items := f.value.Items
			if items == nil {
				items = []string{}
			}
			val, err = json.Marshal(items)
		} else {
			val, err = json.Marshal(f.value.Text)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of strings and string arrays, keeping
// key order. Numbers and booleans are stored as their literal text.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return errors.NewParse("JSON", "", err.Error())
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.NewParse("JSON", "", "record must be an object")
	}

	out := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.NewParse("JSON", "", err.Error())
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return errors.NewParse("JSON", "", err.Error())
		}
		if err := out.decodeField(name, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return errors.NewParse("JSON", "", err.Error())
	}

	*r = out
	return nil
}

func (r *Record) decodeField(name string, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return errors.NewParse("JSON", "", fmt.Sprintf("field %s: %v", name, err))
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarText(item)
			if err != nil {
				return errors.NewParse("JSON", "", fmt.Sprintf("field %s: %v", name, err))
			}
			list = append(list, s)
		}
		f := r.slot(name)
		f.value = Value{Items: list, Array: true}
	default:
		s, err := scalarText(trimmed)
		if err != nil {
			return errors.NewParse("JSON", "", fmt.Sprintf("field %s: %v", name, err))
		}
		r.Set(name, s)
	}
	return nil
}

func scalarText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("nested values are not supported")
	default:
		return string(trimmed), nil
	}
}
