// fieldmap.go - Ordered field name -> value mapping with an explicit absent marker

package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldValue is an extracted value or the absent marker.
// The zero value is absent.
type FieldValue struct {
	Value string
	Found bool
}

// Absent returns the marker for a field whose pattern did not match.
func Absent() FieldValue {
	return FieldValue{}
}

// Found wraps a matched value. An empty string is still a found value.
func Found(value string) FieldValue {
	return FieldValue{Value: value, Found: true}
}

// String renders the value for tabular display; absent renders as "".
func (v FieldValue) String() string {
	return v.Value
}

// MarshalJSON encodes absent as null.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if !v.Found {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Absent()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("field value must be a string or null: %w", err)
	}
	*v = Found(s)
	return nil
}

// FieldMap keeps fields in insertion order.
type FieldMap struct {
	keys   []string
	values map[string]FieldValue
}

// NewFieldMap returns an empty map.
func NewFieldMap() FieldMap {
	return FieldMap{values: make(map[string]FieldValue)}
}

// Set adds or replaces a field. Replacing keeps the original position.
func (m *FieldMap) Set(name string, value FieldValue) {
	if m.values == nil {
		m.values = make(map[string]FieldValue)
	}
	if _, exists := m.values[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
}

// Get returns the field and whether the key is present at all.
func (m FieldMap) Get(name string) (FieldValue, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Has reports whether the key was set, whatever its value.
func (m FieldMap) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Keys returns field names in insertion order.
func (m FieldMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m FieldMap) Len() int {
	return len(m.keys)
}

// Clone returns an independent copy.
func (m FieldMap) Clone() FieldMap {
	out := FieldMap{
		keys:   m.Keys(),
		values: make(map[string]FieldValue, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// MarshalJSON writes an object whose keys follow insertion order.
func (m FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := m.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object and keeps the document's key order.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields must be a JSON object")
	}

	out := NewFieldMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected field key %v", tok)
		}
		var v FieldValue
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalYAML emits an ordered mapping; absent values become null.
func (m FieldMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		if v := m.values[k]; v.Found {
			value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Value}
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			value,
		)
	}
	return node, nil
}
