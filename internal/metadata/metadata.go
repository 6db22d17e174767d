// Package metadata builds and serializes the front-matter of generated
// documents.
package metadata

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is how date values are written.
const DateLayout = "2006-01-02"

type field struct {
	key   string
	value any
}

// Metadata is an insertion-ordered key/value mapping. Setting an existing
// key replaces its value in place.
type Metadata struct {
	fields []field
	index  map[string]int
}

// New returns an empty Metadata.
func New() *Metadata {
	return &Metadata{index: make(map[string]int)}
}

// Set stores value under key.
func (m *Metadata) Set(key string, value any) {
	if i, ok := m.index[key]; ok {
		m.fields[i].value = value
		return
	}
	m.index[key] = len(m.fields)
	m.fields = append(m.fields, field{key: key, value: value})
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (any, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.fields[i].value, true
}

// Keys returns the keys that will be serialized, in order.
func (m *Metadata) Keys() []string {
	var out []string
	for _, f := range m.fields {
		if !empty(f.value) {
			out = append(out, f.key)
		}
	}
	return out
}

// empty reports values that must never reach the serialized block.
func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case *string:
		return t == nil || strings.TrimSpace(*t) == ""
	case time.Time:
		return t.IsZero()
	case []string:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil() || (rv.Kind() != reflect.Pointer && rv.Len() == 0)
	}
	return false
}

// MarshalYAML renders the fields as an ordered mapping. Empty values are
// omitted and time values are written as dates.
func (m *Metadata) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range m.fields {
		if empty(f.value) {
			continue
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.key}
		val := &yaml.Node{}
		switch v := f.value.(type) {
		case time.Time:
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: v.UTC().Format(DateLayout)}
		case string:
			if err := val.Encode(strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("metadata: encode %s: %w", f.key, err)
			}
		default:
			if err := val.Encode(v); err != nil {
				return nil, fmt.Errorf("metadata: encode %s: %w", f.key, err)
			}
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// YAML serializes the metadata block without document markers.
func (m *Metadata) YAML() (string, error) {
	if len(m.Keys()) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("metadata: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("metadata: marshal: %w", err)
	}
	return buf.String(), nil
}

// Document renders a complete output document: the front-matter block
// between --- separators, a blank line, then the body.
func Document(meta *Metadata, body string) (string, error) {
	block, err := meta.YAML()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(block)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
	return b.String(), nil
}
