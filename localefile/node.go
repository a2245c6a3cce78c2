// Package localefile implements reading, flattening and writing of nested
// JSON locale files, one file per language:
//
//	locales/
//	    en.json   {"home": {"title": "Welcome"}, "items": ["One", "Two"]}
//	    sv.json   {"home": {"title": "Välkommen"}}
//
// Documents are decoded into an explicit tagged tree (Node) that preserves
// the member order of the source file, so a file can be patched and written
// back without reshuffling it.
package localefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind is the JSON type of a Node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
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
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Member is one key/value pair of an object node.
type Member struct {
	Key   string
	Value *Node
}

// Node is a decoded JSON value.
type Node struct {
	Kind Kind
	// Text holds the string value, the literal number text, or
	// "true"/"false" for booleans.
	Text string
	// Items holds array elements (KindArray).
	Items []*Node
	// Members holds object members in file order (KindObject).
	Members []Member
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{Kind: KindObject}
}

// NewString returns a string node.
func NewString(s string) *Node {
	return &Node{Kind: KindString, Text: s}
}

// Get returns the member value for key, or nil if n is not an object or
// has no such member.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	for _, m := range n.Members {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// Set replaces the value of an existing member in place, or appends a new
// member at the end.
func (n *Node) Set(key string, v *Node) {
	for i := range n.Members {
		if n.Members[i].Key == key {
			n.Members[i].Value = v
			return
		}
	}
	n.Members = append(n.Members, Member{Key: key, Value: v})
}

// String returns the leaf text form of n: the raw value for strings, the
// JSON literal for null, booleans and numbers, and compact JSON for arrays
// and objects.
func (n *Node) String() string {
	switch n.Kind {
	case KindString, KindNumber, KindBool:
		return n.Text
	case KindNull:
		return "null"
	}
	var b bytes.Buffer
	writeCompact(&b, n)
	return b.String()
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a JSON locale file.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	n, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Parse decodes JSON data into a Node, preserving object member order.
// Duplicate keys keep the position of their first occurrence and the value
// of their last one.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing JSON: unexpected data after top-level value")
	}
	return n, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	t, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %v", v)
	case string:
		return &Node{Kind: KindString, Text: v}, nil
	case json.Number:
		return &Node{Kind: KindNumber, Text: v.String()}, nil
	case bool:
		return &Node{Kind: KindBool, Text: strconv.FormatBool(v)}, nil
	case nil:
		return &Node{Kind: KindNull}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", t)
}

func decodeObject(dec *json.Decoder) (*Node, error) {
	n := NewObject()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", kt)
		}
		child, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		n.Set(key, child)
	}
	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeArray(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: KindArray}
	for dec.More() {
		child, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", len(n.Items), err)
		}
		n.Items = append(n.Items, child)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// WriteFile writes the document to disk with 2-space indentation,
// preserving member order.
func (n *Node) WriteFile(path string) error {
	data, err := n.Marshal()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal produces indented JSON with member order preserved and
// non-ASCII characters written as-is.
func (n *Node) Marshal() ([]byte, error) {
	var b bytes.Buffer
	if err := writeIndented(&b, n, 0); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func writeIndented(b *bytes.Buffer, n *Node, depth int) error {
	switch n.Kind {
	case KindObject:
		if len(n.Members) == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteString("{\n")
		for i, m := range n.Members {
			b.WriteString(strings.Repeat("  ", depth+1))
			b.WriteString(QuoteJSON(m.Key))
			b.WriteString(": ")
			if err := writeIndented(b, m.Value, depth+1); err != nil {
				return err
			}
			if i < len(n.Members)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteByte('}')
	case KindArray:
		if len(n.Items) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, item := range n.Items {
			b.WriteString(strings.Repeat("  ", depth+1))
			if err := writeIndented(b, item, depth+1); err != nil {
				return err
			}
			if i < len(n.Items)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteByte(']')
	default:
		return writeScalar(b, n)
	}
	return nil
}

func writeCompact(b *bytes.Buffer, n *Node) {
	switch n.Kind {
	case KindObject:
		b.WriteByte('{')
		for i, m := range n.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(QuoteJSON(m.Key))
			b.WriteByte(':')
			writeCompact(b, m.Value)
		}
		b.WriteByte('}')
	case KindArray:
		b.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCompact(b, item)
		}
		b.WriteByte(']')
	default:
		_ = writeScalar(b, n)
	}
}

func writeScalar(b *bytes.Buffer, n *Node) error {
	switch n.Kind {
	case KindString:
		b.WriteString(QuoteJSON(n.Text))
	case KindNumber:
		if n.Text == "" {
			return fmt.Errorf("number node has no text")
		}
		b.WriteString(n.Text)
	case KindBool:
		if n.Text != "true" && n.Text != "false" {
			return fmt.Errorf("invalid bool literal %q", n.Text)
		}
		b.WriteString(n.Text)
	case KindNull:
		b.WriteString("null")
	default:
		return fmt.Errorf("unexpected node kind %v", n.Kind)
	}
	return nil
}

// QuoteJSON returns s as a JSON string literal without HTML escaping, so
// characters like <, > and & and all non-ASCII text stay readable.
func QuoteJSON(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
