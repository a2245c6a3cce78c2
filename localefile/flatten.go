package localefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Separator joins path segments of a flattened key.
const Separator = "."

// Mode selects how Flatten treats arrays and non-string leaves.
type Mode int

const (
	// StringifyLeaves does not descend into arrays: every value that is not
	// an object becomes a single leaf.
	StringifyLeaves Mode = iota
	// DescendArrays walks array elements using their index as a path
	// segment. Leaves keep their JSON kind.
	DescendArrays
)

// Leaf is a flattened value.
type Leaf struct {
	Kind Kind
	// Text is the string value, or the string form of a non-string leaf
	// (see Node.String).
	Text string
}

// IsString reports whether the leaf was a JSON string.
func (l Leaf) IsString() bool {
	return l.Kind == KindString
}

// Flat is an ordered mapping from dot-path key to leaf.
type Flat struct {
	keys   []string
	leaves map[string]Leaf
}

// NewFlat returns an empty Flat.
func NewFlat() *Flat {
	return &Flat{leaves: make(map[string]Leaf)}
}

// Set adds or replaces the leaf for key. New keys are appended.
func (f *Flat) Set(key string, l Leaf) {
	if _, ok := f.leaves[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.leaves[key] = l
}

// Get returns the leaf for key.
func (f *Flat) Get(key string) (Leaf, bool) {
	l, ok := f.leaves[key]
	return l, ok
}

// Has reports whether key is present.
func (f *Flat) Has(key string) bool {
	_, ok := f.leaves[key]
	return ok
}

// Len returns the number of keys.
func (f *Flat) Len() int {
	return len(f.keys)
}

// Keys returns the keys in document order.
func (f *Flat) Keys() []string {
	return f.keys
}

// Strings returns key -> text for string leaves only.
func (f *Flat) Strings() map[string]string {
	out := make(map[string]string)
	for _, k := range f.keys {
		if l := f.leaves[k]; l.IsString() {
			out[k] = l.Text
		}
	}
	return out
}

// Flatten converts a nested document into a flat key -> leaf mapping.
// Empty objects (and, in DescendArrays mode, empty arrays) contribute no
// keys. Null leaves are kept with the text "null".
func Flatten(n *Node, mode Mode) *Flat {
	f := NewFlat()
	flatten(n, nil, mode, f)
	return f
}

func flatten(n *Node, path []string, mode Mode, f *Flat) {
	switch {
	case n.Kind == KindObject:
		for _, m := range n.Members {
			flatten(m.Value, append(path, m.Key), mode, f)
		}
	case n.Kind == KindArray && mode == DescendArrays:
		for i, item := range n.Items {
			flatten(item, append(path, strconv.Itoa(i)), mode, f)
		}
	default:
		f.Set(strings.Join(path, Separator), Leaf{Kind: n.Kind, Text: n.String()})
	}
}

// Unflatten rebuilds a nested object tree by splitting every key on the
// separator. Array-valued leaves (from StringifyLeaves) are parsed back.
func Unflatten(f *Flat) (*Node, error) {
	root := NewObject()
	for _, key := range f.keys {
		leaf := f.leaves[key]
		value, err := LeafNode(leaf)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}

		segments := strings.Split(key, Separator)
		parent := root
		for _, seg := range segments[:len(segments)-1] {
			child := parent.Get(seg)
			if child == nil {
				child = NewObject()
				parent.Set(seg, child)
			} else if child.Kind != KindObject {
				return nil, fmt.Errorf("key %q: segment %q is a %v, not an object", key, seg, child.Kind)
			}
			parent = child
		}

		last := segments[len(segments)-1]
		if existing := parent.Get(last); existing != nil && existing.Kind == KindObject {
			return nil, fmt.Errorf("key %q: collides with an object", key)
		}
		parent.Set(last, value)
	}
	return root, nil
}

// LeafNode converts a leaf back into a document node.
func LeafNode(l Leaf) (*Node, error) {
	switch l.Kind {
	case KindString, KindNumber, KindBool:
		return &Node{Kind: l.Kind, Text: l.Text}, nil
	case KindNull:
		return &Node{Kind: KindNull}, nil
	case KindArray, KindObject:
		return Parse([]byte(l.Text))
	}
	return nil, fmt.Errorf("unknown leaf kind %v", l.Kind)
}

// ---------------------------------------------------------------------------
// Language files
// ---------------------------------------------------------------------------

// LanguageFile is a flattened locale file for one language.
type LanguageFile struct {
	// Lang is the language code, taken from the file name ("sv.json" -> "sv").
	Lang string
	// Path is the file the entries were loaded from.
	Path string
	// Entries maps dot-path keys to leaves.
	Entries *Flat
}

// Load parses and flattens one locale file. The document root must be an
// object.
func Load(path string, mode Mode) (*LanguageFile, *Node, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	if doc.Kind != KindObject {
		return nil, nil, fmt.Errorf("%s: root must be a JSON object, got %v", path, doc.Kind)
	}
	return &LanguageFile{
		Lang:    LangFromPath(path),
		Path:    path,
		Entries: Flatten(doc, mode),
	}, doc, nil
}

// LoadDir loads every *.json file in dir, sorted by file name. Files that
// cannot be read or parsed are passed to onError and skipped.
func LoadDir(dir string, mode Mode, onError func(name string, err error)) ([]*LanguageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading locales directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var files []*LanguageFile
	for _, name := range names {
		lf, _, err := Load(filepath.Join(dir, name), mode)
		if err != nil {
			if onError != nil {
				onError(name, err)
			}
			continue
		}
		files = append(files, lf)
	}
	return files, nil
}

// LangFromPath returns the language code for a locale file path.
func LangFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".json")
}
