// Package merge re-nests flat translations into a target locale document,
// using the baseline document as the template for its structure.
package merge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/minios-linux/lokcheck/localefile"
)

// Apply adds translations (flat key -> text) to target, an Object node.
//
// Keys are visited in template order. Containers missing from target are
// created with the template's kind; array gaps are padded with null.
// Values already present in target are never overwritten. Callers pass
// only successful translations.
//
// Apply returns the number of values added. Keys whose path conflicts with
// target's shape (a scalar where the template has a container, or the
// other way round) are skipped and reported in the returned error.
func Apply(target, template *localefile.Node, translations map[string]string) (int, error) {
	if target == nil || target.Kind != localefile.KindObject {
		return 0, fmt.Errorf("target must be a JSON object")
	}
	if template == nil || template.Kind != localefile.KindObject {
		return 0, fmt.Errorf("template must be a JSON object")
	}

	a := &applier{translations: translations}
	a.walk(target, template, nil)
	return a.applied, errors.Join(a.errs...)
}

type applier struct {
	translations map[string]string
	applied      int
	errs         []error
}

// slot addresses one child of a container: a member name or an index.
type slot struct {
	key   string
	index int
}

func (a *applier) walk(dst, tmpl *localefile.Node, path []string) {
	switch tmpl.Kind {
	case localefile.KindObject:
		for _, m := range tmpl.Members {
			a.visit(dst, slot{key: m.Key, index: -1}, m.Value, appendPath(path, m.Key))
		}
	case localefile.KindArray:
		for i, item := range tmpl.Items {
			a.visit(dst, slot{index: i}, item, appendPath(path, strconv.Itoa(i)))
		}
	}
}

func (a *applier) visit(dst *localefile.Node, s slot, tmpl *localefile.Node, path []string) {
	if !a.wanted(tmpl, path) {
		return
	}
	existing := get(dst, s)

	if isContainer(tmpl) {
		switch {
		case existing == nil:
			existing = &localefile.Node{Kind: tmpl.Kind}
			set(dst, s, existing)
		case existing.Kind != tmpl.Kind:
			a.errs = append(a.errs, fmt.Errorf("%s: target has %s where baseline has %s",
				strings.Join(path, localefile.Separator), existing.Kind, tmpl.Kind))
			return
		}
		a.walk(existing, tmpl, path)
		return
	}

	if existing != nil {
		if isContainer(existing) {
			a.errs = append(a.errs, fmt.Errorf("%s: target has %s where baseline has %s",
				strings.Join(path, localefile.Separator), existing.Kind, tmpl.Kind))
		}
		return
	}
	text := a.translations[strings.Join(path, localefile.Separator)]
	set(dst, s, localefile.NewString(text))
	a.applied++
}

// wanted reports whether tmpl or any leaf below it has a translation.
func (a *applier) wanted(tmpl *localefile.Node, path []string) bool {
	switch tmpl.Kind {
	case localefile.KindObject:
		for _, m := range tmpl.Members {
			if a.wanted(m.Value, appendPath(path, m.Key)) {
				return true
			}
		}
		return false
	case localefile.KindArray:
		for i, item := range tmpl.Items {
			if a.wanted(item, appendPath(path, strconv.Itoa(i))) {
				return true
			}
		}
		return false
	default:
		_, ok := a.translations[strings.Join(path, localefile.Separator)]
		return ok
	}
}

func isContainer(n *localefile.Node) bool {
	return n.Kind == localefile.KindObject || n.Kind == localefile.KindArray
}

func get(dst *localefile.Node, s slot) *localefile.Node {
	if s.index < 0 {
		return dst.Get(s.key)
	}
	if s.index < len(dst.Items) {
		return dst.Items[s.index]
	}
	return nil
}

func set(dst *localefile.Node, s slot, v *localefile.Node) {
	if s.index < 0 {
		dst.Set(s.key, v)
		return
	}
	for len(dst.Items) <= s.index {
		dst.Items = append(dst.Items, &localefile.Node{Kind: localefile.KindNull})
	}
	dst.Items[s.index] = v
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
