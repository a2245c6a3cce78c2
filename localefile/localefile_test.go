package localefile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, s string) *Node {
	t.Helper()
	n, err := Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse(%s) error: %v", s, err)
	}
	return n
}

func TestParse_PreservesOrderAndKinds(t *testing.T) {
	n := mustParse(t, `{"z": "last", "a": {"n": 1.50, "b": true, "x": null}, "list": ["a", 2]}`)

	if n.Kind != KindObject {
		t.Fatalf("root kind = %v, want object", n.Kind)
	}
	var keys []string
	for _, m := range n.Members {
		keys = append(keys, m.Key)
	}
	if !reflect.DeepEqual(keys, []string{"z", "a", "list"}) {
		t.Fatalf("member order = %v", keys)
	}

	a := n.Get("a")
	if got := a.Get("n"); got.Kind != KindNumber || got.Text != "1.50" {
		t.Fatalf("number node = %#v, want literal 1.50", got)
	}
	if got := a.Get("b"); got.Kind != KindBool || got.Text != "true" {
		t.Fatalf("bool node = %#v", got)
	}
	if got := a.Get("x"); got.Kind != KindNull {
		t.Fatalf("null node = %#v", got)
	}
}

func TestParse_DuplicateKeyKeepsFirstPositionLastValue(t *testing.T) {
	n := mustParse(t, `{"a": "1", "b": "2", "a": "3"}`)
	if len(n.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(n.Members))
	}
	if n.Members[0].Key != "a" || n.Members[0].Value.Text != "3" {
		t.Fatalf("first member = %q=%q, want a=3", n.Members[0].Key, n.Members[0].Value.Text)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{``, `{"broken":`, `{"a": 1} {"b": 2}`, `{1: "x"}`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Fatalf("Parse(%q) expected error", in)
		}
	}
}

func TestFlatten_StringifyLeaves(t *testing.T) {
	n := mustParse(t, `{
  "home": {"title": "Welcome", "empty": {}},
  "count": 3,
  "on": false,
  "missing": null,
  "tags": ["a", "b"]
}`)

	f := Flatten(n, StringifyLeaves)
	want := map[string]string{
		"home.title": "Welcome",
		"count":      "3",
		"on":         "false",
		"missing":    "null",
		"tags":       `["a","b"]`,
	}
	if f.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d (keys %v)", f.Len(), len(want), f.Keys())
	}
	for k, v := range want {
		l, ok := f.Get(k)
		if !ok {
			t.Fatalf("missing key %q", k)
		}
		if l.Text != v {
			t.Fatalf("%s = %q, want %q", k, l.Text, v)
		}
	}
	if f.Has("home.empty") || f.Has("home") {
		t.Fatalf("empty object or container produced a key: %v", f.Keys())
	}
}

func TestFlatten_DescendArrays(t *testing.T) {
	n := mustParse(t, `{"steps": ["One", {"label": "Two"}, []], "n": 7}`)

	f := Flatten(n, DescendArrays)
	wantKeys := []string{"steps.0", "steps.1.label", "n"}
	if !reflect.DeepEqual(f.Keys(), wantKeys) {
		t.Fatalf("Keys() = %v, want %v", f.Keys(), wantKeys)
	}

	if l, _ := f.Get("n"); l.Kind != KindNumber || l.IsString() {
		t.Fatalf("number leaf lost its kind: %#v", l)
	}

	strs := f.Strings()
	if len(strs) != 2 || strs["steps.0"] != "One" || strs["steps.1.label"] != "Two" {
		t.Fatalf("Strings() = %v", strs)
	}
}

func TestFlattenUnflatten_RoundTrip(t *testing.T) {
	docs := []struct {
		name string
		json string
		mode Mode
	}{
		{"nested strings", `{"a": {"b": {"c": "deep"}, "d": "x"}, "e": "top"}`, DescendArrays},
		{"mixed scalars", `{"a": 1, "b": {"c": null, "d": true}, "e": "ü"}`, DescendArrays},
		{"arrays as leaves", `{"list": ["x", {"y": 1}], "o": {"p": []}}`, StringifyLeaves},
	}

	for _, tc := range docs {
		t.Run(tc.name, func(t *testing.T) {
			orig := mustParse(t, tc.json)
			rebuilt, err := Unflatten(Flatten(orig, tc.mode))
			if err != nil {
				t.Fatalf("Unflatten error: %v", err)
			}
			if got, want := rebuilt.String(), orig.String(); got != want {
				t.Fatalf("round trip mismatch:\n got %s\nwant %s", got, want)
			}
		})
	}
}

func TestUnflatten_Collision(t *testing.T) {
	f := NewFlat()
	f.Set("a", Leaf{Kind: KindString, Text: "x"})
	f.Set("a.b", Leaf{Kind: KindString, Text: "y"})
	if _, err := Unflatten(f); err == nil {
		t.Fatal("expected collision error")
	}
}

func TestMarshal_IndentedUnescaped(t *testing.T) {
	n := mustParse(t, `{"greeting": "Hej <du> & välkommen", "list": [], "o": {"k": 1}}`)

	out, err := n.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := "{\n" +
		"  \"greeting\": \"Hej <du> & välkommen\",\n" +
		"  \"list\": [],\n" +
		"  \"o\": {\n" +
		"    \"k\": 1\n" +
		"  }\n" +
		"}\n"
	if string(out) != want {
		t.Fatalf("Marshal() =\n%s\nwant\n%s", out, want)
	}
}

func TestLoadDir_SkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	write("sv.json", `{"a": "Hej"}`)
	write("en.json", `{"a": "Hello", "b": "World"}`)
	write("de.json", `{"a": `)
	write("list.json", `["not", "an", "object"]`)
	write("notes.txt", `ignored`)

	var failed []string
	files, err := LoadDir(dir, StringifyLeaves, func(name string, err error) {
		failed = append(failed, name)
	})
	if err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}

	var langs []string
	for _, f := range files {
		langs = append(langs, f.Lang)
	}
	if !reflect.DeepEqual(langs, []string{"en", "sv"}) {
		t.Fatalf("loaded langs = %v, want [en sv]", langs)
	}
	if !reflect.DeepEqual(failed, []string{"de.json", "list.json"}) {
		t.Fatalf("failed = %v, want [de.json list.json]", failed)
	}
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), StringifyLeaves, nil)
	if err == nil || !strings.Contains(err.Error(), "locales directory") {
		t.Fatalf("expected locales directory error, got %v", err)
	}
}
