package merge

import (
	"strings"
	"testing"

	"github.com/minios-linux/lokcheck/localefile"
)

func mustParse(t *testing.T, doc string) *localefile.Node {
	t.Helper()
	n, err := localefile.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse(%s): %v", doc, err)
	}
	return n
}

func marshal(t *testing.T, n *localefile.Node) string {
	t.Helper()
	data, err := n.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(data)
}

func TestApply_CreatesNestedContainers(t *testing.T) {
	template := mustParse(t, `{"home": {"title": "Welcome", "body": "Text"}, "nav": ["Home", "About"], "ok": "OK"}`)
	target := mustParse(t, `{"ok": "Tamam"}`)

	n, err := Apply(target, template, map[string]string{
		"home.title": "Hoş geldiniz",
		"nav.1":      "Hakkında",
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if n != 2 {
		t.Fatalf("applied = %d, want 2", n)
	}

	want := `{
  "ok": "Tamam",
  "home": {
    "title": "Hoş geldiniz"
  },
  "nav": [
    null,
    "Hakkında"
  ]
}
`
	if got := marshal(t, target); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestApply_NeverOverwrites(t *testing.T) {
	template := mustParse(t, `{"a": "Hello", "b": "World", "c": "Other"}`)
	target := mustParse(t, `{"a": "Hej", "c": null}`)

	n, err := Apply(target, template, map[string]string{"a": "Hallå", "b": "Värld", "c": "Annat"})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if n != 1 {
		t.Fatalf("applied = %d, want 1", n)
	}
	if got := target.Get("a").Text; got != "Hej" {
		t.Fatalf("a = %q, want Hej", got)
	}
	if got := target.Get("b").Text; got != "Värld" {
		t.Fatalf("b = %q, want Värld", got)
	}
	if got := target.Get("c").Kind; got != localefile.KindNull {
		t.Fatalf("c kind = %v, want null", got)
	}
}

func TestApply_ShapeConflict(t *testing.T) {
	template := mustParse(t, `{"home": {"title": "Welcome"}, "x": "X"}`)
	target := mustParse(t, `{"home": "flat string"}`)

	n, err := Apply(target, template, map[string]string{"home.title": "Välkommen", "x": "Ex"})
	if err == nil || !strings.Contains(err.Error(), "home: target has string") {
		t.Fatalf("err = %v, want conflict on home", err)
	}
	if n != 1 {
		t.Fatalf("applied = %d, want 1", n)
	}
	if target.Get("home").Text != "flat string" {
		t.Fatal("conflicting value was modified")
	}
	if target.Get("x").Text != "Ex" {
		t.Fatal("non-conflicting key was not applied")
	}
}

func TestApply_KeepsFlattenRoundTrip(t *testing.T) {
	template := mustParse(t, `{"a": {"b": ["x", {"c": "y"}]}, "d": "z"}`)
	target := localefile.NewObject()

	translations := localefile.Flatten(template, localefile.DescendArrays).Strings()
	n, err := Apply(target, template, translations)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if n != len(translations) {
		t.Fatalf("applied = %d, want %d", n, len(translations))
	}
	if got, want := marshal(t, target), marshal(t, template); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestApply_RejectsNonObject(t *testing.T) {
	template := mustParse(t, `{"a": "b"}`)
	if _, err := Apply(mustParse(t, `[]`), template, nil); err == nil {
		t.Fatal("expected error for array target")
	}
	if _, err := Apply(localefile.NewObject(), mustParse(t, `"s"`), nil); err == nil {
		t.Fatal("expected error for scalar template")
	}
}
