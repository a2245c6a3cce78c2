package audit

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/minios-linux/lokcheck/detect"
	"github.com/minios-linux/lokcheck/localefile"
)

func langFile(t *testing.T, lang, doc string) *localefile.LanguageFile {
	t.Helper()
	n, err := localefile.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse(%s): %v", lang, err)
	}
	return &localefile.LanguageFile{
		Lang:    lang,
		Path:    lang + ".json",
		Entries: localefile.Flatten(n, localefile.StringifyLeaves),
	}
}

func analyze(t *testing.T, files ...*localefile.LanguageFile) *Result {
	t.Helper()
	return Analyze(files, detect.New(detect.DefaultConfig()), DefaultPolicy())
}

func TestAnalyze_MissingKeyExample(t *testing.T) {
	r := analyze(t,
		langFile(t, "en", `{"a": "Hello", "b": "World"}`),
		langFile(t, "sv", `{"a": "Hej"}`),
	)

	if got := r.Missing["sv"]; !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("Missing[sv] = %v, want [b]", got)
	}
	if _, ok := r.Missing["en"]; ok {
		t.Fatalf("en should have no missing keys, got %v", r.Missing["en"])
	}
	if len(r.Untranslated["sv"]) != 0 {
		t.Fatalf("unexpected untranslated: %v", r.Untranslated["sv"])
	}
	if len(r.Suspicious["sv"]) != 0 {
		t.Fatalf("unexpected suspicious: %v", r.Suspicious["sv"])
	}
	if !reflect.DeepEqual(r.AllKeys, []string{"a", "b"}) {
		t.Fatalf("AllKeys = %v", r.AllKeys)
	}
	if r.KeyCounts["en"] != 2 || r.KeyCounts["sv"] != 1 {
		t.Fatalf("KeyCounts = %v", r.KeyCounts)
	}
	if got := r.PartialKeys(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("PartialKeys() = %v, want [b]", got)
	}
}

func TestAnalyze_IdenticalValueIsUntranslated(t *testing.T) {
	r := analyze(t,
		langFile(t, "en", `{"ok": "OK", "n": 5, "x": null, "home": {"title": "Welcome"}}`),
		langFile(t, "de", `{"ok": "OK", "n": 5, "x": null, "home": {"title": "Willkommen"}}`),
		langFile(t, "tr", `{"ok": "OK", "n": 6}`),
	)

	want := []Untranslated{
		{Key: "ok", Value: "OK", Reason: "Identical to English"},
		{Key: "n", Value: "5", Reason: "Identical to English"},
		{Key: "x", Value: "null", Reason: "Identical to English"},
	}
	if !reflect.DeepEqual(r.Untranslated["de"], want) {
		t.Fatalf("Untranslated[de] = %#v, want %#v", r.Untranslated["de"], want)
	}
	if got := r.Untranslated["tr"]; len(got) != 1 || got[0].Key != "ok" {
		t.Fatalf("Untranslated[tr] = %#v", got)
	}
	if _, ok := r.Untranslated["en"]; ok {
		t.Fatal("baseline must never be reported as untranslated")
	}
}

func TestAnalyze_NoBaselineFile(t *testing.T) {
	r := analyze(t,
		langFile(t, "sv", `{"a": "Hej"}`),
		langFile(t, "de", `{"a": "Hej"}`),
	)
	if len(r.Untranslated) != 0 {
		t.Fatalf("untranslated without baseline: %v", r.Untranslated)
	}
}

func TestAnalyze_SuspiciousRules(t *testing.T) {
	r := analyze(t,
		langFile(t, "en", `{"k": "x"}`),
		langFile(t, "sv", `{"login": "Giriş yap", "words": "bu och det", "long": "Please save the changes to your profile"}`),
		langFile(t, "de", `{"title": "Kayıt", "short": "Save the file now", "long": "Please save the changes to your profile"}`),
		langFile(t, "tr", `{"title": "Kayıt", "long": "Please save the changes to your profile"}`),
	)

	sv := r.Suspicious["sv"]
	if len(sv) != 2 {
		t.Fatalf("Suspicious[sv] = %#v, want 2 entries", sv)
	}
	if sv[0].Key != "login" || sv[0].Reason != "Turkish text in Swedish file" {
		t.Fatalf("sv[0] = %#v", sv[0])
	}
	if !reflect.DeepEqual(sv[0].Detected, []string{"Turkish"}) {
		t.Fatalf("sv[0].Detected = %v", sv[0].Detected)
	}
	if sv[1].Key != "long" || sv[1].Reason != "English text in sv file" {
		t.Fatalf("sv[1] = %#v", sv[1])
	}

	de := r.Suspicious["de"]
	if len(de) != 2 || de[0].Reason != "Turkish text in de file" || de[1].Reason != "English text in de file" {
		t.Fatalf("Suspicious[de] = %#v", de)
	}

	tr := r.Suspicious["tr"]
	if len(tr) != 1 || tr[0].Key != "long" || tr[0].Reason != "English text in tr file" {
		t.Fatalf("Suspicious[tr] = %#v", tr)
	}
	if _, ok := r.Suspicious["en"]; ok {
		t.Fatal("baseline must not be checked for wrong language")
	}
}

func TestAnalyze_SuspiciousKeepsFullValue(t *testing.T) {
	long := "This value is far longer than one hundred characters and it keeps going with the and for words until the end of it."
	r := analyze(t,
		langFile(t, "en", `{"k": "x"}`),
		langFile(t, "fr", `{"k": "`+long+`"}`),
	)
	if got := r.Suspicious["fr"]; len(got) != 1 || got[0].Value != long {
		t.Fatalf("Suspicious[fr] = %#v, want full value", got)
	}
}

func TestSpotlightEntries(t *testing.T) {
	r := analyze(t,
		langFile(t, "en", `{"a": "x"}`),
		langFile(t, "sv", `{"a": "Şifre", "b": "Please save the changes to your profile"}`),
	)

	got := r.SpotlightEntries()
	if len(got) != 1 || got[0].Key != "a" || got[0].Reason != "Turkish text in Swedish file" {
		t.Fatalf("SpotlightEntries() = %#v", got)
	}
}

func TestRun_ExcludesBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"en.json": `{"a": "Hello", "b": "World"}`,
		"sv.json": `{"a": "Hej"}`,
		"de.json": `{broken`,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	var failed []string
	r, err := Run(dir, Options{
		Policy:  DefaultPolicy(),
		OnError: func(name string, err error) { failed = append(failed, name) },
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !reflect.DeepEqual(failed, []string{"de.json"}) {
		t.Fatalf("failed = %v", failed)
	}
	if !reflect.DeepEqual(r.Languages, []string{"en", "sv"}) {
		t.Fatalf("Languages = %v", r.Languages)
	}
	if !reflect.DeepEqual(r.Missing["sv"], []string{"b"}) {
		t.Fatalf("Missing[sv] = %v", r.Missing["sv"])
	}
}
