package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/minios-linux/lokcheck/audit"
	"github.com/minios-linux/lokcheck/detect"
	"github.com/minios-linux/lokcheck/localefile"
)

func langFile(t *testing.T, lang, doc string) *localefile.LanguageFile {
	t.Helper()
	n, err := localefile.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse(%s): %v", lang, err)
	}
	return &localefile.LanguageFile{Lang: lang, Entries: localefile.Flatten(n, localefile.StringifyLeaves)}
}

func analyze(t *testing.T, files ...*localefile.LanguageFile) *audit.Result {
	t.Helper()
	return audit.Analyze(files, detect.New(detect.DefaultConfig()), audit.DefaultPolicy())
}

func TestAudit_ExampleReport(t *testing.T) {
	r := analyze(t,
		langFile(t, "en", `{"a": "Hello", "b": "World"}`),
		langFile(t, "sv", `{"a": "Hej"}`),
	)

	got := Audit(r, DefaultLayout())
	rule := strings.Repeat("-", 80)
	want := "# Translation Analysis Report\n" +
		strings.Repeat("=", 80) + "\n" +
		"## Summary\n" +
		"- Total unique keys across all files: 2\n" +
		"- Number of language files analyzed: 2\n" +
		"\n### Key Count by Language:\n" +
		"  - en: 2 keys\n" +
		"  - sv: 1 keys\n" +
		"\n\n## Missing Keys by Language\n" + rule + "\n" +
		"\n### SV - Missing 1 keys:\n" +
		"  - b\n" +
		"\n\n## Keys Not Present in All Files\n" + rule + "\n" +
		"\n- Key: b\n" +
		"  Present in: en\n" +
		"  Missing from: sv\n" +
		"\n\n## Untranslated Content (Identical to English)\n" + rule + "\n" +
		"\n\n## Suspicious Translations (Wrong Language Detected)\n" + rule + "\n" +
		"\n\n## Special Focus: Swedish (sv.json) Turkish Text Issues\n" + rule + "\n" +
		"No Turkish text found in Swedish file.\n"

	if got != want {
		t.Fatalf("report mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestAudit_NoMissingKeys(t *testing.T) {
	r := analyze(t,
		langFile(t, "en", `{"a": "Hello"}`),
		langFile(t, "sv", `{"a": "Hej"}`),
	)
	got := Audit(r, DefaultLayout())
	if !strings.Contains(got, "No missing keys found - all languages have the same keys!\n") {
		t.Fatalf("missing 'no missing keys' line:\n%s", got)
	}
}

func TestAudit_TruncationCounts(t *testing.T) {
	var en, de strings.Builder
	en.WriteString("{")
	de.WriteString("{")
	for i := 0; i < 12; i++ {
		if i > 0 {
			en.WriteString(",")
			de.WriteString(",")
		}
		fmt.Fprintf(&en, `"k%02d": "Same value %d"`, i, i)
		fmt.Fprintf(&de, `"k%02d": "Same value %d"`, i, i)
	}
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&en, `,"only%02d": "x"`, i)
	}
	en.WriteString("}")
	de.WriteString("}")

	r := analyze(t, langFile(t, "en", en.String()), langFile(t, "de", de.String()))
	got := Audit(r, DefaultLayout())

	checks := []string{
		"### DE - Missing 25 keys:\n",
		"  ... and 15 more\n",
		"\n... and 5 more partial keys\n",
		"### DE - 12 untranslated entries:\n",
		"  ... and 7 more\n",
	}
	for _, c := range checks {
		if !strings.Contains(got, c) {
			t.Fatalf("report does not contain %q:\n%s", c, got)
		}
	}
	if n := strings.Count(got, "\n- Key: "); n != 20 {
		t.Fatalf("partial keys shown = %d, want 20", n)
	}
	if !strings.Contains(got, "  - only09\n") || strings.Contains(got, "  - only10\n") {
		t.Fatal("missing-key list should stop after 10 keys")
	}
}

func TestAudit_SuspiciousAndSpotlight(t *testing.T) {
	long := strings.Repeat("ı", 120)
	var sv strings.Builder
	sv.WriteString("{")
	for i := 0; i < 11; i++ {
		if i > 0 {
			sv.WriteString(",")
		}
		fmt.Fprintf(&sv, `"s%02d": "Kayıt %d"`, i, i)
	}
	fmt.Fprintf(&sv, `,"zz": "%s"}`, long)

	r := analyze(t, langFile(t, "en", `{}`), langFile(t, "sv", sv.String()))
	got := Audit(r, DefaultLayout())

	checks := []string{
		"### SV - 12 suspicious entries:\n",
		"\n  - Key: s00\n    Value: \"Kayıt 0\"\n    Issue: Turkish text in Swedish file\n",
		"\n  ... and 2 more\n",
		"Found 12 entries with Turkish text in Swedish file:\n\n",
		"- s00: \"Kayıt 0\"\n",
		"- zz: \"" + long + "\"\n",
	}
	for _, c := range checks {
		if !strings.Contains(got, c) {
			t.Fatalf("report does not contain %q:\n%s", c, got)
		}
	}
}

func TestAudit_SpotlightWithOtherSuspicious(t *testing.T) {
	r := analyze(t,
		langFile(t, "en", `{}`),
		langFile(t, "sv", `{"a": "Save the changes and close the window"}`),
	)
	got := Audit(r, DefaultLayout())

	if !strings.Contains(got, "### SV - 1 suspicious entries:\n") ||
		!strings.Contains(got, "    Issue: English text in sv file\n") {
		t.Fatalf("English entry not reported as suspicious:\n%s", got)
	}
	if !strings.HasSuffix(got, "Turkish Text Issues\n"+strings.Repeat("-", 80)+"\nNo Turkish text found in Swedish file.\n") {
		t.Fatalf("spotlight section should report no Turkish text:\n%s", got)
	}
}

func TestWriteAudit(t *testing.T) {
	r := analyze(t, langFile(t, "en", `{"a": "Hello"}`))
	var buf bytes.Buffer
	if err := WriteAudit(&buf, r, DefaultLayout()); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	if buf.String() != Audit(r, DefaultLayout()) {
		t.Fatalf("WriteAudit output differs from Audit:\n%s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 50, "short"},
		{strings.Repeat("a", 50), 50, strings.Repeat("a", 50)},
		{strings.Repeat("a", 51), 50, strings.Repeat("a", 50) + "..."},
		{"ğğğğ", 2, "ğğ..."},
		{"anything", 0, "anything"},
	}
	for _, tc := range tests {
		if got := Truncate(tc.in, tc.width); got != tc.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestWriteTranslations(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTranslations(&buf, []FileTranslations{
		{Path: "locales/tr.json", Translations: map[string]string{"b": "Dünya", "a": "Merhaba"}},
		{Path: "locales/fr.json", Translations: map[string]string{"a": "Bonjour"}},
	})
	if err != nil {
		t.Fatalf("WriteTranslations error: %v", err)
	}

	want := `{
  "locales/tr.json": {
    "a": "Merhaba",
    "b": "Dünya"
  },
  "locales/fr.json": {
    "a": "Bonjour"
  }
}
`
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteTranslations_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTranslations(&buf, nil); err != nil {
		t.Fatalf("WriteTranslations error: %v", err)
	}
	if buf.String() != "{}\n" {
		t.Fatalf("got %q, want {}", buf.String())
	}
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteError(&buf, `GEMINI_API_KEY environment variable not set.`); err != nil {
		t.Fatalf("WriteError: %v", err)
	}
	want := "{\"error\": \"GEMINI_API_KEY environment variable not set.\"}\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
