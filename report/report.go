// Package report renders audit results as text and translation results as
// JSON.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minios-linux/lokcheck/audit"
	"github.com/minios-linux/lokcheck/keyset"
	"github.com/minios-linux/lokcheck/localefile"
)

// Layout limits how many entries each audit section lists.
type Layout struct {
	MissingShown      int
	PartialShown      int
	UntranslatedShown int
	SuspiciousShown   int
	// UntranslatedWidth and SuspiciousWidth cut values longer than this
	// many runes and append "...".
	UntranslatedWidth int
	SuspiciousWidth   int
}

// DefaultLayout returns the standard section limits.
func DefaultLayout() Layout {
	return Layout{
		MissingShown:      10,
		PartialShown:      20,
		UntranslatedShown: 5,
		SuspiciousShown:   10,
		UntranslatedWidth: 50,
		SuspiciousWidth:   100,
	}
}

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// Audit renders r as the plain-text audit report.
func Audit(r *audit.Result, l Layout) string {
	var b strings.Builder

	b.WriteString("# Translation Analysis Report\n")
	b.WriteString(heavyRule + "\n")

	// Summary
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Total unique keys across all files: %d\n", len(r.AllKeys))
	fmt.Fprintf(&b, "- Number of language files analyzed: %d\n", len(r.Languages))
	b.WriteString("\n### Key Count by Language:\n")
	for _, lang := range r.Languages {
		fmt.Fprintf(&b, "  - %s: %d keys\n", lang, r.KeyCounts[lang])
	}

	// Missing keys
	section(&b, "Missing Keys by Language")
	if len(r.Missing) == 0 {
		b.WriteString("No missing keys found - all languages have the same keys!\n")
	}
	for _, lang := range sortedKeys(r.Missing) {
		keys := r.Missing[lang]
		fmt.Fprintf(&b, "\n### %s - Missing %d keys:\n", strings.ToUpper(lang), len(keys))
		for _, key := range head(keys, l.MissingShown) {
			fmt.Fprintf(&b, "  - %s\n", key)
		}
		if more := len(keys) - l.MissingShown; more > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", more)
		}
	}

	// Keys held by only some files
	section(&b, "Keys Not Present in All Files")
	partial := r.PartialKeys()
	for _, key := range head(partial, l.PartialShown) {
		holders := r.Presence[key]
		fmt.Fprintf(&b, "\n- Key: %s\n", key)
		fmt.Fprintf(&b, "  Present in: %s\n", strings.Join(holders, ", "))
		fmt.Fprintf(&b, "  Missing from: %s\n", strings.Join(keyset.Absent(r.Languages, holders), ", "))
	}
	if more := len(partial) - l.PartialShown; more > 0 {
		fmt.Fprintf(&b, "\n... and %d more partial keys\n", more)
	}

	// Untranslated
	section(&b, fmt.Sprintf("Untranslated Content (Identical to %s)", r.Policy.BaselineName))
	for _, lang := range sortedKeys(r.Untranslated) {
		items := r.Untranslated[lang]
		fmt.Fprintf(&b, "\n### %s - %d untranslated entries:\n", strings.ToUpper(lang), len(items))
		for _, it := range head(items, l.UntranslatedShown) {
			fmt.Fprintf(&b, "  - %s: \"%s\"\n", it.Key, Truncate(it.Value, l.UntranslatedWidth))
		}
		if more := len(items) - l.UntranslatedShown; more > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", more)
		}
	}

	// Suspicious
	section(&b, "Suspicious Translations (Wrong Language Detected)")
	for _, lang := range sortedKeys(r.Suspicious) {
		items := r.Suspicious[lang]
		fmt.Fprintf(&b, "\n### %s - %d suspicious entries:\n", strings.ToUpper(lang), len(items))
		for _, it := range head(items, l.SuspiciousShown) {
			fmt.Fprintf(&b, "\n  - Key: %s\n", it.Key)
			fmt.Fprintf(&b, "    Value: \"%s\"\n", Truncate(it.Value, l.SuspiciousWidth))
			fmt.Fprintf(&b, "    Issue: %s\n", it.Reason)
		}
		if more := len(items) - l.SuspiciousShown; more > 0 {
			fmt.Fprintf(&b, "\n  ... and %d more\n", more)
		}
	}

	// Spotlight
	sp := r.Policy.Spotlight
	section(&b, fmt.Sprintf("Special Focus: %s (%s.json) %s Text Issues", sp.LanguageName, sp.Language, sp.Signal))
	if entries := r.SpotlightEntries(); len(entries) > 0 {
		fmt.Fprintf(&b, "Found %d entries with %s text in %s file:\n\n", len(entries), sp.Signal, sp.LanguageName)
		for _, it := range entries {
			fmt.Fprintf(&b, "- %s: \"%s\"\n", it.Key, it.Value)
		}
	} else {
		// Printed even when the file has suspicious entries of other kinds.
		fmt.Fprintf(&b, "No %s text found in %s file.\n", sp.Signal, sp.LanguageName)
	}

	return b.String()
}

// WriteAudit writes the audit report to w.
func WriteAudit(w io.Writer, r *audit.Result, l Layout) error {
	_, err := io.WriteString(w, Audit(r, l))
	return err
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n\n## %s\n", title)
	b.WriteString(lightRule + "\n")
}

// Truncate cuts s to width runes and appends "..." when s is longer.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width]) + "..."
}

func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------------
// Translation report
// ---------------------------------------------------------------------------

// FileTranslations is the translate result for one target file.
type FileTranslations struct {
	Path         string
	Translations map[string]string
}

// WriteTranslations writes files as one JSON object keyed by path, in the
// given order. Inner keys are sorted. Non-ASCII text is not escaped.
func WriteTranslations(w io.Writer, files []FileTranslations) error {
	doc := localefile.NewObject()
	for _, f := range files {
		inner := localefile.NewObject()
		for _, key := range sortedKeys(f.Translations) {
			inner.Set(key, localefile.NewString(f.Translations[key]))
		}
		doc.Set(f.Path, inner)
	}
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("encoding translation report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteError writes the fatal error object {"error": msg}.
func WriteError(w io.Writer, msg string) error {
	_, err := fmt.Fprintf(w, "{\"error\": %s}\n", localefile.QuoteJSON(msg))
	return err
}
