// Package audit runs the static translation audit: missing keys, values
// left identical to the baseline language, and values that look like they
// are written in the wrong language.
package audit

import (
	"fmt"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/minios-linux/lokcheck/detect"
	"github.com/minios-linux/lokcheck/keyset"
	"github.com/minios-linux/lokcheck/localefile"
)

// Spotlight singles out one contamination case (a signal detected in one
// particular language file) for its own report section.
type Spotlight struct {
	// Language is the file language code, e.g. "sv".
	Language string
	// LanguageName is its display name, e.g. "Swedish".
	LanguageName string
	// Signal is the detected language name, e.g. "Turkish".
	Signal string
}

// Policy decides which detector results are suspicious.
type Policy struct {
	// Baseline is the reference language code ("en").
	Baseline string
	// BaselineName is its display name ("English").
	BaselineName string
	Spotlight    Spotlight
	// Contaminant is a signal that is suspicious in every file except the
	// exempt ones.
	Contaminant string
	// ContaminantExempt lists language codes where Contaminant is expected.
	ContaminantExempt []string
	// EnglishSignal is the detector name of the baseline language.
	EnglishSignal string
	// EnglishMinLength suppresses baseline-language hits on values of at
	// most this many runes.
	EnglishMinLength int
}

// DefaultPolicy returns the Swedish/Turkish policy with an English baseline.
func DefaultPolicy() Policy {
	return Policy{
		Baseline:          "en",
		BaselineName:      "English",
		Spotlight:         Spotlight{Language: "sv", LanguageName: "Swedish", Signal: "Turkish"},
		Contaminant:       "Turkish",
		ContaminantExempt: []string{"en", "tr"},
		EnglishSignal:     "English",
		EnglishMinLength:  20,
	}
}

// Untranslated is a value identical to the baseline value for the same key.
type Untranslated struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Suspicious is a value in which a wrong language was detected.
type Suspicious struct {
	Key      string   `json:"key"`
	Value    string   `json:"value"`
	Detected []string `json:"detected"`
	Reason   string   `json:"reason"`
}

// Result holds the findings of one audit run. It is read-only once
// Analyze returns.
type Result struct {
	Policy Policy
	// Languages lists the analyzed language codes, sorted.
	Languages []string
	// AllKeys is the sorted union of keys across all files.
	AllKeys []string
	// KeyCounts is the number of keys per language.
	KeyCounts map[string]int
	// Presence maps each key to the languages holding it.
	Presence map[string][]string
	// Missing holds, for languages missing at least one key, the sorted
	// keys absent from that language.
	Missing map[string][]string
	// Untranslated and Suspicious keep file order per language.
	Untranslated map[string][]Untranslated
	Suspicious   map[string][]Suspicious
}

// Analyze audits the given language files in one pass.
func Analyze(files []*localefile.LanguageFile, det *detect.Detector, pol Policy) *Result {
	r := &Result{
		Policy:       pol,
		KeyCounts:    make(map[string]int),
		Missing:      make(map[string][]string),
		Untranslated: make(map[string][]Untranslated),
		Suspicious:   make(map[string][]Suspicious),
	}

	byLang := make(map[string]*localefile.LanguageFile, len(files))
	keysByLang := make(map[string][]string, len(files))
	for _, f := range files {
		byLang[f.Lang] = f
		keysByLang[f.Lang] = f.Entries.Keys()
		r.KeyCounts[f.Lang] = f.Entries.Len()
		r.Languages = append(r.Languages, f.Lang)
	}
	sort.Strings(r.Languages)

	var lists [][]string
	for _, lang := range r.Languages {
		lists = append(lists, keysByLang[lang])
	}
	r.AllKeys = keyset.Union(lists...)
	r.Presence = keyset.Presence(keysByLang)

	for _, lang := range r.Languages {
		if missing := keyset.Missing(r.AllKeys, keysByLang[lang]); len(missing) > 0 {
			r.Missing[lang] = missing
		}
	}

	baseline := byLang[pol.Baseline]
	for _, lang := range r.Languages {
		if lang == pol.Baseline {
			continue
		}
		f := byLang[lang]
		for _, key := range f.Entries.Keys() {
			leaf, _ := f.Entries.Get(key)
			value := leaf.Text

			if baseline != nil {
				if base, ok := baseline.Entries.Get(key); ok && base.Text == value {
					r.Untranslated[lang] = append(r.Untranslated[lang], Untranslated{
						Key:    key,
						Value:  value,
						Reason: "Identical to " + pol.BaselineName,
					})
				}
			}

			detected := det.Detect(value)
			if reason, ok := pol.classify(lang, value, detected); ok {
				r.Suspicious[lang] = append(r.Suspicious[lang], Suspicious{
					Key:      key,
					Value:    value,
					Detected: detected,
					Reason:   reason,
				})
			}
		}
	}

	return r
}

// classify applies the policy rules in order; the first match wins.
func (p Policy) classify(lang, value string, detected []string) (string, bool) {
	switch {
	case lang == p.Spotlight.Language && slices.Contains(detected, p.Spotlight.Signal):
		return fmt.Sprintf("%s text in %s file", p.Spotlight.Signal, p.Spotlight.LanguageName), true
	case !slices.Contains(p.ContaminantExempt, lang) && slices.Contains(detected, p.Contaminant):
		return fmt.Sprintf("%s text in %s file", p.Contaminant, lang), true
	case lang != p.Baseline && slices.Contains(detected, p.EnglishSignal) &&
		utf8.RuneCountInString(value) > p.EnglishMinLength:
		return fmt.Sprintf("%s text in %s file", p.EnglishSignal, lang), true
	}
	return "", false
}

// PartialKeys returns the sorted keys missing from at least one analyzed
// file.
func (r *Result) PartialKeys() []string {
	return keyset.Partial(r.Presence, len(r.Languages))
}

// SpotlightEntries returns the suspicious entries of the spotlight
// language in which the spotlight signal was detected.
func (r *Result) SpotlightEntries() []Suspicious {
	var out []Suspicious
	for _, s := range r.Suspicious[r.Policy.Spotlight.Language] {
		if slices.Contains(s.Detected, r.Policy.Spotlight.Signal) {
			out = append(out, s)
		}
	}
	return out
}

// Options configures Run.
type Options struct {
	Detector *detect.Detector
	Policy   Policy
	// OnError is called for each file that could not be loaded.
	OnError func(name string, err error)
}

// Run loads every locale file in dir and analyzes it. Files that fail to
// load are reported through OnError and excluded.
func Run(dir string, opts Options) (*Result, error) {
	files, err := localefile.LoadDir(dir, localefile.StringifyLeaves, opts.OnError)
	if err != nil {
		return nil, err
	}
	det := opts.Detector
	if det == nil {
		det = detect.New(detect.DefaultConfig())
	}
	return Analyze(files, det, opts.Policy), nil
}
