// Package detect flags strings that look like they are written in a
// particular language, using per-language character sets and common-word
// lists.
//
// This is a heuristic, not a classifier. The same configuration and input
// always yield the same flags; linguistic accuracy is not a goal.
package detect

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Signal describes how to spot one language.
type Signal struct {
	// Language is reported when any rune of the text is in Chars.
	Language string `yaml:"language"`
	// Chars lists language-specific letters (diacritics, alphabet).
	Chars string `yaml:"chars,omitempty"`
	// Words lists common words; a case-folded token match reports
	// "<Language> (words)".
	Words []string `yaml:"words,omitempty"`
}

// English is the restrictive detector for the baseline language: the text
// must consist only of Allowed runes, be longer than MinLength runes, and
// contain at least one of Words.
type English struct {
	Language  string   `yaml:"language"`
	Allowed   string   `yaml:"allowed_chars"`
	MinLength int      `yaml:"min_length"`
	Words     []string `yaml:"words"`
}

// Config is the full detector configuration.
type Config struct {
	Signals []Signal `yaml:"signals"`
	English *English `yaml:"english,omitempty"`
}

// WordsSuffix is appended to a language name for word-list matches.
const WordsSuffix = " (words)"

// DefaultConfig returns the built-in Turkish and English signals.
func DefaultConfig() Config {
	return Config{
		Signals: []Signal{
			{
				Language: "Turkish",
				Chars:    "ğĞıİöÖşŞüÜçÇ",
				Words:    []string{"ve", "için", "bir", "bu", "ile", "değil", "daha", "çok", "gibi", "kadar", "olan", "olarak"},
			},
		},
		English: DefaultEnglish(),
	}
}

// DefaultEnglish returns the built-in English detector.
func DefaultEnglish() *English {
	return &English{
		Language:  "English",
		Allowed:   "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .,!?'\"-:;()[]{}/@#$%^&*+=_~`|\\<>",
		MinLength: 10,
		Words:     []string{"the", "and", "for", "with", "that", "this", "from", "have", "will", "your", "are", "not"},
	}
}

type compiledSignal struct {
	language string
	chars    map[rune]bool
	words    map[string]bool
}

// Detector applies a Config to strings. It is not safe for concurrent use.
type Detector struct {
	signals []compiledSignal
	english *compiledSignal
	minLen  int
	fold    cases.Caser
}

// New builds a Detector from cfg.
func New(cfg Config) *Detector {
	d := &Detector{fold: cases.Fold()}
	for _, s := range cfg.Signals {
		d.signals = append(d.signals, d.compile(s.Language, s.Chars, s.Words))
	}
	if cfg.English != nil {
		en := d.compile(cfg.English.Language, cfg.English.Allowed, cfg.English.Words)
		d.english = &en
		d.minLen = cfg.English.MinLength
	}
	return d
}

func (d *Detector) compile(language, chars string, words []string) compiledSignal {
	cs := compiledSignal{
		language: language,
		chars:    make(map[rune]bool),
		words:    make(map[string]bool),
	}
	for _, r := range chars {
		cs.chars[r] = true
	}
	for _, w := range words {
		cs.words[d.fold.String(w)] = true
	}
	return cs
}

// Detect returns the languages whose signals match text, in configuration
// order. Character and word matches are reported independently.
func (d *Detector) Detect(text string) []string {
	var found []string
	tokens := d.tokens(text)

	for _, s := range d.signals {
		if s.anyRune(text) {
			found = append(found, s.language)
		}
		if s.anyWord(tokens) {
			found = append(found, s.language+WordsSuffix)
		}
	}

	if en := d.english; en != nil {
		if en.allRunes(text) && utf8.RuneCountInString(text) > d.minLen && en.anyWord(tokens) {
			found = append(found, en.language)
		}
	}
	return found
}

// tokens splits text on whitespace and case-folds every token.
func (d *Detector) tokens(text string) []string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = d.fold.String(f)
	}
	return fields
}

func (s compiledSignal) anyRune(text string) bool {
	if len(s.chars) == 0 {
		return false
	}
	for _, r := range text {
		if s.chars[r] {
			return true
		}
	}
	return false
}

func (s compiledSignal) allRunes(text string) bool {
	for _, r := range text {
		if !s.chars[r] {
			return false
		}
	}
	return true
}

func (s compiledSignal) anyWord(tokens []string) bool {
	for _, t := range tokens {
		if s.words[t] {
			return true
		}
	}
	return false
}
