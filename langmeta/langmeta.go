// Package langmeta resolves language codes to English display names for
// configuration defaults, prompts and CLI output.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical code (e.g. "pt-BR").
	Code string
	// Name is the English name, used in translation prompts.
	Name string
}

var englishNamer = display.English.Languages()

// fixedNames pins names where the CLDR English name differs from the one
// used by the built-in language list.
var fixedNames = map[string]string{
	"bn": "Bengali",
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for lang, accepting variants like
// pt_BR and pt-br. Unknown codes resolve to themselves.
func Resolve(lang string) Meta {
	code := canonicalize(lang)
	tag, err := language.Parse(code)
	if err != nil || code == "" {
		return Meta{Code: lang, Name: lang}
	}

	m := Meta{Code: code}
	if name, ok := fixedNames[code]; ok {
		m.Name = name
		return m
	}
	m.Name = englishNamer.Name(tag)
	if m.Name == "" {
		// Fall back to the base language (e.g. "fr-LU" -> "French").
		base, _ := tag.Base()
		m.Name = englishNamer.Name(base)
	}
	if m.Name == "" {
		m.Name = lang
	}
	return m
}

// EnglishName returns the English display name of lang ("sv" -> "Swedish").
func EnglishName(lang string) string {
	return Resolve(lang).Name
}
