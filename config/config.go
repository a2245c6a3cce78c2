package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// localesCandidates are the directories searched when the configured
// locales directory does not exist.
var localesCandidates = []string{
	DefaultLocalesDir,
	filepath.Join("src", "i18n", "locales"),
	filepath.Join("src", "locales"),
	filepath.Join("public", "locales"),
	filepath.Join("public", "translations"),
	"locales",
	"translations",
}

// DetectLocalesDir returns the first candidate directory under rootDir
// (relative to rootDir) that contains <baseline>.json, or "".
func DetectLocalesDir(rootDir, baseline string) string {
	for _, dir := range localesCandidates {
		info, err := os.Stat(filepath.Join(rootDir, dir, baseline+".json"))
		if err == nil && !info.IsDir() {
			return dir
		}
	}
	return ""
}

// DetectLanguages returns the language codes of the *.json files in dir,
// sorted. Files whose names are not language codes are ignored.
func DetectLanguages(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		lang := strings.TrimSuffix(name, ".json")
		if isLangCode(lang) {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// isLangCode checks if a string looks like a language code: en, ru,
// pt_BR, pt-BR, zh-Hant.
func isLangCode(s string) bool {
	if len(s) < 2 {
		return false
	}
	if !isLower(s[0]) || !isLower(s[1]) {
		return false
	}
	if len(s) == 2 {
		return true
	}
	if len(s) == 3 && isLower(s[2]) {
		return true
	}
	sep := strings.IndexAny(s, "-_")
	if sep != 2 && sep != 3 {
		return false
	}
	for i := 0; i < sep; i++ {
		if !isLower(s[i]) {
			return false
		}
	}
	region := s[sep+1:]
	if len(region) < 2 {
		return false
	}
	for i := 0; i < len(region); i++ {
		c := region[i]
		if !isLower(c) && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
