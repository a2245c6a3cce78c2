// Package config loads .lokcheck.yaml, the optional per-project
// configuration file.
//
// Every fixed path, language list and detector word list used by lokcheck
// has a built-in default; the file only needs to name what differs.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/lokcheck/audit"
	"github.com/minios-linux/lokcheck/detect"
	"github.com/minios-linux/lokcheck/gemini"
	"github.com/minios-linux/lokcheck/langmeta"
	"github.com/minios-linux/lokcheck/translate"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .lokcheck.yaml structure.
type File struct {
	// LocalesDir holds one <code>.json file per language, relative to the
	// project root.
	LocalesDir string `yaml:"locales_dir,omitempty"`
	// Baseline is the source language code (default "en").
	Baseline string `yaml:"baseline,omitempty"`
	// ReportPath is where the audit report is written.
	ReportPath string `yaml:"report_path,omitempty"`
	// Model and BaseURL select the Gemini endpoint.
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	// ChunkSize is how many strings to send per request (0 = all at once).
	ChunkSize int `yaml:"chunk_size,omitempty"`
	// Languages are the translate targets, in report order.
	Languages []Language `yaml:"languages,omitempty"`
	// Detection replaces the built-in language signals.
	Detection *detect.Config `yaml:"detection,omitempty"`
	// Policy adjusts the audit rules.
	Policy *Policy `yaml:"policy,omitempty"`
}

// Language is a target language. In YAML it is either a bare code
// ("sv") or a mapping with code and name.
type Language struct {
	Code string `yaml:"code"`
	Name string `yaml:"name,omitempty"`
}

// UnmarshalYAML accepts both forms of a language entry.
func (l *Language) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		l.Code = node.Value
		return nil
	}
	type plain Language
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*l = Language(p)
	return nil
}

// Policy is the YAML form of audit.Policy.
type Policy struct {
	BaselineName      string     `yaml:"baseline_name,omitempty"`
	Spotlight         *Spotlight `yaml:"spotlight,omitempty"`
	Contaminant       string     `yaml:"contaminant,omitempty"`
	ContaminantExempt []string   `yaml:"contaminant_exempt,omitempty"`
	EnglishMinLength  int        `yaml:"english_min_length,omitempty"`
}

// Spotlight is the YAML form of audit.Spotlight.
type Spotlight struct {
	Language string `yaml:"language"`
	Name     string `yaml:"name,omitempty"`
	Signal   string `yaml:"signal"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".lokcheck.yaml"

const (
	DefaultLocalesDir = "client/src/i18n/locales"
	DefaultReportPath = "translation_analysis_report.txt"
)

// DefaultLanguages is the built-in translate target list.
var DefaultLanguages = []Language{
	{"tr", "Turkish"}, {"es", "Spanish"}, {"fr", "French"}, {"de", "German"},
	{"it", "Italian"}, {"sv", "Swedish"}, {"pt", "Portuguese"}, {"ru", "Russian"},
	{"zh", "Chinese"}, {"ar", "Arabic"}, {"ja", "Japanese"}, {"ko", "Korean"},
	{"hi", "Hindi"}, {"nl", "Dutch"}, {"bn", "Bengali"}, {"da", "Danish"},
	{"fi", "Finnish"}, {"no", "Norwegian"}, {"vi", "Vietnamese"},
}

// Default returns the configuration used when no file exists.
func Default() *File {
	f := &File{}
	f.applyDefaults()
	return f
}

func (f *File) applyDefaults() {
	if f.LocalesDir == "" {
		f.LocalesDir = DefaultLocalesDir
	}
	if f.Baseline == "" {
		f.Baseline = "en"
	}
	if f.ReportPath == "" {
		f.ReportPath = DefaultReportPath
	}
	if f.Model == "" {
		f.Model = gemini.DefaultModel
	}
	if f.BaseURL == "" {
		f.BaseURL = gemini.DefaultBaseURL
	}
	if len(f.Languages) == 0 {
		f.Languages = append([]Language(nil), DefaultLanguages...)
	}
	for i := range f.Languages {
		if f.Languages[i].Name == "" {
			f.Languages[i].Name = langmeta.EnglishName(f.Languages[i].Code)
		}
	}
	if f.Detection == nil {
		d := detect.DefaultConfig()
		f.Detection = &d
	}

	def := audit.DefaultPolicy()
	if f.Policy == nil {
		f.Policy = &Policy{}
	}
	p := f.Policy
	if p.BaselineName == "" {
		p.BaselineName = def.BaselineName
	}
	if p.Spotlight == nil {
		p.Spotlight = &Spotlight{Language: def.Spotlight.Language, Signal: def.Spotlight.Signal}
	}
	if p.Spotlight.Name == "" {
		p.Spotlight.Name = langmeta.EnglishName(p.Spotlight.Language)
	}
	if p.Contaminant == "" {
		p.Contaminant = def.Contaminant
	}
	if p.ContaminantExempt == nil {
		p.ContaminantExempt = def.ContaminantExempt
	}
	if p.EnglishMinLength == 0 {
		p.EnglishMinLength = def.EnglishMinLength
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the config file. With an empty path it looks for
// .lokcheck.yaml in rootDir and returns Default() if there is none; an
// explicit path must exist. Unknown keys are rejected.
func Load(rootDir, path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(rootDir, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	f.applyDefaults()
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if !isLangCode(f.Baseline) {
		return fmt.Errorf("baseline %q is not a language code", f.Baseline)
	}
	if f.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative")
	}

	seen := make(map[string]bool)
	for i, l := range f.Languages {
		if l.Code == "" {
			return fmt.Errorf("language #%d has no code", i+1)
		}
		if !isLangCode(l.Code) {
			return fmt.Errorf("language %q is not a language code", l.Code)
		}
		if seen[l.Code] {
			return fmt.Errorf("language %q is listed twice", l.Code)
		}
		seen[l.Code] = true
	}

	for i, s := range f.Detection.Signals {
		if s.Language == "" {
			return fmt.Errorf("detection signal #%d has no language", i+1)
		}
	}
	if en := f.Detection.English; en != nil && en.Language == "" {
		return fmt.Errorf("detection.english has no language")
	}

	if f.Policy.Spotlight.Language == "" || f.Policy.Spotlight.Signal == "" {
		return fmt.Errorf("policy.spotlight requires language and signal")
	}
	if f.Policy.EnglishMinLength < 0 {
		return fmt.Errorf("policy.english_min_length must not be negative")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Resolve joins p to rootDir unless p is absolute.
func Resolve(rootDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}

// LanguageName returns the configured name of code, or its English
// display name.
func (f *File) LanguageName(code string) string {
	for _, l := range f.Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return langmeta.EnglishName(code)
}

// TargetLanguages returns the translate targets. With codes empty it
// returns every configured language; otherwise the named ones in the
// given order.
func (f *File) TargetLanguages(codes []string) []translate.Language {
	if len(codes) == 0 {
		out := make([]translate.Language, 0, len(f.Languages))
		for _, l := range f.Languages {
			out = append(out, translate.Language{Code: l.Code, Name: l.Name})
		}
		return out
	}
	out := make([]translate.Language, 0, len(codes))
	for _, c := range codes {
		out = append(out, translate.Language{Code: c, Name: f.LanguageName(c)})
	}
	return out
}

// DetectorConfig returns the language detector configuration.
func (f *File) DetectorConfig() detect.Config {
	return *f.Detection
}

// AuditPolicy returns the audit rules.
func (f *File) AuditPolicy() audit.Policy {
	en := "English"
	if f.Detection.English != nil {
		en = f.Detection.English.Language
	}
	return audit.Policy{
		Baseline:     f.Baseline,
		BaselineName: f.Policy.BaselineName,
		Spotlight: audit.Spotlight{
			Language:     f.Policy.Spotlight.Language,
			LanguageName: f.Policy.Spotlight.Name,
			Signal:       f.Policy.Spotlight.Signal,
		},
		Contaminant:       f.Policy.Contaminant,
		ContaminantExempt: f.Policy.ContaminantExempt,
		EnglishSignal:     en,
		EnglishMinLength:  f.Policy.EnglishMinLength,
	}
}
