// Package translate finds the baseline strings missing from each target
// locale file and sends them to a Translator, one batch at a time.
//
// A failed batch never stops the run: every key of the batch is reported
// with a sentinel value instead of a translation.
package translate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/lokcheck/keyset"
	"github.com/minios-linux/lokcheck/localefile"
	"github.com/minios-linux/lokcheck/merge"
	"github.com/minios-linux/lokcheck/report"
)

// SentinelPrefix marks a value that could not be translated.
const SentinelPrefix = "TRANSLATION_ERROR: "

// Sentinel returns the placeholder reported for an untranslated string.
func Sentinel(english string) string { return SentinelPrefix + english }

// IsSentinel reports whether s is a sentinel value.
func IsSentinel(s string) bool { return strings.HasPrefix(s, SentinelPrefix) }

// Translator translates a batch of key -> English text into language
// (a display name such as "Swedish").
type Translator interface {
	Translate(ctx context.Context, batch map[string]string, language string) (map[string]string, error)
}

// Language is a target language.
type Language struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// ---------------------------------------------------------------------------
// Batches
// ---------------------------------------------------------------------------

// Batch is one request: key -> English source string for one language.
type Batch struct {
	Language Language
	Entries  map[string]string
}

// Outcome is the result of one batch. Translations has an entry for every
// batch key; failed keys hold sentinels.
type Outcome struct {
	Translations map[string]string
	// Err is the failure of the whole batch, if any.
	Err error
	// Omitted lists keys the translator did not return, sorted.
	Omitted []string
}

// TranslateBatch runs one batch. It makes exactly one Translator call.
func TranslateBatch(ctx context.Context, tr Translator, b Batch) Outcome {
	out := Outcome{Translations: make(map[string]string, len(b.Entries))}

	got, err := tr.Translate(ctx, b.Entries, b.Language.Name)
	if err != nil {
		out.Err = err
		for k, en := range b.Entries {
			out.Translations[k] = Sentinel(en)
		}
		return out
	}

	for k, en := range b.Entries {
		if v, ok := got[k]; ok {
			out.Translations[k] = v
			continue
		}
		out.Translations[k] = Sentinel(en)
		out.Omitted = append(out.Omitted, k)
	}
	sort.Strings(out.Omitted)
	return out
}

// splitKeys divides keys into chunks of at most chunkSize (0 = one chunk).
func splitKeys(keys []string, chunkSize int) [][]string {
	if chunkSize <= 0 || chunkSize >= len(keys) {
		return [][]string{keys}
	}
	var chunks [][]string
	for i := 0; i < len(keys); i += chunkSize {
		end := min(i+chunkSize, len(keys))
		chunks = append(chunks, keys[i:end])
	}
	return chunks
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

// Options controls a translate run.
type Options struct {
	// LocalesDir holds one <code>.json file per language.
	LocalesDir string
	// Baseline is the source language code (e.g., "en").
	Baseline string
	// Languages are the targets, in report order. The baseline is skipped
	// if listed.
	Languages []Language
	// ChunkSize is how many strings to send per request (0 = all at once).
	ChunkSize int
	// Write merges successful translations into the target files.
	Write bool
	// OnProgress is called after each batch with the keys done so far.
	OnProgress func(lang string, done, total int)
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
	// OnError emits error messages.
	OnError func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// BaselineError means the baseline file is missing or not a JSON object.
// It is the only error that aborts a run.
type BaselineError struct {
	Path string
	Err  error
}

func (e *BaselineError) Error() string {
	return fmt.Sprintf("reading baseline %s: %v", e.Path, e.Err)
}

func (e *BaselineError) Unwrap() error { return e.Err }

// FileReport is the result for one target file.
type FileReport struct {
	Language Language
	Path     string
	// Translations maps every missing string key to its translation or
	// sentinel.
	Translations map[string]string
	// Sources maps the same keys to their baseline text.
	Sources map[string]string
	// BatchErrors holds one error per failed batch.
	BatchErrors []error
	// Written is the number of values merged into the file (Write only).
	Written int
	// WriteErr is set when the file could not be patched.
	WriteErr error
}

// Report is the result of Run. Files only lists targets that had missing
// string keys, in configured language order.
type Report struct {
	Files []FileReport
	// BaselineKeys are all flattened keys of the baseline file.
	BaselineKeys []string
}

// Output converts r into the report package's input, preserving order.
func (r *Report) Output() []report.FileTranslations {
	out := make([]report.FileTranslations, 0, len(r.Files))
	for _, f := range r.Files {
		out = append(out, report.FileTranslations{Path: f.Path, Translations: f.Translations})
	}
	return out
}

// BatchFailures returns the number of failed batches.
func (r *Report) BatchFailures() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.BatchErrors)
	}
	return n
}

// WriteErrors returns the errors of files that could not be patched.
func (r *Report) WriteErrors() []error {
	var errs []error
	for _, f := range r.Files {
		if f.WriteErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.WriteErr))
		}
	}
	return errs
}

// target is a loaded target file. tree is nil when the file was missing or
// empty; broken is set when it exists but is not a JSON object.
type target struct {
	entries *localefile.Flat
	tree    *localefile.Node
	broken  error
}

func loadTarget(path string) target {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return target{entries: localefile.NewFlat()}
		}
		return target{entries: localefile.NewFlat(), broken: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return target{entries: localefile.NewFlat()}
	}
	tree, err := localefile.Parse(data)
	if err != nil {
		return target{entries: localefile.NewFlat(), broken: err}
	}
	if tree.Kind != localefile.KindObject {
		return target{entries: localefile.NewFlat(), broken: fmt.Errorf("root is %s, not an object", tree.Kind)}
	}
	return target{entries: localefile.Flatten(tree, localefile.DescendArrays), tree: tree}
}

// Run translates the missing strings of every configured language.
// It returns a *BaselineError if the baseline cannot be loaded; every other
// failure is recorded in the report.
func Run(ctx context.Context, tr Translator, opts Options) (*Report, error) {
	basePath := filepath.Join(opts.LocalesDir, opts.Baseline+".json")
	base, baseTree, err := localefile.Load(basePath, localefile.DescendArrays)
	if err != nil {
		return nil, &BaselineError{Path: basePath, Err: err}
	}
	baseKeys := base.Entries.Keys()

	rep := &Report{BaselineKeys: baseKeys}
	for _, lang := range opts.Languages {
		if lang.Code == opts.Baseline {
			continue
		}

		path := filepath.Join(opts.LocalesDir, lang.Code+".json")
		tgt := loadTarget(path)
		if tgt.broken != nil {
			opts.log("%s: treating as empty (%v)", path, tgt.broken)
		}

		entries := make(map[string]string)
		for _, key := range keyset.Diff(baseKeys, tgt.entries.Keys()) {
			if leaf, _ := base.Entries.Get(key); leaf.IsString() {
				entries[key] = leaf.Text
			}
		}
		if len(entries) == 0 {
			continue
		}

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		opts.log("Translating %s (%s): %d strings...", lang.Code, lang.Name, len(keys))

		fr := FileReport{Language: lang, Path: path, Translations: make(map[string]string, len(keys)), Sources: entries}
		done := 0
		chunks := splitKeys(keys, opts.ChunkSize)
		for i, chunk := range chunks {
			batch := Batch{Language: lang, Entries: make(map[string]string, len(chunk))}
			for _, k := range chunk {
				batch.Entries[k] = entries[k]
			}

			out := TranslateBatch(ctx, tr, batch)
			for k, v := range out.Translations {
				fr.Translations[k] = v
			}
			if out.Err != nil {
				fr.BatchErrors = append(fr.BatchErrors, out.Err)
				opts.logError("%s: batch %d/%d failed: %v", lang.Code, i+1, len(chunks), out.Err)
			}
			if len(out.Omitted) > 0 {
				opts.logError("%s: batch %d/%d: no translation returned for %d key(s): %s",
					lang.Code, i+1, len(chunks), len(out.Omitted), strings.Join(out.Omitted, ", "))
			}

			done += len(chunk)
			if opts.OnProgress != nil {
				opts.OnProgress(lang.Code, done, len(keys))
			}
		}

		if opts.Write {
			patch(&fr, tgt, baseTree, &opts)
		}
		rep.Files = append(rep.Files, fr)
	}
	return rep, nil
}

// patch merges the successful translations of fr into its target file.
func patch(fr *FileReport, tgt target, template *localefile.Node, opts *Options) {
	if tgt.broken != nil {
		fr.WriteErr = fmt.Errorf("not patching unreadable file: %w", tgt.broken)
		opts.logError("%s: %v", fr.Path, fr.WriteErr)
		return
	}

	ok := make(map[string]string, len(fr.Translations))
	for k, v := range fr.Translations {
		if !IsSentinel(v) {
			ok[k] = v
		}
	}
	if len(ok) == 0 {
		return
	}

	tree := tgt.tree
	if tree == nil {
		tree = localefile.NewObject()
	}
	n, err := merge.Apply(tree, template, ok)
	if err != nil {
		opts.logError("%s: %v", fr.Path, err)
	}
	if n == 0 {
		return
	}
	if err := tree.WriteFile(fr.Path); err != nil {
		fr.WriteErr = fmt.Errorf("writing file: %w", err)
		opts.logError("%s: %v", fr.Path, fr.WriteErr)
		return
	}
	fr.Written = n
	opts.log("%s: wrote %d translation(s)", fr.Path, n)
}
