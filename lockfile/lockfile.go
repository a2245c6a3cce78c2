// Package lockfile implements .lokcheck.lock, a lock file that records the
// MD5 checksum of the baseline text behind every translation written by
// `lokcheck translate --write`.
//
// Existing values are never overwritten, so when the baseline text of a
// key changes later its machine translation silently goes out of date.
// The lock file lets `lokcheck audit` list those stale strings.
//
// The lock file is stored in the project root next to .lokcheck.yaml.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the lock file name.
const FileName = ".lokcheck.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the .lokcheck.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // target -> key -> md5

	path string
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, FileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d", path, lf.Version)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	lf.Version = Version
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksums
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// EntryContent builds the hashed content of a key/value pair. The key is
// included so that moving a text to another key counts as a change.
func EntryContent(key, value string) string {
	return key + "\x00" + value
}

// TargetKey builds the lock file key of a target file: its slash-separated
// path relative to rootDir, or the path itself if it is outside rootDir.
func TargetKey(rootDir, path string) string {
	rel, err := filepath.Rel(rootDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Record stores the checksums of the baseline texts a target was
// translated from. sources maps key -> baseline text.
func (lf *LockFile) Record(target string, sources map[string]string) {
	if len(sources) == 0 {
		return
	}
	if lf.Checksums[target] == nil {
		lf.Checksums[target] = make(map[string]string)
	}
	for key, text := range sources {
		lf.Checksums[target][key] = Hash(EntryContent(key, text))
	}
}

// IsChanged reports whether the baseline text of key differs from the one
// recorded for target. Unrecorded keys are not changed.
func (lf *LockFile) IsChanged(target, key, text string) bool {
	old, ok := lf.Checksums[target][key]
	if !ok {
		return false
	}
	return old != Hash(EntryContent(key, text))
}

// Stale returns the recorded keys of target whose baseline text has
// changed, sorted. baseline maps key -> current baseline text; recorded
// keys absent from it are ignored.
func (lf *LockFile) Stale(target string, baseline map[string]string) []string {
	var stale []string
	for key := range lf.Checksums[target] {
		text, ok := baseline[key]
		if ok && lf.IsChanged(target, key, text) {
			stale = append(stale, key)
		}
	}
	sort.Strings(stale)
	return stale
}

// Clean removes entries of target whose keys are no longer in the
// baseline. It returns the number of removed entries.
func (lf *LockFile) Clean(target string, currentKeys []string) int {
	existing := lf.Checksums[target]
	if existing == nil {
		return 0
	}

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}

	removed := 0
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
			removed++
		}
	}
	if len(existing) == 0 {
		delete(lf.Checksums, target)
	}
	return removed
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of targets and total keys in the lock file.
func (lf *LockFile) Stats() (targets, keys int) {
	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}
