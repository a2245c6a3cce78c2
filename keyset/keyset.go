// Package keyset computes key-set differences between flattened locale
// files: the union of all keys, per-language missing keys, and which files
// hold each key.
package keyset

import (
	"sort"

	"github.com/samber/lo"
)

// Union returns the sorted, de-duplicated union of all key lists.
func Union(lists ...[]string) []string {
	all := lo.Uniq(lo.Flatten(lists))
	sort.Strings(all)
	return all
}

// Missing returns the keys of all that are not in have, sorted
// lexicographically. It returns nil when nothing is missing.
func Missing(all, have []string) []string {
	present := toSet(have)
	missing := lo.Filter(all, func(k string, _ int) bool {
		_, ok := present[k]
		return !ok
	})
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return missing
}

// Diff returns baseline keys absent from target, sorted. The baseline is
// fixed rather than the union of all files.
func Diff(baseline, target []string) []string {
	return Missing(lo.Uniq(baseline), target)
}

// Presence maps every key to the sorted language codes whose files hold it.
func Presence(keysByLang map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for lang, keys := range keysByLang {
		for _, k := range lo.Uniq(keys) {
			out[k] = append(out[k], lang)
		}
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}

// Partial returns the sorted keys held by fewer than total files.
func Partial(presence map[string][]string, total int) []string {
	partial := lo.Filter(lo.Keys(presence), func(k string, _ int) bool {
		return len(presence[k]) < total
	})
	sort.Strings(partial)
	return partial
}

// Absent returns the sorted language codes of langs that are not in holders.
func Absent(langs, holders []string) []string {
	return Missing(langs, holders)
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
