package schema

import (
	"regexp"
	"sort"
	"strings"
)

var (
	separatorRun = regexp.MustCompile(`[\s_\-]+`)
	nonAlnumRun  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Canonical normalizes a display name so equivalent spellings compare equal:
// "No-Power", "no_power" and "  NO  POWER " all become "no power".
func Canonical(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = separatorRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Slug is the file-system and cache identity of a business type.
// "Pools & Spas" and "pools_spas" share the slug "pools_spas".
func Slug(name string) string {
	s := nonAlnumRun.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(s, "_")
}

// SortBusinessTypes dedupes by slug and returns the names in canonical order.
// Merging always iterates business types in this order, which is what makes
// the merge output independent of how the caller listed them.
func SortBusinessTypes(types []string) []string {
	seen := make(map[string]bool, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		slug := Slug(t)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, strings.TrimSpace(t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Slug(out[i]) < Slug(out[j])
	})
	return out
}
