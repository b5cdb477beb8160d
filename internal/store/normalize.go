package store

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultRelationType = "related_to"
	DefaultWeight       = 1.0
)

// NormalizeName returns the dedup key for an entity name: accents stripped,
// lowercased, inner whitespace collapsed and trimmed.
func NormalizeName(name string) string {
	// transform.Chain keeps internal buffers, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return strings.ToLower(strings.Join(strings.Fields(stripped), " "))
}

// CleanAliases trims aliases and drops blanks and repeated spellings,
// keeping the first occurrence of each.
func CleanAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	seen := make(map[string]struct{}, len(aliases))
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		key := NormalizeName(alias)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, alias)
	}
	return out
}

// EntityAliases cleans aliases and drops any that spell the entity's own
// name.
func EntityAliases(name string, aliases []string) []string {
	canonical := NormalizeName(name)
	cleaned := CleanAliases(aliases)
	out := cleaned[:0]
	for _, alias := range cleaned {
		if NormalizeName(alias) != canonical {
			out = append(out, alias)
		}
	}
	return out
}

// MergeInto folds a later sighting of the same entity into an existing row.
// Existing values win; aliases are unioned and missing description or
// property keys are filled in. It reports whether the entity changed.
func MergeInto(existing *Entity, in EntityInput) bool {
	changed := false

	seen := map[string]struct{}{existing.NormalizedName: {}}
	for _, alias := range existing.Aliases {
		seen[NormalizeName(alias)] = struct{}{}
	}
	for _, alias := range CleanAliases(in.Aliases) {
		key := NormalizeName(alias)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		existing.Aliases = append(existing.Aliases, alias)
		changed = true
	}

	if strings.TrimSpace(existing.Description) == "" && strings.TrimSpace(in.Description) != "" {
		existing.Description = strings.TrimSpace(in.Description)
		changed = true
	}

	for key, value := range in.Properties {
		if existing.Properties == nil {
			existing.Properties = map[string]any{}
		}
		if _, ok := existing.Properties[key]; ok {
			continue
		}
		existing.Properties[key] = value
		changed = true
	}

	return changed
}

// NormalizeRelationType converts a free-text label into lowercase
// snake_case, falling back to DefaultRelationType.
func NormalizeRelationType(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return DefaultRelationType
	}
	return b.String()
}

// ClampWeight maps a relationship weight into [0,1]. NaN becomes
// DefaultWeight; an explicit 0 is kept.
func ClampWeight(w float64) float64 {
	switch {
	case math.IsNaN(w):
		return DefaultWeight
	case w < 0:
		return 0
	case w > 1:
		return 1
	}
	return w
}
