// Package compare implements fuzzy comparison between bibliography entries
// and normalized provider records: text normalization, string similarity,
// and the field-by-field comparator that produces ComparisonResults.
package compare

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics decomposes to NFD, removes combining marks, and recomposes.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeForComparison prepares a title (or any free text) for similarity
// scoring: case folded, diacritics stripped, punctuation collapsed to spaces,
// whitespace normalized.
func NormalizeForComparison(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if folded, _, err := transform.String(stripDiacritics, s); err == nil {
		s = folded
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// NormalizeAuthorName normalizes a single author name for comparison.
// "Family, Given" is reordered to "Given Family" before the usual folding,
// so both name-order conventions compare equal.
func NormalizeAuthorName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if idx := strings.Index(name, ","); idx >= 0 {
		last := strings.TrimSpace(name[:idx])
		first := strings.TrimSpace(name[idx+1:])
		if first != "" {
			name = first + " " + last
		} else {
			name = last
		}
	}

	return NormalizeForComparison(name)
}

// NormalizeAuthorList splits a raw BibTeX author field (names joined with
// " and ") and normalizes each name.
func NormalizeAuthorList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, " and ")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		n := NormalizeAuthorName(p)
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// NormalizeNames normalizes each name in a provider's author list.
func NormalizeNames(authors []string) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		n := NormalizeAuthorName(a)
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
