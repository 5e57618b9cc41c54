package compare

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ShortTitleCutoff is the normalized-title length below which edit distance
// is also considered. Edit distance discriminates better on short titles;
// token overlap tolerates reordering and subtitle differences on long ones.
const ShortTitleCutoff = 100

// LevenshteinSimilarity returns an edit-distance-based similarity in [0,1].
// Two empty strings are identical (1.0).
func LevenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// TokenSetRatio computes a token-set similarity in [0,1]: the inputs are
// split into unique sorted tokens and compared as intersection vs each
// side's remainder, so word order and repeated words do not matter.
func TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1.0
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	var inter, onlyA, onlyB []string
	for t := range tokensA {
		if tokensB[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tokensB {
		if !tokensA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sectJoined := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sectJoined + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sectJoined + " " + strings.Join(onlyB, " "))

	best := LevenshteinSimilarity(sectJoined, combinedA)
	if s := LevenshteinSimilarity(sectJoined, combinedB); s > best {
		best = s
	}
	if s := LevenshteinSimilarity(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

// TitleSimilarity scores two normalized titles. It takes the maximum of the
// token-set ratio and, for short titles, the edit-distance similarity.
func TitleSimilarity(normA, normB string) float64 {
	sim := TokenSetRatio(normA, normB)
	if len(normA) < ShortTitleCutoff {
		if lev := LevenshteinSimilarity(normA, normB); lev > sim {
			sim = lev
		}
	}
	return sim
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}
