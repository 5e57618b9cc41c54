// Package dedupe groups bibliography entries that likely describe the same
// work. Entries are linked by near-identical normalized titles or by a shared
// external identifier; connected components of the resulting graph become
// duplicate groups, so groups always partition the entry set.
package dedupe

import (
	"sort"
	"strings"

	"github.com/bibguard/bibguard/internal/compare"
	"github.com/bibguard/bibguard/internal/domain"
)

// TitleThreshold is the minimum normalized title similarity that links two
// entries. It sits well above the comparator's match threshold: merely
// related papers (surveys, follow-ups, venue variants of other works) should
// not cluster.
const TitleThreshold = 0.9

// Group reasons, in decreasing precedence.
const (
	ReasonDOI     = "identical DOI"
	ReasonArXivID = "identical arXiv ID"
	ReasonTitle   = "identical title"
	ReasonFuzzy   = "near-identical title"
)

// Clusterer finds duplicate groups in a set of bibliography entries.
// The zero value is ready to use.
type Clusterer struct{}

// NewClusterer creates a Clusterer.
func NewClusterer() *Clusterer {
	return &Clusterer{}
}

// Cluster groups entries describing the same work and returns one group per
// connected component of size two or more. Groups are ordered by the first
// appearance of any member in the input, and members within a group keep
// input order. Every entry appears in at most one group.
func (c *Clusterer) Cluster(entries []*domain.BibEntry) []*domain.DuplicateGroup {
	if len(entries) < 2 {
		return nil
	}

	normTitles := make([]string, len(entries))
	for i, entry := range entries {
		normTitles[i] = compare.NormalizeForComparison(entry.Title)
	}

	uf := newUnionFind(len(entries))
	// linkReason[i][j] records the signal that connected the pair, for the
	// group-level reason vote.
	linkReason := make(map[[2]int]string)

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			reason := pairReason(entries[i], entries[j], normTitles[i], normTitles[j])
			if reason == "" {
				continue
			}
			uf.union(i, j)
			linkReason[[2]int{i, j}] = reason
		}
	}

	// Collect components in first-appearance order.
	components := make(map[int][]int)
	var roots []int
	for i := range entries {
		root := uf.find(i)
		if _, ok := components[root]; !ok {
			roots = append(roots, root)
		}
		components[root] = append(components[root], i)
	}

	var groups []*domain.DuplicateGroup
	for _, root := range roots {
		members := components[root]
		if len(members) < 2 {
			continue
		}

		group := &domain.DuplicateGroup{
			Entries:         make([]*domain.BibEntry, 0, len(members)),
			SimilarityScore: 1.0,
			Reason:          groupReason(members, linkReason),
		}
		for _, idx := range members {
			group.Entries = append(group.Entries, entries[idx])
		}
		// Conservative floor: the weakest pair sets the score.
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				sim := compare.TitleSimilarity(normTitles[members[a]], normTitles[members[b]])
				if sim < group.SimilarityScore {
					group.SimilarityScore = sim
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// pairReason returns the strongest signal linking two entries, or "" when
// they do not link. Identifier matches outrank title matches.
func pairReason(a, b *domain.BibEntry, normTitleA, normTitleB string) string {
	if a.DOI != "" && b.DOI != "" && strings.EqualFold(strings.TrimSpace(a.DOI), strings.TrimSpace(b.DOI)) {
		return ReasonDOI
	}
	if a.HasArXiv() && b.HasArXiv() && strings.EqualFold(a.ArXivID, b.ArXivID) {
		return ReasonArXivID
	}
	if normTitleA == "" || normTitleB == "" {
		return ""
	}
	if normTitleA == normTitleB {
		return ReasonTitle
	}
	if compare.TitleSimilarity(normTitleA, normTitleB) >= TitleThreshold {
		return ReasonFuzzy
	}
	return ""
}

// groupReason picks the reason most pairs in the component share, breaking
// ties by signal precedence (DOI > arXiv ID > title).
func groupReason(members []int, linkReason map[[2]int]string) string {
	counts := make(map[string]int)
	for a := 0; a < len(members); a++ {
		for b := a + 1; b < len(members); b++ {
			i, j := members[a], members[b]
			if i > j {
				i, j = j, i
			}
			if reason, ok := linkReason[[2]int{i, j}]; ok {
				counts[reason]++
			}
		}
	}

	precedence := []string{ReasonDOI, ReasonArXivID, ReasonTitle, ReasonFuzzy}
	best := ReasonFuzzy
	bestCount := -1
	// Iterate in precedence order so equal counts resolve to the stronger
	// signal.
	for _, reason := range precedence {
		if counts[reason] > bestCount {
			best, bestCount = reason, counts[reason]
		}
	}
	return best
}

// unionFind is a classic disjoint-set forest with path compression and union
// by rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y int) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
}

// sortGroupsBySize is a helper for callers that want the largest groups
// first in reports.
func sortGroupsBySize(groups []*domain.DuplicateGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Entries) > len(groups[j].Entries)
	})
}

// ClusterBySize clusters entries and returns groups ordered largest first,
// the ordering reports use.
func (c *Clusterer) ClusterBySize(entries []*domain.BibEntry) []*domain.DuplicateGroup {
	groups := c.Cluster(entries)
	sortGroupsBySize(groups)
	return groups
}
