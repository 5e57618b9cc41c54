package compare

import (
	"fmt"
	"strings"

	"github.com/bibguard/bibguard/internal/domain"
)

// Matching thresholds.
const (
	// TitleThreshold is the minimum title similarity for a title match.
	TitleThreshold = 0.8

	// AuthorThreshold is the minimum mean author similarity for an author match.
	AuthorThreshold = 0.6
)

// Comparator compares bibliography entries with fetched metadata records.
// The zero value is ready to use.
type Comparator struct{}

// NewComparator creates a Comparator.
func NewComparator() *Comparator {
	return &Comparator{}
}

// Compare scores entry against record field by field and returns the
// structured result. The computation is deterministic: identical inputs
// always produce an identical result.
func (c *Comparator) Compare(entry *domain.BibEntry, record *domain.Record) *domain.ComparisonResult {
	var issues []string

	bibTitleNorm := NormalizeForComparison(entry.Title)
	fetchedTitleNorm := NormalizeForComparison(record.Title)

	titleSimilarity := TitleSimilarity(bibTitleNorm, fetchedTitleNorm)
	titleMatch := titleSimilarity >= TitleThreshold
	if !titleMatch {
		issues = append(issues, fmt.Sprintf("Title mismatch (similarity: %.2f%%)", titleSimilarity*100))
	}

	bibAuthors := NormalizeAuthorList(entry.Author)
	fetchedAuthors := NormalizeNames(record.Authors)

	authorSimilarity := CompareAuthorLists(bibAuthors, fetchedAuthors)
	authorMatch := authorSimilarity >= AuthorThreshold
	if !authorMatch {
		issues = append(issues, fmt.Sprintf("Author mismatch (similarity: %.2f%%)", authorSimilarity*100))
	}

	bibYear := strings.TrimSpace(entry.Year)
	fetchedYear := strings.TrimSpace(record.Year)
	yearMatch := bibYear == fetchedYear
	if !yearMatch && bibYear != "" && fetchedYear != "" {
		issues = append(issues, fmt.Sprintf("Year mismatch: bib=%s, %s=%s", bibYear, record.Source, fetchedYear))
	}

	return &domain.ComparisonResult{
		EntryKey:         entry.Key,
		TitleMatch:       titleMatch,
		TitleSimilarity:  titleSimilarity,
		BibTitle:         entry.Title,
		FetchedTitle:     record.Title,
		AuthorMatch:      authorMatch,
		AuthorSimilarity: authorSimilarity,
		BibAuthors:       bibAuthors,
		FetchedAuthors:   fetchedAuthors,
		YearMatch:        yearMatch,
		BibYear:          bibYear,
		FetchedYear:      fetchedYear,
		IsMatch:          titleMatch && authorMatch,
		Confidence:       confidence(titleSimilarity, authorSimilarity, yearMatch),
		Issues:           issues,
		Source:           record.Source,
	}
}

// UnableResult builds the terminal result for an entry no provider could
// resolve. The reason is surfaced verbatim in reports.
func (c *Comparator) UnableResult(entry *domain.BibEntry, reason string) *domain.ComparisonResult {
	return &domain.ComparisonResult{
		EntryKey:   entry.Key,
		BibTitle:   entry.Title,
		BibAuthors: NormalizeAuthorList(entry.Author),
		BibYear:    strings.TrimSpace(entry.Year),
		Confidence: 0.0,
		Issues:     []string{reason},
		Source:     domain.SourceUnable,
	}
}

// confidence is the weighted composite score. A missing or mismatched year
// contributes half its weight rather than zero: year disagreement is weak
// negative evidence.
func confidence(titleSim, authorSim float64, yearMatch bool) float64 {
	yearComponent := 0.5
	if yearMatch {
		yearComponent = 1.0
	}
	return titleSim*0.5 + authorSim*0.3 + yearComponent*0.2
}

// CompareAuthorLists scores two normalized author lists. Each entry author
// is paired with its best-matching record author and the list score is the
// mean of those best matches. Two empty lists are trivially a match; one
// empty and one non-empty is a non-match.
func CompareAuthorLists(entryAuthors, recordAuthors []string) float64 {
	if len(entryAuthors) == 0 && len(recordAuthors) == 0 {
		return 1.0
	}
	if len(entryAuthors) == 0 || len(recordAuthors) == 0 {
		return 0.0
	}

	total := 0.0
	for _, a := range entryAuthors {
		best := 0.0
		for _, b := range recordAuthors {
			if surnamesMatch(a, b) {
				best = 1.0
				break
			}
			if sim := LevenshteinSimilarity(a, b); sim > best {
				best = sim
			}
		}
		total += best
	}
	return total / float64(len(entryAuthors))
}

// surnamesMatch reports whether two normalized names share a surname,
// checking both name-order conventions so "a vaswani" matches
// "ashish vaswani" and "vaswani ashish" alike.
func surnamesMatch(a, b string) bool {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}

	if wordsA[len(wordsA)-1] == wordsB[len(wordsB)-1] {
		return true
	}
	return wordsA[0] == wordsB[len(wordsB)-1] || wordsA[len(wordsA)-1] == wordsB[0]
}
