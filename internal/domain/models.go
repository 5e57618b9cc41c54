// Package domain contains the core data model for bibliography verification:
// bibliography entries, citation contexts, normalized provider records,
// comparison results, and duplicate groups.
package domain

import "strings"

// SourceUnable is the source name used when no provider could resolve an entry.
const SourceUnable = "unable"

// BibEntry is a single bibliography entry parsed from a .bib file.
// Entries are immutable once parsed; the engine never mutates them.
type BibEntry struct {
	// Key is the unique citation key (e.g., "vaswani2017attention").
	Key string `json:"key"`

	// EntryType is the BibTeX entry type (article, book, inproceedings, ...).
	EntryType string `json:"entry_type"`

	// Title is the raw title field with braces removed.
	Title string `json:"title"`

	// Author is the raw author field, names joined with " and ".
	Author string `json:"author"`

	// Year is the publication year as written in the entry.
	Year string `json:"year"`

	// DOI is the DOI field if present.
	DOI string `json:"doi,omitempty"`

	// URL is the URL field if present.
	URL string `json:"url,omitempty"`

	// Abstract is the abstract field if present.
	Abstract string `json:"abstract,omitempty"`

	// ArXivID is the arXiv identifier, extracted from eprint/DOI/URL fields.
	ArXivID string `json:"arxiv_id,omitempty"`

	// Fields holds all remaining type-specific fields (journal, booktitle,
	// publisher, ...) keyed by lowercase field name.
	Fields map[string]string `json:"fields,omitempty"`
}

// HasArXiv reports whether the entry carries an arXiv identifier.
func (e *BibEntry) HasArXiv() bool {
	return e.ArXivID != ""
}

// AuthorNames splits the raw author field into individual names.
// BibTeX joins authors with " and ".
func (e *BibEntry) AuthorNames() []string {
	if strings.TrimSpace(e.Author) == "" {
		return nil
	}
	parts := strings.Split(e.Author, " and ")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// CitationContext is one citation site in a document, with the cleaned
// sentence windows surrounding it. Many contexts may exist per key.
type CitationContext struct {
	// Key is the citation key this context refers to.
	Key string `json:"key"`

	// LineNumber is the 1-based line of the citation command.
	LineNumber int `json:"line_number"`

	// Command is the citation command used (e.g., `\cite`, `\citep`).
	Command string `json:"command"`

	// ContextBefore holds the sentences preceding the citation line.
	ContextBefore string `json:"context_before"`

	// ContextAfter holds the sentences following the citation line.
	ContextAfter string `json:"context_after"`

	// FullContext is before + cleaned citation line + after.
	FullContext string `json:"full_context"`

	// RawLine is the unmodified source line containing the citation.
	RawLine string `json:"raw_line"`

	// FilePath is the source file the citation was found in, if known.
	FilePath string `json:"file_path,omitempty"`
}

// Record is the normalized metadata shape every source adapter returns.
// It is the contract that keeps the comparator source-agnostic.
type Record struct {
	// Source is the provider name this record came from.
	Source string `json:"source"`

	// Title is the paper title as reported by the provider.
	Title string `json:"title"`

	// Authors is the ordered author name list.
	Authors []string `json:"authors"`

	// Year is the publication year, or empty when unknown.
	Year string `json:"year"`

	// Abstract is the abstract text when the provider supplies one.
	Abstract string `json:"abstract,omitempty"`

	// DOI is the DOI when the provider supplies one.
	DOI string `json:"doi,omitempty"`

	// ArXivID is the arXiv identifier when applicable.
	ArXivID string `json:"arxiv_id,omitempty"`

	// Venue is the journal or conference name when known.
	Venue string `json:"venue,omitempty"`

	// CitationCount is the provider-reported citation count, if any.
	CitationCount int `json:"citation_count,omitempty"`

	// URL is the canonical URL for the paper at the provider.
	URL string `json:"url,omitempty"`
}

// ComparisonResult is the outcome of comparing a BibEntry against a Record.
type ComparisonResult struct {
	EntryKey string `json:"entry_key"`

	TitleMatch      bool    `json:"title_match"`
	TitleSimilarity float64 `json:"title_similarity"`
	BibTitle        string  `json:"bib_title"`
	FetchedTitle    string  `json:"fetched_title"`

	AuthorMatch      bool     `json:"author_match"`
	AuthorSimilarity float64  `json:"author_similarity"`
	BibAuthors       []string `json:"bib_authors"`
	FetchedAuthors   []string `json:"fetched_authors"`

	YearMatch   bool   `json:"year_match"`
	BibYear     string `json:"bib_year"`
	FetchedYear string `json:"fetched_year"`

	// IsMatch is true when both title and author checks pass. Year is
	// evidence but not gating: preprint vs camera-ready dating makes year
	// mismatches common on correct matches.
	IsMatch bool `json:"is_match"`

	// Confidence is the weighted composite score in [0,1].
	Confidence float64 `json:"confidence"`

	// Issues holds one human-readable string per failed sub-check. The
	// wording is surfaced verbatim by reports.
	Issues []string `json:"issues"`

	// Source is the provider name, or SourceUnable when no provider
	// resolved the entry.
	Source string `json:"source"`
}

// HasIssues reports whether any sub-check failed.
func (r *ComparisonResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// DuplicateGroup is a set of bibliography entries that likely describe the
// same work. Groups partition the entry set: an entry belongs to at most
// one group.
type DuplicateGroup struct {
	// Entries are the grouped entries, at least two.
	Entries []*BibEntry `json:"entries"`

	// SimilarityScore is the minimum pairwise title similarity among
	// members, a conservative floor.
	SimilarityScore float64 `json:"similarity_score"`

	// Reason names the signal that triggered grouping, e.g.
	// "identical DOI", "identical arXiv ID", "identical title".
	Reason string `json:"reason"`
}
