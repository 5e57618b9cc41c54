// Package report assembles verification results into a single report,
// renderable as Markdown for humans or serialized as JSON by the HTTP API.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/texparse"
)

// Summary aggregates per-entry verdicts.
type Summary struct {
	// Total is the number of bibliography entries checked.
	Total int `json:"total"`
	// Matched entries were verified against a provider record.
	Matched int `json:"matched"`
	// Mismatched entries resolved to a record that disagrees on at least
	// one gating field.
	Mismatched int `json:"mismatched"`
	// Unable entries could not be resolved by any provider.
	Unable int `json:"unable"`
}

// Report is the full output of one verification run.
type Report struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`
	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	Summary Summary `json:"summary"`

	// Results holds one comparison result per bibliography entry, in
	// bibliography order.
	Results []*domain.ComparisonResult `json:"results"`

	// Duplicates holds the duplicate groups found in the bibliography.
	Duplicates []*domain.DuplicateGroup `json:"duplicates,omitempty"`

	// UnusedEntries are bibliography keys never cited in the document.
	UnusedEntries []string `json:"unused_entries,omitempty"`

	// MissingCitations are cited keys with no bibliography entry.
	MissingCitations []string `json:"missing_citations,omitempty"`
}

// Build assembles a report from the outputs of the individual stages.
// contexts may be nil when no document was supplied; usage sections are then
// omitted. duplicates may be nil when duplicate checking was skipped.
func Build(
	entries []*domain.BibEntry,
	results []*domain.ComparisonResult,
	duplicates []*domain.DuplicateGroup,
	contexts map[string][]domain.CitationContext,
) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Results:     results,
		Duplicates:  duplicates,
	}

	for _, result := range results {
		r.Summary.Total++
		switch {
		case result.IsMatch:
			r.Summary.Matched++
		case result.Source == domain.SourceUnable:
			r.Summary.Unable++
		default:
			r.Summary.Mismatched++
		}
	}

	if contexts != nil {
		cited := texparse.CitedKeys(contexts)
		for _, entry := range entries {
			if !cited[entry.Key] {
				r.UnusedEntries = append(r.UnusedEntries, entry.Key)
			}
		}
		r.MissingCitations = texparse.MissingEntries(contexts, entries)
	}

	return r
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Citation Verification Report\n\n")
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", r.RunID, r.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Entries | Verified | Mismatched | Unresolved |\n")
	fmt.Fprintf(&b, "|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n",
		r.Summary.Total, r.Summary.Matched, r.Summary.Mismatched, r.Summary.Unable)

	r.writeEntrySection(&b)
	r.writeDuplicateSection(&b)
	r.writeUsageSections(&b)

	return b.String()
}

// WriteFile writes the Markdown rendering to path.
func (r *Report) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown()), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func (r *Report) writeEntrySection(b *strings.Builder) {
	fmt.Fprintf(b, "## Entries\n\n")
	if len(r.Results) == 0 {
		fmt.Fprintf(b, "No entries checked.\n\n")
		return
	}

	for _, result := range r.Results {
		fmt.Fprintf(b, "### %s %s\n\n", verdictEmoji(result), result.EntryKey)

		switch {
		case result.IsMatch:
			fmt.Fprintf(b, "Verified against %s (confidence %.2f).\n", result.Source, result.Confidence)
		case result.Source == domain.SourceUnable:
			fmt.Fprintf(b, "Could not be resolved.\n")
		default:
			fmt.Fprintf(b, "Resolved via %s but metadata disagrees (confidence %.2f).\n",
				result.Source, result.Confidence)
		}

		if result.HasIssues() {
			fmt.Fprintf(b, "\n")
			for _, issue := range result.Issues {
				fmt.Fprintf(b, "- %s\n", issue)
			}
		}
		if !result.IsMatch && result.FetchedTitle != "" && result.FetchedTitle != result.BibTitle {
			fmt.Fprintf(b, "\nBibliography title: %q\n\nFetched title: %q\n", result.BibTitle, result.FetchedTitle)
		}
		fmt.Fprintf(b, "\n")
	}
}

func (r *Report) writeDuplicateSection(b *strings.Builder) {
	if len(r.Duplicates) == 0 {
		return
	}

	fmt.Fprintf(b, "## Duplicate entries\n\n")
	for i, group := range r.Duplicates {
		keys := make([]string, len(group.Entries))
		for j, entry := range group.Entries {
			keys[j] = "`" + entry.Key + "`"
		}
		fmt.Fprintf(b, "%d. %s — %s (similarity %.0f%%)\n",
			i+1, strings.Join(keys, ", "), group.Reason, group.SimilarityScore*100)
	}
	fmt.Fprintf(b, "\n")
}

func (r *Report) writeUsageSections(b *strings.Builder) {
	if len(r.UnusedEntries) > 0 {
		fmt.Fprintf(b, "## Unused bibliography entries\n\n")
		for _, key := range r.UnusedEntries {
			fmt.Fprintf(b, "- `%s`\n", key)
		}
		fmt.Fprintf(b, "\n")
	}

	if len(r.MissingCitations) > 0 {
		fmt.Fprintf(b, "## Citations without bibliography entries\n\n")
		for _, key := range r.MissingCitations {
			fmt.Fprintf(b, "- `%s`\n", key)
		}
		fmt.Fprintf(b, "\n")
	}
}

func verdictEmoji(result *domain.ComparisonResult) string {
	switch {
	case result.IsMatch:
		return "✅"
	case result.Source == domain.SourceUnable:
		return "❓"
	default:
		return "⚠️"
	}
}
