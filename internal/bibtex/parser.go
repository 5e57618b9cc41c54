// Package bibtex parses .bib files into domain.BibEntry values. It is the
// upstream bibliography collaborator for the resolution engine: a pragmatic
// brace-balanced scanner, not a full BibTeX implementation.
package bibtex

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bibguard/bibguard/internal/domain"
)

var (
	// arxivFromDOI matches DataCite arXiv DOIs like 10.48550/arXiv.1706.03762.
	arxivFromDOI = regexp.MustCompile(`(?i)10\.48550/arxiv\.(.+)$`)

	// arxivFromURL matches abs/pdf URLs like https://arxiv.org/abs/1706.03762v5.
	arxivFromURL = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/([^\s/]+?)(?:v\d+)?(?:\.pdf)?$`)

	// arxivFromJournal matches the "arXiv preprint arXiv:1706.03762" idiom.
	arxivFromJournal = regexp.MustCompile(`(?i)arxiv:\s*([0-9]{4}\.[0-9]{4,5}|[a-z-]+(?:\.[A-Z]{2})?/[0-9]{7})`)
)

// ParseFile parses the .bib file at path.
func ParseFile(path string) ([]*domain.BibEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bib file: %w", err)
	}
	return Parse(string(data))
}

// Parse parses BibTeX source into entries, preserving file order.
// @comment, @preamble, and @string blocks are skipped. Malformed blocks are
// skipped rather than failing the whole file.
func Parse(content string) ([]*domain.BibEntry, error) {
	var entries []*domain.BibEntry

	pos := 0
	for {
		at := strings.IndexByte(content[pos:], '@')
		if at < 0 {
			break
		}
		pos += at + 1

		entryType, rest, ok := readEntryType(content[pos:])
		if !ok {
			continue
		}
		pos += rest

		lowered := strings.ToLower(entryType)
		if lowered == "comment" || lowered == "preamble" || lowered == "string" {
			continue
		}

		body, consumed, ok := readBalanced(content[pos:])
		if !ok {
			continue
		}
		pos += consumed

		entry := parseEntryBody(lowered, body)
		if entry != nil {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// readEntryType reads the entry type up to the opening brace and returns the
// type, the offset of the brace, and whether the block looks like an entry.
func readEntryType(s string) (string, int, bool) {
	for i, r := range s {
		if r == '{' {
			name := strings.TrimSpace(s[:i])
			return name, i, isWord(name)
		}
		if i > 64 {
			return "", 0, false
		}
	}
	return "", 0, false
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// readBalanced consumes a brace-balanced block starting at '{' and returns
// its inner content and the number of bytes consumed.
func readBalanced(s string) (string, int, bool) {
	if len(s) == 0 || s[0] != '{' {
		return "", 0, false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:i], i + 1, true
			}
		}
	}
	return "", 0, false
}

// parseEntryBody splits "key, field = value, ..." into a BibEntry.
func parseEntryBody(entryType, body string) *domain.BibEntry {
	comma := strings.IndexByte(body, ',')
	if comma < 0 {
		return nil
	}
	key := strings.TrimSpace(body[:comma])
	if key == "" {
		return nil
	}

	fields := parseFields(body[comma+1:])

	entry := &domain.BibEntry{
		Key:       key,
		EntryType: entryType,
		Title:     fields["title"],
		Author:    fields["author"],
		Year:      fields["year"],
		DOI:       fields["doi"],
		URL:       fields["url"],
		Abstract:  fields["abstract"],
		Fields:    fields,
	}
	entry.ArXivID = extractArXivID(fields)
	return entry
}

// parseFields parses "name = {value}, name = "value", name = bare" pairs.
func parseFields(s string) map[string]string {
	fields := make(map[string]string)

	i := 0
	for i < len(s) {
		// Field name.
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			break
		}
		name := strings.ToLower(strings.TrimSpace(strings.Trim(s[i:i+eq], ", \t\r\n")))
		i += eq + 1

		// Skip whitespace before the value.
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
			i++
		}
		if i >= len(s) {
			break
		}

		var value string
		switch s[i] {
		case '{':
			inner, consumed, ok := readBalanced(s[i:])
			if !ok {
				return fields
			}
			value = inner
			i += consumed
		case '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return fields
			}
			value = s[i+1 : i+1+end]
			i += end + 2
		default:
			end := strings.IndexAny(s[i:], ",\n")
			if end < 0 {
				end = len(s) - i
			}
			value = s[i : i+end]
			i += end
		}

		if name != "" {
			fields[name] = cleanValue(value)
		}

		// Skip the field separator.
		if next := strings.IndexByte(s[i:], ','); next >= 0 {
			i += next + 1
		} else {
			break
		}
	}

	return fields
}

// cleanValue removes protective braces and collapses whitespace.
func cleanValue(v string) string {
	v = strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		return r
	}, v)
	return strings.Join(strings.Fields(v), " ")
}

// extractArXivID finds an arXiv identifier in eprint, doi, url, or journal
// fields. Returns "" when the entry carries none.
func extractArXivID(fields map[string]string) string {
	prefix := strings.ToLower(fields["archiveprefix"])
	if prefix == "" {
		prefix = strings.ToLower(fields["eprinttype"])
	}
	if eprint := strings.TrimSpace(fields["eprint"]); eprint != "" {
		if prefix == "" || prefix == "arxiv" {
			return strings.TrimPrefix(strings.TrimPrefix(eprint, "arXiv:"), "arxiv:")
		}
	}

	if m := arxivFromDOI.FindStringSubmatch(fields["doi"]); m != nil {
		return m[1]
	}
	if m := arxivFromURL.FindStringSubmatch(fields["url"]); m != nil {
		return m[1]
	}
	for _, f := range []string{"journal", "howpublished", "note"} {
		if m := arxivFromJournal.FindStringSubmatch(fields[f]); m != nil {
			return m[1]
		}
	}
	return ""
}
