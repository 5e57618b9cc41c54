// Package texparse extracts citation commands and their surrounding textual
// context from LaTeX sources.
package texparse

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bibguard/bibguard/internal/domain"
)

const (
	// contextWindowLines is how many raw lines around the citation line are
	// gathered before sentence splitting.
	contextWindowLines = 10

	// contextSentences is how many sentences are kept on each side of the
	// citation's own line.
	contextSentences = 2
)

// citeRegex matches the whole citation command family: \cite, \citep, \citet,
// natbib starred/optional-argument variants, and biblatex forms such as
// \autocite and \parencite. Group 1 is the command name, group 2 the
// comma-separated key list.
var citeRegex = regexp.MustCompile(`(?i)\\(cite[a-z]*|autocite|textcite|parencite|footcite|supercite|fullcite|shortcite)\*?\s*(?:\[[^\]]*\])?\s*(?:\[[^\]]*\])?\s*\{([^}]+)\}`)

// latexCommandRegex strips command tokens while keeping their surrounding text.
var latexCommandRegex = regexp.MustCompile(`\\[a-zA-Z]+\*?(?:\[[^\]]*\])*\s*`)

// Extractor scans LaTeX text for citation commands and builds sentence-window
// contexts around each citation site. Extraction is a pure function of the
// input text: repeated runs return identical contexts.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads path and extracts citations from its contents.
func (e *Extractor) ExtractFile(path string) (map[string][]domain.CitationContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tex file: %w", err)
	}
	contexts := e.Extract(string(data))
	for key := range contexts {
		for i := range contexts[key] {
			contexts[key][i].FilePath = path
		}
	}
	return contexts, nil
}

// Extract scans the document line by line and returns, for each citation key,
// the ordered contexts where it is cited. A document without citations
// returns an empty map, not an error.
func (e *Extractor) Extract(content string) map[string][]domain.CitationContext {
	lines := strings.Split(content, "\n")
	citations := make(map[string][]domain.CitationContext)

	for i, line := range lines {
		lineNum := i + 1

		if strings.HasPrefix(strings.TrimSpace(line), "%") {
			continue
		}
		scannable := stripInlineComment(line)

		for _, match := range citeRegex.FindAllStringSubmatch(scannable, -1) {
			command := match[1]
			before, current, after := e.contextAround(lines, lineNum)

			for _, key := range strings.Split(match[2], ",") {
				key = strings.TrimSpace(key)
				if key == "" {
					continue
				}

				full := strings.TrimSpace(strings.Join(nonEmpty(before, current, after), " "))
				citations[key] = append(citations[key], domain.CitationContext{
					Key:           key,
					LineNumber:    lineNum,
					Command:       `\` + command,
					ContextBefore: before,
					ContextAfter:  after,
					FullContext:   full,
					RawLine:       line,
				})
			}
		}
	}

	return citations
}

// CitedKeys returns the set of all keys cited in the extraction result.
func CitedKeys(contexts map[string][]domain.CitationContext) map[string]bool {
	keys := make(map[string]bool, len(contexts))
	for k := range contexts {
		keys[k] = true
	}
	return keys
}

// MissingEntries returns cited keys that have no bibliography entry,
// in first-citation order.
func MissingEntries(contexts map[string][]domain.CitationContext, entries []*domain.BibEntry) []string {
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.Key] = true
	}

	type firstUse struct {
		key  string
		line int
	}
	var missing []firstUse
	for key, ctxs := range contexts {
		if !known[key] && len(ctxs) > 0 {
			missing = append(missing, firstUse{key: key, line: ctxs[0].LineNumber})
		}
	}

	// Stable output order: by first citation line, then key.
	for i := 1; i < len(missing); i++ {
		for j := i; j > 0; j-- {
			a, b := missing[j-1], missing[j]
			if b.line < a.line || (b.line == a.line && b.key < a.key) {
				missing[j-1], missing[j] = b, a
			} else {
				break
			}
		}
	}

	keys := make([]string, len(missing))
	for i, m := range missing {
		keys[i] = m.key
	}
	return keys
}

// contextAround builds the cleaned sentence windows for a citation on the
// given 1-based line. Citations at the start or end of the document truncate
// gracefully.
func (e *Extractor) contextAround(lines []string, lineNum int) (before, current, after string) {
	start := lineNum - 1 - contextWindowLines
	if start < 0 {
		start = 0
	}
	end := lineNum + contextWindowLines
	if end > len(lines) {
		end = len(lines)
	}

	beforeClean := cleanText(strings.Join(lines[start:lineNum-1], " "))
	current = cleanText(lines[lineNum-1])
	afterClean := cleanText(strings.Join(lines[lineNum:end], " "))

	beforeSentences := splitSentences(beforeClean)
	if n := len(beforeSentences); n > contextSentences {
		beforeSentences = beforeSentences[n-contextSentences:]
	}
	afterSentences := splitSentences(afterClean)
	if len(afterSentences) > contextSentences {
		afterSentences = afterSentences[:contextSentences]
	}

	return strings.Join(beforeSentences, " "), current, strings.Join(afterSentences, " ")
}

// stripInlineComment removes everything from the first unescaped % onward.
func stripInlineComment(line string) string {
	escaped := false
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			return line[:i]
		}
	}
	return line
}

// cleanText strips LaTeX commands and braces but preserves words, then
// normalizes whitespace.
func cleanText(text string) string {
	text = latexCommandRegex.ReplaceAllString(text, " ")
	text = strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences splits on terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && (runes[i+1] == ' ' || runes[i+1] == '\t') {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
