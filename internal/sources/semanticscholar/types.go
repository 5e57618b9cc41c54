package semanticscholar

// searchResponse is the envelope for /paper/search responses.
type searchResponse struct {
	Total int     `json:"total"`
	Data  []Paper `json:"data"`
}

// Paper represents a Semantic Scholar Graph API paper.
type Paper struct {
	PaperID       string            `json:"paperId"`
	Title         string            `json:"title"`
	Abstract      string            `json:"abstract"`
	Year          int               `json:"year"`
	Venue         string            `json:"venue"`
	CitationCount int               `json:"citationCount"`
	URL           string            `json:"url"`
	Authors       []Author          `json:"authors"`

	// RawExternalIDs holds externalIds without type coercion; values can be
	// strings (DOI, ArXiv) or numbers (CorpusId).
	RawExternalIDs map[string]any `json:"externalIds"`
}

// Author represents a paper author.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// ExternalID returns the external identifier under key ("DOI", "ArXiv"),
// or "" when absent or non-string.
func (p *Paper) ExternalID(key string) string {
	if v, ok := p.RawExternalIDs[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
