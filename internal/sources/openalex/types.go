package openalex

import (
	"sort"
	"strings"
)

// listResponse is the envelope for /works list queries.
type listResponse struct {
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
	Results []Work `json:"results"`
}

// Work represents an OpenAlex work.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"` // "https://doi.org/10.xxxx/..."
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	Authorships           []Authorship     `json:"authorships"`
	CitedByCount          int              `json:"cited_by_count"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	PrimaryLocation       *Location        `json:"primary_location"`
	IDs                   struct {
		OpenAlex string `json:"openalex"`
		DOI      string `json:"doi"`
	} `json:"ids"`
}

// Authorship links a work to one author.
type Authorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

// Location describes where a work is hosted.
type Location struct {
	LandingPageURL string `json:"landing_page_url"`
	Source         *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

// reconstructAbstract rebuilds the abstract text from OpenAlex's inverted
// index, which maps each word to the positions where it occurs.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	type positioned struct {
		pos  int
		word string
	}
	var words []positioned
	for word, positions := range index {
		for _, pos := range positions {
			words = append(words, positioned{pos: pos, word: word})
		}
	}

	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.word
	}
	return strings.Join(parts, " ")
}
