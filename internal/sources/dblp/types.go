package dblp

import "encoding/json"

// searchResponse is the envelope for /search/publ/api?format=json responses.
type searchResponse struct {
	Result struct {
		Hits struct {
			Total string `json:"@total"`
			Hit   []Hit  `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

// Hit represents one publication hit.
type Hit struct {
	Info Info `json:"info"`
}

// Info carries the publication metadata.
type Info struct {
	Key     string     `json:"key"`
	Title   string     `json:"title"`
	Authors AuthorList `json:"authors"`
	Venue   string     `json:"venue"`
	Year    string     `json:"year"`
	Type    string     `json:"type"`
	DOI     string     `json:"doi"`
	URL     string     `json:"url"`
	EE      string     `json:"ee"`
}

// AuthorList absorbs DBLP's quirk of encoding a single author as an object
// and multiple authors as an array.
type AuthorList struct {
	Names []string
}

type dblpAuthor struct {
	Text string `json:"text"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AuthorList) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Author json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if len(wrapper.Author) == 0 {
		return nil
	}

	var many []dblpAuthor
	if err := json.Unmarshal(wrapper.Author, &many); err == nil {
		for _, author := range many {
			a.Names = append(a.Names, author.Text)
		}
		return nil
	}

	var one dblpAuthor
	if err := json.Unmarshal(wrapper.Author, &one); err != nil {
		return err
	}
	a.Names = append(a.Names, one.Text)
	return nil
}
