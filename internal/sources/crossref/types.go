package crossref

// worksResponse is the envelope for /works/{doi} responses.
type worksResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// searchResponse is the envelope for /works?query.title= responses.
type searchResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int    `json:"total-results"`
		Items        []Work `json:"items"`
	} `json:"message"`
}

// Work represents a CrossRef work record.
type Work struct {
	DOI            string      `json:"DOI"`
	Title          []string    `json:"title"`
	Author         []Author    `json:"author"`
	Issued         DateParts   `json:"issued"`
	PublishedPrint *DateParts  `json:"published-print"`
	ContainerTitle []string    `json:"container-title"`
	URL            string      `json:"URL"`
	Abstract       string      `json:"abstract"`
	IsReferencedBy int         `json:"is-referenced-by-count"`
	Type           string      `json:"type"`
	Score          float64     `json:"score"`
}

// Author represents a work author.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"` // used for consortia
}

// DateParts holds CrossRef's nested date representation, e.g.
// {"date-parts": [[2017, 6, 12]]}.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or 0 when absent.
func (d DateParts) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}
