package semanticscholar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibguard/bibguard/internal/domain"
)

const paperJSON = `{
  "paperId": "204e3073870fae3d05bcbc2f6a8e263d9b72e776",
  "title": "Attention Is All You Need",
  "abstract": "The dominant sequence transduction models...",
  "year": 2017,
  "venue": "Neural Information Processing Systems",
  "citationCount": 90000,
  "url": "https://www.semanticscholar.org/paper/204e",
  "authors": [
    {"name": "Ashish Vaswani"},
    {"name": "Noam Shazeer"}
  ],
  "externalIds": {"DOI": "10.5555/3295222.3295349", "ArXiv": "1706.03762"}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, Enabled: true, RequestInterval: 1})
}

func TestClient_FetchByID(t *testing.T) {
	t.Run("parses a paper into a record", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/paper/204e", r.URL.Path)
			assert.Equal(t, paperFields, r.URL.Query().Get("fields"))
			w.Write([]byte(paperJSON))
		})

		record, err := client.FetchByID(context.Background(), "204e")
		require.NoError(t, err)

		assert.Equal(t, "semantic_scholar", record.Source)
		assert.Equal(t, "Attention Is All You Need", record.Title)
		assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, record.Authors)
		assert.Equal(t, "2017", record.Year)
		assert.Equal(t, "10.5555/3295222.3295349", record.DOI)
		assert.Equal(t, "1706.03762", record.ArXivID)
		assert.Equal(t, "Neural Information Processing Systems", record.Venue)
		assert.Equal(t, 90000, record.CitationCount)
	})

	t.Run("bare arXiv id gets the arXiv prefix", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/paper/arXiv:1706.03762", r.URL.Path)
			w.Write([]byte(paperJSON))
		})

		_, err := client.FetchByID(context.Background(), "1706.03762")
		require.NoError(t, err)
	})

	t.Run("legacy arXiv id gets the prefix too", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/paper/arXiv:cs/0112017", r.URL.Path)
			w.Write([]byte(paperJSON))
		})

		_, err := client.FetchByID(context.Background(), "cs/0112017")
		require.NoError(t, err)
	})

	t.Run("already prefixed id passes through", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/paper/CorpusID:13756489", r.URL.Path)
			w.Write([]byte(paperJSON))
		})

		_, err := client.FetchByID(context.Background(), "CorpusID:13756489")
		require.NoError(t, err)
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.FetchByID(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("429 maps to rate limited", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.FetchByID(context.Background(), "204e")
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})
}

func TestClient_FetchByDOI(t *testing.T) {
	t.Run("uses the DOI alias route", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/paper/DOI:10.5555/3295222.3295349", r.URL.Path)
			w.Write([]byte(paperJSON))
		})

		record, err := client.FetchByDOI(context.Background(), "10.5555/3295222.3295349")
		require.NoError(t, err)
		assert.Equal(t, "Attention Is All You Need", record.Title)
	})

	t.Run("empty doi is invalid input", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.FetchByDOI(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestClient_SearchByTitle(t *testing.T) {
	t.Run("queries the search route with a limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/paper/search", r.URL.Path)
			assert.Equal(t, "attention is all you need", r.URL.Query().Get("query"))
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"total": 1, "data": [` + paperJSON + `]}`))
		}))
		t.Cleanup(server.Close)
		client := New(Config{BaseURL: server.URL, Enabled: true, RequestInterval: 1, MaxResults: 3})

		records, err := client.SearchByTitle(context.Background(), "attention is all you need")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Attention Is All You Need", records[0].Title)
	})

	t.Run("untitled papers are skipped", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"total": 2, "data": [{"title": " "}, ` + paperJSON + `]}`))
		})

		records, err := client.SearchByTitle(context.Background(), "attention")
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("api key is sent as x-api-key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.Header.Get("x-api-key"))
			w.Write([]byte(`{"total": 0, "data": []}`))
		}))
		t.Cleanup(server.Close)
		client := New(Config{BaseURL: server.URL, Enabled: true, RequestInterval: 1, APIKey: "secret"})

		_, err := client.SearchByTitle(context.Background(), "anything")
		require.NoError(t, err)
	})
}

func TestLooksLikeArXivID(t *testing.T) {
	cases := map[string]bool{
		"1706.03762":    true,
		"2005.14165":    true,
		"2301.0000001":  false, // too many digits after the dot
		"cs/0112017":    true,
		"10.1/x":        false,
		"DOI:10.1/x":    false,
		"arXiv:1706.03": false,
		"204e3073":      false,
	}
	for id, want := range cases {
		assert.Equal(t, want, looksLikeArXivID(id), id)
	}
}
