package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/report"
	"github.com/bibguard/bibguard/internal/sources"
	"github.com/bibguard/bibguard/internal/verify"
	"github.com/bibguard/bibguard/internal/workflow"
)

type fixedAdapter struct {
	record domain.Record
}

func (f *fixedAdapter) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	return nil, nil
}

func (f *fixedAdapter) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	return nil, nil
}

func (f *fixedAdapter) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	r := f.record
	return []*domain.Record{&r}, nil
}

func (f *fixedAdapter) Name() string    { return "dblp" }
func (f *fixedAdapter) IsEnabled() bool { return true }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry := sources.NewRegistry()
	registry.Register(&fixedAdapter{record: domain.Record{
		Source:  "dblp",
		Title:   "Attention Is All You Need",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
		Year:    "2017",
	}})
	cascade := workflow.Config{Steps: []workflow.Step{
		{Name: "dblp", Adapter: "dblp", SearchType: workflow.SearchByTitle, Enabled: true},
	}}
	resolver := workflow.NewResolver(registry, zerolog.Nop(), nil)
	verifier := verify.NewService(resolver, cascade, zerolog.Nop(), nil)

	return NewServer(Config{Address: "127.0.0.1:0"}, verifier, zerolog.Nop())
}

const testBib = `@article{vaswani2017attention,
  title  = {Attention Is All You Need},
  author = {Vaswani, Ashish and Shazeer, Noam},
  year   = {2017}
}`

func TestVerifyHandler(t *testing.T) {
	srv := newTestServer(t)

	post := func(t *testing.T, target, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	t.Run("successful run returns the report", func(t *testing.T) {
		payload, err := json.Marshal(map[string]any{"bibliography": testBib})
		require.NoError(t, err)

		rec := post(t, "/api/v1/verify", string(payload))

		require.Equal(t, http.StatusOK, rec.Code)
		var rep report.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
		assert.Equal(t, 1, rep.Summary.Total)
		assert.Equal(t, 1, rep.Summary.Matched)
		assert.NotEmpty(t, rep.RunID)
	})

	t.Run("markdown format renders the report", func(t *testing.T) {
		payload, err := json.Marshal(map[string]any{"bibliography": testBib})
		require.NoError(t, err)

		rec := post(t, "/api/v1/verify?format=markdown", string(payload))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
		assert.Contains(t, rec.Body.String(), "# Citation Verification Report")
	})

	t.Run("missing bibliography is rejected", func(t *testing.T) {
		rec := post(t, "/api/v1/verify", `{"document": "\\cite{x}"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		rec := post(t, "/api/v1/verify", `{"bibliography": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bibliography without entries is a client error", func(t *testing.T) {
		rec := post(t, "/api/v1/verify", `{"bibliography": "no entries here"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("out of range workers is rejected", func(t *testing.T) {
		payload, err := json.Marshal(map[string]any{"bibliography": testBib, "workers": 1000})
		require.NoError(t, err)

		rec := post(t, "/api/v1/verify", string(payload))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
