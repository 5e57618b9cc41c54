package verify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/sources"
	"github.com/bibguard/bibguard/internal/workflow"
)

type fakeAdapter struct {
	candidates []*domain.Record
}

func (f *fakeAdapter) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	return nil, nil
}

func (f *fakeAdapter) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	return nil, nil
}

func (f *fakeAdapter) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	return f.candidates, nil
}

func (f *fakeAdapter) Name() string    { return "dblp" }
func (f *fakeAdapter) IsEnabled() bool { return true }

const sampleBib = `
@article{vaswani2017attention,
  title  = {Attention Is All You Need},
  author = {Vaswani, Ashish and Shazeer, Noam},
  year   = {2017}
}

@article{vaswani2017dup,
  title  = {Attention is all you need},
  author = {Vaswani, Ashish and Shazeer, Noam},
  year   = {2017}
}
`

const sampleTex = `
As shown in \cite{vaswani2017attention}, attention suffices.
Earlier work \cite{phantom2001} is not in the bibliography.
`

func newTestService() *Service {
	registry := sources.NewRegistry()
	registry.Register(&fakeAdapter{candidates: []*domain.Record{{
		Source:  "dblp",
		Title:   "Attention Is All You Need",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
		Year:    "2017",
	}}})

	cascade := workflow.Config{Steps: []workflow.Step{
		{Name: "dblp", Adapter: "dblp", SearchType: workflow.SearchByTitle, Enabled: true},
	}}

	resolver := workflow.NewResolver(registry, zerolog.Nop(), nil)
	return NewService(resolver, cascade, zerolog.Nop(), nil)
}

func TestService_Run(t *testing.T) {
	svc := newTestService()

	t.Run("full run produces report with usage and duplicates", func(t *testing.T) {
		rep, err := svc.Run(context.Background(), sampleBib, sampleTex, Options{CheckDuplicates: true})
		require.NoError(t, err)

		assert.Equal(t, 2, rep.Summary.Total)
		assert.Equal(t, 2, rep.Summary.Matched)

		require.Len(t, rep.Duplicates, 1)
		assert.Len(t, rep.Duplicates[0].Entries, 2)

		assert.Equal(t, []string{"vaswani2017dup"}, rep.UnusedEntries)
		assert.Equal(t, []string{"phantom2001"}, rep.MissingCitations)
	})

	t.Run("no document skips usage sections", func(t *testing.T) {
		rep, err := svc.Run(context.Background(), sampleBib, "", Options{})
		require.NoError(t, err)

		assert.Empty(t, rep.UnusedEntries)
		assert.Empty(t, rep.MissingCitations)
		assert.Empty(t, rep.Duplicates)
	})

	t.Run("empty bibliography is rejected", func(t *testing.T) {
		_, err := svc.Run(context.Background(), "just prose, no entries", "", Options{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
