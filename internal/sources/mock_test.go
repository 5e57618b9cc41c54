package sources

import (
	"context"

	"github.com/bibguard/bibguard/internal/domain"
)

// mockAdapter is a configurable Adapter for tests.
type mockAdapter struct {
	name    string
	enabled bool

	record     *domain.Record
	candidates []*domain.Record
	err        error

	idCalls    int
	doiCalls   int
	titleCalls int
}

var _ Adapter = (*mockAdapter)(nil)

func (m *mockAdapter) FetchByID(ctx context.Context, id string) (*domain.Record, error) {
	m.idCalls++
	return m.record, m.err
}

func (m *mockAdapter) FetchByDOI(ctx context.Context, doi string) (*domain.Record, error) {
	m.doiCalls++
	return m.record, m.err
}

func (m *mockAdapter) SearchByTitle(ctx context.Context, title string) ([]*domain.Record, error) {
	m.titleCalls++
	return m.candidates, m.err
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) IsEnabled() bool { return m.enabled }
