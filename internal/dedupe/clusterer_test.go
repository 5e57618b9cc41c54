package dedupe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibguard/bibguard/internal/domain"
)

func TestClusterer_Cluster(t *testing.T) {
	clusterer := NewClusterer()

	t.Run("identical normalized titles group together", func(t *testing.T) {
		entries := []*domain.BibEntry{
			{Key: "vaswani2017", Title: "Attention Is All You Need"},
			{Key: "he2016", Title: "Deep Residual Learning for Image Recognition"},
			{Key: "vaswani2017b", Title: "Attention is all you need"},
		}

		groups := clusterer.Cluster(entries)

		require.Len(t, groups, 1)
		require.Len(t, groups[0].Entries, 2)
		assert.Equal(t, "vaswani2017", groups[0].Entries[0].Key)
		assert.Equal(t, "vaswani2017b", groups[0].Entries[1].Key)
		assert.Equal(t, ReasonTitle, groups[0].Reason)
		assert.Equal(t, 1.0, groups[0].SimilarityScore)
	})

	t.Run("shared doi links entries with different titles", func(t *testing.T) {
		entries := []*domain.BibEntry{
			{Key: "a", Title: "Attention Is All You Need", DOI: "10.5555/3295222.3295349"},
			{Key: "b", Title: "Transformers (NeurIPS 2017)", DOI: "10.5555/3295222.3295349"},
		}

		groups := clusterer.Cluster(entries)

		require.Len(t, groups, 1)
		assert.Equal(t, ReasonDOI, groups[0].Reason)
	})

	t.Run("doi comparison ignores case", func(t *testing.T) {
		entries := []*domain.BibEntry{
			{Key: "a", Title: "Paper One", DOI: "10.1234/ABC"},
			{Key: "b", Title: "Something Completely Different", DOI: "10.1234/abc"},
		}

		groups := clusterer.Cluster(entries)
		require.Len(t, groups, 1)
		assert.Equal(t, ReasonDOI, groups[0].Reason)
	})

	t.Run("shared arxiv id links entries", func(t *testing.T) {
		entries := []*domain.BibEntry{
			{Key: "a", Title: "Attention Is All You Need", ArXivID: "1706.03762"},
			{Key: "b", Title: "Attention Models for Machine Translation", ArXivID: "1706.03762"},
		}

		groups := clusterer.Cluster(entries)

		require.Len(t, groups, 1)
		assert.Equal(t, ReasonArXivID, groups[0].Reason)
	})

	t.Run("doi outranks arxiv id for the group reason", func(t *testing.T) {
		entries := []*domain.BibEntry{
			{Key: "a", Title: "Paper A", DOI: "10.1/x", ArXivID: "1706.03762"},
			{Key: "b", Title: "Paper B Entirely Unrelated", DOI: "10.1/x", ArXivID: "1706.03762"},
		}

		groups := clusterer.Cluster(entries)
		require.Len(t, groups, 1)
		assert.Equal(t, ReasonDOI, groups[0].Reason)
	})

	t.Run("transitive links form one group", func(t *testing.T) {
		// a~b by title, b~c by DOI: all three belong to one group even
		// though a and c share nothing directly.
		entries := []*domain.BibEntry{
			{Key: "a", Title: "Attention Is All You Need"},
			{Key: "b", Title: "Attention is all you need", DOI: "10.1/x"},
			{Key: "c", Title: "Self-Attention Networks", DOI: "10.1/x"},
		}

		groups := clusterer.Cluster(entries)

		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Entries, 3)
	})

	t.Run("similarity score is the weakest pair", func(t *testing.T) {
		entries := []*domain.BibEntry{
			{Key: "a", Title: "Attention Is All You Need"},
			{Key: "b", Title: "A Totally Different Title", DOI: "10.1/x"},
			{Key: "c", Title: "Attention is all you need", DOI: "10.1/x"},
		}

		groups := clusterer.Cluster(entries)

		require.Len(t, groups, 1)
		assert.Less(t, groups[0].SimilarityScore, 0.5)
	})

	t.Run("distinct papers stay ungrouped", func(t *testing.T) {
		entries := []*domain.BibEntry{
			{Key: "a", Title: "Attention Is All You Need", DOI: "10.1/a"},
			{Key: "b", Title: "Deep Residual Learning for Image Recognition", DOI: "10.1/b"},
			{Key: "c", Title: "BERT: Pre-training of Deep Bidirectional Transformers"},
		}

		assert.Empty(t, clusterer.Cluster(entries))
	})

	t.Run("empty titles never link by title", func(t *testing.T) {
		entries := []*domain.BibEntry{
			{Key: "a", Title: ""},
			{Key: "b", Title: ""},
		}
		assert.Empty(t, clusterer.Cluster(entries))
	})

	t.Run("fewer than two entries yields nothing", func(t *testing.T) {
		assert.Empty(t, clusterer.Cluster(nil))
		assert.Empty(t, clusterer.Cluster([]*domain.BibEntry{{Key: "only", Title: "T"}}))
	})

	t.Run("no entry appears in two groups", func(t *testing.T) {
		var entries []*domain.BibEntry
		for i := 0; i < 4; i++ {
			entries = append(entries, &domain.BibEntry{
				Key:   fmt.Sprintf("att%d", i),
				Title: "Attention Is All You Need",
			})
		}
		for i := 0; i < 3; i++ {
			entries = append(entries, &domain.BibEntry{
				Key:   fmt.Sprintf("res%d", i),
				Title: "Deep Residual Learning for Image Recognition",
				DOI:   "10.1109/CVPR.2016.90",
			})
		}

		groups := clusterer.Cluster(entries)

		require.Len(t, groups, 2)
		seen := make(map[string]int)
		for _, group := range groups {
			for _, entry := range group.Entries {
				seen[entry.Key]++
			}
		}
		for key, count := range seen {
			assert.Equal(t, 1, count, key)
		}
	})
}

func TestClusterer_ClusterBySize(t *testing.T) {
	clusterer := NewClusterer()

	entries := []*domain.BibEntry{
		{Key: "small1", Title: "Paper One", DOI: "10.1/one"},
		{Key: "small2", Title: "An Unrelated Survey", DOI: "10.1/one"},
		{Key: "big1", Title: "Attention Is All You Need"},
		{Key: "big2", Title: "Attention is all you need"},
		{Key: "big3", Title: "Attention is All you Need"},
	}

	groups := clusterer.ClusterBySize(entries)

	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Entries, 3)
	assert.Len(t, groups[1].Entries, 2)
}
