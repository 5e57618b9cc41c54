package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibguard/bibguard/internal/domain"
)

func TestComparator_Compare(t *testing.T) {
	c := NewComparator()

	t.Run("matching entry and record", func(t *testing.T) {
		entry := &domain.BibEntry{
			Key:    "vaswani2017attention",
			Title:  "Attention Is All You Need",
			Author: "Vaswani, A. and Shazeer, N.",
			Year:   "2017",
		}
		record := &domain.Record{
			Source:  "arxiv",
			Title:   "Attention is all you need",
			Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
			Year:    "2017",
		}

		result := c.Compare(entry, record)

		assert.True(t, result.IsMatch)
		assert.True(t, result.TitleMatch)
		assert.True(t, result.AuthorMatch)
		assert.True(t, result.YearMatch)
		assert.GreaterOrEqual(t, result.Confidence, 0.95)
		assert.Empty(t, result.Issues)
		assert.Equal(t, "arxiv", result.Source)
	})

	t.Run("title mismatch is recorded with similarity percentage", func(t *testing.T) {
		entry := &domain.BibEntry{
			Key:    "wrong2020",
			Title:  "A Completely Different Subject Altogether",
			Author: "Smith, John",
			Year:   "2020",
		}
		record := &domain.Record{
			Source:  "crossref",
			Title:   "Neural Machine Translation by Jointly Learning to Align and Translate",
			Authors: []string{"John Smith"},
			Year:    "2020",
		}

		result := c.Compare(entry, record)

		assert.False(t, result.IsMatch)
		assert.False(t, result.TitleMatch)
		require.NotEmpty(t, result.Issues)
		assert.Contains(t, result.Issues[0], "Title mismatch (similarity:")
	})

	t.Run("year mismatch is evidence not gate", func(t *testing.T) {
		entry := &domain.BibEntry{
			Key:    "preprint2016",
			Title:  "Deep Residual Learning for Image Recognition",
			Author: "He, Kaiming",
			Year:   "2015",
		}
		record := &domain.Record{
			Source:  "semantic_scholar",
			Title:   "Deep Residual Learning for Image Recognition",
			Authors: []string{"Kaiming He"},
			Year:    "2016",
		}

		result := c.Compare(entry, record)

		assert.True(t, result.IsMatch, "year disagreement must not break the match")
		assert.False(t, result.YearMatch)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "Year mismatch: bib=2015, semantic_scholar=2016", result.Issues[0])
	})

	t.Run("missing year on either side is not penalized as an issue", func(t *testing.T) {
		entry := &domain.BibEntry{
			Key:    "noyear",
			Title:  "Some Paper",
			Author: "Doe, Jane",
		}
		record := &domain.Record{
			Source:  "dblp",
			Title:   "Some Paper",
			Authors: []string{"Jane Doe"},
			Year:    "2021",
		}

		result := c.Compare(entry, record)

		assert.False(t, result.YearMatch)
		assert.Empty(t, result.Issues)
	})

	t.Run("deterministic result across repeated calls", func(t *testing.T) {
		entry := &domain.BibEntry{
			Key:    "k",
			Title:  "Language Models are Few-Shot Learners",
			Author: "Brown, Tom and Mann, Benjamin",
			Year:   "2020",
		}
		record := &domain.Record{
			Source:  "openalex",
			Title:   "Language models are few-shot learners",
			Authors: []string{"Tom Brown", "Benjamin Mann"},
			Year:    "2020",
		}

		first := c.Compare(entry, record)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, c.Compare(entry, record))
		}
	})
}

func TestCompareAuthorLists(t *testing.T) {
	t.Run("both empty is a trivial match", func(t *testing.T) {
		assert.Equal(t, 1.0, CompareAuthorLists(nil, nil))
	})

	t.Run("one empty side is a non-match", func(t *testing.T) {
		assert.Equal(t, 0.0, CompareAuthorLists([]string{"jane doe"}, nil))
		assert.Equal(t, 0.0, CompareAuthorLists(nil, []string{"jane doe"}))
	})

	t.Run("surname match covers abbreviated given names", func(t *testing.T) {
		score := CompareAuthorLists([]string{"a vaswani"}, []string{"ashish vaswani"})
		assert.Equal(t, 1.0, score)
	})

	t.Run("reversed name order still matches on surname", func(t *testing.T) {
		score := CompareAuthorLists([]string{"vaswani ashish"}, []string{"ashish vaswani"})
		assert.Equal(t, 1.0, score)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		score := CompareAuthorLists([]string{"alice aardvark"}, []string{"zed zymurgy"})
		assert.Less(t, score, AuthorThreshold)
	})

	t.Run("mean over entry authors", func(t *testing.T) {
		score := CompareAuthorLists(
			[]string{"kaiming he", "totally unknown person"},
			[]string{"kaiming he"},
		)
		assert.Greater(t, score, 0.4)
		assert.Less(t, score, 1.0)
	})
}

func TestComparator_UnableResult(t *testing.T) {
	c := NewComparator()
	entry := &domain.BibEntry{Key: "ghost2022", Title: "Unfindable", Author: "Nobody, N.", Year: "2022"}

	result := c.UnableResult(entry, "Could not find paper in any provider")

	assert.Equal(t, domain.SourceUnable, result.Source)
	assert.False(t, result.IsMatch)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, []string{"Could not find paper in any provider"}, result.Issues)
	assert.Equal(t, "ghost2022", result.EntryKey)
}
