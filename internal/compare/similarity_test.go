package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinSimilarity(t *testing.T) {
	t.Run("identical strings score 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, LevenshteinSimilarity("attention is all you need", "attention is all you need"))
	})

	t.Run("empty strings score 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, LevenshteinSimilarity("", ""))
	})

	t.Run("disjoint strings score near zero", func(t *testing.T) {
		sim := LevenshteinSimilarity("aaaa", "zzzz")
		assert.InDelta(t, 0.0, sim, 0.01)
	})

	t.Run("one empty side scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, LevenshteinSimilarity("", "abc"))
	})

	t.Run("single edit on long string scores high", func(t *testing.T) {
		sim := LevenshteinSimilarity("deep residual learning", "deep residual learnings")
		assert.Greater(t, sim, 0.9)
	})
}

func TestTokenSetRatio(t *testing.T) {
	t.Run("word order does not matter", func(t *testing.T) {
		assert.Equal(t, 1.0, TokenSetRatio("need you all is attention", "attention is all you need"))
	})

	t.Run("identical strings score 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, TokenSetRatio("bert pretraining of deep bidirectional transformers", "bert pretraining of deep bidirectional transformers"))
	})

	t.Run("subtitle suffix still scores high", func(t *testing.T) {
		sim := TokenSetRatio(
			"bert pretraining of deep bidirectional transformers",
			"bert pretraining of deep bidirectional transformers for language understanding",
		)
		assert.Greater(t, sim, 0.6)
	})

	t.Run("disjoint token sets score low", func(t *testing.T) {
		sim := TokenSetRatio("alpha beta gamma", "delta epsilon zeta")
		assert.Less(t, sim, 0.5)
	})

	t.Run("both empty score 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, TokenSetRatio("", ""))
	})

	t.Run("one empty side scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, TokenSetRatio("some title", ""))
	})
}

func TestTitleSimilarity(t *testing.T) {
	t.Run("case difference disappears after normalization", func(t *testing.T) {
		a := NormalizeForComparison("Attention Is All You Need")
		b := NormalizeForComparison("Attention is all you need")
		assert.Equal(t, 1.0, TitleSimilarity(a, b))
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		a := NormalizeForComparison("Language Models are Few-Shot Learners")
		b := NormalizeForComparison("Language models are few shot learners")
		first := TitleSimilarity(a, b)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, TitleSimilarity(a, b))
		}
	})
}

func TestNormalizeForComparison(t *testing.T) {
	t.Run("folds case and punctuation", func(t *testing.T) {
		assert.Equal(t, "attention is all you need", NormalizeForComparison("Attention Is All You Need!"))
	})

	t.Run("strips diacritics", func(t *testing.T) {
		assert.Equal(t, "godel escher bach", NormalizeForComparison("Gödel, Escher, Bach"))
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "a b c", NormalizeForComparison("  a \t b\n  c "))
	})
}

func TestNormalizeAuthorName(t *testing.T) {
	t.Run("reorders family comma given", func(t *testing.T) {
		assert.Equal(t, "ashish vaswani", NormalizeAuthorName("Vaswani, Ashish"))
	})

	t.Run("keeps given family order", func(t *testing.T) {
		assert.Equal(t, "ashish vaswani", NormalizeAuthorName("Ashish Vaswani"))
	})

	t.Run("drops periods from initials", func(t *testing.T) {
		assert.Equal(t, "a vaswani", NormalizeAuthorName("Vaswani, A."))
	})

	t.Run("comma with empty given part keeps family", func(t *testing.T) {
		assert.Equal(t, "vaswani", NormalizeAuthorName("Vaswani,"))
	})
}

func TestNormalizeAuthorList(t *testing.T) {
	t.Run("splits on and separator", func(t *testing.T) {
		names := NormalizeAuthorList("Vaswani, A. and Shazeer, N. and Parmar, Niki")
		assert.Equal(t, []string{"a vaswani", "n shazeer", "niki parmar"}, names)
	})

	t.Run("empty field yields nil", func(t *testing.T) {
		assert.Nil(t, NormalizeAuthorList("   "))
	})
}
