package bibtex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBib = `% reference list
@article{vaswani2017attention,
  title     = {Attention Is All You Need},
  author    = {Vaswani, Ashish and Shazeer, Noam},
  journal   = {arXiv preprint arXiv:1706.03762},
  year      = {2017},
}

@inproceedings{devlin2019bert,
  title         = {{BERT}: Pre-training of Deep Bidirectional Transformers},
  author        = {Devlin, Jacob and Chang, Ming-Wei},
  year          = 2019,
  eprint        = {1810.04805},
  archiveprefix = {arXiv},
}

@string{mlj = "Machine Learning Journal"}

@comment{this block is not an entry}

@article{brown2020gpt3,
  title  = "Language Models are Few-Shot Learners",
  author = "Brown, Tom B. and Mann, Benjamin",
  year   = "2020",
  url    = {https://arxiv.org/abs/2005.14165v4},
}

@article{he2016resnet,
  title  = {Deep Residual Learning for Image Recognition},
  author = {He, Kaiming},
  year   = {2016},
  doi    = {10.1109/CVPR.2016.90}
}
`

func TestParse(t *testing.T) {
	entries, err := Parse(sampleBib)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	t.Run("entries keep file order", func(t *testing.T) {
		keys := make([]string, len(entries))
		for i, e := range entries {
			keys[i] = e.Key
		}
		assert.Equal(t, []string{"vaswani2017attention", "devlin2019bert", "brown2020gpt3", "he2016resnet"}, keys)
	})

	t.Run("brace-delimited fields", func(t *testing.T) {
		e := entries[0]
		assert.Equal(t, "article", e.EntryType)
		assert.Equal(t, "Attention Is All You Need", e.Title)
		assert.Equal(t, "Vaswani, Ashish and Shazeer, Noam", e.Author)
		assert.Equal(t, "2017", e.Year)
	})

	t.Run("protective braces are stripped", func(t *testing.T) {
		assert.Equal(t, "BERT: Pre-training of Deep Bidirectional Transformers", entries[1].Title)
	})

	t.Run("quoted and bare values", func(t *testing.T) {
		assert.Equal(t, "Language Models are Few-Shot Learners", entries[2].Title)
		assert.Equal(t, "2019", entries[1].Year)
	})

	t.Run("string and comment blocks are skipped", func(t *testing.T) {
		for _, e := range entries {
			assert.NotEqual(t, "string", e.EntryType)
			assert.NotEqual(t, "comment", e.EntryType)
		}
	})

	t.Run("doi field is carried through", func(t *testing.T) {
		assert.Equal(t, "10.1109/CVPR.2016.90", entries[3].DOI)
	})

	t.Run("raw fields map retains every parsed field", func(t *testing.T) {
		assert.Equal(t, "arXiv preprint arXiv:1706.03762", entries[0].Fields["journal"])
	})
}

func TestParse_Malformed(t *testing.T) {
	t.Run("unclosed entry is skipped", func(t *testing.T) {
		entries, err := Parse("@article{broken, title = {never closed")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("entry without key is skipped", func(t *testing.T) {
		entries, err := Parse("@article{, title = {No Key}}")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("empty input yields no entries", func(t *testing.T) {
		entries, err := Parse("")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("stray at sign in prose is ignored", func(t *testing.T) {
		entries, err := Parse("contact me @ the office\n@article{ok, title = {Fine}}")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "ok", entries[0].Key)
	})
}

func TestExtractArXivID(t *testing.T) {
	entries, err := Parse(sampleBib)
	require.NoError(t, err)

	t.Run("from journal preprint idiom", func(t *testing.T) {
		assert.Equal(t, "1706.03762", entries[0].ArXivID)
	})

	t.Run("from eprint with archiveprefix", func(t *testing.T) {
		assert.Equal(t, "1810.04805", entries[1].ArXivID)
	})

	t.Run("from abs url with version suffix", func(t *testing.T) {
		assert.Equal(t, "2005.14165", entries[2].ArXivID)
	})

	t.Run("absent when entry has no arxiv trace", func(t *testing.T) {
		assert.Empty(t, entries[3].ArXivID)
	})

	t.Run("from datacite doi", func(t *testing.T) {
		got, err := Parse(`@misc{m, title={T}, doi={10.48550/arXiv.2203.02155}}`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "2203.02155", got[0].ArXivID)
	})

	t.Run("old-style identifier in note", func(t *testing.T) {
		got, err := Parse(`@misc{m, title={T}, note={arXiv:cs/0112017}}`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "cs/0112017", got[0].ArXivID)
	})
}
