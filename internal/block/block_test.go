package block

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmptyFileYieldsNoBlocks(t *testing.T) {
	e := NewMarkdownExtractor()
	blocks, err := e.Extract(context.Background(), "empty.md", []byte("   \n  \n"))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestExtractHeaderSections(t *testing.T) {
	e := NewMarkdownExtractor()
	content := "# Title\nIntro line.\n\n## Sub\nBody line one.\nBody line two.\n"

	blocks, err := e.Extract(context.Background(), "note.md", []byte(content))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, 1, blocks[0].StartLine)
	assert.Equal(t, 3, blocks[0].EndLine)
	assert.Contains(t, blocks[0].Content, "# Title")

	assert.Equal(t, 4, blocks[1].StartLine)
	assert.Equal(t, 6, blocks[1].EndLine)
	assert.Contains(t, blocks[1].Content, "## Sub")
}

func TestExtractLeadingContentBeforeFirstHeader(t *testing.T) {
	e := NewMarkdownExtractor()
	content := "orphan line\n\n# Title\nbody\n"

	blocks, err := e.Extract(context.Background(), "note.md", []byte(content))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0].Content, "orphan line")
	assert.Contains(t, blocks[1].Content, "# Title")
}

func TestExtractNoHeadersSplitsByParagraph(t *testing.T) {
	e := NewMarkdownExtractor()
	content := "first paragraph\nstill first\n\nsecond paragraph\n"

	blocks, err := e.Extract(context.Background(), "note.md", []byte(content))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, 1, blocks[0].StartLine)
	assert.Equal(t, 2, blocks[0].EndLine)
	assert.Equal(t, 4, blocks[1].StartLine)
	assert.Equal(t, 4, blocks[1].EndLine)
}

func TestExtractAllLinesEveryBlockPathMatches(t *testing.T) {
	e := NewMarkdownExtractor()
	content := "# A\none\n\n# B\ntwo\n"
	blocks, err := e.Extract(context.Background(), "notes/x.md", []byte(content))
	require.NoError(t, err)
	for _, b := range blocks {
		assert.Equal(t, "notes/x.md", b.Path)
		assert.LessOrEqual(t, b.StartLine, b.EndLine)
	}
}
