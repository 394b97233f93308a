package nnindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danimelchor/mindmap-go/internal/block"
)

func entry(path string, vector []float32) Entry {
	return Entry{
		Block:  block.Block{Path: path, StartLine: 1, EndLine: 1, Content: path},
		Vector: vector,
	}
}

func TestKNearestOnEmptyIndexReturnsEmpty(t *testing.T) {
	idx := New()
	results, err := idx.KNearest([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRebuildReplacesContents(t *testing.T) {
	idx := New()
	idx.Rebuild([]Entry{entry("a.md", []float32{1, 0, 0})})
	assert.Equal(t, 1, idx.Len())

	idx.Rebuild([]Entry{
		entry("b.md", []float32{0, 1, 0}),
		entry("c.md", []float32{0, 0, 1}),
	})
	assert.Equal(t, 2, idx.Len())

	results, err := idx.KNearest([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "a.md", r.Path)
	}
}

func TestKNearestOrdersByCosineSimilarity(t *testing.T) {
	idx := New()
	idx.Rebuild([]Entry{
		entry("close.md", []float32{1, 0.05, 0}),
		entry("far.md", []float32{0, 1, 0}),
		entry("exact.md", []float32{1, 0, 0}),
	})

	results, err := idx.KNearest([]float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "exact.md", results[0].Path)
	assert.Equal(t, "far.md", results[len(results)-1].Path)
}

func TestKNearestCapsAtCorpusSize(t *testing.T) {
	idx := New()
	idx.Rebuild([]Entry{
		entry("only.md", []float32{1, 0, 0}),
	})

	results, err := idx.KNearest([]float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestKNearestRejectsNonPositiveK(t *testing.T) {
	idx := New()
	idx.Rebuild([]Entry{entry("a.md", []float32{1, 0, 0})})
	_, err := idx.KNearest([]float32{1, 0, 0}, 0)
	assert.Error(t, err)
}
