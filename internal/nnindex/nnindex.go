// Package nnindex maintains the in-memory nearest-neighbor index the
// server answers queries from. The index is always rebuilt wholesale from
// the vector store's current contents; it is never mutated incrementally,
// so a stale in-flight query never observes a half-updated graph.
package nnindex

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
)

// Entry is one embedded block as handed to Build/Rebuild.
type Entry struct {
	block.Block
	Vector []float32
}

// Result is one nearest-neighbor hit, carrying its cosine distance to the
// query (ascending: 0 is an exact match). The core never converts this to
// a similarity score or filters on it; that is left to formatters/clients.
type Result struct {
	block.Block
	Distance float64
}

// Index is a thread-safe, cosine-distance nearest-neighbor index over
// note blocks, backed by an in-memory HNSW graph.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	meta  map[uint64]block.Block
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		graph: newGraph(),
		meta:  make(map[uint64]block.Block),
	}
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return g
}

// Rebuild discards the current graph and constructs a fresh one from
// entries. This is the only way the index's contents ever change: there is
// no incremental Add, matching the whole-corpus rebuild this index
// performs after every reindex.
func (idx *Index) Rebuild(entries []Entry) {
	graph := newGraph()
	meta := make(map[uint64]block.Block, len(entries))

	for i, e := range entries {
		key := uint64(i)
		vec := encode.Normalize(e.Vector)
		graph.Add(hnsw.MakeNode(key, vec))
		meta[key] = e.Block
	}

	idx.mu.Lock()
	idx.graph = graph
	idx.meta = meta
	idx.mu.Unlock()
}

// Len returns the number of blocks currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.graph.Len()
}

// KNearest returns the k nearest blocks to query by cosine distance,
// ascending (closest first). If the corpus holds fewer than k blocks, all
// of them are returned. query is normalized before the search runs, so
// callers may pass a raw encoder output.
func (idx *Index) KNearest(query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph.Len() == 0 {
		return []Result{}, nil
	}

	normalized := encode.Normalize(query)
	nodes := idx.graph.Search(normalized, k)

	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		b, ok := idx.meta[node.Key]
		if !ok {
			continue
		}
		distance := idx.graph.Distance(normalized, node.Value)
		results = append(results, Result{Block: b, Distance: float64(distance)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	return results, nil
}
