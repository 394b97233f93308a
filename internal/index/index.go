// Package index implements the reindex protocol: turning a note file's
// content into stored, embedded blocks, and replaying that protocol over
// an entire notes directory.
package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/errs"
	"github.com/danimelchor/mindmap-go/internal/store"
)

// batchSize bounds how many rows are embedded and inserted per round trip
// to the encoder and store, so a single huge file doesn't hold a
// transaction open indefinitely.
const batchSize = 10

// Notifier tells a running server its index is stale and should rebuild.
// Implementations must not block the caller or propagate failure: a
// notification is fire-and-forget, per the rebuild protocol.
type Notifier interface {
	NotifyRebuild()
}

// NoopNotifier discards rebuild notifications. Used when no server is
// known to be running.
type NoopNotifier struct{}

// NotifyRebuild implements Notifier.
func (NoopNotifier) NotifyRebuild() {}

// Indexer extracts, embeds, and persists note blocks.
type Indexer struct {
	Store     *store.Store
	Extractor block.Extractor
	Encoder   encode.Encoder
	Notifier  Notifier
	Logger    *slog.Logger
}

// New returns an Indexer. If notifier is nil, rebuild notifications are
// dropped.
func New(st *store.Store, extractor block.Extractor, enc encode.Encoder, notifier Notifier, logger *slog.Logger) *Indexer {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{Store: st, Extractor: extractor, Encoder: enc, Notifier: notifier, Logger: logger}
}

// ReindexFile implements the per-file reindex protocol: extract blocks,
// delete the file's existing rows, embed and insert the new blocks batch
// by batch, and notify any running server. It returns the number of blocks
// written. The replacement is not atomic: the delete and each batch are
// separate transactions, so a reader can see the file partially indexed
// while this runs, and a failure part-way leaves the batches written so far.
func (ix *Indexer) ReindexFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, errs.Wrap(errs.KindIO, "failed to read file "+path, err)
	}

	blocks, err := ix.Extractor.Extract(ctx, path, content)
	if err != nil {
		return 0, errs.Wrap(errs.KindParse, "failed to extract blocks from "+path, err)
	}

	if err := ix.Store.DeleteByPath(ctx, path); err != nil {
		return 0, err
	}

	total, err := ix.embedAndInsert(ctx, path, blocks)
	if err != nil {
		return total, err
	}

	ix.Notifier.NotifyRebuild()
	return total, nil
}

// DeleteFile removes a file's blocks without reinserting anything, used
// when the watcher observes a file removal. It notifies any running
// server so the next query reflects the deletion.
func (ix *Indexer) DeleteFile(ctx context.Context, path string) error {
	if err := ix.Store.DeleteByPath(ctx, path); err != nil {
		return err
	}
	ix.Notifier.NotifyRebuild()
	return nil
}

// ReindexAll walks dataDir for Markdown files and reindexes each in turn.
// A single file's failure is logged and skipped rather than aborting the
// whole run: one malformed note should not block indexing the rest of the
// corpus. It returns the number of files successfully reindexed.
func (ix *Indexer) ReindexAll(ctx context.Context, dataDir string) (int, error) {
	if err := ix.Store.DeleteAll(ctx); err != nil {
		return 0, err
	}

	reindexed := 0
	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		if _, rerr := ix.reindexFileNoDelete(ctx, path); rerr != nil {
			ix.Logger.Warn("skipping file that failed to reindex",
				slog.String("path", path), slog.String("error", rerr.Error()))
			return nil
		}
		reindexed++
		return nil
	})
	if err != nil {
		return reindexed, errs.Wrap(errs.KindIO, "failed walking data directory "+dataDir, err)
	}

	ix.Notifier.NotifyRebuild()
	return reindexed, nil
}

// reindexFileNoDelete is ReindexFile without the leading DeleteByPath,
// since ReindexAll already truncated the table once up front, and without
// firing a rebuild notification per file (ReindexAll fires one at the end).
func (ix *Indexer) reindexFileNoDelete(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, errs.Wrap(errs.KindIO, "failed to read file "+path, err)
	}

	blocks, err := ix.Extractor.Extract(ctx, path, content)
	if err != nil {
		return 0, errs.Wrap(errs.KindParse, "failed to extract blocks from "+path, err)
	}

	return ix.embedAndInsert(ctx, path, blocks)
}

// embedAndInsert encodes blocks in batches of batchSize and inserts each
// batch in its own store transaction, returning the total rows written.
func (ix *Indexer) embedAndInsert(ctx context.Context, path string, blocks []block.Block) (int, error) {
	total := 0
	for start := 0; start < len(blocks); start += batchSize {
		end := start + batchSize
		if end > len(blocks) {
			end = len(blocks)
		}
		batch := blocks[start:end]

		texts := make([]string, len(batch))
		for i, b := range batch {
			texts[i] = b.Content
		}
		vectors, err := ix.Encoder.EncodeBatch(ctx, texts)
		if err != nil {
			return total, errs.Wrap(errs.KindEncode, "failed to encode blocks from "+path, err)
		}

		embedded := make([]block.EmbeddedBlock, len(batch))
		for i, b := range batch {
			embedded[i] = block.EmbeddedBlock{Block: b, Vector: vectors[i]}
		}
		if err := ix.Store.InsertMany(ctx, embedded); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}
