package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/index"
	"github.com/danimelchor/mindmap-go/internal/store"
)

func newTestWatcher(t *testing.T, root string) (*Watcher, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "mindmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ix := index.New(st, block.NewMarkdownExtractor(), encode.NewHashEncoder(), nil, nil)
	w, err := New(root, ix, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, st
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcherIndexesCreatedFile(t *testing.T) {
	root := t.TempDir()
	w, st := newTestWatcher(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	path := filepath.Join(root, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\nbody text\n"), 0o644))

	waitFor(t, 2*time.Second, func() bool {
		rows, err := st.GetAll(context.Background())
		return err == nil && len(rows) > 0
	})
}

func TestWatcherReindexesOnWrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("# One\nfirst\n"), 0o644))

	w, st := newTestWatcher(t, root)
	// The watcher only reacts to events, so index the pre-existing file
	// directly before starting it.
	_, err := w.indexer.ReindexFile(context.Background(), path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool {
		c, err := st.CountByPath(context.Background(), path)
		return err == nil && c == 1
	})

	require.NoError(t, os.WriteFile(path, []byte("# One\nfirst\n\n# Two\nsecond\n"), 0o644))

	waitFor(t, 2*time.Second, func() bool {
		c, err := st.CountByPath(context.Background(), path)
		return err == nil && c == 2
	})
}

func TestWatcherDeletesOnRemove(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\nbody\n"), 0o644))

	w, st := newTestWatcher(t, root)
	// The watcher only reacts to events, so index the pre-existing file
	// directly before starting it.
	_, err := w.indexer.ReindexFile(context.Background(), path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool {
		c, err := st.CountByPath(context.Background(), path)
		return err == nil && c == 1
	})

	require.NoError(t, os.Remove(path))

	waitFor(t, 2*time.Second, func() bool {
		c, err := st.CountByPath(context.Background(), path)
		return err == nil && c == 0
	})
}

func TestWatcherIgnoresNonMarkdownFiles(t *testing.T) {
	root := t.TempDir()
	w, st := newTestWatcher(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "note.md"), []byte("# Title\nbody\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("ignored"), 0o644))

	waitFor(t, 2*time.Second, func() bool {
		rows, err := st.GetAll(context.Background())
		return err == nil && len(rows) == 1
	})

	rows, err := st.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStateStartsIdle(t *testing.T) {
	root := t.TempDir()
	w, _ := newTestWatcher(t, root)
	assert.Equal(t, StateIdle, w.State())
}
