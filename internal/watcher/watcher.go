// Package watcher keeps the vector store in sync with on-disk notes by
// reacting to filesystem events one at a time, in the order they arrive.
// Unlike a typical editor-facing file watcher, it does not debounce or
// coalesce events: every Markdown change triggers its own full reindex of
// that file before the next event is handled.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/danimelchor/mindmap-go/internal/errs"
	"github.com/danimelchor/mindmap-go/internal/index"
)

// State is the watcher's current activity, exposed for status reporting.
type State string

const (
	StateIdle       State = "idle"
	StateReindexing State = "reindexing"
	StateDeleting   State = "deleting"
)

// Watcher drives an Indexer from fsnotify events under a root directory.
type Watcher struct {
	root    string
	indexer *index.Indexer
	logger  *slog.Logger
	fsw     *fsnotify.Watcher

	mu    sync.Mutex
	state State
}

// New creates a Watcher over root. Callers must call Run to start
// processing events.
func New(root string, indexer *index.Indexer, logger *slog.Logger) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to resolve notes directory", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to create filesystem watcher", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{root: absRoot, indexer: indexer, logger: logger, fsw: fsw, state: StateIdle}, nil
}

// State reports what the watcher is currently doing.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Close stops watching and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run registers the root directory tree and processes events until ctx is
// canceled or the watcher is closed. Events are handled strictly one at a
// time: a later event for the same file is simply queued by fsnotify's
// channel and seen on the next loop iteration, never merged with an
// earlier one.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("filesystem watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(ctx, event.Name)
	case event.Op&fsnotify.Write != 0:
		w.handleWrite(ctx, event.Name)
	case event.Op&fsnotify.Remove != 0:
		w.handleRemove(ctx, event.Name)
	case event.Op&fsnotify.Rename != 0:
		// fsnotify reports a rename as the old path disappearing; the new
		// path, if still within the tree, arrives as its own Create.
		w.handleRemove(ctx, event.Name)
	case event.Op&fsnotify.Chmod != 0:
		// Permission changes don't affect indexed content.
	}
}

func (w *Watcher) handleCreate(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if info.IsDir() {
		if err := w.addRecursive(path); err != nil {
			w.logger.Warn("failed to watch new directory", slog.String("path", path), slog.String("error", err.Error()))
		}
		return
	}

	if !isMarkdown(path) {
		return
	}

	w.reindex(ctx, path)
}

func (w *Watcher) handleWrite(ctx context.Context, path string) {
	if !isMarkdown(path) {
		return
	}
	w.reindex(ctx, path)
}

func (w *Watcher) handleRemove(ctx context.Context, path string) {
	if !isMarkdown(path) {
		return
	}

	w.setState(StateDeleting)
	defer w.setState(StateIdle)

	if err := w.indexer.DeleteFile(ctx, path); err != nil {
		w.logger.Warn("failed to delete blocks for removed file", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (w *Watcher) reindex(ctx context.Context, path string) {
	w.setState(StateReindexing)
	defer w.setState(StateIdle)

	if _, err := w.indexer.ReindexFile(ctx, path); err != nil {
		w.logger.Warn("failed to reindex file", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// addRecursive registers root and every directory beneath it with
// fsnotify, which does not itself watch subdirectories of a watched
// directory.
func (w *Watcher) addRecursive(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if shouldIgnoreDir(filepath.Base(path)) && path != root {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return errs.Wrap(errs.KindIO, "failed to register watch on "+root, err)
	}
	return nil
}

func shouldIgnoreDir(name string) bool {
	return name == ".git"
}

func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}
