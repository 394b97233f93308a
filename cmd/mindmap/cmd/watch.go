package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/index"
	"github.com/danimelchor/mindmap-go/internal/lock"
	"github.com/danimelchor/mindmap-go/internal/output"
	"github.com/danimelchor/mindmap-go/internal/server"
	"github.com/danimelchor/mindmap-go/internal/store"
	"github.com/danimelchor/mindmap-go/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the notes directory and keep the index in sync",
		Long: `Acquires the watcher's exclusive lock, then reindexes any Markdown file
as soon as it is created or written, and drops the stored blocks of one
that is removed or renamed away. Runs until interrupted.`,
		RunE: runWatch,
	}
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	out := output.New(cmd.OutOrStdout())

	l := lock.New(cfg.Watcher.LockPath)
	if err := l.Acquire(cmd.OutOrStdout()); err != nil {
		return err
	}
	defer l.Release()

	stop := lock.ReleaseOnSignal(l)
	defer stop()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier := server.NewNotifyClient(cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port))
	ix := index.New(st, block.NewMarkdownExtractor(), encode.NewHashEncoder(), notifier, logger)

	w, err := watcher.New(cfg.DataDir, ix, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out.Success("watching " + cfg.DataDir)
	logger.Info("watcher started", slog.String("data_dir", cfg.DataDir))

	return w.Run(ctx)
}
