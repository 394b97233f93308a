package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/lock"
	"github.com/danimelchor/mindmap-go/internal/nnindex"
	"github.com/danimelchor/mindmap-go/internal/output"
	"github.com/danimelchor/mindmap-go/internal/server"
	"github.com/danimelchor/mindmap-go/internal/store"
)

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve k-NN queries over HTTP",
		Long: `Loads the full corpus from the vector store into an in-memory NN index
and answers GET / (with a "q" query parameter) and GET /rebuild over a
minimal HTTP/1.1 connection per request.`,
		RunE: runServer,
	}
	return cmd
}

func runServer(cmd *cobra.Command, _ []string) error {
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

	l := lock.New(cfg.Server.LockPath)
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

	state := &server.State{
		Store:      st,
		Encoder:    encode.NewHashEncoder(),
		Index:      nnindex.New(),
		NumResults: cfg.NumResults,
		Logger:     logger,
	}

	if err := state.Rebuild(cmd.Context()); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv, err := server.New(addr, state)
	if err != nil {
		return err
	}

	out.Success("serving on " + addr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return srv.Serve(ctx)
}
