package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/index"
	"github.com/danimelchor/mindmap-go/internal/output"
	"github.com/danimelchor/mindmap-go/internal/server"
	"github.com/danimelchor/mindmap-go/internal/store"
)

func newRecomputeAllCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "recompute-all",
		Short: "Reindex every note from scratch",
		Long:  `Deletes every stored block and re-extracts, re-encodes, and re-inserts every Markdown file under the notes directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecomputeAll(cmd, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runRecomputeAll(cmd *cobra.Command, yes bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())

	if !yes {
		in := bufio.NewScanner(cmd.InOrStdin())
		out.Status("", fmt.Sprintf("this will recompute every block under %s. Continue? [y/N] ", cfg.DataDir))
		if !in.Scan() || !strings.EqualFold(strings.TrimSpace(in.Text()), "y") {
			out.Status("", "aborted")
			return nil
		}
	}

	logger, cleanup, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier := server.NewNotifyClient(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	ix := index.New(st, block.NewMarkdownExtractor(), encode.NewHashEncoder(), notifier, logger)

	n, err := ix.ReindexAll(cmd.Context(), cfg.DataDir)
	if err != nil {
		return err
	}

	out.Success(fmt.Sprintf("reindexed %d file(s)", n))
	return nil
}

func newRecomputeFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recompute-file <path>",
		Short: "Reindex a single note file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecomputeFile(cmd, args[0])
		},
	}
	return cmd
}

func runRecomputeFile(cmd *cobra.Command, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier := server.NewNotifyClient(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	ix := index.New(st, block.NewMarkdownExtractor(), encode.NewHashEncoder(), notifier, logger)

	n, err := ix.ReindexFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	out.Success(fmt.Sprintf("reindexed %d block(s) from %s", n, path))
	return nil
}
