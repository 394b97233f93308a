// Package cmd provides the mindmap CLI commands.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/danimelchor/mindmap-go/internal/config"
	"github.com/danimelchor/mindmap-go/internal/logging"
	"github.com/danimelchor/mindmap-go/pkg/version"
)

var (
	logLevel  string
	logToTerm bool
)

// NewRootCmd builds the mindmap root command and registers its subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mindmap",
		Short:   "Personal semantic search over your Markdown notes",
		Version: version.Version,
		Long: `mindmap keeps a local vector index of your Markdown notes in sync as
you edit them, and answers nearest-neighbor queries against it.

Run 'mindmap setup' once to create a config file, then 'mindmap watch' to
start indexing and 'mindmap query' to search.`,
	}

	cmd.SetVersionTemplate("mindmap version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&logToTerm, "log-to-stderr", false, "also write logs to stderr")

	cmd.AddCommand(newSetupCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newRecomputeAllCmd())
	cmd.AddCommand(newRecomputeFileCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newServerCmd())

	return cmd
}

// loadConfig loads the config document, returning a clear error if setup
// hasn't been run yet.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// setupLogging opens the configured log file and returns the logger plus
// its cleanup func.
func setupLogging(cfg *config.Config) (*slog.Logger, func(), error) {
	return logging.Setup(logging.Config{
		Level:         logLevel,
		FilePath:      cfg.LogPath,
		WriteToStderr: logToTerm,
	})
}
