package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danimelchor/mindmap-go/internal/config"
	"github.com/danimelchor/mindmap-go/internal/output"
)

func newSetupCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the mindmap config file",
		Long: `Interactively prompts for the notes directory, result count, minimum
score, server port, and embedding model, then writes
~/.config/mindmap/config.yaml. Use --yes to accept every default without
prompting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept defaults without prompting")
	return cmd
}

// runSetup walks the user through config creation. This is the one ambient
// concern implemented directly on bufio.Scanner rather than a third-party
// prompt library: no such library appears anywhere in the dependency
// corpus this module was built from.
func runSetup(cmd *cobra.Command, yes bool) error {
	out := output.New(cmd.OutOrStdout())
	in := bufio.NewScanner(cmd.InOrStdin())

	out.Status("", "mindmap setup")
	out.Newline()

	if config.Exists() {
		out.Warning("a config file already exists; this will overwrite it")
	}

	cfg, err := config.Default()
	if err != nil {
		return err
	}

	if !yes {
		cfg.DataDir = promptString(cmd, in, "Notes directory", cfg.DataDir)
		cfg.NumResults = promptInt(cmd, in, "Number of results", cfg.NumResults)
		cfg.MinScore = promptFloat(cmd, in, "Minimum score (0-1)", cfg.MinScore)
		cfg.Server.Port = promptInt(cmd, in, "Server port", cfg.Server.Port)
		cfg.Model.Kind = promptModelKind(cmd, in, cfg.Model.Kind)
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	path, err := config.Path()
	if err != nil {
		return err
	}

	out.Newline()
	out.Success("wrote " + path)
	return nil
}

func promptString(cmd *cobra.Command, in *bufio.Scanner, label, def string) string {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]: ", label, def)
	if !in.Scan() {
		return def
	}
	line := strings.TrimSpace(in.Text())
	if line == "" {
		return def
	}
	return line
}

func promptInt(cmd *cobra.Command, in *bufio.Scanner, label string, def int) int {
	text := promptString(cmd, in, label, strconv.Itoa(def))
	n, err := strconv.Atoi(text)
	if err != nil {
		return def
	}
	return n
}

func promptFloat(cmd *cobra.Command, in *bufio.Scanner, label string, def float64) float64 {
	text := promptString(cmd, in, label, strconv.FormatFloat(def, 'f', -1, 64))
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return def
	}
	return f
}

func promptModelKind(cmd *cobra.Command, in *bufio.Scanner, def config.ModelKind) config.ModelKind {
	out := output.New(cmd.OutOrStdout())
	out.Status("", "Available models:")
	for _, k := range config.AllModelKinds() {
		out.Status("", "  "+string(k))
	}
	text := promptString(cmd, in, "Model", string(def))
	k := config.ModelKind(strings.TrimSpace(text))
	if !k.Valid() {
		return def
	}
	return k
}
