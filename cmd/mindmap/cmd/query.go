package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/format"
	"github.com/danimelchor/mindmap-go/internal/nnindex"
	"github.com/danimelchor/mindmap-go/internal/store"
)

func newQueryCmd() *cobra.Command {
	var formatName string
	var numResults int
	var minScore float64

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search the index for the nearest blocks to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], formatName, numResults, minScore)
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "", "output format: raw, list, or json")
	cmd.Flags().IntVar(&numResults, "num-results", 0, "override the configured result count")
	cmd.Flags().Float64Var(&minScore, "min-score", -1, "client-side max distance threshold; unset means unfiltered, matching the server")
	return cmd
}

func runQuery(cmd *cobra.Command, text, formatName string, numResults int, minScore float64) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := format.Parse(formatName)
	if err != nil {
		return err
	}

	if numResults <= 0 {
		numResults = cfg.NumResults
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.GetAll(cmd.Context())
	if err != nil {
		return err
	}

	idx := nnindex.New()
	entries := make([]nnindex.Entry, len(rows))
	for i, r := range rows {
		entries[i] = nnindex.Entry{
			Block:  block.Block{Path: r.Path, StartLine: r.StartLine, EndLine: r.EndLine, Content: r.Content},
			Vector: r.Vector,
		}
	}
	idx.Rebuild(entries)

	enc := encode.NewHashEncoder()
	vector, err := enc.Encode(cmd.Context(), text)
	if err != nil {
		return err
	}

	results, err := idx.KNearest(vector, numResults)
	if err != nil {
		return err
	}

	// The core never filters on distance; min-score is an optional
	// client-side threshold here, and it defaults to unfiltered so a
	// one-shot query matches the server's result set unless asked not to.
	if minScore >= 0 {
		filtered := make([]nnindex.Result, 0, len(results))
		for _, r := range results {
			if r.Distance <= minScore {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	rendered, err := format.Render(text, results, f)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
