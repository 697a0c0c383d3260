package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/index"
	"github.com/spf13/cobra"
)

func newBuildCmd(a *app) *cobra.Command {
	var indexOut string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index and model",
		Long:  "Run the corpus, normalize, index and model stages and print a summary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.buildSession(cmd.Context())
			if err != nil {
				return err
			}
			if indexOut != "" {
				if err := index.WriteFile(indexOut, b.session.Index()); err != nil {
					return err
				}
				slog.Info("index snapshot written", "path", indexOut)
			}
			printSummary(cmd.OutOrStdout(), b)
			return nil
		},
	}

	cmd.Flags().StringVar(&indexOut, "index-out", "", "write the index snapshot to this file")

	return cmd
}

func printSummary(w io.Writer, b *built) {
	s := b.summary
	fmt.Fprintf(w, "run %s\n", s.RunID)
	fmt.Fprintf(w, "files: %d loaded, %d failed\n", b.load.Loaded, b.load.Failed)
	fmt.Fprintf(w, "documents: %d received, %d rejected, %d indexed\n", s.Received, s.Rejected, s.Indexed)
	fmt.Fprintf(w, "terms: %d, vocabulary: %d\n", s.Terms, s.Vocabulary)
	for _, st := range append([]engine.StageSummary{b.loadRun}, s.Stages...) {
		status := "built"
		if st.CacheHit {
			status = "cached"
		}
		fmt.Fprintf(w, "  %-9s %-6s %s %v\n", st.Name, status, shortFingerprint(st.Fingerprint), st.Duration)
	}
	fmt.Fprintf(w, "elapsed: %v\n", s.Elapsed)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
