package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
	"github.com/spf13/cobra"
)

const (
	booleanShown = 10
	nameWidth    = 50
)

// answerFunc answers one query line, writing results to w.
type answerFunc func(w io.Writer, query string) error

func newBooleanCmd(a *app) *cobra.Command {
	var query, indexPath string

	cmd := &cobra.Command{
		Use:   "boolean",
		Short: "Answer AND/OR/NOT queries",
		Long: "Evaluate term-logic queries left to right, for example\n" +
			"  golang AND meetup\n  python OR ruby NOT java\n" +
			"Without --query an interactive prompt is started.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var b *built
			if indexPath != "" {
				idx, err := index.ReadFile(indexPath)
				if err != nil {
					return err
				}
				m := metrics.New()
				b = &built{session: engine.NewSession(idx, nil, normalize.Simple{}, m), metrics: m}
			} else {
				var err error
				if b, err = a.buildSession(cmd.Context()); err != nil {
					return err
				}
			}
			answer := func(w io.Writer, q string) error {
				hits, elapsed, err := b.session.BooleanSearch(q)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%d documents (%v)\n", hits.Len(), elapsed.Round(time.Microsecond))
				ids := hits.Sorted()
				for _, id := range ids[:min(len(ids), booleanShown)] {
					fmt.Fprintf(w, "  [%s] %s\n", id, truncate(b.name(id), nameWidth))
				}
				if len(ids) > booleanShown {
					fmt.Fprintf(w, "  ... %d more\n", len(ids)-booleanShown)
				}
				return nil
			}
			return a.serve(cmd, b, query, answer)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "answer this query and exit")
	cmd.Flags().StringVar(&indexPath, "index", "", "load an index snapshot instead of building")

	return cmd
}

func newVectorCmd(a *app) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Rank documents by TF-IDF cosine similarity",
		Long:  "Rank every document against a free text query. Without --query an interactive prompt is started.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.buildSession(cmd.Context())
			if err != nil {
				return err
			}
			topK := b.session.DefaultTopK()
			answer := func(w io.Writer, q string) error {
				results, elapsed, err := b.session.VectorSearch(q, topK)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "top %d of %d documents (%v)\n", len(results), b.session.Model().CorpusSize(), elapsed.Round(time.Microsecond))
				for _, r := range results {
					fmt.Fprintf(w, "  score %.4f [%s] %s\n", r.Score, r.DocID, truncate(b.name(r.DocID), nameWidth))
				}
				return nil
			}
			return a.serve(cmd, b, query, answer)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "answer this query and exit")
	cmd.Flags().Int("top-k", 0, "number of results (overrides engine.topK)")
	cmd.Flags().Int("max-features", 0, "vocabulary size (overrides engine.maxFeatures)")

	return cmd
}

// serve answers query once when it is set and otherwise runs the
// interactive loop.
func (a *app) serve(cmd *cobra.Command, b *built, query string, answer answerFunc) error {
	out := cmd.OutOrStdout()
	if query != "" {
		return answer(out, query)
	}
	if a.cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(a.cfg.Metrics.Port, b.metrics)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Warn("metrics server shutdown", "error", err)
			}
		}()
	}
	return interactive(cmd.Context(), cmd.InOrStdin(), out, answer)
}

// interactive reads one query per line until exit, quit, :q or EOF. Query
// errors are printed and the loop continues.
func interactive(ctx context.Context, in io.Reader, out io.Writer, answer answerFunc) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "query> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit", ":q":
			return nil
		}
		if err := answer(out, line); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
