package main

import (
	"fmt"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/engine"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/spf13/cobra"
)

func newPurgeCmd(a *app) *cobra.Command {
	var stages []string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop cached stage results",
		Long:  "Remove cached entries from the configured backend so the next build recomputes them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(stages) == 0 {
				stages = engine.Stages()
			}
			for _, stage := range stages {
				if !slices.Contains(engine.Stages(), stage) {
					return apperrors.NewConfigurationError("stage", stage, "unknown stage")
				}
			}

			store, err := cache.Open(cmd.Context(), a.cfg)
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			for _, stage := range stages {
				n, err := store.Purge(cmd.Context(), stage)
				if err != nil {
					return fmt.Errorf("purging %s: %w", stage, err)
				}
				fmt.Fprintf(w, "%-9s %d entries removed\n", stage, n)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&stages, "stage", nil, "stage to purge, repeatable (default: all)")

	return cmd
}
