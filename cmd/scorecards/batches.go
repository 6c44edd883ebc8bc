package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scorecards/internal/report"
)

func newBatchesCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "batches [batch-id]",
		Short: "List import batches, or show one batch with its scorecards",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			format, err := a.outputFormat()
			if err != nil {
				return err
			}
			st, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if len(args) == 0 {
				batches, err := st.ListBatches(ctx, limit)
				if err != nil {
					return err
				}
				return report.RenderBatches(cmd.OutOrStdout(), batches, format)
			}

			id := args[0]
			if id == "last" {
				if id, err = st.LastBatchID(ctx); err != nil {
					return err
				}
				if id == "" {
					return fmt.Errorf("no finished import batch yet")
				}
			}
			batch, err := st.GetBatch(ctx, id)
			if err != nil {
				return err
			}
			cards, err := st.ListScorecards(ctx, id)
			if err != nil {
				return err
			}
			return report.RenderBatch(cmd.OutOrStdout(), batch, cards, format)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum batches to list (0 = all)")
	return cmd
}
