package main

import (
	"github.com/spf13/cobra"

	"scorecards/internal/importer"
	"scorecards/internal/model"
	"scorecards/internal/report"
)

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>...",
		Short: "Classify, extract and validate individual workbooks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			format, err := a.outputFormat()
			if err != nil {
				return err
			}

			walker := importer.NewWalker(importer.WalkerOptions{
				CompanyKeywords: cfg.Companies.Keywords,
				Logger:          a.logger(cfg),
			})
			outcomes := make([]model.DocumentOutcome, 0, len(args))
			for _, path := range args {
				outcomes = append(outcomes, walker.ProcessDocument(path))
			}
			return report.RenderOutcomes(cmd.OutOrStdout(), outcomes, format)
		},
	}
}
