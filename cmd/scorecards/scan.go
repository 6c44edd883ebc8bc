package main

import (
	"github.com/spf13/cobra"

	"scorecards/internal/exporter"
	"scorecards/internal/importer"
	"scorecards/internal/report"
)

func newScanCmd(a *app) *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Classify and validate every scorecard under a directory without storing them",
		Args:  cobra.ExactArgs(1),
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
				Workers:         cfg.Scan.Workers,
				Extensions:      cfg.Scan.Extensions,
				CompanyKeywords: cfg.Companies.Keywords,
				Logger:          a.logger(cfg),
			})
			batch, err := walker.Run(cmd.Context(), args[0])
			if batch == nil {
				return err
			}

			if xlsxPath != "" {
				if exportErr := exporter.ExportFile(batch, xlsxPath, exporter.ExportOptions{}); exportErr != nil {
					return exportErr
				}
			}
			if renderErr := report.Render(cmd.OutOrStdout(), batch, format); renderErr != nil {
				return renderErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report to an Excel workbook")
	return cmd
}
