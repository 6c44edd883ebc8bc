package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"scorecards/internal/exporter"
	"scorecards/internal/importer"
	"scorecards/internal/report"
)

func newImportCmd(a *app) *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "import <root>",
		Short: "Process a directory and persist the results as an import batch",
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
			logger := a.logger(cfg)

			st, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			coordinator := importer.NewCoordinator(st, logger)
			events := coordinator.Import(cmd.Context(), importer.ImportOptions{
				Root:            args[0],
				Workers:         cfg.Scan.Workers,
				Extensions:      cfg.Scan.Extensions,
				CompanyKeywords: cfg.Companies.Keywords,
			})

			var (
				result  *importer.ImportResult
				failure error
			)
			for evt := range events {
				switch evt.Type {
				case "document":
					logger.Debug(evt.Message)
				case "warning":
					logger.Warn(evt.Message)
				case "done":
					result, _ = evt.Data.(*importer.ImportResult)
				case "error":
					result, _ = evt.Data.(*importer.ImportResult)
					failure = fmt.Errorf("import failed: %s", evt.Message)
				default:
					logger.Info(evt.Message)
				}
			}

			if result == nil || result.Report == nil {
				if failure != nil {
					return failure
				}
				return fmt.Errorf("import finished without a result")
			}

			logger.Info("import batch recorded",
				slog.String("batch_id", result.BatchID),
				slog.String("status", string(result.Status)))

			if xlsxPath != "" {
				if err := exporter.ExportFile(result.Report, xlsxPath, exporter.ExportOptions{}); err != nil {
					return err
				}
			}
			if err := report.Render(cmd.OutOrStdout(), result.Report, format); err != nil {
				return err
			}
			if format == report.FormatText {
				fmt.Fprintf(cmd.OutOrStdout(), "\nBatch %s: %s\n", result.BatchID, result.Status)
			}
			return failure
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report to an Excel workbook")
	return cmd
}
