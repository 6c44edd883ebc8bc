package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v2"

	"scorecards/internal/model"
)

// RenderOutcomes 输出单文档处理结果（classify 命令）
func RenderOutcomes(w io.Writer, outcomes []model.DocumentOutcome, format Format) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, outcomes)
	case FormatYAML:
		return encodeYAML(w, outcomes)
	case FormatText, "":
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tFORMAT\tRULE\tFACILITY\tPERIOD\tCATEGORIES\tITEMS\tSCORE\tISSUES")
	for _, o := range outcomes {
		if o.Failed() {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\terror: %s\n", o.Path, o.Format, o.Error)
			continue
		}
		rec := o.Record
		rule := o.Rule
		if rule == "" {
			rule = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%d\n",
			o.Path, o.Format, rule, valueOr(rec.FacilityName, "-"), rec.ReviewPeriod,
			len(rec.Categories), rec.ItemCount(), scoreText(rec), len(o.Issues))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range outcomes {
		for _, issue := range o.Issues {
			fmt.Fprintf(w, "  %s: [%s] %s\n", o.Path, issue.Code, issue.Message)
		}
	}
	return nil
}

// RenderBatches 输出导入批次列表
func RenderBatches(w io.Writer, batches []*model.ImportBatch, format Format) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, batches)
	case FormatYAML:
		return encodeYAML(w, batches)
	case FormatText, "":
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tROOT\tFILES\tSUCCESS\tFAILED\tISSUES\tCREATED")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%d\t%d\t%s\n",
			b.ID, b.Status, b.RootPath, b.ProcessedFiles, b.TotalFiles,
			b.SuccessCount, b.FailedCount, b.IssueCount, b.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// RenderBatch 输出单个批次详情及其记分卡
func RenderBatch(w io.Writer, b *model.ImportBatch, cards []model.StoredScorecard, format Format) error {
	detail := struct {
		Batch      *model.ImportBatch      `json:"batch" yaml:"batch"`
		Scorecards []model.StoredScorecard `json:"scorecards" yaml:"scorecards"`
	}{b, cards}

	switch format {
	case FormatJSON:
		return encodeJSON(w, detail)
	case FormatYAML:
		return encodeYAML(w, detail)
	case FormatText, "":
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}

	if err := RenderBatches(w, []*model.ImportBatch{b}, FormatText); err != nil {
		return err
	}
	if b.ErrorMessage != "" {
		fmt.Fprintf(w, "error: %s\n", b.ErrorMessage)
	}
	for _, msg := range b.ErrorLog {
		fmt.Fprintf(w, "failed: %s\n", msg)
	}
	if len(cards) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tFORMAT\tCOMPANY\tFACILITY\tPERIOD\tSCORE\tISSUES")
	for _, sc := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			sc.Path, sc.Format, sc.Company, sc.Facility, sc.Record.ReviewPeriod, scoreText(&sc.Record), len(sc.Issues))
	}
	return tw.Flush()
}

func scoreText(rec *model.ScorecardRecord) string {
	if rec.TotalMaxPoints == 0 && rec.TotalScore == 0 {
		return "-"
	}
	return fmt.Sprintf("%g/%g", rec.TotalScore, rec.TotalMaxPoints)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}
