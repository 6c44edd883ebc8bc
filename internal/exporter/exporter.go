package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"scorecards/internal/model"
	"scorecards/internal/report"
)

// 导出工作簿的 sheet 名
const (
	SheetSummary    = "Summary"
	SheetCompanies  = "Companies"
	SheetScorecards = "Scorecards"
	SheetIssues     = "Issues"
)

// ExportOptions 导出选项
type ExportOptions struct {
	Progress func(ProgressEvent)
}

// Export 将批次报告导出为 Excel 工作簿
func Export(r *model.BatchReport, opts ExportOptions) (*excelize.File, error) {
	if r == nil {
		return nil, fmt.Errorf("nil report")
	}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	steps := []struct {
		sheet string
		fill  func(*excelize.File, string, *model.BatchReport) error
	}{
		{SheetSummary, fillSummarySheet},
		{SheetCompanies, fillCompaniesSheet},
		{SheetScorecards, fillScorecardsSheet},
		{SheetIssues, fillIssuesSheet},
	}
	for i, step := range steps {
		reportProgress(opts.Progress, i*100/len(steps), step.sheet)
		if _, err := f.NewSheet(step.sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", step.sheet, err)
		}
		if err := step.fill(f, step.sheet, r); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to fill %s: %w", step.sheet, err)
		}
		if err := f.SetRowStyle(step.sheet, 1, 1, headerStyle); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	reportProgress(opts.Progress, 100, "done")
	return f, nil
}

// ExportFile 导出并保存到 path
func ExportFile(r *model.BatchReport, path string, opts ExportOptions) error {
	f, err := Export(r, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func fillSummarySheet(f *excelize.File, sheet string, r *model.BatchReport) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Root", r.Root},
		{"Documents", r.TotalFiles},
		{"Succeeded", r.SuccessCount},
		{"Failed", r.FailedCount},
		{"Issues", r.IssueCount},
		{"Duration (s)", roundHalfUp(r.Duration.Seconds(), 3)},
		{},
		{"Format", "Documents"},
	}
	for _, tag := range model.AllFormats() {
		rows = append(rows, []interface{}{string(tag), r.FormatCounts[tag]})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "B", 28)
}

func fillCompaniesSheet(f *excelize.File, sheet string, r *model.BatchReport) error {
	header := []interface{}{"Company"}
	for _, tag := range model.AllFormats() {
		header = append(header, string(tag))
	}
	header = append(header, "Total", "Primary Format", "Facilities")

	rows := [][]interface{}{header}
	for _, c := range report.Companies(r) {
		row := []interface{}{c.Company}
		for _, tag := range model.AllFormats() {
			row = append(row, c.FormatCounts[tag])
		}
		row = append(row, c.Documents, string(c.PrimaryFormat), len(c.Facilities))
		rows = append(rows, row)
	}
	return writeRows(f, sheet, rows)
}

func fillScorecardsSheet(f *excelize.File, sheet string, r *model.BatchReport) error {
	rows := [][]interface{}{{
		"Path", "Company", "Facility", "Format", "Rule", "Facility Name", "Period",
		"Total Score", "Total Max", "Score %", "Categories", "Items", "Issues", "Error",
	}}
	for _, o := range r.Outcomes {
		row := []interface{}{o.Path, o.Company, o.Facility, string(o.Format), o.Rule}
		if rec := o.Record; rec != nil {
			row = append(row,
				rec.FacilityName, rec.ReviewPeriod.String(),
				roundHalfUp(rec.TotalScore, 2), roundHalfUp(rec.TotalMaxPoints, 2), roundHalfUp(rec.ScorePercentage, 2),
				len(rec.Categories), rec.ItemCount(),
			)
		} else {
			row = append(row, "", "", nil, nil, nil, nil, nil)
		}
		row = append(row, len(o.Issues), o.Error)
		rows = append(rows, row)
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 60)
}

func fillIssuesSheet(f *excelize.File, sheet string, r *model.BatchReport) error {
	rows := [][]interface{}{{"Path", "Code", "Category", "Message"}}
	for _, o := range r.Outcomes {
		for _, issue := range o.Issues {
			rows = append(rows, []interface{}{o.Path, string(issue.Code), issue.Category, issue.Message})
		}
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 60)
}
