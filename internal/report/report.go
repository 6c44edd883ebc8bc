// Package report renders batch reports for the command line.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"scorecards/internal/model"
)

// Format 报告输出格式
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat 解析输出格式（不区分大小写，空串视为 text）
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported report format %q (want text, json or yaml)", s)
}

// CompanySummary 单个公司的汇总行
type CompanySummary struct {
	Company       string                  `json:"company" yaml:"company"`
	Documents     int                     `json:"documents" yaml:"documents"`
	FormatCounts  map[model.FormatTag]int `json:"formatCounts" yaml:"format_counts"`
	PrimaryFormat model.FormatTag         `json:"primaryFormat" yaml:"primary_format"`
	Facilities    []string                `json:"facilities" yaml:"facilities"`
}

// Companies 按公司名排序返回公司汇总
func Companies(r *model.BatchReport) []CompanySummary {
	names := make([]string, 0, len(r.CompanyCounts))
	for name := range r.CompanyCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]CompanySummary, 0, len(names))
	for _, name := range names {
		counts := r.CompanyFormatCounts[name]
		out = append(out, CompanySummary{
			Company:       name,
			Documents:     r.CompanyCounts[name],
			FormatCounts:  counts,
			PrimaryFormat: model.PrimaryFormat(counts),
			Facilities:    r.CompanyFacilities[name],
		})
	}
	return out
}

// document 是 json/yaml 输出的顶层结构
type document struct {
	Report    *model.BatchReport `json:"report" yaml:"report"`
	Companies []CompanySummary   `json:"companies" yaml:"companies"`
}

// Render 将报告以指定格式写入 w
func Render(w io.Writer, r *model.BatchReport, format Format) error {
	if r == nil {
		return fmt.Errorf("nil report")
	}
	switch format {
	case FormatJSON:
		return encodeJSON(w, document{Report: r, Companies: Companies(r)})
	case FormatYAML:
		return encodeYAML(w, document{Report: r, Companies: Companies(r)})
	case FormatText, "":
		return renderText(w, r)
	}
	return fmt.Errorf("unsupported report format %q", format)
}

func renderText(w io.Writer, r *model.BatchReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Root:\t%s\n", r.Root)
	fmt.Fprintf(tw, "Documents:\t%d\n", r.TotalFiles)
	fmt.Fprintf(tw, "Succeeded:\t%d\n", r.SuccessCount)
	fmt.Fprintf(tw, "Failed:\t%d\n", r.FailedCount)
	fmt.Fprintf(tw, "Issues:\t%d\n", r.IssueCount)
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration.Round(time.Millisecond))

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "FORMAT\tDOCUMENTS")
	for _, tag := range model.AllFormats() {
		fmt.Fprintf(tw, "%s\t%d\n", tag, r.FormatCounts[tag])
	}

	companies := Companies(r)
	if len(companies) > 0 {
		fmt.Fprintln(tw)
		header := []string{"COMPANY"}
		for _, tag := range model.AllFormats() {
			header = append(header, string(tag))
		}
		header = append(header, "TOTAL", "PRIMARY")
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		for _, c := range companies {
			row := []string{c.Company}
			for _, tag := range model.AllFormats() {
				row = append(row, fmt.Sprint(c.FormatCounts[tag]))
			}
			row = append(row, fmt.Sprint(c.Documents), string(c.PrimaryFormat))
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}

		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "COMPANY\tFACILITIES")
		for _, c := range companies {
			fmt.Fprintf(tw, "%s\t%s\n", c.Company, strings.Join(c.Facilities, ", "))
		}
	}

	var failures, withIssues []model.DocumentOutcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failures = append(failures, o)
		} else if len(o.Issues) > 0 {
			withIssues = append(withIssues, o)
		}
	}

	if len(failures) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "FAILED\tERROR")
		for _, o := range failures {
			fmt.Fprintf(tw, "%s\t%s\n", o.Path, o.Error)
		}
	}

	if len(withIssues) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "DOCUMENT\tFORMAT\tISSUE")
		for _, o := range withIssues {
			for _, issue := range o.Issues {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Path, o.Format, issue.Message)
			}
		}
	}

	if len(r.SinkErrors) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "STORE ERRORS")
		for _, msg := range r.SinkErrors {
			fmt.Fprintln(tw, msg)
		}
	}

	return tw.Flush()
}
