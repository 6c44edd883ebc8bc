package importer

import (
	"sort"
	"time"

	"scorecards/internal/model"
)

// Aggregator 批次汇总累加器；非并发安全，由 Walker 在合并点串行调用
type Aggregator struct {
	report     *model.BatchReport
	facilities map[string]map[string]struct{}
}

// NewAggregator 创建累加器
func NewAggregator(root string, startedAt time.Time) *Aggregator {
	return &Aggregator{
		report: &model.BatchReport{
			Root:                root,
			StartedAt:           startedAt,
			FormatCounts:        make(map[model.FormatTag]int),
			CompanyCounts:       make(map[string]int),
			CompanyFormatCounts: make(map[string]map[model.FormatTag]int),
			CompanyFacilities:   make(map[string][]string),
			Outcomes:            []model.DocumentOutcome{},
		},
		facilities: make(map[string]map[string]struct{}),
	}
}

// Add 合并单个文档结果
func (a *Aggregator) Add(outcome model.DocumentOutcome) {
	r := a.report
	r.TotalFiles++
	if outcome.Failed() {
		r.FailedCount++
	} else {
		r.SuccessCount++
	}
	r.IssueCount += len(outcome.Issues)

	r.FormatCounts[outcome.Format]++
	r.CompanyCounts[outcome.Company]++
	byFormat, ok := r.CompanyFormatCounts[outcome.Company]
	if !ok {
		byFormat = make(map[model.FormatTag]int)
		r.CompanyFormatCounts[outcome.Company] = byFormat
	}
	byFormat[outcome.Format]++

	set, ok := a.facilities[outcome.Company]
	if !ok {
		set = make(map[string]struct{})
		a.facilities[outcome.Company] = set
	}
	set[outcome.Facility] = struct{}{}

	r.Outcomes = append(r.Outcomes, outcome)
}

// AddSinkError 记录下游存储失败
func (a *Aggregator) AddSinkError(msg string) {
	a.report.SinkErrors = append(a.report.SinkErrors, msg)
}

// Report 生成最终报告（结果按路径排序，机构名排序）
func (a *Aggregator) Report(duration time.Duration) *model.BatchReport {
	r := a.report
	r.Duration = duration
	for company, set := range a.facilities {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		r.CompanyFacilities[company] = names
	}
	sort.SliceStable(r.Outcomes, func(i, j int) bool { return r.Outcomes[i].Path < r.Outcomes[j].Path })
	return r
}
