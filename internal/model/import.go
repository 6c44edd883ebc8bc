package model

import (
	"errors"
	"fmt"
	"time"
)

// BatchStatus 导入批次状态
type BatchStatus string

const (
	BatchPending             BatchStatus = "pending"
	BatchProcessing          BatchStatus = "processing"
	BatchCompleted           BatchStatus = "completed"
	BatchCompletedWithErrors BatchStatus = "completed_with_errors"
	BatchFailed              BatchStatus = "failed"
	BatchRolledBack          BatchStatus = "rolled_back"
)

// ErrInvalidTransition is returned when a batch is moved along an edge the
// lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid batch status transition")

var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchPending:             {BatchProcessing},
	BatchProcessing:          {BatchCompleted, BatchCompletedWithErrors, BatchFailed, BatchRolledBack},
	BatchCompleted:           {BatchRolledBack},
	BatchCompletedWithErrors: {BatchRolledBack},
	BatchFailed:              {BatchRolledBack},
}

// CanTransition 判断状态迁移是否合法
func (s BatchStatus) CanTransition(to BatchStatus) bool {
	for _, next := range batchTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns to, or ErrInvalidTransition wrapped with both states.
func (s BatchStatus) Transition(to BatchStatus) (BatchStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return to, nil
}

// IsTerminal reports whether the batch has finished processing.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case BatchCompleted, BatchCompletedWithErrors, BatchFailed, BatchRolledBack:
		return true
	}
	return false
}

// DocumentOutcome 单个文档的处理结果：记录 + 问题，或终止性错误
type DocumentOutcome struct {
	Path     string            `json:"path" yaml:"path"`
	Format   FormatTag         `json:"format" yaml:"format"`
	Rule     string            `json:"rule,omitempty" yaml:"rule,omitempty"`
	Company  string            `json:"company" yaml:"company"`
	Facility string            `json:"facility" yaml:"facility"`
	Record   *ScorecardRecord  `json:"record,omitempty" yaml:"record,omitempty"`
	Issues   []ValidationIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration     `json:"duration" yaml:"duration"`
}

// Failed reports whether the document could not be read.
func (o DocumentOutcome) Failed() bool {
	return o.Error != ""
}

// BatchReport 批量处理报告
type BatchReport struct {
	Root      string        `json:"root" yaml:"root"`
	StartedAt time.Time     `json:"startedAt" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	TotalFiles   int `json:"totalFiles" yaml:"total_files"`
	SuccessCount int `json:"successCount" yaml:"success_count"`
	FailedCount  int `json:"failedCount" yaml:"failed_count"`
	IssueCount   int `json:"issueCount" yaml:"issue_count"`

	FormatCounts        map[FormatTag]int            `json:"formatCounts" yaml:"format_counts"`
	CompanyCounts       map[string]int               `json:"companyCounts" yaml:"company_counts"`
	CompanyFormatCounts map[string]map[FormatTag]int `json:"companyFormatCounts" yaml:"company_format_counts"`
	CompanyFacilities   map[string][]string          `json:"companyFacilities" yaml:"company_facilities"`

	Outcomes   []DocumentOutcome `json:"outcomes" yaml:"outcomes"`
	SinkErrors []string          `json:"sinkErrors,omitempty" yaml:"sink_errors,omitempty"`
}

// PrimaryFormat 返回计数最高的版式，数量相同时按版式声明顺序
func PrimaryFormat(counts map[FormatTag]int) FormatTag {
	best := FormatUnknown
	bestCount := -1
	for tag, n := range counts {
		if n > bestCount || (n == bestCount && FormatOrder(tag) < FormatOrder(best)) {
			best, bestCount = tag, n
		}
	}
	return best
}

// ImportBatch 导入批次（持久化视图）
type ImportBatch struct {
	ID             string      `json:"id" yaml:"id"`
	RootPath       string      `json:"rootPath" yaml:"root_path"`
	Status         BatchStatus `json:"status" yaml:"status"`
	TotalFiles     int         `json:"totalFiles" yaml:"total_files"`
	ProcessedFiles int         `json:"processedFiles" yaml:"processed_files"`
	SuccessCount   int         `json:"successCount" yaml:"success_count"`
	FailedCount    int         `json:"failedCount" yaml:"failed_count"`
	IssueCount     int         `json:"issueCount" yaml:"issue_count"`
	ErrorLog       []string    `json:"errorLog" yaml:"error_log"`
	ErrorMessage   string      `json:"errorMessage,omitempty" yaml:"error_message,omitempty"`
	CreatedAt      time.Time   `json:"createdAt" yaml:"created_at"`
	StartedAt      *time.Time  `json:"startedAt,omitempty" yaml:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completedAt,omitempty" yaml:"completed_at,omitempty"`
}

// StoredScorecard 已入库的记分卡
type StoredScorecard struct {
	ID       int64             `json:"id" yaml:"id"`
	BatchID  string            `json:"batchId" yaml:"batch_id"`
	Path     string            `json:"path" yaml:"path"`
	Format   FormatTag         `json:"format" yaml:"format"`
	Rule     string            `json:"rule,omitempty" yaml:"rule,omitempty"`
	Company  string            `json:"company" yaml:"company"`
	Facility string            `json:"facility" yaml:"facility"`
	Record   ScorecardRecord   `json:"record" yaml:"record"`
	Issues   []ValidationIssue `json:"issues" yaml:"issues"`
}
