package model

import "fmt"

// ReviewPeriod 记分卡覆盖的月份/年份；0 表示缺失
type ReviewPeriod struct {
	Month int `json:"month,omitempty" yaml:"month,omitempty"`
	Year  int `json:"year,omitempty" yaml:"year,omitempty"`
}

func (p ReviewPeriod) HasMonth() bool { return p.Month >= 1 && p.Month <= 12 }
func (p ReviewPeriod) HasYear() bool  { return p.Year > 0 }

// IsEmpty reports whether period extraction failed entirely.
func (p ReviewPeriod) IsEmpty() bool { return !p.HasMonth() && !p.HasYear() }

func (p ReviewPeriod) String() string {
	switch {
	case p.HasMonth() && p.HasYear():
		return fmt.Sprintf("%d-%02d", p.Year, p.Month)
	case p.HasYear():
		return fmt.Sprintf("%d-??", p.Year)
	case p.HasMonth():
		return fmt.Sprintf("????-%02d", p.Month)
	}
	return "unknown"
}

// Item 单个评分条目
type Item struct {
	ItemNumber   int     `json:"itemNumber" yaml:"item_number"`
	Ordinal      string  `json:"ordinal,omitempty" yaml:"ordinal,omitempty"` // 源文档中的编号原文，如 "1.1"、"2a"
	CriteriaText string  `json:"criteriaText" yaml:"criteria_text"`
	MaxPoints    float64 `json:"maxPoints" yaml:"max_points"`
	PointsEarned float64 `json:"pointsEarned" yaml:"points_earned"`
	ChartsMet    int     `json:"chartsMet" yaml:"charts_met"`
	SampleSize   int     `json:"sampleSize" yaml:"sample_size"`
}

// Category 评分大类（保留源文档中的合计值）
type Category struct {
	CategoryName      string  `json:"categoryName" yaml:"category_name"`
	TotalPointsEarned float64 `json:"totalPointsEarned" yaml:"total_points_earned"`
	TotalMaxPoints    float64 `json:"totalMaxPoints" yaml:"total_max_points"`
	Items             []Item  `json:"items" yaml:"items"`
}

// EarnedSum 条目得分之和
func (c Category) EarnedSum() float64 {
	sum := 0.0
	for _, it := range c.Items {
		sum += it.PointsEarned
	}
	return sum
}

// ScorecardRecord 统一口径的记分卡记录
type ScorecardRecord struct {
	KEVType         FormatTag    `json:"kevType" yaml:"kev_type"`
	FacilityName    string       `json:"facilityName,omitempty" yaml:"facility_name,omitempty"`
	CompanyName     string       `json:"companyName,omitempty" yaml:"company_name,omitempty"`
	ReviewPeriod    ReviewPeriod `json:"reviewPeriod" yaml:"review_period"`
	TotalScore      float64      `json:"totalScore" yaml:"total_score"`
	TotalMaxPoints  float64      `json:"totalMaxPoints" yaml:"total_max_points"`
	ScorePercentage float64      `json:"scorePercentage" yaml:"score_percentage"`
	Categories      []Category   `json:"categories" yaml:"categories"`
}

// ItemCount 所有大类的条目总数
func (r ScorecardRecord) ItemCount() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Items)
	}
	return n
}

// IssueCode 数据质量问题编码
type IssueCode string

const (
	IssueMissingFacility     IssueCode = "missing_facility"
	IssueMissingMonth        IssueCode = "missing_month"
	IssueMissingYear         IssueCode = "missing_year"
	IssueFewCategories       IssueCode = "few_categories"
	IssueEmptyCategory       IssueCode = "empty_category"
	IssueMissingMaxPoints    IssueCode = "missing_max_points"
	IssueEarnedExceedsMax    IssueCode = "earned_exceeds_max"
	IssueCategorySumMismatch IssueCode = "category_sum_mismatch"
)

// ValidationIssue 校验问题（仅用于诊断，不修改记录）
type ValidationIssue struct {
	Code     IssueCode `json:"code" yaml:"code"`
	Category string    `json:"category,omitempty" yaml:"category,omitempty"`
	Message  string    `json:"message" yaml:"message"`
}
