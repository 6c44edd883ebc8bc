// Package validator runs the fixed battery of data-quality checks over an
// extracted scorecard record. Checks never modify the record.
package validator

import (
	"fmt"
	"math"

	"scorecards/internal/model"
)

const (
	// ExpectedCategories is the category count of every known layout.
	ExpectedCategories = 4
	// CategoryTolerance is the largest accepted gap, in points, between the
	// item sum and a category's declared total.
	CategoryTolerance = 1.0
)

// Validate 按固定顺序执行全部检查并返回问题列表
func Validate(record model.ScorecardRecord) []model.ValidationIssue {
	issues := []model.ValidationIssue{}

	if record.FacilityName == "" {
		issues = append(issues, model.ValidationIssue{
			Code:    model.IssueMissingFacility,
			Message: "missing facility name",
		})
	}
	if !record.ReviewPeriod.HasMonth() {
		issues = append(issues, model.ValidationIssue{
			Code:    model.IssueMissingMonth,
			Message: "missing review month",
		})
	}
	if !record.ReviewPeriod.HasYear() {
		issues = append(issues, model.ValidationIssue{
			Code:    model.IssueMissingYear,
			Message: "missing review year",
		})
	}
	if n := len(record.Categories); n < ExpectedCategories {
		issues = append(issues, model.ValidationIssue{
			Code:    model.IssueFewCategories,
			Message: fmt.Sprintf("only %d categories found (expected %d)", n, ExpectedCategories),
		})
	}

	for _, cat := range record.Categories {
		issues = append(issues, validateCategory(cat)...)
	}
	return issues
}

func validateCategory(cat model.Category) []model.ValidationIssue {
	var issues []model.ValidationIssue
	name := cat.CategoryName

	if len(cat.Items) == 0 {
		issues = append(issues, model.ValidationIssue{
			Code:     model.IssueEmptyCategory,
			Category: name,
			Message:  fmt.Sprintf("category %q has no items", name),
		})
	}

	missingMax, overMax := 0, 0
	for _, it := range cat.Items {
		if it.MaxPoints <= 0 {
			missingMax++
		}
		if it.PointsEarned > it.MaxPoints {
			overMax++
		}
	}
	if missingMax > 0 {
		issues = append(issues, model.ValidationIssue{
			Code:     model.IssueMissingMaxPoints,
			Category: name,
			Message:  fmt.Sprintf("category %q: %d items missing max points", name, missingMax),
		})
	}
	if overMax > 0 {
		issues = append(issues, model.ValidationIssue{
			Code:     model.IssueEarnedExceedsMax,
			Category: name,
			Message:  fmt.Sprintf("category %q: %d items with points earned above max points", name, overMax),
		})
	}

	sum := cat.EarnedSum()
	if math.Abs(sum-cat.TotalPointsEarned) > CategoryTolerance {
		issues = append(issues, model.ValidationIssue{
			Code:     model.IssueCategorySumMismatch,
			Category: name,
			Message: fmt.Sprintf("category %q: item points sum %.2f does not match category total %.2f",
				name, sum, cat.TotalPointsEarned),
		})
	}
	return issues
}
