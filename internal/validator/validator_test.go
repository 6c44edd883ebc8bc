package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorecards/internal/model"
)

func cleanCategory(name string) model.Category {
	return model.Category{
		CategoryName:      name,
		TotalPointsEarned: 15,
		TotalMaxPoints:    20,
		Items: []model.Item{
			{ItemNumber: 1, CriteriaText: "a", MaxPoints: 10, PointsEarned: 10},
			{ItemNumber: 2, CriteriaText: "b", MaxPoints: 10, PointsEarned: 5},
		},
	}
}

func cleanRecord() model.ScorecardRecord {
	return model.ScorecardRecord{
		KEVType:      model.FormatKEVHybrid,
		FacilityName: "Pine Ridge",
		ReviewPeriod: model.ReviewPeriod{Month: 3, Year: 2025},
		Categories: []model.Category{
			cleanCategory("A"), cleanCategory("B"), cleanCategory("C"), cleanCategory("D"),
		},
	}
}

func codes(issues []model.ValidationIssue) []model.IssueCode {
	out := make([]model.IssueCode, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func TestValidate_CleanRecord(t *testing.T) {
	issues := Validate(cleanRecord())
	assert.Empty(t, issues)
	assert.NotNil(t, issues)
}

func TestValidate_FixedOrder(t *testing.T) {
	rec := model.ScorecardRecord{
		KEVType: model.FormatKEVMini,
		Categories: []model.Category{
			{CategoryName: "Empty", TotalPointsEarned: 0},
			{
				CategoryName:      "Broken",
				TotalPointsEarned: 3,
				Items: []model.Item{
					{ItemNumber: 1, MaxPoints: 0, PointsEarned: 2},
					{ItemNumber: 2, MaxPoints: 5, PointsEarned: 6},
				},
			},
		},
	}

	issues := Validate(rec)
	require.Equal(t, []model.IssueCode{
		model.IssueMissingFacility,
		model.IssueMissingMonth,
		model.IssueMissingYear,
		model.IssueFewCategories,
		model.IssueEmptyCategory,
		model.IssueMissingMaxPoints,
		model.IssueEarnedExceedsMax,
		model.IssueCategorySumMismatch,
	}, codes(issues))

	assert.Equal(t, "only 2 categories found (expected 4)", issues[3].Message)
	assert.Equal(t, "Empty", issues[4].Category)
	assert.Contains(t, issues[5].Message, "1 items missing max points")
	assert.Contains(t, issues[6].Message, "2 items with points earned above max points")
	assert.Contains(t, issues[7].Message, "8.00")
	assert.Contains(t, issues[7].Message, "3.00")
}

func TestValidate_PartialPeriodReportedPerField(t *testing.T) {
	rec := cleanRecord()
	rec.ReviewPeriod = model.ReviewPeriod{Year: 2025}
	assert.Equal(t, []model.IssueCode{model.IssueMissingMonth}, codes(Validate(rec)))

	rec.ReviewPeriod = model.ReviewPeriod{Month: 7}
	assert.Equal(t, []model.IssueCode{model.IssueMissingYear}, codes(Validate(rec)))
}

func TestValidate_SumToleranceBoundary(t *testing.T) {
	cases := []struct {
		name  string
		total float64
		flag  bool
	}{
		{"exact", 15, false},
		{"within", 15.5, false},
		{"boundary above", 16, false},
		{"boundary below", 14, false},
		{"over", 16.01, true},
		{"under", 13.5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := cleanRecord()
			rec.Categories[2].TotalPointsEarned = tc.total
			issues := Validate(rec)
			if tc.flag {
				require.Len(t, issues, 1)
				assert.Equal(t, model.IssueCategorySumMismatch, issues[0].Code)
				assert.Equal(t, "C", issues[0].Category)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	rec := cleanRecord()
	rec.Categories[0].Items[0].PointsEarned = 50
	before := rec.Categories[0].Items[0]
	_ = Validate(rec)
	assert.Equal(t, before, rec.Categories[0].Items[0])
	assert.Equal(t, Validate(rec), Validate(rec))
}
