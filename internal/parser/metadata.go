package parser

import (
	"strings"
)

// coverMetadata 封面标签/值区域中的身份与汇总信息
type coverMetadata struct {
	Facility   string
	Company    string
	TotalScore float64
	TotalMax   float64
	Percentage float64

	hasScore, hasMax, hasPercentage bool
}

type metaField int

const (
	metaPercentage metaField = iota
	metaTotalScore
	metaTotalMax
	metaFacility
	metaCompany
)

// Percentage comes first so "Total Score %" is not read as the point total.
var metaLabelRules = []struct {
	field    metaField
	keywords []string
}{
	{metaPercentage, []string{"score %", "percentage", "percent", "compliance %"}},
	{metaTotalScore, []string{"total score", "total points earned", "points earned"}},
	{metaTotalMax, []string{"total possible", "possible points", "max points", "total max"}},
	{metaFacility, []string{"facility name", "facility", "community", "building"}},
	{metaCompany, []string{"company", "organization", "operator", "management"}},
}

// metaValueReach is how far right of a label the value may sit (merged cells).
const metaValueReach = 3

func classifyLabel(text string) (metaField, bool) {
	label := NormalizeText(text)
	if label == "" {
		return 0, false
	}
	for _, rule := range metaLabelRules {
		if ContainsAny(label, rule.keywords) {
			return rule.field, true
		}
	}
	return 0, false
}

// scanCoverMetadata 扫描前 coverScanRows 行的标签/值对，遇到条目表表头即停止。
// 每个字段取首次命中的值。
func scanCoverMetadata(rows [][]Cell) coverMetadata {
	var meta coverMetadata
	limit := len(rows)
	if limit > coverScanRows {
		limit = coverScanRows
	}
	for r := 0; r < limit; r++ {
		if _, ok := MapItemHeader(rows[r]); ok {
			break
		}
		for c, cell := range rows[r] {
			if cell.Kind != CellText {
				continue
			}
			field, ok := classifyLabel(cell.Text)
			if !ok {
				continue
			}
			value, ok := valueRightOf(rows[r], c)
			if !ok {
				continue
			}
			meta.set(field, value)
		}
	}
	return meta
}

func valueRightOf(row []Cell, col int) (Cell, bool) {
	for c := col + 1; c < len(row) && c <= col+metaValueReach; c++ {
		cell := row[c]
		if cell.IsEmpty() || strings.TrimSpace(cell.Text) == "" {
			continue
		}
		// a neighbouring label ("Company:") means this label has no value
		if cell.Kind == CellText && strings.HasSuffix(strings.TrimSpace(cell.Text), ":") {
			return Cell{}, false
		}
		return cell, true
	}
	return Cell{}, false
}

func (m *coverMetadata) set(field metaField, value Cell) {
	switch field {
	case metaFacility:
		if m.Facility == "" && value.Kind == CellText {
			m.Facility = strings.TrimSpace(value.Text)
		}
	case metaCompany:
		if m.Company == "" && value.Kind == CellText {
			m.Company = strings.TrimSpace(value.Text)
		}
	case metaTotalScore:
		if f, ok := value.Float(); ok && !m.hasScore {
			m.TotalScore, m.hasScore = f, true
		}
	case metaTotalMax:
		if f, ok := value.Float(); ok && !m.hasMax {
			m.TotalMax, m.hasMax = f, true
		}
	case metaPercentage:
		if f, ok := value.Float(); ok && !m.hasPercentage {
			m.Percentage, m.hasPercentage = normalizePercentage(value.Text, f), true
		}
	}
}

// normalizePercentage scales fractional values (0.875) to 0-100 unless the
// cell text already carries a percent sign.
func normalizePercentage(text string, f float64) float64 {
	if strings.Contains(text, "%") {
		return f
	}
	if f > 0 && f <= 1 {
		return f * 100
	}
	return f
}
