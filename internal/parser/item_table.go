package parser

import (
	"regexp"
	"strconv"
	"strings"

	"scorecards/internal/model"
)

// ItemColumns 条目表列映射，-1 表示未找到
type ItemColumns struct {
	Number   int
	Criteria int
	Max      int
	Earned   int
	Met      int
	Sample   int
}

type columnRule struct {
	keywords []string
	target   func(*ItemColumns) *int
}

// Checked in order per header cell; the more specific headers come first
// so "# Charts Met" maps to Met rather than Number.
var itemColumnRules = []columnRule{
	{[]string{"met"}, func(c *ItemColumns) *int { return &c.Met }},
	{[]string{"sample", "reviewed"}, func(c *ItemColumns) *int { return &c.Sample }},
	{[]string{"max", "possible"}, func(c *ItemColumns) *int { return &c.Max }},
	{[]string{"earned", "score", "awarded"}, func(c *ItemColumns) *int { return &c.Earned }},
	{[]string{"#", "item", "no."}, func(c *ItemColumns) *int { return &c.Number }},
	{[]string{"criteria", "question", "standard", "requirement"}, func(c *ItemColumns) *int { return &c.Criteria }},
}

func emptyItemColumns() ItemColumns {
	return ItemColumns{Number: -1, Criteria: -1, Max: -1, Earned: -1, Met: -1, Sample: -1}
}

// MapItemHeader 识别条目表表头行。需要条目号列、条款列以及至少一个分值列。
func MapItemHeader(row []Cell) (ItemColumns, bool) {
	cols := emptyItemColumns()
	for idx, cell := range row {
		if cell.Kind != CellText {
			continue
		}
		header := NormalizeText(cell.Text)
		for _, rule := range itemColumnRules {
			if !ContainsAny(header, rule.keywords) {
				continue
			}
			if target := rule.target(&cols); *target < 0 {
				*target = idx
			}
			break
		}
	}
	ok := cols.Number >= 0 && cols.Criteria >= 0 && (cols.Max >= 0 || cols.Earned >= 0)
	return cols, ok
}

func colCell(row []Cell, col int) Cell {
	if col < 0 || col >= len(row) {
		return Cell{}
	}
	return row[col]
}

// isTotalRow 任一文本单元格包含 "total"；调用方需先排除条目行
func isTotalRow(row []Cell) bool {
	for _, c := range row {
		if c.Kind == CellText && strings.Contains(strings.ToLower(c.Text), "total") {
			return true
		}
	}
	return false
}

// itemOrdinalRe 文本编号，如 "1a"、"2.1.3"
var itemOrdinalRe = regexp.MustCompile(`^(\d+)((?:\.\d+)*[A-Za-z]?)$`)

// itemOrdinal 读取编号列：ItemNumber 取整数部分，Ordinal 保留原文
func itemOrdinal(cell Cell) (int, string, bool) {
	text := strings.TrimSpace(cell.Text)
	if num, ok := cell.Float(); ok {
		if num <= 0 {
			return 0, "", false
		}
		return int(num), text, true
	}
	if cell.Kind != CellText {
		return 0, "", false
	}
	m := itemOrdinalRe.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, "", false
	}
	return n, text, true
}

func parseItemRow(row []Cell, cols ItemColumns) (model.Item, bool) {
	num, ordinal, ok := itemOrdinal(colCell(row, cols.Number))
	if !ok {
		return model.Item{}, false
	}
	return model.Item{
		ItemNumber:   num,
		Ordinal:      ordinal,
		CriteriaText: colCell(row, cols.Criteria).Text,
		MaxPoints:    nonNegative(cellFloat(colCell(row, cols.Max))),
		PointsEarned: nonNegative(cellFloat(colCell(row, cols.Earned))),
		ChartsMet:    cellInt(colCell(row, cols.Met)),
		SampleSize:   cellInt(colCell(row, cols.Sample)),
	}, true
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// sectionTitle returns the text of a row that holds a single leftmost text
// cell, which stacked layouts use to open a new category.
func sectionTitle(row []Cell, cols ItemColumns) (string, bool) {
	cells := nonEmptyCells(row)
	if len(cells) != 1 || cells[0].Kind != CellText {
		return "", false
	}
	col := -1
	for i := range row {
		if !row[i].IsEmpty() {
			col = i
			break
		}
	}
	limit := 0
	if cols.Number > limit {
		limit = cols.Number
	}
	if col > limit {
		return "", false
	}
	title := strings.TrimSpace(cells[0].Text)
	if strings.Contains(strings.ToLower(title), "total") {
		return "", false
	}
	return title, true
}

// parseCategoryTable 解析单个大类的条目表（一个 sheet 一个大类），遇到合计行结束
func parseCategoryTable(name string, rows [][]Cell) (model.Category, bool) {
	cat := model.Category{CategoryName: name, Items: []model.Item{}}
	cols, mapped := ItemColumns{}, false
	for _, row := range rows {
		if !mapped {
			cols, mapped = MapItemHeader(row)
			continue
		}
		if item, ok := parseItemRow(row, cols); ok {
			cat.Items = append(cat.Items, item)
			continue
		}
		if isTotalRow(row) {
			cat.TotalPointsEarned = cellFloat(colCell(row, cols.Earned))
			cat.TotalMaxPoints = cellFloat(colCell(row, cols.Max))
			break
		}
	}
	return cat, mapped
}

// parseStackedSections 解析纵向堆叠的多个大类：标题行 -> 表头行 -> 条目 -> 合计行
func parseStackedSections(rows [][]Cell) []model.Category {
	var (
		out          []model.Category
		current      *model.Category
		cols         = emptyItemColumns()
		mapped       bool
		pendingTitle string
	)

	closeCurrent := func() {
		if current != nil {
			out = append(out, *current)
			current = nil
		}
	}
	open := func() {
		name := pendingTitle
		pendingTitle = ""
		current = &model.Category{CategoryName: name, Items: []model.Item{}}
	}

	for _, row := range rows {
		if c, ok := MapItemHeader(row); ok {
			cols, mapped = c, true
			if current != nil && len(current.Items) > 0 {
				closeCurrent()
			}
			if current == nil && pendingTitle != "" {
				open()
			}
			continue
		}
		if !mapped {
			if title, ok := sectionTitle(row, cols); ok {
				pendingTitle = title
			}
			continue
		}
		if item, ok := parseItemRow(row, cols); ok {
			if current == nil {
				open()
			}
			current.Items = append(current.Items, item)
			continue
		}
		if isTotalRow(row) {
			if current != nil {
				current.TotalPointsEarned = cellFloat(colCell(row, cols.Earned))
				current.TotalMaxPoints = cellFloat(colCell(row, cols.Max))
				closeCurrent()
			}
			continue
		}
		if title, ok := sectionTitle(row, cols); ok {
			if current != nil && len(current.Items) > 0 {
				closeCurrent()
			}
			if current != nil && len(current.Items) == 0 {
				current.CategoryName = title
				continue
			}
			pendingTitle = title
		}
	}
	closeCurrent()
	return out
}
