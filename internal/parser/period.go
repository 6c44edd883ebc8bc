package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"scorecards/internal/model"
)

type monthEntry struct {
	key   string
	month int
}

// monthLexicon is scanned in order and the first contained entry wins.
// Short abbreviations also match inside longer words ("may" in "maybe").
var monthLexicon = []monthEntry{
	{"jan", 1}, {"january", 1},
	{"feb", 2}, {"february", 2},
	{"mar", 3}, {"march", 3},
	{"apr", 4}, {"april", 4},
	{"may", 5},
	{"jun", 6}, {"june", 6},
	{"jul", 7}, {"july", 7},
	{"aug", 8}, {"august", 8},
	{"sep", 9}, {"sept", 9}, {"september", 9},
	{"oct", 10}, {"october", 10},
	{"nov", 11}, {"november", 11},
	{"dec", 12}, {"december", 12},
}

var yearRe = regexp.MustCompile(`(?:^|[^0-9])(20\d{2})(?:[^0-9]|$)`)

var periodLabels = []string{"review period", "month"}

// MonthFromText 在文本中查找月份（按词表顺序的子串匹配），未找到返回 0
func MonthFromText(text string) int {
	text = strings.ToLower(text)
	for _, e := range monthLexicon {
		if strings.Contains(text, e.key) {
			return e.month
		}
	}
	return 0
}

// YearFromText 查找首个 20xx 四位年份，未找到返回 0
func YearFromText(text string) int {
	m := yearRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return year
}

// CoverSheetFor returns the sheet holding review metadata for a format.
// Olympus and Unknown have none; their period comes from the filename.
func CoverSheetFor(tag model.FormatTag) (string, bool) {
	switch tag {
	case model.FormatKEVMini:
		return SheetKEVMiniCover, true
	case model.FormatKEVHybrid:
		return SheetKEVHybridCover, true
	case model.FormatSNFClinicalSystemsReview:
		return SheetClinicalOverview, true
	}
	return "", false
}

// ExtractPeriod 提取记分卡月份/年份：先扫描封面标签，再用文件名兜底
func ExtractPeriod(idx *SheetIndex, tag model.FormatTag, filename string) model.ReviewPeriod {
	var period model.ReviewPeriod

	if sheet, ok := CoverSheetFor(tag); ok {
		if rows, ok := idx.Rows(sheet); ok {
			period = scanPeriodLabels(rows)
		}
	}

	// 兜底：文件名只补缺失字段，不覆盖封面结果
	name := strings.ToLower(filepath.Base(filename))
	if !period.HasMonth() {
		period.Month = MonthFromText(name)
	}
	if !period.HasYear() {
		period.Year = YearFromText(name)
	}
	return period
}

// scanPeriodLabels looks at the first coverScanRows rows for "review period"
// or "month" labels and reads the cell to their right. Later hits overwrite.
func scanPeriodLabels(rows [][]Cell) model.ReviewPeriod {
	var period model.ReviewPeriod
	limit := len(rows)
	if limit > coverScanRows {
		limit = coverScanRows
	}
	for r := 0; r < limit; r++ {
		for c, cell := range rows[r] {
			label := strings.ToLower(cell.Text)
			if !ContainsAny(label, periodLabels) {
				continue
			}
			value := strings.ToLower(cellAt(rows, r, c+1).Text)
			if m := MonthFromText(value); m > 0 {
				period.Month = m
			}
			if y := YearFromText(value); y > 0 {
				period.Year = y
			}
		}
	}
	return period
}
