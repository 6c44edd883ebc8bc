package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"scorecards/internal/model"
)

var numberedSheetRe = regexp.MustCompile(`^\s*(\d+)\s*[.)]\s*(.+)$`)

// SNFParser SNF Clinical Systems Review 解析器：
// 封面为 "Clinical Systems Overview"，每个 "N. 名称" sheet 为一个大类
type SNFParser struct{}

type numberedSheet struct {
	order int
	sheet string
	name  string
}

// Parse 解析 SNF 记分卡
func (SNFParser) Parse(idx *SheetIndex) model.ScorecardRecord {
	var meta coverMetadata
	if rows, ok := idx.Rows(SheetClinicalOverview); ok {
		meta = scanCoverMetadata(rows)
	}

	var numbered []numberedSheet
	for _, name := range idx.SheetNames() {
		m := numberedSheetRe.FindStringSubmatch(name)
		if len(m) < 3 {
			continue
		}
		order, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		numbered = append(numbered, numberedSheet{order: order, sheet: name, name: strings.TrimSpace(m[2])})
	}
	sort.SliceStable(numbered, func(i, j int) bool { return numbered[i].order < numbered[j].order })

	categories := make([]model.Category, 0, len(numbered))
	for _, ns := range numbered {
		rows, _ := idx.Rows(ns.sheet)
		// 编号 sheet 必然是一个大类；表头缺失时保留空条目，交由校验报告
		cat, _ := parseCategoryTable(ns.name, rows)
		categories = append(categories, cat)
	}

	return newRecord(model.FormatSNFClinicalSystemsReview, meta, categories)
}

// newRecord 组装记录；汇总值直接取自封面，不重新计算
func newRecord(tag model.FormatTag, meta coverMetadata, categories []model.Category) model.ScorecardRecord {
	if categories == nil {
		categories = []model.Category{}
	}
	return model.ScorecardRecord{
		KEVType:         tag,
		FacilityName:    meta.Facility,
		CompanyName:     meta.Company,
		TotalScore:      meta.TotalScore,
		TotalMaxPoints:  meta.TotalMax,
		ScorePercentage: meta.Percentage,
		Categories:      categories,
	}
}
