package parser

import "scorecards/internal/model"

// KEVHybridParser KEV Hybrid 解析器：封面 "Cover Sheet"，其余带条目表的 sheet 各为一个大类
type KEVHybridParser struct{}

// Parse 解析 KEV Hybrid 记分卡
func (KEVHybridParser) Parse(idx *SheetIndex) model.ScorecardRecord {
	var meta coverMetadata
	if rows, ok := idx.Rows(SheetKEVHybridCover); ok {
		meta = scanCoverMetadata(rows)
	}

	var categories []model.Category
	for _, name := range idx.SheetNames() {
		if name == SheetKEVHybridCover {
			continue
		}
		rows, _ := idx.Rows(name)
		if cat, ok := parseCategoryTable(name, rows); ok {
			categories = append(categories, cat)
		}
	}

	return newRecord(model.FormatKEVHybrid, meta, categories)
}

// KEVMiniParser KEV Mini 解析器：封面 "KEV Score Cards Cover Sheet"，
// 其余 sheet 内按 标题行/表头/条目/合计 纵向堆叠各大类
type KEVMiniParser struct{}

// Parse 解析 KEV Mini 记分卡
func (KEVMiniParser) Parse(idx *SheetIndex) model.ScorecardRecord {
	var meta coverMetadata
	if rows, ok := idx.Rows(SheetKEVMiniCover); ok {
		meta = scanCoverMetadata(rows)
	}

	var categories []model.Category
	for _, name := range idx.SheetNames() {
		if name == SheetKEVMiniCover {
			continue
		}
		rows, _ := idx.Rows(name)
		categories = append(categories, parseStackedSections(rows)...)
	}

	return newRecord(model.FormatKEVMini, meta, categories)
}
