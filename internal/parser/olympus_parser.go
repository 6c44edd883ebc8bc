package parser

import "scorecards/internal/model"

// OlympusParser ALF Olympus 解析器：元信息与各大类都在首个名称含 "olympus" 的 sheet 中
type OlympusParser struct{}

// Parse 解析 ALF Olympus 记分卡
func (OlympusParser) Parse(idx *SheetIndex) model.ScorecardRecord {
	for _, name := range idx.SheetNames() {
		if !isOlympusSheet(name) {
			continue
		}
		rows, _ := idx.Rows(name)
		return newRecord(model.FormatALFOlympus, scanCoverMetadata(rows), parseStackedSections(rows))
	}
	return newRecord(model.FormatALFOlympus, coverMetadata{}, nil)
}
