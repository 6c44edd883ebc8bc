package parser

import "scorecards/internal/model"

// FormatParser 单一版式的结构解析器
type FormatParser interface {
	Parse(idx *SheetIndex) model.ScorecardRecord
}

// formatParsers 版式 -> 解析器；新增版式只需在此登记
var formatParsers = map[model.FormatTag]FormatParser{
	model.FormatSNFClinicalSystemsReview: SNFParser{},
	model.FormatKEVMini:                  KEVMiniParser{},
	model.FormatKEVHybrid:                KEVHybridParser{},
	model.FormatALFOlympus:               OlympusParser{},
}

// Extract 按已识别的版式抽取记分卡结构。Unknown 返回空记录。
// 复核周期由 ExtractPeriod 单独提取。
func Extract(idx *SheetIndex, tag model.FormatTag) model.ScorecardRecord {
	p, ok := formatParsers[tag]
	if !ok {
		return model.ScorecardRecord{KEVType: model.FormatUnknown, Categories: []model.Category{}}
	}
	if idx == nil {
		return newRecord(tag, coverMetadata{}, nil)
	}
	return p.Parse(idx)
}

// Document 一次完整的 识别 -> 周期 -> 结构 抽取结果
type Document struct {
	Recognition FormatRecognition
	Record      model.ScorecardRecord
}

// ExtractDocument runs the classifier once and feeds its tag to both extractors.
func ExtractDocument(idx *SheetIndex, filename string) Document {
	rec := NewFormatRecognizer().Recognize(idx)
	record := Extract(idx, rec.Format)
	record.ReviewPeriod = ExtractPeriod(idx, rec.Format, filename)
	return Document{Recognition: rec, Record: record}
}
