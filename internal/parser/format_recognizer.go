package parser

import (
	"strings"

	"scorecards/internal/model"
)

// FormatRule 有序规则链中的一条：谓词 -> 版式
type FormatRule struct {
	Name   string
	Format model.FormatTag
	Match  func(idx *SheetIndex) bool
}

// DefaultFormatRules 返回版式识别规则链。顺序即优先级，首个命中的规则生效。
// Mini 的封面名比 Hybrid 的 "Cover Sheet" 更具体，必须先判断。
func DefaultFormatRules() []FormatRule {
	return []FormatRule{
		{
			Name:   "kev_mini_cover",
			Format: model.FormatKEVMini,
			Match: func(idx *SheetIndex) bool {
				return idx.HasSheet(SheetKEVMiniCover)
			},
		},
		{
			Name:   "kev_hybrid_cover_abuse",
			Format: model.FormatKEVHybrid,
			Match: func(idx *SheetIndex) bool {
				return idx.HasSheet(SheetKEVHybridCover) && idx.HasSheet(SheetAbuseGrievances)
			},
		},
		{
			Name:   "snf_clinical_systems",
			Format: model.FormatSNFClinicalSystemsReview,
			Match: func(idx *SheetIndex) bool {
				if idx.HasSheet(SheetClinicalOverview) {
					return true
				}
				return anySheetName(idx, func(name string) bool {
					return strings.Contains(name, ChangeOfConditionMark)
				})
			},
		},
		{
			Name:   "alf_olympus",
			Format: model.FormatALFOlympus,
			Match: func(idx *SheetIndex) bool {
				return anySheetName(idx, isOlympusSheet)
			},
		},
	}
}

func anySheetName(idx *SheetIndex, pred func(string) bool) bool {
	for _, name := range idx.SheetNames() {
		if pred(name) {
			return true
		}
	}
	return false
}

func isOlympusSheet(name string) bool {
	return strings.Contains(strings.ToLower(name), olympusMark)
}

// FormatRecognizer 工作簿版式识别器
type FormatRecognizer struct {
	rules []FormatRule
}

// NewFormatRecognizer 创建识别器（默认规则链）
func NewFormatRecognizer() *FormatRecognizer {
	return &FormatRecognizer{rules: DefaultFormatRules()}
}

// NewFormatRecognizerWithRules uses a caller-supplied rule chain.
func NewFormatRecognizerWithRules(rules []FormatRule) *FormatRecognizer {
	return &FormatRecognizer{rules: rules}
}

// Recognize 按顺序评估规则链，返回首个命中的版式；均未命中则为 Unknown
func (r *FormatRecognizer) Recognize(idx *SheetIndex) FormatRecognition {
	if idx == nil {
		return FormatRecognition{Format: model.FormatUnknown}
	}
	for _, rule := range r.rules {
		if rule.Match != nil && rule.Match(idx) {
			return FormatRecognition{Format: rule.Format, Rule: rule.Name}
		}
	}
	return FormatRecognition{Format: model.FormatUnknown}
}

// Classify 使用默认规则链识别版式
func Classify(idx *SheetIndex) model.FormatTag {
	return NewFormatRecognizer().Recognize(idx).Format
}
