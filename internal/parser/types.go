package parser

import "scorecards/internal/model"

// FormatRecognition 版式识别结果
type FormatRecognition struct {
	Format model.FormatTag `json:"format"`
	Rule   string          `json:"rule"` // 命中的规则名，未命中为空
}

// Cover sheet names used by the period and metadata passes.
const (
	SheetKEVMiniCover     = "KEV Score Cards Cover Sheet"
	SheetKEVHybridCover   = "Cover Sheet"
	SheetAbuseGrievances  = "Abuse & Grievances"
	SheetClinicalOverview = "Clinical Systems Overview"
	ChangeOfConditionMark = "1. Change of Condition"
	olympusMark           = "olympus"
)

// coverScanRows bounds every label/value scan; cover metadata sits near the top.
const coverScanRows = 20
