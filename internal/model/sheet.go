package model

// FormatTag 记分卡版式标签（每个文档恰好一个）
type FormatTag string

const (
	FormatSNFClinicalSystemsReview FormatTag = "SNFClinicalSystemsReview"
	FormatKEVMini                  FormatTag = "KEVMini"
	FormatKEVHybrid                FormatTag = "KEVHybrid"
	FormatALFOlympus               FormatTag = "ALFOlympus"
	FormatUnknown                  FormatTag = "Unknown"
)

// AllFormats lists every tag in declaration order. Report tables and
// tie-breaks follow this order.
func AllFormats() []FormatTag {
	return []FormatTag{
		FormatSNFClinicalSystemsReview,
		FormatKEVMini,
		FormatKEVHybrid,
		FormatALFOlympus,
		FormatUnknown,
	}
}

// FormatOrder returns the position of tag in AllFormats, or len(AllFormats) for unrecognised values.
func FormatOrder(tag FormatTag) int {
	for i, f := range AllFormats() {
		if f == tag {
			return i
		}
	}
	return len(AllFormats())
}

// IsKnown reports whether the tag names a supported layout.
func (f FormatTag) IsKnown() bool {
	switch f {
	case FormatSNFClinicalSystemsReview, FormatKEVMini, FormatKEVHybrid, FormatALFOlympus:
		return true
	}
	return false
}
