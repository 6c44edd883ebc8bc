package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeText 规范化单元格文本：去首尾空格、压缩空白、转小写
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(s)
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// firstKeyword returns the first keyword contained in text, in list order.
func firstKeyword(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// parseNumber 安全转换为浮点数（去除千分位、货币符号和百分号）
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cellFloat reads a number from a cell, treating anything else as absent.
func cellFloat(c Cell) float64 {
	f, _ := c.Float()
	return f
}

func cellInt(c Cell) int {
	f, ok := c.Float()
	if !ok || f < 0 {
		return 0
	}
	return int(f + 0.5)
}

// nonEmptyCells 统计行内非空单元格
func nonEmptyCells(row []Cell) []Cell {
	out := make([]Cell, 0, len(row))
	for _, c := range row {
		if !c.IsEmpty() && strings.TrimSpace(c.Text) != "" {
			out = append(out, c)
		}
	}
	return out
}
