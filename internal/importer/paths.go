package importer

import (
	"path/filepath"
	"strings"
)

// UnknownCompany / UnknownFacility are used when the path gives no hint.
const (
	UnknownCompany  = "Unknown"
	UnknownFacility = "Unknown"
)

// lockFilePrefix marks Office lock/temp files ("~$Scorecard.xlsx").
const lockFilePrefix = "~"

// IsScorecardFile 判断文件名是否为待处理的记分卡文档（扩展名不区分大小写，跳过 ~ 开头的锁文件）
func IsScorecardFile(name string, extensions []string) bool {
	if strings.HasPrefix(name, lockFilePrefix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// InferCompany 以路径子串匹配公司关键词（不区分大小写），按列表顺序首个命中
func InferCompany(path string, keywords []string) string {
	lower := strings.ToLower(filepath.ToSlash(path))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return UnknownCompany
}

// InferFacility 取文件所在目录名作为机构名；若该目录名包含 "scorecard"，改用上一级目录名
func InferFacility(path string) string {
	dir := filepath.Dir(path)
	name := filepath.Base(dir)
	if strings.Contains(strings.ToLower(name), "scorecard") {
		name = filepath.Base(filepath.Dir(dir))
	}
	switch name {
	case "", ".", string(filepath.Separator):
		return UnknownFacility
	}
	return name
}
