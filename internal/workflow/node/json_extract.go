package node

import (
	"strings"
)

// GreedyJSONObject 截取从第一个 '{' 到最后一个 '}' 的子串。
// 模型可能在 JSON 前后夹杂说明文字，这里不做括号配平，只做贪婪截取。
func GreedyJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(s, "}")
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
