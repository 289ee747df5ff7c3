package node

import "strings"

// IsToolsUnsupportedError 判断 provider 是否拒绝了 tools 参数
func IsToolsUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "tool"):
		return true
	case strings.Contains(msg, "tool") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "tool_choice") && strings.Contains(msg, "invalid"):
		return true
	default:
		return false
	}
}
