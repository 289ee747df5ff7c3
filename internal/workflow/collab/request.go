// Package collab 定义生成式协作者的请求/事件契约，以及基于 Eino 的实现。
package collab

import (
	"github.com/cloudwego/eino/components/tool"
)

// Tier 子角色的能力档位
type Tier string

const (
	TierFast     Tier = "fast"
	TierStandard Tier = "standard"
)

// PermissionMode 协作者的执行权限
type PermissionMode string

const (
	// PermissionDefault 不允许任何写文件副作用
	PermissionDefault PermissionMode = "default"
	// PermissionAcceptEdits 允许在工作目录内写文件
	PermissionAcceptEdits PermissionMode = "accept_edits"
)

// SubRole 可被委派的子角色
type SubRole struct {
	Description string
	Profile     string
	Tier        Tier
}

// Request 一次协作者调用
type Request struct {
	// Role 决定使用哪个模型，同时作为日志与指标标签
	Role string
	// Stage 所属流水线阶段，仅用于观测
	Stage string

	Instructions string
	Profile      string

	SubRoles       map[string]SubRole
	Tools          []tool.BaseTool
	PermissionMode PermissionMode
}
