package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelResolver 定义工作流层对 LLM ChatModel 的最小依赖（port）。
// 按协作者角色或能力档位解析 ChatModel，并返回所用 provider 名。
type ChatModelResolver interface {
	ForRole(ctx context.Context, role string) (model.BaseChatModel, string, error)
	ForTier(ctx context.Context, tier string) (model.BaseChatModel, string, error)
}
