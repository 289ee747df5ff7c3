package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	einoobs "z-scenario-gen/internal/observability/eino"
	"z-scenario-gen/internal/workflow/port"
)

// DelegateToolPrefix 子角色委派工具名前缀
const DelegateToolPrefix = "delegate_"

// delegateTool 把一个子角色暴露为工具：模型传入任务描述，子角色用其档位模型作答
type delegateTool struct {
	name     string
	role     SubRole
	resolver port.ChatModelResolver
	stage    string
}

func newDelegateTools(resolver port.ChatModelResolver, stage string, roles map[string]SubRole) []tool.BaseTool {
	if len(roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]tool.BaseTool, 0, len(names))
	for _, name := range names {
		out = append(out, &delegateTool{name: name, role: roles[name], resolver: resolver, stage: stage})
	}
	return out
}

// DelegateToolName 返回子角色对应的工具名，非字母数字字符替换为下划线
func DelegateToolName(subRole string) string {
	var b strings.Builder
	b.WriteString(DelegateToolPrefix)
	for _, r := range strings.ToLower(subRole) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (t *delegateTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: DelegateToolName(t.name),
		Desc: fmt.Sprintf("Delegate a focused task to the %s sub-agent. %s", t.name, t.role.Description),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"task": {Type: schema.String, Desc: "Self-contained task description including all needed context", Required: true},
		}),
	}, nil
}

func (t *delegateTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Task string `json:"task"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil || strings.TrimSpace(args.Task) == "" {
		b, _ := json.Marshal(map[string]any{"error": "task is required"})
		return string(b), nil
	}
	if t.resolver == nil {
		return "", fmt.Errorf("delegate %s: model resolver not configured", t.name)
	}

	tier := t.role.Tier
	if tier == "" {
		tier = TierStandard
	}
	cm, provider, err := t.resolver.ForTier(ctx, string(tier))
	if err != nil {
		return "", fmt.Errorf("delegate %s: %w", t.name, err)
	}

	ctx = einoobs.WithStageProvider(ctx, t.stage, provider)
	out, err := cm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(t.role.Profile),
		schema.UserMessage(args.Task),
	})
	if err != nil {
		return "", fmt.Errorf("delegate %s: %w", t.name, err)
	}
	if out == nil {
		return "", fmt.Errorf("delegate %s: empty response", t.name)
	}
	return out.Content, nil
}
