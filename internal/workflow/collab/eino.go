package collab

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	einoobs "z-scenario-gen/internal/observability/eino"
	"z-scenario-gen/internal/workflow/node"
	"z-scenario-gen/internal/workflow/port"
	apperrors "z-scenario-gen/pkg/errors"
	"z-scenario-gen/pkg/logger"
)

// DefaultMaxToolRounds 单次调用允许的工具往返上限
const DefaultMaxToolRounds = 6

// EinoConfig EinoCollaborator 配置
type EinoConfig struct {
	MaxToolRounds int
	// Workspace accept_edits 模式下 write_file 的根目录
	Workspace string
}

// EinoCollaborator 基于 Eino ChatModel 与 ReAct 图实现的协作者
//
// 一次 Invoke 的事件顺序：system/init（携带会话 ID）→ 每轮模型输出一个 assistant 事件
// → 每轮工具执行一个 tool 事件，直到模型不再请求工具。
type EinoCollaborator struct {
	resolver port.ChatModelResolver
	cfg      EinoConfig

	graphOnce sync.Once
	graph     compose.Runnable[*invocation, []*Event]
	graphErr  error

	toolsNodeOnce sync.Once
	toolsNode     *compose.ToolsNode
	toolsNodeErr  error
}

// NewEinoCollaborator 创建协作者
func NewEinoCollaborator(resolver port.ChatModelResolver, cfg EinoConfig) *EinoCollaborator {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	return &EinoCollaborator{resolver: resolver, cfg: cfg}
}

type invocation struct {
	req       *Request
	sessionID string
}

type reactState struct {
	inv           *invocation
	provider      string
	baseModel     model.BaseChatModel
	chatModel     model.BaseChatModel
	toolsBound    bool
	messages      []*schema.Message
	lastAssistant *schema.Message
	tools         []tool.BaseTool
	toolRounds    int
	maxToolRounds int
	events        []*Event
}

// Invoke 执行一次协作者调用，返回已完成的事件流
func (c *EinoCollaborator) Invoke(ctx context.Context, req *Request) (EventStream, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeCollaboratorFailure, "request is nil")
	}
	g, err := c.getGraph()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCollaboratorFailure, "build collaborator graph")
	}

	inv := &invocation{req: req, sessionID: uuid.NewString()}
	events, err := g.Invoke(ctx, inv, compose.WithRuntimeMaxSteps(maxGraphSteps(c.cfg.MaxToolRounds)))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCollaboratorFailure, "collaborator "+req.Role+" failed")
	}
	return NewEventStream(events...), nil
}

// maxGraphSteps 覆盖 R 轮工具往返所需步数：init + model + R*(tools+model) + finalize
func maxGraphSteps(maxToolRounds int) int {
	return 2*maxToolRounds + 4
}

func (c *EinoCollaborator) getGraph() (compose.Runnable[*invocation, []*Event], error) {
	c.graphOnce.Do(func() {
		c.graph, c.graphErr = c.buildGraph(context.Background())
	})
	return c.graph, c.graphErr
}

// getToolsNode 懒加载工具执行节点，具体工具在调用时经 compose.WithToolList 传入
func (c *EinoCollaborator) getToolsNode() (*compose.ToolsNode, error) {
	c.toolsNodeOnce.Do(func() {
		c.toolsNode, c.toolsNodeErr = compose.NewToolNode(context.Background(), &compose.ToolsNodeConfig{
			Tools:               nil,
			ExecuteSequentially: true,
			UnknownToolsHandler: func(_ context.Context, name, _ string) (string, error) {
				return toolErrorJSON(fmt.Sprintf("unknown tool: %s", strings.TrimSpace(name))), nil
			},
		})
	})
	return c.toolsNode, c.toolsNodeErr
}

// buildGraph 构建 ReAct 图：init -> model <-> tools -> finalize
func (c *EinoCollaborator) buildGraph(ctx context.Context) (compose.Runnable[*invocation, []*Event], error) {
	graph := compose.NewGraph[*invocation, []*Event]()

	toolsNode, err := c.getToolsNode()
	if err != nil {
		return nil, err
	}

	if err := graph.AddLambdaNode("init", compose.InvokableLambda(func(ctx context.Context, inv *invocation) (*reactState, error) {
		return c.initState(ctx, inv)
	}), compose.WithNodeName("collab.init")); err != nil {
		return nil, err
	}

	if err := graph.AddLambdaNode("model", compose.InvokableLambda(func(ctx context.Context, st *reactState) (*reactState, error) {
		ctx = einoobs.WithStageProvider(ctx, st.inv.req.Stage, st.provider)

		out, err := st.chatModel.Generate(ctx, st.messages)
		// 模型不支持工具时回退到无工具模式
		if err != nil && node.IsToolsUnsupportedError(err) && st.toolsBound {
			logger.Warn(ctx, "llm tools not supported, fallback to no-tools",
				"role", st.inv.req.Role,
				"provider", st.provider,
				"error", err.Error(),
			)
			st.chatModel = st.baseModel
			st.toolsBound = false
			st.tools = nil
			out, err = st.chatModel.Generate(ctx, st.messages)
		}
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, fmt.Errorf("empty llm response")
		}

		st.lastAssistant = out
		st.messages = append(st.messages, out)
		st.events = append(st.events, &Event{
			Kind:      EventAssistant,
			SessionID: st.inv.sessionID,
			Content:   segmentsFromMessage(out),
		})
		return st, nil
	}), compose.WithNodeName("collab.model")); err != nil {
		return nil, err
	}

	if err := graph.AddLambdaNode("tools", compose.InvokableLambda(func(ctx context.Context, st *reactState) (*reactState, error) {
		ctx = einoobs.WithStageProvider(ctx, st.inv.req.Stage, st.provider)

		outMsgs, err := toolsNode.Invoke(ctx, st.lastAssistant, compose.WithToolList(st.tools...))
		if err != nil {
			return nil, err
		}
		st.messages = append(st.messages, outMsgs...)
		st.toolRounds++

		segs := make([]Segment, 0, len(outMsgs))
		for _, m := range outMsgs {
			segs = append(segs, OtherSegment{Type: "tool_result:" + m.ToolName})
		}
		st.events = append(st.events, &Event{Kind: EventTool, SessionID: st.inv.sessionID, Content: segs})
		return st, nil
	}), compose.WithNodeName("collab.tools")); err != nil {
		return nil, err
	}

	if err := graph.AddLambdaNode("finalize", compose.InvokableLambda(func(_ context.Context, st *reactState) ([]*Event, error) {
		return st.events, nil
	}), compose.WithNodeName("collab.finalize")); err != nil {
		return nil, err
	}

	if err := graph.AddEdge(compose.START, "init"); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("init", "model"); err != nil {
		return nil, err
	}

	branch := func(_ context.Context, st *reactState) (string, error) {
		if st == nil || st.lastAssistant == nil || len(st.lastAssistant.ToolCalls) == 0 || len(st.tools) == 0 {
			return "finalize", nil
		}
		if st.toolRounds >= st.maxToolRounds {
			return "", fmt.Errorf("too many tool rounds (max %d)", st.maxToolRounds)
		}
		return "tools", nil
	}
	if err := graph.AddBranch("model", compose.NewGraphBranch(branch, map[string]bool{"tools": true, "finalize": true})); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("tools", "model"); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("finalize", compose.END); err != nil {
		return nil, err
	}

	return graph.Compile(ctx, compose.WithGraphName("collaborator_react_graph"))
}

// initState 解析模型、组装工具与消息，并写入 system/init 事件
func (c *EinoCollaborator) initState(ctx context.Context, inv *invocation) (*reactState, error) {
	if inv == nil || inv.req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	if c.resolver == nil {
		return nil, fmt.Errorf("llm resolver not configured")
	}
	req := inv.req

	baseModel, provider, err := c.resolver.ForRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}

	tools := make([]tool.BaseTool, 0, len(req.Tools)+len(req.SubRoles)+1)
	tools = append(tools, req.Tools...)
	tools = append(tools, newDelegateTools(c.resolver, req.Stage, req.SubRoles)...)
	if req.PermissionMode == PermissionAcceptEdits && strings.TrimSpace(c.cfg.Workspace) != "" {
		tools = append(tools, newWriteFileTool(c.cfg.Workspace))
	}

	chatModel := baseModel
	bound := false
	if len(tools) > 0 {
		infos := make([]*schema.ToolInfo, 0, len(tools))
		for _, t := range tools {
			info, err := t.Info(ctx)
			if err != nil {
				return nil, err
			}
			infos = append(infos, info)
		}
		if tcm, ok := baseModel.(model.ToolCallingChatModel); ok {
			withTools, err := tcm.WithTools(infos)
			if err == nil && withTools != nil {
				chatModel = withTools
				bound = true
			}
		}
		if !bound {
			tools = nil
		}
	}

	logger.Debug(ctx, "collaborator session started",
		"session_id", inv.sessionID,
		"role", req.Role,
		"provider", provider,
		"tools", len(tools),
	)

	return &reactState{
		inv:           inv,
		provider:      provider,
		baseModel:     baseModel,
		chatModel:     chatModel,
		toolsBound:    bound,
		messages:      buildMessages(req),
		tools:         tools,
		maxToolRounds: c.cfg.MaxToolRounds,
		events:        []*Event{SystemInit(inv.sessionID)},
	}, nil
}

// buildMessages 组装 system（角色设定 + 子角色清单）与 user（任务）消息
func buildMessages(req *Request) []*schema.Message {
	system := strings.TrimSpace(req.Profile)
	if roster := subRoleRoster(req.SubRoles); roster != "" {
		system += "\n\n" + roster
	}
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(req.Instructions),
	}
}

func subRoleRoster(roles map[string]SubRole) string {
	if len(roles) == 0 {
		return ""
	}
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("You can delegate focused work to these sub-agents through their tools:")
	for _, name := range names {
		fmt.Fprintf(&b, "\n- %s (%s): %s", name, DelegateToolName(name), roles[name].Description)
	}
	return b.String()
}
