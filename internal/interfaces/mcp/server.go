// Package mcp 通过 MCP 协议对外暴露设计协作者使用的计算工具。
//
// 工具实现与 eino 绑定共用 gametools，两种入口返回的 JSON 完全一致。
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"z-scenario-gen/internal/workflow/gametools"
	"z-scenario-gen/pkg/logger"
	"z-scenario-gen/pkg/metrics"
)

const serverName = "scenario-tools"

// NewServer 创建注册了 validate_balance 与 calculate_choice_complexity 的 MCP 服务
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.AddTool(balanceTool(), HandleValidateBalance)
	s.AddTool(choiceComplexityTool(), HandleChoiceComplexity)
	return s
}

const instructions = "Deterministic calculators for narrative game design. " +
	"Use validate_balance for combat stats and calculate_choice_complexity for decision nodes."

func balanceTool() mcp.Tool {
	return mcp.NewTool(gametools.ToolNameValidateBalance,
		mcp.WithDescription(gametools.ToolDescValidateBalance),
		mcp.WithNumber("playerHp", mcp.Required(), mcp.Description("Player hit points"), mcp.Min(1), mcp.Max(9999)),
		mcp.WithNumber("bossHp", mcp.Required(), mcp.Description("Boss hit points"), mcp.Min(1), mcp.Max(99999)),
		mcp.WithNumber("playerDamage", mcp.Required(), mcp.Description("Player damage per turn"), mcp.Min(0), mcp.Max(1000)),
		mcp.WithNumber("bossDamage", mcp.Required(), mcp.Description("Boss damage per turn"), mcp.Min(0), mcp.Max(1000)),
		mcp.WithNumber("turns", mcp.Required(), mcp.Description("Expected battle length in turns"), mcp.Min(1), mcp.Max(100)),
	)
}

func choiceComplexityTool() mcp.Tool {
	return mcp.NewTool(gametools.ToolNameChoiceComplexity,
		mcp.WithDescription(gametools.ToolDescChoiceComplexity),
		mcp.WithNumber("numChoices", mcp.Required(), mcp.Description("Number of options at the decision node"), mcp.Min(1), mcp.Max(10)),
		mcp.WithBoolean("hasConsequences", mcp.Required(), mcp.Description("Whether choices have lasting consequences")),
		mcp.WithBoolean("affectsInventory", mcp.Required(), mcp.Description("Whether choices change the inventory")),
		mcp.WithBoolean("affectsStats", mcp.Required(), mcp.Description("Whether choices change player stats")),
	)
}

// HandleValidateBalance 处理 validate_balance 调用
func HandleValidateBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := argumentsJSON(req)
	if err != nil {
		return invalid(ctx, gametools.ToolNameValidateBalance, err), nil
	}
	in, err := gametools.DecodeBalanceInput(args)
	if err != nil {
		return invalid(ctx, gametools.ToolNameValidateBalance, err), nil
	}
	report, err := gametools.EvaluateBalance(in)
	if err != nil {
		return invalid(ctx, gametools.ToolNameValidateBalance, err), nil
	}
	return success(gametools.ToolNameValidateBalance, report)
}

// HandleChoiceComplexity 处理 calculate_choice_complexity 调用
func HandleChoiceComplexity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := argumentsJSON(req)
	if err != nil {
		return invalid(ctx, gametools.ToolNameChoiceComplexity, err), nil
	}
	in, err := gametools.DecodeChoiceInput(args)
	if err != nil {
		return invalid(ctx, gametools.ToolNameChoiceComplexity, err), nil
	}
	report, err := gametools.EvaluateChoiceComplexity(in)
	if err != nil {
		return invalid(ctx, gametools.ToolNameChoiceComplexity, err), nil
	}
	return success(gametools.ToolNameChoiceComplexity, report)
}

// argumentsJSON 把 MCP 参数重新编码为 JSON，复用 gametools 的严格解码
func argumentsJSON(req mcp.CallToolRequest) (string, error) {
	args := req.GetArguments()
	if args == nil {
		args = map[string]any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func invalid(ctx context.Context, name string, err error) *mcp.CallToolResult {
	metrics.ToolCallTotal.WithLabelValues(name, "invalid_input").Inc()
	logger.Warn(ctx, "mcp tool rejected input", "tool", name, "error", err.Error())
	return mcp.NewToolResultError(err.Error())
}

func success(name string, v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	metrics.ToolCallTotal.WithLabelValues(name, "success").Inc()
	return mcp.NewToolResultText(string(b)), nil
}
