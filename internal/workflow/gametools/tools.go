package gametools

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"z-scenario-gen/pkg/metrics"
)

// 工具名与描述，eino 与 MCP 两种暴露方式共用
const (
	ToolNameValidateBalance  = "validate_balance"
	ToolNameChoiceComplexity = "calculate_choice_complexity"

	ToolDescValidateBalance  = "Validate game balance by checking stats and damage calculations"
	ToolDescChoiceComplexity = "Calculate the complexity and branching factor of game choices"
)

// DesignTools 返回绑定到设计协作者的工具集
func DesignTools() []tool.BaseTool {
	return []tool.BaseTool{
		NewBalanceTool(),
		NewChoiceComplexityTool(),
	}
}

type balanceTool struct{}

// NewBalanceTool 创建 validate_balance 工具
func NewBalanceTool() tool.InvokableTool {
	return &balanceTool{}
}

func (t *balanceTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolNameValidateBalance,
		Desc: ToolDescValidateBalance,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"playerHp":     {Type: schema.Number, Desc: "Player hit points, 1-9999", Required: true},
			"bossHp":       {Type: schema.Number, Desc: "Boss hit points, 1-99999", Required: true},
			"playerDamage": {Type: schema.Number, Desc: "Player damage per turn, 0-1000", Required: true},
			"bossDamage":   {Type: schema.Number, Desc: "Boss damage per turn, 0-1000", Required: true},
			"turns":        {Type: schema.Number, Desc: "Expected battle length in turns, 1-100", Required: true},
		}),
	}, nil
}

func (t *balanceTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	in, err := DecodeBalanceInput(argumentsInJSON)
	if err != nil {
		return toolError(ToolNameValidateBalance, err), nil
	}
	report, err := EvaluateBalance(in)
	if err != nil {
		return toolError(ToolNameValidateBalance, err), nil
	}
	return toolResult(ToolNameValidateBalance, report), nil
}

type choiceComplexityTool struct{}

// NewChoiceComplexityTool 创建 calculate_choice_complexity 工具
func NewChoiceComplexityTool() tool.InvokableTool {
	return &choiceComplexityTool{}
}

func (t *choiceComplexityTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolNameChoiceComplexity,
		Desc: ToolDescChoiceComplexity,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"numChoices":       {Type: schema.Number, Desc: "Number of options at the decision node, 1-10", Required: true},
			"hasConsequences":  {Type: schema.Boolean, Desc: "Whether choices have lasting consequences", Required: true},
			"affectsInventory": {Type: schema.Boolean, Desc: "Whether choices change the inventory", Required: true},
			"affectsStats":     {Type: schema.Boolean, Desc: "Whether choices change player stats", Required: true},
		}),
	}, nil
}

func (t *choiceComplexityTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	in, err := DecodeChoiceInput(argumentsInJSON)
	if err != nil {
		return toolError(ToolNameChoiceComplexity, err), nil
	}
	report, err := EvaluateChoiceComplexity(in)
	if err != nil {
		return toolError(ToolNameChoiceComplexity, err), nil
	}
	return toolResult(ToolNameChoiceComplexity, report), nil
}

// toolError 将输入错误作为工具输出返回给模型，由模型自行修正参数
func toolError(name string, err error) string {
	metrics.ToolCallTotal.WithLabelValues(name, "invalid_input").Inc()
	b, _ := json.Marshal(map[string]any{"error": err.Error()})
	return string(b)
}

func toolResult(name string, v any) string {
	metrics.ToolCallTotal.WithLabelValues(name, "success").Inc()
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
