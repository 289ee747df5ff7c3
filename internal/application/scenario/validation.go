package scenario

import (
	"encoding/json"

	"z-scenario-gen/internal/domain/entity"
	"z-scenario-gen/internal/workflow/node"
)

// ValidationDecode 尽力解析校验输出的结果
// OK 为 false 时 Result 为乐观默认值，Reason 说明原因。
type ValidationDecode struct {
	Result entity.ValidationResult
	OK     bool
	Reason string
}

// DecodeValidation 取第一个 { 到最后一个 } 之间的文本并按 JSON 解码
func DecodeValidation(text string) ValidationDecode {
	raw, ok := node.GreedyJSONObject(text)
	if !ok {
		return ValidationDecode{Result: entity.DefaultValidation(), Reason: "no json object found"}
	}

	var payload struct {
		IsValid *bool    `json:"isValid"`
		Issues  []string `json:"issues"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ValidationDecode{Result: entity.DefaultValidation(), Reason: err.Error()}
	}

	res := entity.DefaultValidation()
	if payload.IsValid != nil {
		res.IsValid = *payload.IsValid
	}
	if payload.Issues != nil {
		res.Issues = payload.Issues
	}
	return ValidationDecode{Result: res, OK: true}
}
