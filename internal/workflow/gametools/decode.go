package gametools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "z-scenario-gen/pkg/errors"
)

var (
	balanceFields = []string{"playerHp", "bossHp", "playerDamage", "bossDamage", "turns"}
	choiceFields  = []string{"numChoices", "hasConsequences", "affectsInventory", "affectsStats"}
)

// DecodeBalanceInput 解析工具参数 JSON，缺失字段与类型错误都视为 InvalidToolInput
func DecodeBalanceInput(argsJSON string) (BalanceInput, error) {
	var in BalanceInput
	if err := decodeArgs(argsJSON, balanceFields, &in); err != nil {
		return BalanceInput{}, err
	}
	return in, nil
}

// DecodeChoiceInput 解析工具参数 JSON
func DecodeChoiceInput(argsJSON string) (ChoiceInput, error) {
	var in ChoiceInput
	if err := decodeArgs(argsJSON, choiceFields, &in); err != nil {
		return ChoiceInput{}, err
	}
	return in, nil
}

func decodeArgs(argsJSON string, required []string, out any) error {
	raw := strings.TrimSpace(argsJSON)
	if raw == "" {
		raw = "{}"
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return apperrors.ErrInvalidToolInput.WithDetail(fmt.Sprintf("arguments must be a JSON object: %v", err))
	}

	var missing []string
	for _, f := range required {
		v, ok := fields[f]
		if !ok || string(v) == "null" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.ErrInvalidToolInput.WithDetail("missing required fields: " + strings.Join(missing, ", "))
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return apperrors.ErrInvalidToolInput.WithDetail(fmt.Sprintf("invalid argument types: %v", err))
	}
	return nil
}
