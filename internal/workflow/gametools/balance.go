// Package gametools 提供设计协作者可调用的确定性计算工具。
//
// 工具均为纯函数：先按声明范围校验输入，越界时返回 ErrInvalidToolInput，
// 不会产生任何副作用。
package gametools

import (
	"fmt"
	"math"
	"strings"

	apperrors "z-scenario-gen/pkg/errors"
)

// InfiniteTurns 伤害为 0 时的回合数哨兵值，表示“永远不会发生”
const InfiniteTurns = math.MaxInt32

// 战斗平衡阈值
const (
	minTurnsToDefeat = 3
	maxTurnsToDefeat = 20
	minTurnsToLose   = 2
	safeTurnsToLose  = 15
)

// BalanceInput 战斗数值
type BalanceInput struct {
	PlayerHP     float64 `json:"playerHp"`
	BossHP       float64 `json:"bossHp"`
	PlayerDamage float64 `json:"playerDamage"`
	BossDamage   float64 `json:"bossDamage"`
	Turns        float64 `json:"turns"`
}

// BalanceReport 平衡评估结果
type BalanceReport struct {
	IsBalanced    bool     `json:"isBalanced"`
	BalanceScore  int      `json:"balanceScore"`
	Feedback      []string `json:"feedback"`
	TurnsToDefeat int      `json:"turnsToDefeat"`
	TurnsToLose   int      `json:"turnsToLose"`
}

type numericRange struct {
	field    string
	value    float64
	min, max float64
}

func (r numericRange) violation() string {
	if math.IsNaN(r.value) || r.value < r.min || r.value > r.max {
		return fmt.Sprintf("%s must be in [%g, %g], got %g", r.field, r.min, r.max, r.value)
	}
	return ""
}

func checkRanges(ranges ...numericRange) error {
	var violations []string
	for _, r := range ranges {
		if v := r.violation(); v != "" {
			violations = append(violations, v)
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return apperrors.ErrInvalidToolInput.WithDetail(strings.Join(violations, "; "))
}

// Validate 校验输入范围
func (in BalanceInput) Validate() error {
	return checkRanges(
		numericRange{"playerHp", in.PlayerHP, 1, 9999},
		numericRange{"bossHp", in.BossHP, 1, 99999},
		numericRange{"playerDamage", in.PlayerDamage, 0, 1000},
		numericRange{"bossDamage", in.BossDamage, 0, 1000},
		numericRange{"turns", in.Turns, 1, 100},
	)
}

// EvaluateBalance 评估 Boss 战的数值平衡
func EvaluateBalance(in BalanceInput) (BalanceReport, error) {
	if err := in.Validate(); err != nil {
		return BalanceReport{}, err
	}

	report := BalanceReport{
		TurnsToDefeat: turnsUntil(in.BossHP, in.PlayerDamage),
		TurnsToLose:   turnsUntil(in.PlayerHP, in.BossDamage),
		Feedback:      make([]string, 0, 2),
	}

	switch {
	case report.TurnsToDefeat < minTurnsToDefeat:
		report.Feedback = append(report.Feedback, "⚠️ Boss too weak - will be defeated in under 3 turns")
		report.BalanceScore -= 2
	case report.TurnsToDefeat > maxTurnsToDefeat:
		report.Feedback = append(report.Feedback, "⚠️ Boss too strong - battle will take over 20 turns")
		report.BalanceScore -= 2
	default:
		report.Feedback = append(report.Feedback, fmt.Sprintf("✅ Good balance: ~%d turns to defeat boss", report.TurnsToDefeat))
		report.BalanceScore += 2
	}

	switch {
	case report.TurnsToLose < minTurnsToLose:
		report.Feedback = append(report.Feedback, "⚠️ Player dies too quickly")
		report.BalanceScore -= 2
	case report.TurnsToLose > safeTurnsToLose:
		report.Feedback = append(report.Feedback, "✅ Player has good survivability")
		report.BalanceScore++
	}

	report.IsBalanced = report.BalanceScore >= 0
	return report, nil
}

// turnsUntil 返回 ceil(hp/damage)，damage 为 0 时返回 InfiniteTurns
func turnsUntil(hp, damage float64) int {
	if damage <= 0 {
		return InfiniteTurns
	}
	turns := math.Ceil(hp / damage)
	if turns >= InfiniteTurns {
		return InfiniteTurns
	}
	return int(turns)
}
