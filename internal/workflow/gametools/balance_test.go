package gametools

import (
	"errors"
	"strings"
	"testing"

	apperrors "z-scenario-gen/pkg/errors"
)

func TestEvaluateBalance(t *testing.T) {
	tests := []struct {
		name          string
		in            BalanceInput
		turnsToDefeat int
		turnsToLose   int
		score         int
		balanced      bool
		feedback      []string
	}{
		{
			name:          "good balance",
			in:            BalanceInput{PlayerHP: 100, BossHP: 500, PlayerDamage: 50, BossDamage: 20, Turns: 10},
			turnsToDefeat: 10,
			turnsToLose:   5,
			score:         2,
			balanced:      true,
			feedback:      []string{"✅ Good balance: ~10 turns to defeat boss"},
		},
		{
			name:          "boss too weak",
			in:            BalanceInput{PlayerHP: 100, BossHP: 100, PlayerDamage: 90, BossDamage: 20, Turns: 10},
			turnsToDefeat: 2,
			turnsToLose:   5,
			score:         -2,
			balanced:      false,
			feedback:      []string{"⚠️ Boss too weak - will be defeated in under 3 turns"},
		},
		{
			name:          "boss too strong and player fragile",
			in:            BalanceInput{PlayerHP: 10, BossHP: 5000, PlayerDamage: 10, BossDamage: 100, Turns: 10},
			turnsToDefeat: 500,
			turnsToLose:   1,
			score:         -4,
			balanced:      false,
			feedback: []string{
				"⚠️ Boss too strong - battle will take over 20 turns",
				"⚠️ Player dies too quickly",
			},
		},
		{
			name:          "survivable",
			in:            BalanceInput{PlayerHP: 1000, BossHP: 300, PlayerDamage: 30, BossDamage: 10, Turns: 10},
			turnsToDefeat: 10,
			turnsToLose:   100,
			score:         3,
			balanced:      true,
			feedback: []string{
				"✅ Good balance: ~10 turns to defeat boss",
				"✅ Player has good survivability",
			},
		},
		{
			name:          "ceil rounding",
			in:            BalanceInput{PlayerHP: 100, BossHP: 101, PlayerDamage: 50, BossDamage: 40, Turns: 5},
			turnsToDefeat: 3,
			turnsToLose:   3,
			score:         2,
			balanced:      true,
			feedback:      []string{"✅ Good balance: ~3 turns to defeat boss"},
		},
		{
			name:          "zero player damage never defeats boss",
			in:            BalanceInput{PlayerHP: 100, BossHP: 500, PlayerDamage: 0, BossDamage: 20, Turns: 10},
			turnsToDefeat: InfiniteTurns,
			turnsToLose:   5,
			score:         -2,
			balanced:      false,
			feedback:      []string{"⚠️ Boss too strong - battle will take over 20 turns"},
		},
		{
			name:          "zero boss damage never loses",
			in:            BalanceInput{PlayerHP: 100, BossHP: 500, PlayerDamage: 50, BossDamage: 0, Turns: 10},
			turnsToDefeat: 10,
			turnsToLose:   InfiniteTurns,
			score:         3,
			balanced:      true,
			feedback: []string{
				"✅ Good balance: ~10 turns to defeat boss",
				"✅ Player has good survivability",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateBalance(tt.in)
			if err != nil {
				t.Fatalf("EvaluateBalance() error = %v", err)
			}
			if got.TurnsToDefeat != tt.turnsToDefeat {
				t.Errorf("TurnsToDefeat = %d, want %d", got.TurnsToDefeat, tt.turnsToDefeat)
			}
			if got.TurnsToLose != tt.turnsToLose {
				t.Errorf("TurnsToLose = %d, want %d", got.TurnsToLose, tt.turnsToLose)
			}
			if got.BalanceScore != tt.score {
				t.Errorf("BalanceScore = %d, want %d", got.BalanceScore, tt.score)
			}
			if got.IsBalanced != tt.balanced {
				t.Errorf("IsBalanced = %v, want %v", got.IsBalanced, tt.balanced)
			}
			if strings.Join(got.Feedback, "|") != strings.Join(tt.feedback, "|") {
				t.Errorf("Feedback = %q, want %q", got.Feedback, tt.feedback)
			}
		})
	}
}

func TestEvaluateBalanceDeterministic(t *testing.T) {
	in := BalanceInput{PlayerHP: 120, BossHP: 900, PlayerDamage: 45, BossDamage: 12, Turns: 20}
	a, _ := EvaluateBalance(in)
	b, _ := EvaluateBalance(in)
	if a.BalanceScore != b.BalanceScore || a.TurnsToDefeat != b.TurnsToDefeat || len(a.Feedback) != len(b.Feedback) {
		t.Fatalf("EvaluateBalance not deterministic: %+v vs %+v", a, b)
	}
}

func TestEvaluateBalanceRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		in     BalanceInput
		fields []string
	}{
		{"player hp zero", BalanceInput{PlayerHP: 0, BossHP: 10, PlayerDamage: 1, BossDamage: 1, Turns: 1}, []string{"playerHp"}},
		{"boss hp too high", BalanceInput{PlayerHP: 1, BossHP: 100000, PlayerDamage: 1, BossDamage: 1, Turns: 1}, []string{"bossHp"}},
		{"negative damage", BalanceInput{PlayerHP: 1, BossHP: 1, PlayerDamage: -1, BossDamage: 1001, Turns: 1}, []string{"playerDamage", "bossDamage"}},
		{"turns too many", BalanceInput{PlayerHP: 1, BossHP: 1, PlayerDamage: 1, BossDamage: 1, Turns: 101}, []string{"turns"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateBalance(tt.in)
			if !errors.Is(err, apperrors.ErrInvalidToolInput) {
				t.Fatalf("error = %v, want InvalidToolInput", err)
			}
			for _, f := range tt.fields {
				if !strings.Contains(err.Error(), f) {
					t.Errorf("error %q does not mention %s", err.Error(), f)
				}
			}
		})
	}
}
