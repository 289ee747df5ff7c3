package gametools

import (
	"errors"
	"testing"

	apperrors "z-scenario-gen/pkg/errors"
)

func TestEvaluateChoiceComplexity(t *testing.T) {
	tests := []struct {
		name       string
		in         ChoiceInput
		complexity float64
		quality    Quality
		notes      int
	}{
		{
			name:       "rich node",
			in:         ChoiceInput{NumChoices: 4, HasConsequences: true, AffectsInventory: true},
			complexity: 4.5,
			quality:    QualityHigh,
			notes:      3,
		},
		{
			name:       "binary choice only",
			in:         ChoiceInput{NumChoices: 2},
			complexity: 1,
			quality:    QualityBasic,
			notes:      0,
		},
		{
			name:       "binary with consequences and stats",
			in:         ChoiceInput{NumChoices: 2, HasConsequences: true, AffectsStats: true},
			complexity: 2.5,
			quality:    QualityMedium,
			notes:      2,
		},
		{
			name:       "exactly three is not high",
			in:         ChoiceInput{NumChoices: 1, HasConsequences: true, AffectsInventory: true, AffectsStats: true},
			complexity: 3,
			quality:    QualityMedium,
			notes:      3,
		},
		{
			name:       "three choices",
			in:         ChoiceInput{NumChoices: 3},
			complexity: 2.5,
			quality:    QualityMedium,
			notes:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateChoiceComplexity(tt.in)
			if err != nil {
				t.Fatalf("EvaluateChoiceComplexity() error = %v", err)
			}
			if got.Complexity != tt.complexity {
				t.Errorf("Complexity = %v, want %v", got.Complexity, tt.complexity)
			}
			if got.Quality != tt.quality {
				t.Errorf("Quality = %s, want %s", got.Quality, tt.quality)
			}
			if len(got.Notes) != tt.notes {
				t.Errorf("Notes = %q, want %d entries", got.Notes, tt.notes)
			}
		})
	}
}

func TestEvaluateChoiceComplexityRejectsOutOfRange(t *testing.T) {
	for _, n := range []float64{0, 11, -3} {
		if _, err := EvaluateChoiceComplexity(ChoiceInput{NumChoices: n}); !errors.Is(err, apperrors.ErrInvalidToolInput) {
			t.Errorf("numChoices=%v: error = %v, want InvalidToolInput", n, err)
		}
	}
}
