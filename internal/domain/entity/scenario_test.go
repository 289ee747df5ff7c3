package entity

import "testing"

func TestValidationSummary(t *testing.T) {
	tests := []struct {
		v    ValidationResult
		want string
	}{
		{DefaultValidation(), "VALIDATED"},
		{ValidationResult{IsValid: false, Issues: []string{"boss too strong", "no ending"}}, "ISSUES: boss too strong; no ending"},
		{ValidationResult{IsValid: false}, "ISSUES: (none reported)"},
		{ValidationResult{IsValid: false, Issues: []string{}}, "ISSUES: (none reported)"},
	}
	for _, tt := range tests {
		if got := tt.v.Summary(); got != tt.want {
			t.Errorf("Summary() = %q, want %q", got, tt.want)
		}
	}
}

func TestValidCount(t *testing.T) {
	b := &ScenarioBatch{Scenarios: []*Scenario{
		{Validation: DefaultValidation()},
		{Validation: ValidationResult{IsValid: false, Issues: []string{"x"}}},
		{Validation: DefaultValidation()},
	}}
	if got := b.ValidCount(); got != 2 {
		t.Errorf("ValidCount() = %d, want 2", got)
	}
}
