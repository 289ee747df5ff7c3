package scenario

import (
	"encoding/json"
	"reflect"
	"testing"

	"z-scenario-gen/internal/domain/entity"
)

func TestDecodeValidation(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   entity.ValidationResult
		wantOK bool
	}{
		{"plain", `{"isValid": true, "issues": []}`, entity.ValidationResult{IsValid: true, Issues: []string{}}, true},
		{"surrounded by prose", "Here you go:\n```json\n{\"isValid\": false, \"issues\": [\"a\", \"b\"]}\n```", entity.ValidationResult{IsValid: false, Issues: []string{"a", "b"}}, true},
		{"null issues", `{"isValid": false, "issues": null}`, entity.ValidationResult{IsValid: false, Issues: []string{}}, true},
		{"no braces", "looks good", entity.DefaultValidation(), false},
		{"empty", "", entity.DefaultValidation(), false},
		{"invalid json", `{"isValid": true/false}`, entity.DefaultValidation(), false},
		{"two objects", `{"isValid": false} and {"issues": []}`, entity.DefaultValidation(), false},
		{"closing before opening", `} nothing {`, entity.DefaultValidation(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeValidation(tt.text)
			if got.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v (reason %q)", got.OK, tt.wantOK, got.Reason)
			}
			if !reflect.DeepEqual(got.Result, tt.want) {
				t.Errorf("Result = %+v, want %+v", got.Result, tt.want)
			}
			if !got.OK && got.Reason == "" {
				t.Error("fallback without reason")
			}
		})
	}
}

func TestDecodeValidationIdempotent(t *testing.T) {
	inputs := []string{
		`{"isValid": false, "issues": ["boss too strong", "unclear choice"]}`,
		`{"isValid": true, "issues": []}`,
	}
	for _, in := range inputs {
		first := DecodeValidation(in)
		if !first.OK {
			t.Fatalf("DecodeValidation(%s) not OK", in)
		}
		b, err := json.Marshal(first.Result)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		second := DecodeValidation(string(b))
		if !second.OK || !reflect.DeepEqual(first.Result, second.Result) {
			t.Errorf("re-decoded %+v, want %+v", second.Result, first.Result)
		}
	}
}
