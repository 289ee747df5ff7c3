package redis

import "testing"

func TestScenarioKeys(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{RunKeyPrefix("r1"), "scenario:run:r1:"},
		{batchKey("r1"), "scenario:run:r1:batch"},
		{textKey("r1"), "scenario:run:r1:text"},
		{scenarioKey("r1", 4), "scenario:run:r1:scenario:4"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}
