package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"z-scenario-gen/internal/config"
	"z-scenario-gen/internal/domain/entity"
	apperrors "z-scenario-gen/pkg/errors"
)

func testFormat() FormatFunc {
	return FormatFunc{
		Batch: func(scenarios []*entity.Scenario, title string) string {
			var b strings.Builder
			b.WriteString(title + "\n")
			for _, s := range scenarios {
				b.WriteString(s.Narrative + "\n")
			}
			return b.String()
		},
		Scenario: func(s *entity.Scenario, index int) string {
			return fmt.Sprintf("#%d %s", index, s.Narrative)
		},
	}
}

func testBatch() *entity.ScenarioBatch {
	return &entity.ScenarioBatch{
		RunID:     "run-1",
		Requested: 3,
		Scenarios: []*entity.Scenario{
			{Index: 1, Narrative: "one", Mode: "pipeline", Iterations: 3, Validation: entity.DefaultValidation()},
			{Index: 3, Narrative: "three", Mode: "pipeline", Iterations: 3, Validation: entity.ValidationResult{Issues: []string{"x"}}},
		},
		FailedItems: []int{2},
	}
}

func TestStoreSaveBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	store := NewStore(config.OutputConfig{
		Dir: dir, File: "scenarios.txt", IndividualFiles: true, Manifest: true, Title: "DEFAULT TITLE",
	}, testFormat())

	if err := store.SaveBatch(context.Background(), testBatch()); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	main, err := os.ReadFile(filepath.Join(dir, "scenarios.txt"))
	if err != nil {
		t.Fatalf("read main file: %v", err)
	}
	if string(main) != "DEFAULT TITLE\none\nthree\n" {
		t.Errorf("main file = %q", main)
	}

	second, err := os.ReadFile(filepath.Join(dir, "scenario-2.txt"))
	if err != nil {
		t.Fatalf("read scenario-2.txt: %v", err)
	}
	if string(second) != "#2 three" {
		t.Errorf("scenario-2.txt = %q, want position-numbered file and header", second)
	}
	if _, err := os.Stat(filepath.Join(dir, "scenario-3.txt")); !os.IsNotExist(err) {
		t.Error("files must be numbered by position, not by request index")
	}

	raw, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if m.RunID != "run-1" || m.Succeeded != 2 || m.Validated != 1 || len(m.Failed) != 1 || len(m.Scenarios) != 2 {
		t.Errorf("manifest = %+v", m)
	}
	if m.Scenarios[1].File != "scenario-2.txt" || m.Scenarios[1].Index != 3 || m.Scenarios[1].Valid {
		t.Errorf("manifest entry = %+v", m.Scenarios[1])
	}
}

func TestStoreOverwritesAndSkipsOptionalOutputs(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(config.OutputConfig{Dir: dir, File: "s.txt"}, testFormat())

	for _, title := range []string{"first run", "second run"} {
		b := testBatch()
		b.Title = title
		if err := store.SaveBatch(context.Background(), b); err != nil {
			t.Fatalf("SaveBatch() error = %v", err)
		}
	}
	main, _ := os.ReadFile(filepath.Join(dir, "s.txt"))
	if !strings.HasPrefix(string(main), "second run\n") || strings.Contains(string(main), "first run") {
		t.Errorf("main file not overwritten: %q", main)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the main file", len(entries))
	}
}

func TestStoreReportsPersistenceFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(config.OutputConfig{Dir: filepath.Join(blocker, "sub"), File: "s.txt"}, testFormat())
	err := store.SaveBatch(context.Background(), testBatch())
	if !apperrors.HasCode(err, apperrors.CodePersistenceFailed) {
		t.Fatalf("SaveBatch() error = %v, want PersistenceFailed", err)
	}
}
