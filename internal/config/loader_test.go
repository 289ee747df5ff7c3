package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	apperrors "z-scenario-gen/pkg/errors"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SCN_TEST_SET", "from-env")
	t.Setenv("SCN_TEST_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"${SCN_TEST_SET}", "from-env"},
		{"${SCN_TEST_SET:fallback}", "from-env"},
		{"${SCN_TEST_UNSET:fallback}", "fallback"},
		{"${SCN_TEST_UNSET:}", ""},
		{"${SCN_TEST_UNSET}", "${SCN_TEST_UNSET}"},
		{"${SCN_TEST_EMPTY:fallback}", ""},
		{"host=${SCN_TEST_UNSET:localhost}:${SCN_TEST_PORT_UNSET:6379}", "host=localhost:6379"},
		{"no placeholders", "no placeholders"},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in); got != tt.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

const baseConfig = `
generation:
  max_iterations: 3
  batch_size: ${SCN_TEST_COUNT:4}
  mode: pipeline
output:
  dir: out
llm:
  default_provider: main
  providers:
    main:
      api_key: ${SCN_TEST_KEY:}
      model: test-model
`

func TestLoadFromLayersFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", baseConfig)
	writeConfig(t, dir, "config.ci.yaml", "generation:\n  max_iterations: 1\n")
	t.Setenv("APP_ENV", "ci")

	cfg, err := LoadFrom(dir, nil)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Generation.MaxIterations != 1 {
		t.Errorf("MaxIterations = %d, want env file override 1", cfg.Generation.MaxIterations)
	}
	if cfg.Generation.BatchSize != 4 {
		t.Errorf("BatchSize = %d, want placeholder default 4", cfg.Generation.BatchSize)
	}
	if cfg.Output.Dir != "out" || cfg.Output.File != "scenarios.txt" {
		t.Errorf("output = %+v, want dir from file and default file name", cfg.Output)
	}
	if cfg.Generation.MaxToolRounds != 6 || cfg.Generation.Language != "French" {
		t.Errorf("defaults not applied: %+v", cfg.Generation)
	}
	if cfg.LLM.Providers["main"].Model != "test-model" {
		t.Errorf("provider not loaded: %+v", cfg.LLM.Providers)
	}
}

func TestLoadFromExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", baseConfig)
	t.Setenv("APP_ENV", "none")
	t.Setenv("SCN_TEST_COUNT", "9")

	cfg, err := LoadFrom(dir, nil)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Generation.BatchSize != 9 {
		t.Errorf("BatchSize = %d, want 9", cfg.Generation.BatchSize)
	}
}

func TestLoadFromMissingBaseFile(t *testing.T) {
	if _, err := LoadFrom(t.TempDir(), nil); err == nil {
		t.Fatal("LoadFrom() error = nil, want missing config.yaml error")
	}
}

func TestLoadFromFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", baseConfig)
	t.Setenv("APP_ENV", "none")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--count=7", "--mode=orchestrated", "--output-dir=elsewhere"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := LoadFrom(dir, fs)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Generation.BatchSize != 7 || cfg.Generation.Mode != ModeOrchestrated || cfg.Output.Dir != "elsewhere" {
		t.Errorf("flags not applied: generation=%+v output=%+v", cfg.Generation, cfg.Output)
	}
	// 未显式设置的参数不覆盖文件
	if cfg.Generation.MaxIterations != 3 {
		t.Errorf("MaxIterations = %d, want file value 3", cfg.Generation.MaxIterations)
	}
}

func validConfig() *Config {
	return &Config{
		Generation: GenerationConfig{MaxIterations: 3, BatchSize: 10, Mode: ModePipeline, MaxToolRounds: 6},
		Output:     OutputConfig{Dir: "output", File: "scenarios.txt"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero iterations", func(c *Config) { c.Generation.MaxIterations = 0 }, false},
		{"zero batch", func(c *Config) { c.Generation.BatchSize = 0 }, false},
		{"negative iterations", func(c *Config) { c.Generation.MaxIterations = -1 }, true},
		{"negative batch", func(c *Config) { c.Generation.BatchSize = -2 }, true},
		{"no tool rounds", func(c *Config) { c.Generation.MaxToolRounds = 0 }, true},
		{"unknown mode", func(c *Config) { c.Generation.Mode = "swarm" }, true},
		{"empty output file", func(c *Config) { c.Output.File = "  " }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperrors.ErrConfigInvalid) {
				t.Errorf("error %v is not ErrConfigInvalid", err)
			}
		})
	}
}

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range credentialEnvKeys {
		t.Setenv(key, "")
	}
	t.Setenv(baseURLEnvKey, "")
}

func TestResolveCredentials(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		clearCredentialEnv(t)
		cfg := &Config{LLM: LLMConfig{
			DefaultProvider: "main",
			Providers:       map[string]ProviderConfig{"main": {Model: "m"}},
		}}
		_, err := cfg.ResolveCredentials()
		if !errors.Is(err, apperrors.ErrCredentialMissing) {
			t.Fatalf("error = %v, want ErrCredentialMissing", err)
		}
	})

	t.Run("env fills providers in priority order", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "secondary")
		t.Setenv("ANTHROPIC_AUTH_TOKEN", "primary")
		t.Setenv("ANTHROPIC_BASE_URL", "https://proxy.example/v1/")
		cfg := &Config{LLM: LLMConfig{
			DefaultProvider: "main",
			Providers: map[string]ProviderConfig{
				"main": {},
				"fast": {APIKey: "${UNEXPANDED}"},
			},
			Tiers: map[string]string{"fast": "fast"},
		}}
		src, err := cfg.ResolveCredentials()
		if err != nil {
			t.Fatalf("ResolveCredentials() error = %v", err)
		}
		if src.EnvKey != "ANTHROPIC_AUTH_TOKEN" {
			t.Errorf("EnvKey = %q, want ANTHROPIC_AUTH_TOKEN", src.EnvKey)
		}
		for name, p := range cfg.LLM.Providers {
			if p.APIKey != "primary" || p.BaseURL != "https://proxy.example/v1/" {
				t.Errorf("provider %s = %+v", name, p)
			}
		}
	})

	t.Run("configured key kept", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv("LLM_API_KEY", "env-key")
		cfg := &Config{LLM: LLMConfig{
			DefaultProvider: "main",
			Providers:       map[string]ProviderConfig{"main": {APIKey: "file-key"}},
		}}
		if _, err := cfg.ResolveCredentials(); err != nil {
			t.Fatalf("ResolveCredentials() error = %v", err)
		}
		if got := cfg.LLM.Providers["main"].APIKey; got != "file-key" {
			t.Errorf("APIKey = %q, want file-key", got)
		}
	})

	t.Run("role references unknown provider", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv("LLM_API_KEY", "k")
		cfg := &Config{LLM: LLMConfig{
			DefaultProvider: "main",
			Providers:       map[string]ProviderConfig{"main": {}},
			Roles:           map[string]string{"design": "ghost"},
		}}
		_, err := cfg.ResolveCredentials()
		if !errors.Is(err, apperrors.ErrConfigInvalid) {
			t.Fatalf("error = %v, want ErrConfigInvalid", err)
		}
	})
}

func TestProviderFor(t *testing.T) {
	c := &LLMConfig{
		DefaultProvider: "main",
		Tiers:           map[string]string{"fast": "cheap"},
		Roles:           map[string]string{"design": "strong", "creative": " "},
	}
	tests := []struct {
		kind, name, want string
	}{
		{"tier", "fast", "cheap"},
		{"tier", "standard", "main"},
		{"role", "design", "strong"},
		{"role", "creative", "main"},
		{"role", "probe", "main"},
	}
	for _, tt := range tests {
		if got := c.ProviderFor(tt.kind, tt.name); got != tt.want {
			t.Errorf("ProviderFor(%q, %q) = %q, want %q", tt.kind, tt.name, got, tt.want)
		}
	}
}
