package config

import (
	"os"
	"strings"

	apperrors "z-scenario-gen/pkg/errors"
)

// 凭证环境变量，按优先级排列
var credentialEnvKeys = []string{
	"ANTHROPIC_AUTH_TOKEN",
	"ANTHROPIC_API_KEY",
	"LLM_API_KEY",
}

// baseURLEnvKey 覆盖所有 provider 的 base_url
const baseURLEnvKey = "ANTHROPIC_BASE_URL"

// CredentialSource 记录凭证来源，仅用于诊断输出
type CredentialSource struct {
	EnvKey  string
	BaseURL string
}

// ResolveCredentials 用环境变量补全 provider 凭证
// 默认 provider 与角色、档位引用的 provider 均需拿到凭证，否则返回 CredentialMissing。
func (c *Config) ResolveCredentials() (CredentialSource, error) {
	var src CredentialSource

	envKey, envVal := lookupCredential()
	src.EnvKey = envKey
	baseURL := strings.TrimSpace(os.Getenv(baseURLEnvKey))
	src.BaseURL = baseURL

	if c.LLM.Providers == nil {
		c.LLM.Providers = make(map[string]ProviderConfig)
	}

	for name, p := range c.LLM.Providers {
		if strings.TrimSpace(p.APIKey) == "" || strings.HasPrefix(p.APIKey, "${") {
			p.APIKey = envVal
		}
		if baseURL != "" {
			p.BaseURL = baseURL
		}
		c.LLM.Providers[name] = p
	}

	for _, name := range c.referencedProviders() {
		p, ok := c.LLM.Providers[name]
		if !ok {
			return src, apperrors.ErrConfigInvalid.WithDetail("llm provider " + name + " is not configured")
		}
		if p.APIKey == "" {
			return src, apperrors.ErrCredentialMissing.WithDetail(
				"set one of " + strings.Join(credentialEnvKeys, ", ") + " or llm.providers." + name + ".api_key")
		}
	}
	return src, nil
}

// ProviderFor 解析角色或档位对应的 provider，未映射时回落默认 provider
func (c *LLMConfig) ProviderFor(kind, name string) string {
	var m map[string]string
	switch kind {
	case "tier":
		m = c.Tiers
	default:
		m = c.Roles
	}
	if p := strings.TrimSpace(m[name]); p != "" {
		return p
	}
	return c.DefaultProvider
}

func (c *Config) referencedProviders() []string {
	seen := map[string]bool{c.LLM.DefaultProvider: true}
	out := []string{c.LLM.DefaultProvider}
	for _, m := range []map[string]string{c.LLM.Roles, c.LLM.Tiers} {
		for _, p := range m {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func lookupCredential() (string, string) {
	for _, key := range credentialEnvKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return key, v
		}
	}
	return "", ""
}
