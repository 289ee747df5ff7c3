// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	apperrors "z-scenario-gen/pkg/errors"
)

// DefaultDir 默认配置目录
const DefaultDir = "configs"

var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// flagKeys 命令行参数到配置键的映射
var flagKeys = map[string]string{
	"count":      "generation.batch_size",
	"iterations": "generation.max_iterations",
	"mode":       "generation.mode",
	"output-dir": "output.dir",
}

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量 -> 命令行参数
func Load() (*Config, error) {
	return LoadFrom(configDir(), nil)
}

// LoadWithFlags 加载配置并绑定命令行参数
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	return LoadFrom(configDir(), fs)
}

// LoadFrom 从指定目录加载配置
func LoadFrom(dir string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置
	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), false); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. 绑定命令行参数，仅显式设置的参数生效
	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	// 设置默认值 (兜底)
	setDefaults(v)

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RegisterFlags 注册批量生成入口支持的命令行参数
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("count", 10, "number of scenarios to generate")
	fs.Int("iterations", 3, "feedback loop iterations per scenario")
	fs.String("mode", ModePipeline, "generation mode: pipeline | orchestrated")
	fs.String("output-dir", "output", "directory for generated files")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return DefaultDir
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// 执行环境变量替换
	expanded := expandEnv(string(content))

	reader := strings.NewReader(expanded)
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		// 手动标记已加载文件，防止后续 ReadInConfig 报错
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符
// 未定义且无默认值的变量保留原样
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPattern.FindStringSubmatch(match)
		key := submatch[1]
		hasDefault := submatch[2] != ""
		defVal := submatch[3]

		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		if hasDefault {
			return defVal
		}
		return match
	})
}

// Validate 校验配置取值范围
func (c *Config) Validate() error {
	g := c.Generation
	switch {
	case g.MaxIterations < 0:
		return apperrors.ErrConfigInvalid.WithDetail("generation.max_iterations must be >= 0")
	case g.BatchSize < 0:
		return apperrors.ErrConfigInvalid.WithDetail("generation.batch_size must be >= 0")
	case g.MaxToolRounds < 1:
		return apperrors.ErrConfigInvalid.WithDetail("generation.max_tool_rounds must be >= 1")
	case g.Mode != ModePipeline && g.Mode != ModeOrchestrated:
		return apperrors.ErrConfigInvalid.WithDetail(fmt.Sprintf("unknown generation.mode %q", g.Mode))
	case strings.TrimSpace(c.Output.File) == "":
		return apperrors.ErrConfigInvalid.WithDetail("output.file is required")
	}
	return nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 应用默认值
	v.SetDefault("app.name", "z-scenario-gen")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// 运维 HTTP 服务器默认值
	v.SetDefault("server.http.enabled", true)
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 9464)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "60s")
	v.SetDefault("server.http.idle_timeout", "120s")

	// 生成默认值
	v.SetDefault("generation.max_iterations", 3)
	v.SetDefault("generation.batch_size", 10)
	v.SetDefault("generation.mode", ModePipeline)
	v.SetDefault("generation.self_check", true)
	v.SetDefault("generation.max_tool_rounds", 6)
	v.SetDefault("generation.language", "French")
	v.SetDefault("generation.workspace", "output/workspace")

	// 输出默认值
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.file", "scenarios.txt")
	v.SetDefault("output.individual_files", true)
	v.SetDefault("output.manifest", true)
	v.SetDefault("output.title", "GAME SCENARIOS")

	// LLM 默认值
	v.SetDefault("llm.default_provider", "anthropic")

	// Redis 默认值
	v.SetDefault("storage.redis.enabled", false)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 1)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")
	v.SetDefault("storage.redis.ttl", "168h")

	// 数据库默认值
	v.SetDefault("storage.postgres.enabled", false)
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.database", "z_scenario")
	v.SetDefault("storage.postgres.ssl_mode", "disable")
	v.SetDefault("storage.postgres.max_open_conns", 5)
	v.SetDefault("storage.postgres.max_idle_conns", 2)
	v.SetDefault("storage.postgres.conn_max_lifetime", "30m")
	v.SetDefault("storage.postgres.conn_max_idle_time", "5m")
	v.SetDefault("storage.postgres.auto_migrate", true)

	// 消息默认值
	v.SetDefault("messaging.redis_stream.enabled", true)
	v.SetDefault("messaging.redis_stream.max_len", 10000)

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "text")
	v.SetDefault("observability.logging.output", "stdout")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.exporter", "otlp")
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")
}
