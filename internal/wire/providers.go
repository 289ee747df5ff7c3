package wire

import (
	"context"

	"z-scenario-gen/internal/application/scenario"
	"z-scenario-gen/internal/config"
	"z-scenario-gen/internal/domain/repository"
	"z-scenario-gen/internal/infrastructure/llm"
	"z-scenario-gen/internal/infrastructure/messaging"
	"z-scenario-gen/internal/infrastructure/persistence/file"
	"z-scenario-gen/internal/infrastructure/persistence/postgres"
	"z-scenario-gen/internal/infrastructure/persistence/redis"
	"z-scenario-gen/internal/interfaces/http/handler"
	"z-scenario-gen/internal/interfaces/http/router"
	"z-scenario-gen/internal/workflow/collab"
	"z-scenario-gen/pkg/logger"
)

const defaultStreamMaxLen = 10000

// App 应用依赖容器
type App struct {
	Config      *config.Config
	Coordinator *scenario.Coordinator
	Progress    *scenario.Progress
	FileStore   *file.Store
	Sink        *repository.MultiSink
	Router      *router.Router
}

// ProvideCollaborator 提供基于 Eino 的协作者，创意与设计两个角色共用同一实现
func ProvideCollaborator(factory *llm.EinoFactory, cfg *config.Config) collab.Collaborator {
	return collab.NewEinoCollaborator(factory, collab.EinoConfig{
		MaxToolRounds: cfg.Generation.MaxToolRounds,
		Workspace:     cfg.Generation.Workspace,
	})
}

// ProvideCollaborators 角色由请求中的 Role 区分
func ProvideCollaborators(c collab.Collaborator) scenario.Collaborators {
	return scenario.Collaborators{Creative: c, Design: c}
}

func ProvidePromptSettings(cfg *config.Config) scenario.PromptSettings {
	return scenario.PromptSettings{
		Brief:     cfg.Generation.Brief,
		Language:  cfg.Generation.Language,
		BatchSize: cfg.Generation.BatchSize,
	}
}

func ProvideGenerationConfig(cfg *config.Config) scenario.GenerationConfig {
	return scenario.GenerationConfig{MaxIterations: cfg.Generation.MaxIterations}
}

// ProvideCoordinator 提供批次协调器并挂载进度记录
func ProvideCoordinator(stages scenario.Pipeline, gcfg scenario.GenerationConfig, orch *scenario.Orchestrator, progress *scenario.Progress) *scenario.Coordinator {
	return scenario.NewCoordinator(stages, gcfg, orch).WithProgress(progress)
}

// ProvideFileStore 提供主输出文件存储
func ProvideFileStore(cfg *config.Config) *file.Store {
	return file.NewStore(cfg.Output, file.FormatFunc{
		Batch:    scenario.FormatBatch,
		Scenario: scenario.FormatScenario,
	})
}

// ProvideRedisClientOptional Redis 未启用或不可达时返回 nil，不阻塞生成
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Storage.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Storage.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, run history disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideMessagingProducerOptional 提供完成事件生产者
func ProvideMessagingProducerOptional(client *redis.Client, cfg *config.Config) *messaging.Producer {
	if client == nil || !cfg.Messaging.RedisStream.Enabled {
		return nil
	}
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return messaging.NewProducer(client.Redis(), int64(maxLen))
}

func ProvideScenarioStoreOptional(client *redis.Client, producer *messaging.Producer, cfg *config.Config) *redis.ScenarioStore {
	if client == nil {
		return nil
	}
	return redis.NewScenarioStore(client, producer, cfg.Storage.Redis.TTL, scenario.FormatBatch)
}

// ProvidePostgresClientOptional PostgreSQL 未启用或不可达时返回 nil
func ProvidePostgresClientOptional(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	if !cfg.Storage.Postgres.Enabled {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Storage.Postgres)
	if err != nil {
		logger.Warn(ctx, "postgres not available, scenario records disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	return client, func() { _ = client.Close() }, nil
}

func ProvideScenarioRepositoryOptional(client *postgres.Client) *postgres.ScenarioRepository {
	if client == nil {
		return nil
	}
	return postgres.NewScenarioRepository(client)
}

// ProvideScenarioSink 文件为主后端，Redis 与 PostgreSQL 为可选后端
func ProvideScenarioSink(fs *file.Store, store *redis.ScenarioStore, repo *postgres.ScenarioRepository) *repository.MultiSink {
	var optional []repository.ScenarioSink
	if store != nil {
		optional = append(optional, store)
	}
	if repo != nil {
		optional = append(optional, repo)
	}
	return repository.NewMultiSink(fs, optional...)
}

// ProvideHealthHandler 只为已连接的后端注册就绪检查
func ProvideHealthHandler(cfg *config.Config, rc *redis.Client, pc *postgres.Client) *handler.HealthHandler {
	checks := map[string]handler.HealthChecker{}
	if rc != nil {
		checks["redis"] = rc
	}
	if pc != nil {
		checks["postgres"] = pc
	}
	return handler.NewHealthHandler(cfg.App.Version, checks)
}

func ProvideRunsHandler(progress *scenario.Progress, store *redis.ScenarioStore, repo *postgres.ScenarioRepository) *handler.RunsHandler {
	var runs handler.RunStore
	if store != nil {
		runs = store
	}
	var records handler.RecordLister
	if repo != nil {
		records = repo
	}
	return handler.NewRunsHandler(progress, runs, records)
}
