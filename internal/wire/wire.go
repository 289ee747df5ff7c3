//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"z-scenario-gen/internal/application/scenario"
	"z-scenario-gen/internal/config"
	"z-scenario-gen/internal/infrastructure/llm"
	"z-scenario-gen/internal/interfaces/http/router"
	"z-scenario-gen/internal/workflow/prompt"
)

// InitializeApp 初始化生成器、持久化后端与运维路由
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		StorageSet,
		GenerationSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// StorageSet 持久化后端提供者集合，Redis 与 PostgreSQL 为可选
var StorageSet = wire.NewSet(
	ProvideFileStore,
	ProvideRedisClientOptional,
	ProvideMessagingProducerOptional,
	ProvideScenarioStoreOptional,
	ProvidePostgresClientOptional,
	ProvideScenarioRepositoryOptional,
	ProvideScenarioSink,
)

// GenerationSet 场景生成提供者集合
var GenerationSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideCollaborator,
	ProvideCollaborators,
	ProvidePromptSettings,
	ProvideGenerationConfig,
	prompt.NewRegistry,
	scenario.NewStages,
	wire.Bind(new(scenario.Pipeline), new(*scenario.Stages)),
	scenario.NewOrchestrator,
	scenario.NewProgress,
	ProvideCoordinator,
)

// RouterSet 运维 HTTP 提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideRunsHandler,
	router.New,
)
