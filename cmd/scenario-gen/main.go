// Package main 场景批量生成入口
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"z-scenario-gen/internal/application/scenario"
	"z-scenario-gen/internal/config"
	"z-scenario-gen/internal/interfaces/cli"
	einoobs "z-scenario-gen/internal/observability/eino"
	"z-scenario-gen/internal/wire"
	apperrors "z-scenario-gen/pkg/errors"
	"z-scenario-gen/pkg/logger"
	"z-scenario-gen/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("scenario-gen", pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.FromContext(ctx)
	log.Info("starting scenario-gen",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	src, err := cfg.ResolveCredentials()
	if err != nil {
		logger.Error(ctx, "llm credentials unavailable", err)
		return 1
	}
	log.Info("llm credentials resolved", "env_key", src.EnvKey, "base_url_override", src.BaseURL != "")

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Error(ctx, "failed to init tracer", err)
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error(ctx, "failed to shutdown tracer", err)
		}
	}()

	// 初始化 Eino 全局 callbacks（指标/追踪/日志）
	einoobs.Init()

	app, cleanupApp, err := wire.InitializeApp(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "failed to initialize app", err)
		return 1
	}
	defer cleanupApp()

	cli.Banner(os.Stdout, cfg)

	if cfg.Generation.SelfCheck {
		res, err := app.Coordinator.SelfCheck(ctx)
		if err != nil {
			logger.Error(ctx, "collaborator self-check failed", err)
			return 1
		}
		cli.SelfCheck(os.Stdout, res)
	}

	runCtx, finish := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Server.HTTP.Enabled {
		srv := &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port),
			Handler:      app.Router.Engine(),
			ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
			WriteTimeout: cfg.Server.HTTP.WriteTimeout,
			IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
		}
		g.Go(func() error {
			log.Info("ops http server starting", "addr", srv.Addr)
			// 运维端口不可用不影响批次
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(gctx, "ops http server error", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer finish()
		return generate(gctx, app, cfg)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "scenario generation failed", err)
		return 1
	}
	log.Info("scenario-gen exited")
	return 0
}

// generate 执行一次批次并写入全部后端
func generate(ctx context.Context, app *wire.App, cfg *config.Config) error {
	count := cfg.Generation.BatchSize

	var (
		res *scenario.BatchResult
		err error
	)
	switch cfg.Generation.Mode {
	case config.ModeOrchestrated:
		res, err = app.Coordinator.GenerateOrchestrated(ctx, count)
		if err != nil {
			return err
		}
	default:
		res = app.Coordinator.GenerateMultipleScenarios(ctx, count)
	}

	// 中断后仍保存已完成的场景
	saveCtx := context.WithoutCancel(ctx)
	if err := app.Sink.SaveBatch(saveCtx, res.Batch(cfg.Output.Title)); err != nil {
		return err
	}
	cli.Summary(os.Stdout, res, app.FileStore.MainPath())

	if count > 0 && len(res.Scenarios) == 0 {
		return apperrors.ErrBatchProducedNothing.WithDetail(fmt.Sprintf("%d requested, %d failed", count, len(res.Failures)))
	}
	return nil
}
