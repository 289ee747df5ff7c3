// Package main 场景设计工具 MCP 服务入口（stdio）
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"z-scenario-gen/internal/config"
	scenariomcp "z-scenario-gen/internal/interfaces/mcp"
	"z-scenario-gen/pkg/logger"
)

// Version 版本信息，构建时注入
var Version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout 承载 MCP 协议流，日志只能写 stderr
	logger.InitWithWriter(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
		os.Stderr,
	)

	ctx := context.Background()
	logger.Info(ctx, "starting scenario-tools mcp server", "version", Version)

	if err := server.ServeStdio(scenariomcp.NewServer(Version)); err != nil {
		logger.Fatal(ctx, "mcp server stopped", err)
	}
}
