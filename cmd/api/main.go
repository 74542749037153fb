package main

import (
	"os"

	"compliance-analyzer/internal/bootstrap"
	"compliance-analyzer/internal/shared/config"
	"compliance-analyzer/internal/shared/server"
	"compliance-analyzer/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("startup.failed", map[string]any{"error": err})
		telemetry.Sync()
		os.Exit(1)
	}

	addr := server.Addr(cfg.Port)
	telemetry.Info("server.start", map[string]any{
		"addr":       addr,
		"configured": app.ConfigErr == nil,
	})

	if err := app.Router.Run(addr); err != nil {
		telemetry.Error("server.error", map[string]any{"error": err})
		telemetry.Sync()
		os.Exit(1)
	}
}
