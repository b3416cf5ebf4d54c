package main

import (
	"context"

	"github.com/tamshai/hr-gateway/internal/config"
	"github.com/tamshai/hr-gateway/internal/factory"
	"github.com/tamshai/hr-gateway/internal/logger"
	"github.com/tamshai/hr-gateway/internal/mcpserver"
	"github.com/tamshai/hr-gateway/internal/tools"
)

func main() {
	log := logger.New("hr-gateway-mcp")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	backends, err := factory.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Backend construction failed")
	}
	defer backends.Close()

	registry := tools.NewRegistry(tools.Deps{
		Employees: backends.Employees,
		TimeOff:   backends.TimeOff,
		Tickets:   backends.Tickets,
		Confirm:   backends.Confirm,
		Log:       log,
		Timeout:   cfg.BackendTimeout(),
	})

	log.Info().Msg("MCP server starting on stdio")
	if err := mcpserver.New(registry, log).ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
