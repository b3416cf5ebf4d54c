package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamshai/hr-gateway/internal/api"
	"github.com/tamshai/hr-gateway/internal/config"
	"github.com/tamshai/hr-gateway/internal/confirm"
	"github.com/tamshai/hr-gateway/internal/factory"
	"github.com/tamshai/hr-gateway/internal/health"
	"github.com/tamshai/hr-gateway/internal/logger"
	"github.com/tamshai/hr-gateway/internal/tools"
)

func main() {
	log := logger.New("hr-gateway")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("search_index_url", cfg.SearchIndexURL).
		Msg("HR gateway starting…")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// -------- Backends ---------------------
	backends, err := factory.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Backend construction failed")
	}
	defer backends.Close()

	// -------- Confirmation sweeper ---------
	sweeper := confirm.NewSweeper(backends.Confirm, time.Duration(cfg.ConfirmSweepSeconds)*time.Second, log)
	go sweeper.Run(ctx)

	// -------- Tool registry ----------------
	registry := tools.NewRegistry(tools.Deps{
		Employees: backends.Employees,
		TimeOff:   backends.TimeOff,
		Tickets:   backends.Tickets,
		Confirm:   backends.Confirm,
		Log:       log,
		Timeout:   cfg.BackendTimeout(),
	})

	// -------- Health monitor ---------------
	monitor := health.NewMonitor(log, backends.Employees, backends.TimeOff, backends.Tickets, backends.Confirm)
	go monitor.Start(ctx, 30*time.Second)

	// -------- Router & Server --------------
	router := api.NewRouter(registry, monitor)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	stop()
	log.Info().Msg("Server stopped")
}
