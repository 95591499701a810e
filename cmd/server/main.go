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
	"github.com/kelseyhightower/envconfig"

	"github.com/terrain-assistant/server/internal/audit"
	"github.com/terrain-assistant/server/internal/core"
	"github.com/terrain-assistant/server/internal/gate"
	"github.com/terrain-assistant/server/internal/httpapi"
	"github.com/terrain-assistant/server/internal/inventory"
	"github.com/terrain-assistant/server/internal/llm"
	"github.com/terrain-assistant/server/internal/orchestrator"
	"github.com/terrain-assistant/server/internal/tools"
	logx "github.com/terrain-assistant/server/pkg/logger"
	pkgredis "github.com/terrain-assistant/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	Port        int    `envconfig:"PORT" default:"8080"`
	// RequestTimeout bounds each inbound request end to end, in seconds.
	RequestTimeout int `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"60"`
	// RelevanceMinHits is the gate's keyword-hit threshold.
	RelevanceMinHits int `envconfig:"RELEVANCE_MIN_HITS" default:"1"`

	// Infrastructure (optional audit trail sink)
	Redis pkgredis.Config

	// Collaborators
	Model     llm.Config
	Inventory inventory.Config

	// Loop policy
	Loop orchestrator.Config
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Printf("Failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})

	// Audit trail: Redis-backed when configured, otherwise a no-op.
	var recorder audit.Recorder = audit.Nop{}
	if cfg.Redis.Configured() {
		rdb, err := cfg.Redis.New()
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
		}
		defer rdb.Close()
		recorder = audit.NewStreamRecorder(rdb)
		logx.Info().Msg("Audit trail backed by Redis")
	}

	// Inventory provider: live store when credentials are present, otherwise
	// the demo catalog.
	var provider inventory.Provider
	if cfg.Inventory.Configured() {
		provider = inventory.NewShopifyProvider(cfg.Inventory)
		logx.Info().Msg("Using Shopify inventory provider")
	} else {
		provider = inventory.NewMemoryProvider()
		logx.Info().Msg("No inventory credentials; using demo catalog")
	}

	registry, err := tools.BuildDefaultRegistry(ctx, provider)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build tool registry")
	}

	client, err := llm.New(ctx, cfg.Model, registry.Declarations())
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build model client")
	}

	loop := orchestrator.New(
		gate.New(cfg.RelevanceMinHits, recorder),
		registry,
		client,
		recorder,
		cfg.Loop,
	)

	router := httpapi.NewRouter(loop, time.Duration(cfg.RequestTimeout)*time.Second)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logx.Info().Int("port", cfg.Port).Str("environment", env.String()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logx.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
