package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/config"
	"github.com/draftdesk/research-orchestrator/internal/extract"
	"github.com/draftdesk/research-orchestrator/internal/health"
	"github.com/draftdesk/research-orchestrator/internal/httpapi"
	"github.com/draftdesk/research-orchestrator/internal/llm"
	"github.com/draftdesk/research-orchestrator/internal/pipeline"
	"github.com/draftdesk/research-orchestrator/internal/queries"
	"github.com/draftdesk/research-orchestrator/internal/search"
	"github.com/draftdesk/research-orchestrator/internal/summarize"
	"github.com/draftdesk/research-orchestrator/internal/tracing"
	"github.com/draftdesk/research-orchestrator/internal/websearch"
)

func main() {
	ctx := context.Background()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := cfg.ValidateCredentials(); err != nil {
		logger.Fatal("Missing required credentials", zap.Error(err))
	}

	if err := tracing.Initialize(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}, logger); err != nil {
		logger.Warn("Tracing initialization failed, continuing without tracing", zap.Error(err))
	}

	// Source profile: load once, then hot-reload on sources.yaml edits.
	profile, err := config.LoadSourceProfile(filepath.Join(cfg.SourceDir, "sources.yaml"))
	if err != nil {
		logger.Fatal("Failed to load source profile", zap.Error(err))
	}
	config.SetActiveProfile(profile)

	manager, err := config.NewManager(cfg.SourceDir, logger)
	if err != nil {
		logger.Warn("Source profile hot-reload unavailable", zap.Error(err))
	} else {
		if err := manager.Start(ctx); err != nil {
			logger.Warn("Source profile watcher failed to start", zap.Error(err))
		}
		defer manager.Stop()
	}

	// Health manager comes up early so probes answer while components start.
	hm := health.NewManager(logger)
	_ = hm.RegisterChecker(health.NewCredentialChecker("credentials", cfg.ValidateCredentials))
	_ = hm.RegisterChecker(health.NewReachabilityChecker("search_provider", cfg.Search.Endpoint, false, logger))
	if cfg.LLM.BaseURL != "" {
		_ = hm.RegisterChecker(health.NewReachabilityChecker("llm_backend", cfg.LLM.BaseURL, false, logger))
	}
	if err := hm.Start(ctx); err != nil {
		logger.Error("Failed to start health manager", zap.Error(err))
	}
	adminServer := health.StartAdminServer(hm, cfg.Server.AdminPort, logger)

	completer := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	provider, err := websearch.NewBingClient(websearch.BingConfig{
		APIKey:    cfg.Search.APIKey,
		Endpoint:  cfg.Search.Endpoint,
		UserAgent: cfg.Extract.UserAgent,
		Timeout:   cfg.Search.Timeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build search provider", zap.Error(err))
	}

	orchestrator := pipeline.NewOrchestrator(
		queries.NewGenerator(completer, cfg.LLM.QueryModel, logger),
		search.NewHandler(provider, search.Config{
			ResultsPerQuery: cfg.Search.ResultsPer,
			KeepPerQuery:    cfg.Search.KeepPerQuery,
			MaxTotal:        cfg.Search.MaxTotal,
			Market:          cfg.Search.Market,
		}, logger),
		extract.NewExtractor(extract.Config{
			FetchTimeout:   cfg.Extract.FetchTimeout,
			MaxConcurrency: cfg.Extract.MaxConcurrency,
			MinLength:      cfg.Extract.MinLength,
			MaxLength:      cfg.Extract.MaxLength,
			Engine:         cfg.Extract.Engine,
			UserAgent:      cfg.Extract.UserAgent,
		}, logger),
		summarize.NewSummarizer(completer, summarize.Config{
			Model:      cfg.LLM.SummaryModel,
			ChunkSize:  cfg.Summarize.ChunkSize,
			BatchSize:  cfg.Summarize.BatchSize,
			BatchPause: cfg.Summarize.BatchPause,
		}, logger),
		logger,
	)

	apiServer := httpapi.StartAPIServer(cfg.Server.Port, orchestrator, logger)

	logger.Info("Research orchestrator started",
		zap.Int("port", cfg.Server.Port),
		zap.Int("admin_port", cfg.Server.AdminPort),
		zap.String("query_model", cfg.LLM.QueryModel),
		zap.String("summary_model", cfg.LLM.SummaryModel),
	)

	// Block until shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", zap.Error(err))
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Admin server shutdown failed", zap.Error(err))
	}
	if err := hm.Stop(); err != nil {
		logger.Error("Health manager stop failed", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracing shutdown failed", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}
