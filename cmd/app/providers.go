package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/nearbite/nearbite/internal/cache"
	"github.com/nearbite/nearbite/internal/domain/intent"
	"github.com/nearbite/nearbite/internal/domain/pipeline"
	"github.com/nearbite/nearbite/internal/domain/recommend"
	"github.com/nearbite/nearbite/internal/infra/cachestore"
	"github.com/nearbite/nearbite/internal/infra/config"
	"github.com/nearbite/nearbite/internal/infra/history"
	"github.com/nearbite/nearbite/internal/infra/llm/chatgpt"
	"github.com/nearbite/nearbite/internal/infra/places/googleplaces"
	"github.com/nearbite/nearbite/internal/infra/routing/googleroutes"
	"github.com/nearbite/nearbite/internal/infra/routing/osrm"
	httpiface "github.com/nearbite/nearbite/internal/interface/http"
)

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
}

func provideIntentService(cfg *config.Config, client *chatgpt.Client, logger *slog.Logger) intent.Service {
	return intent.NewService(intent.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}, client, logger)
}

func provideRecommendService(cfg *config.Config, client *chatgpt.Client, logger *slog.Logger) recommend.Service {
	return recommend.NewService(recommend.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		TokenBudget: cfg.LLM.TokenBudget,
	}, client, logger)
}

func providePlacesClient(cfg *config.Config) (*googleplaces.Client, error) {
	return googleplaces.NewClient(cfg.Places.APIKey, cfg.Places.BaseURL, cfg.Places.Timeout)
}

// appCaches names the three logical caches so Wire can tell them apart.
type appCaches struct {
	search    *cache.Tiered
	details   *cache.Tiered
	durations *cache.Tiered
}

func provideCaches(cfg *config.Config, logger *slog.Logger) appCaches {
	shared := provideSharedLayer(cfg, logger)
	build := func(name string, ttl config.CacheTTLConfig) *cache.Tiered {
		return cache.NewTiered(name, cachestore.NewMemory(), shared, ttl.MemoryTTL, ttl.SharedTTL, logger)
	}
	return appCaches{
		search:    build("search", cfg.Cache.Search),
		details:   build("details", cfg.Cache.Details),
		durations: build("durations", cfg.Cache.Duration),
	}
}

// provideSharedLayer returns the Valkey tier, or nil when it is disabled or
// unreachable; the tiered cache degrades to memory-only in that case.
func provideSharedLayer(cfg *config.Config, logger *slog.Logger) cache.Layer {
	if !cfg.Cache.Valkey.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg.Cache.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, caches run memory-only", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, caches run memory-only", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, caches run memory-only", "error", err)
		return nil
	}
	logger.Info("valkey cache tier enabled", "addr", cfg.Cache.Valkey.Addr)
	return cachestore.NewValkey(client, "nearbite")
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideSourcer(places *googleplaces.Client, caches appCaches, logger *slog.Logger) *pipeline.Sourcer {
	return pipeline.NewSourcer(places, caches.search, caches.details, logger)
}

func provideDurationResolver(cfg *config.Config, caches appCaches, logger *slog.Logger) *pipeline.DurationResolver {
	var primary, secondary pipeline.RoutingClient

	if strings.TrimSpace(cfg.Routing.OSRMBaseURL) != "" {
		client, err := osrm.NewClient(cfg.Routing.OSRMBaseURL, cfg.Routing.Timeout)
		if err != nil {
			logger.Error("invalid osrm configuration", "error", err)
		} else {
			primary = client
		}
	}
	if strings.TrimSpace(cfg.Routing.APIKey) != "" {
		client, err := googleroutes.NewClient(cfg.Routing.APIKey, cfg.Routing.BaseURL, cfg.Routing.Timeout)
		if err != nil {
			logger.Error("invalid routes configuration", "error", err)
		} else {
			// The paid matrix provider takes over when a key is set; OSRM
			// stays as the fallback.
			secondary = primary
			primary = client
		}
	}
	return pipeline.NewDurationResolver(primary, secondary, caches.durations, logger)
}

// historyStore pairs the recorder with its read side for the HTTP layer.
type historyStore interface {
	pipeline.Recorder
	httpiface.HistoryReader
}

func provideHistory(cfg *config.Config, logger *slog.Logger) historyStore {
	fallback := history.NewMemoryRecorder()
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, run history kept in memory")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, run history kept in memory", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, run history kept in memory", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, run history kept in memory", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres run history enabled")
	return history.NewPostgresRecorder(pool)
}

func provideOrchestrator(cfg *config.Config, planner intent.Service, sourcer *pipeline.Sourcer, durations *pipeline.DurationResolver, selector recommend.Service, store historyStore, logger *slog.Logger) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(pipeline.Config{
		ErrorResetDelay: cfg.Pipeline.ErrorResetDelay,
	}, planner, sourcer, durations, selector, store, logger)
}

func provideHandler(orchestrator *pipeline.Orchestrator, store historyStore, caches appCaches, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(orchestrator, store, []*cache.Tiered{caches.search, caches.details, caches.durations}, logger)
}
