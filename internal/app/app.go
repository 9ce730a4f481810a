// Package app assembles the planner pipeline and its backing stores from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-planner/internal/chat"
	"travel-planner/internal/common/config"
	"travel-planner/internal/common/database"
	commonhttp "travel-planner/internal/common/http"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/observability"
	"travel-planner/internal/conversation"
	"travel-planner/internal/genai"
	"travel-planner/internal/orchestrator"
	"travel-planner/internal/search"
	"travel-planner/internal/synthesis"
)

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

// App holds every long-lived component both binaries share.
type App struct {
	Config    *config.Config
	Obs       *observability.Observability
	Generator genai.Generator
	Gateway   search.Gateway
	Parser    *conversation.Parser
	Planner   *orchestrator.Orchestrator
	Chat      *chat.Service

	redis    *database.RedisClient
	postgres *database.PostgresClient
	logger   logger.Logger
}

type options struct {
	generator genai.Generator
	gateway   search.Gateway
	obs       *observability.Observability
	attempts  int
}

type Option func(*options)

// WithGenerator replaces the configured text-generation backend.
func WithGenerator(g genai.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithGateway replaces the search provider. The redis cache still wraps it when enabled.
func WithGateway(gw search.Gateway) Option {
	return func(o *options) { o.gateway = gw }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *options) { o.obs = obs }
}

// WithConnectAttempts bounds the retries spent dialing redis and postgres.
func WithConnectAttempts(n int) Option {
	return func(o *options) { o.attempts = n }
}

// New connects the stores cfg asks for and builds the pipeline on top of them.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	o := options{attempts: connectAttempts}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config: cfg,
		Obs:    o.obs,
		logger: log.With(map[string]interface{}{"component": "app"}),
	}
	if a.Obs == nil {
		a.Obs = observability.Noop()
	}

	if err := a.connect(ctx, o.attempts); err != nil {
		a.closeStores()
		return nil, err
	}

	a.Generator = o.generator
	if a.Generator == nil {
		gen, err := genai.New(cfg.APIs.GenAI, log)
		if err != nil {
			a.closeStores()
			return nil, err
		}
		a.Generator = gen
	}

	a.Gateway = o.gateway
	if a.Gateway == nil {
		client := commonhttp.NewClient(config.GetDuration(cfg.APIs.Search.Timeout))
		a.Gateway = search.NewSerpAPIProvider(cfg.APIs.Search, client, log)
	}
	if cfg.APIs.Search.CacheTTL > 0 {
		ttl := time.Duration(cfg.APIs.Search.CacheTTL) * time.Second
		a.Gateway = search.NewCachedGateway(a.Gateway, a.redis.Client, ttl, log)
		a.logger.Info("search cache enabled", map[string]interface{}{"ttl": ttl.String()})
	}

	synth := synthesis.New(a.Generator, cfg.Planner.DayRangePolicy, log)
	a.Parser = conversation.NewParser(a.Generator, cfg.Planner, log)
	a.Planner = orchestrator.New(a.Gateway, synth, a.Parser, a.Obs, log)

	store, err := a.chatStore(ctx)
	if err != nil {
		a.closeStores()
		return nil, err
	}
	a.Chat = chat.NewService(store, a.Generator, log)

	a.logger.Info("planner assembled", map[string]interface{}{
		"genaiProvider":  cfg.APIs.GenAI.Provider,
		"chatStore":      cfg.Chat.Store,
		"dayRangePolicy": cfg.Planner.DayRangePolicy,
	})
	return a, nil
}

func (a *App) connect(ctx context.Context, attempts int) error {
	cfg := a.Config
	if cfg.APIs.Search.CacheTTL > 0 || cfg.Chat.Store == config.ChatStoreRedis {
		a.redis = database.NewRedis(cfg.Database.Redis)
		err := database.RetryWithBackoff(ctx, "Redis connection", attempts, connectDelay, a.logger, a.redis.Ping)
		if err != nil {
			return err
		}
		a.logger.Info("Redis connected successfully", map[string]interface{}{"address": cfg.Database.Redis.Address})
	}

	if cfg.Chat.Store == config.ChatStorePostgres {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		a.postgres = pg
		err = database.RetryWithBackoff(ctx, "PostgreSQL connection", attempts, connectDelay, a.logger, pg.Ping)
		if err != nil {
			return err
		}
		a.logger.Info("PostgreSQL connected successfully", map[string]interface{}{"host": cfg.Database.Postgres.Host})
	}
	return nil
}

func (a *App) chatStore(ctx context.Context) (chat.Store, error) {
	switch a.Config.Chat.Store {
	case config.ChatStoreRedis:
		return chat.NewRedisStore(a.redis.Client, time.Duration(a.Config.Chat.TTL)*time.Second), nil
	case config.ChatStorePostgres:
		store := chat.NewPostgresStore(a.postgres.DB)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("chat schema: %w", err)
		}
		return store, nil
	default:
		return chat.NewMemoryStore(), nil
	}
}

// Ready pings every store the app connected to.
func (a *App) Ready(ctx context.Context) error {
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return err
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}
	return nil
}

// Close flushes telemetry and releases store connections.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Obs.Shutdown(ctx), a.closeStores())
}

func (a *App) closeStores() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}
