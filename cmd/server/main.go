// Package main is the entry point for the Bingo Hub API server.
//
// The architecture follows Clean Architecture and DDD:
//   - Domain: board, drop, stats, rules, leaderboard logic with no external deps
//   - Application: command and query handlers around the domain
//   - Infrastructure: Postgres/Redis persistence, WOM client, webhook dispatch
//   - Interface: the HTTP API
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gielinor-events/bingo-hub/config"
	"github.com/gielinor-events/bingo-hub/internal/application/command"
	"github.com/gielinor-events/bingo-hub/internal/application/query"
	"github.com/gielinor-events/bingo-hub/internal/domain/board"
	"github.com/gielinor-events/bingo-hub/internal/domain/drop"
	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/internal/infrastructure/external/discord"
	"github.com/gielinor-events/bingo-hub/internal/infrastructure/external/wom"
	"github.com/gielinor-events/bingo-hub/internal/infrastructure/notify"
	"github.com/gielinor-events/bingo-hub/internal/infrastructure/persistence/memory"
	"github.com/gielinor-events/bingo-hub/internal/infrastructure/persistence/postgres"
	"github.com/gielinor-events/bingo-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/gielinor-events/bingo-hub/internal/interface/http"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting bingo hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version))

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// In-memory storage backs development runs without Postgres; production
	// config requires a database URL.
	// ─────────────────────────────────────────────────────────────────────────
	var (
		store        board.Store
		drops        drop.Log
		healthChecks = make(map[string]httpserver.HealthCheck)
	)

	if cfg.Database.Disabled {
		log.Warn("database disabled, using in-memory storage")
		store = memory.NewStore()
		drops = memory.NewDropLog()
	} else {
		log.Info("connecting to database")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer conn.Close()

		log.Info("running migrations")
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		store = postgres.NewBoardStore(conn)
		drops = postgres.NewDropLog(conn)
		healthChecks["postgres"] = conn.Ping
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS CACHES (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		standingsCache *redis.StandingsCache
		dropsCache     *redis.DropsCache
	)

	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			standingsCache = redis.NewStandingsCache(cache)
			dropsCache = redis.NewDropsCache(cache, cfg.Redis.DropsFeedCap)
			healthChecks["redis"] = cache.Ping
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. WEBHOOK DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	routes := make(map[shared.Category][]string)
	for category, urls := range cfg.Webhooks.Routes() {
		routes[shared.Category(category)] = urls
	}

	senderCfg := discord.DefaultSenderConfig()
	senderCfg.Timeout = cfg.Webhooks.DeliveryTimeout
	senderCfg.Logger = log

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Sender:          discord.NewSender(senderCfg),
		Routes:          routes,
		QueueSize:       cfg.Webhooks.QueueSize,
		DeliveryTimeout: cfg.Webhooks.DeliveryTimeout,
		FailureLogSize:  cfg.Webhooks.FailureLogSize,
		Logger:          log,
	})
	defer func() {
		log.Info("closing webhook dispatcher")
		_ = dispatcher.Close()
	}()
	log.Info("webhook dispatcher started", logger.Int("endpoints", countEndpoints(routes)))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. STATS PROVIDER (Wise Old Man)
	// ─────────────────────────────────────────────────────────────────────────
	womCfg := wom.DefaultClientConfig()
	womCfg.BaseURL = cfg.Stats.BaseURL
	womCfg.APIKey = cfg.Stats.APIKey
	womCfg.UserAgent = cfg.Stats.UserAgent
	womCfg.Timeout = cfg.Stats.RequestTimeout
	womCfg.RateLimiterConfig = wom.RateLimiterConfig{
		RequestsPerMinute: cfg.Stats.RateLimit,
		Burst:             cfg.Stats.RateLimitBurst,
	}
	womCfg.Logger = log
	womClient := wom.NewClient(womCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// The interface-typed locals stay nil (not typed-nil) when Redis is off.
	// ─────────────────────────────────────────────────────────────────────────
	var invalidator command.StandingsInvalidator
	var leaderboardCache query.StandingsCache
	var pusher command.DropsCachePusher
	var feed query.DropsFeed
	if standingsCache != nil {
		invalidator = standingsCache
		leaderboardCache = standingsCache
	}
	if dropsCache != nil {
		pusher = dropsCache
		feed = dropsCache
	}

	deps := httpserver.Dependencies{
		CreateBoard: command.NewCreateBoardHandler(store, dispatcher, log),
		UpdateTile:  command.NewUpdateTileHandler(store, dispatcher, invalidator, log),
		SubmitDrop:  command.NewSubmitDropHandler(drops, store, dispatcher, invalidator, pusher, log),
		GetBoard:    query.NewGetBoardHandler(store),
		ListBoards:  query.NewListBoardsHandler(store),
		Leaderboard: query.NewGetLeaderboardHandler(store, leaderboardCache, log),
		RecentDrops: query.NewRecentDropsHandler(drops, feed, log),
		CheckTiles:  query.NewCheckTilesHandler(store, womClient, log),

		Stats:        womClient,
		Notifier:     dispatcher,
		HealthChecks: healthChecks,
		Logger:       log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER & GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.Server.Host
	httpCfg.Port = cfg.Server.Port
	httpCfg.ReadTimeout = cfg.Server.ReadTimeout
	httpCfg.WriteTimeout = cfg.Server.WriteTimeout
	httpCfg.IdleTimeout = cfg.Server.IdleTimeout
	httpCfg.ShutdownTimeout = cfg.App.ShutdownTimeout
	httpCfg.EnableCORS = cfg.Server.EnableCORS
	httpCfg.RateLimitPerMinute = cfg.Server.RateLimitPerMinute

	server := httpserver.NewServer(httpCfg, deps)
	errCh := server.StartAsync()

	log.Info("bingo hub is running", logger.String("address", httpCfg.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", logger.Err(err))
			return err
		}
	}

	log.Info("starting graceful shutdown",
		logger.String("timeout", cfg.App.ShutdownTimeout.String()))
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error("http server shutdown", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// setupLogger builds the root structured logger from observability config.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

func countEndpoints(routes map[shared.Category][]string) int {
	seen := make(map[string]struct{})
	for _, urls := range routes {
		for _, url := range urls {
			seen[url] = struct{}{}
		}
	}
	return len(seen)
}
