package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnisoftSistemas/implantei-core/internal/api"
	"github.com/UnisoftSistemas/implantei-core/internal/infrastructure/backend"
	"github.com/UnisoftSistemas/implantei-core/internal/infrastructure/config"
	mongodb "github.com/UnisoftSistemas/implantei-core/internal/infrastructure/db/mongo"
	redisdb "github.com/UnisoftSistemas/implantei-core/internal/infrastructure/db/redis"
	"github.com/UnisoftSistemas/implantei-core/internal/infrastructure/identity"
	"github.com/UnisoftSistemas/implantei-core/internal/jobs"
	"github.com/UnisoftSistemas/implantei-core/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	credentials := mongodb.NewCredentialRepository(db)
	if err := credentials.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("credential index creation failed")
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}()

	// --- Services ---
	provider := identity.NewLocalProvider(credentials, cfg.Identity.JWTSecret, cfg.Identity.TokenTTL)
	client := backend.NewClient(cfg.Backend.BaseURL, provider, log,
		backend.WithServiceToken(cfg.Backend.ServiceToken),
		backend.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
	)
	cache := redisdb.NewTenantCache(rdb, cfg.Cache.TenantTTL, cfg.Cache.TenantListTTL)

	// --- Background jobs ---
	refresher, err := jobs.NewTenantRefresher(client, cache, cfg.Jobs.TenantRefreshInterval, log)
	if err != nil {
		log.Fatal().Err(err).Msg("tenant refresh job setup failed")
	}
	refresher.Start()
	defer func() {
		if err := refresher.Stop(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown failed")
		}
	}()

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Mongo:      db,
		Redis:      rdb,
		Identities: provider,
		Verifier:   provider,
		Profiles:   client,
		Tenants:    client,
		Cache:      cache,
		Log:        log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("gateway listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
