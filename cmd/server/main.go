package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"creditline/internal/cache"
	"creditline/internal/channels/fnb"
	"creditline/internal/channels/gaso"
	"creditline/internal/domain"
	"creditline/internal/platform/config"
	"creditline/internal/platform/httpserver"
	"creditline/internal/platform/logger"
	"creditline/internal/platform/middleware"
	platformredis "creditline/internal/platform/redis"
	"creditline/internal/query"
	"creditline/internal/query/handler"
	"creditline/internal/query/metrics"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogJSON)

	ctx := context.Background()

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var resultStore cache.Store
	if redisClient != nil {
		resultStore = cache.NewRedisStore(redisClient.Client, cfg.Redis.CacheTTL)
		log.Info("result cache backed by redis")
	} else {
		resultStore = cache.NewInMemoryStore(cfg.Redis.CacheTTL)
		log.Info("result cache in process memory")
	}

	m := metrics.New()

	// Primary channel: authenticated REST with a shared session.
	fnbConfig := fnb.Config{
		BaseURL:    cfg.FNB.BaseURL,
		LoginPath:  cfg.FNB.LoginPath,
		QueryPath:  cfg.FNB.QueryPath,
		User:       cfg.FNB.User,
		Password:   cfg.FNB.Password,
		Timeout:    cfg.FNB.Timeout,
		SessionTTL: cfg.FNB.SessionTTL,
	}
	authenticator := fnb.NewAuthenticator(fnbConfig, log)
	sessions := fnb.NewSessionCache(authenticator, fnbConfig.SessionTTL, log)
	fnbClient := fnb.NewClient(fnbConfig, fnb.WithLogger(log))
	fnbAdapter := fnb.NewAdapter(sessions, fnbClient, log)

	// Fallback channel: per-field analytic queries.
	gasoClient := gaso.NewClient(gaso.Config{
		APIURL:      cfg.GASO.APIURL,
		ResourceKey: cfg.GASO.ResourceKey,
		DatasetID:   cfg.GASO.DatasetID,
		ReportID:    cfg.GASO.ReportID,
		ModelID:     cfg.GASO.ModelID,
		Timeout:     cfg.GASO.Timeout,
	}, gaso.DefaultVisualIDs(), gaso.WithLogger(log))
	gasoAdapter := gaso.NewAdapter(gasoClient, log)

	service := query.New(query.FallbackConfig{
		Order:           cfg.Fallback.Order,
		ContinueOnError: cfg.Fallback.ContinueOnError,
	},
		query.WithLogger(log),
		query.WithMetrics(m),
		query.WithResultCache(resultStore),
	)
	if err := service.Register(domain.ChannelFNB, fnbAdapter); err != nil {
		log.Error("channel registration failed", "error", err)
		os.Exit(1)
	}
	if err := service.Register(domain.ChannelGASO, gasoAdapter); err != nil {
		log.Error("channel registration failed", "error", err)
		os.Exit(1)
	}

	queryHandler := handler.New(service, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	queryHandler.Register(router)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
