package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	server "review_hub/internal/adapters/http_server"
	"review_hub/internal/adapters/observability"
	"review_hub/internal/adapters/platforms"
	"review_hub/internal/adapters/qrcode"
	redisad "review_hub/internal/adapters/redis"
	"review_hub/internal/app"
	"review_hub/internal/shared"
	"review_hub/internal/storage"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// store
	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store init failed")
	}
	defer closeStore()

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; listings will be served uncached")
	}
	factory := platforms.NewFactory(store, platforms.Options{
		GoogleBase:   cfg.GoogleBase,
		YelpBase:     cfg.YelpBase,
		FacebookBase: cfg.FacebookBase,
		RPS:          cfg.UpstreamRPS,
		Timeout:      cfg.UpstreamTimeout,
	})
	q := app.NewQueryService(store, cache, cfg.CacheTTL)
	syncs := app.NewSyncService(store, factory, q, cfg.EnvBundles)
	cards := app.NewCardService(store, qrcode.New(), cfg.QRWidth)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Sync: syncs, Q: q, Cards: cards})

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
