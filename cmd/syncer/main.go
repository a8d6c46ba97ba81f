package main

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_hub/internal/adapters/observability"
	"review_hub/internal/adapters/platforms"
	redisad "review_hub/internal/adapters/redis"
	"review_hub/internal/app"
	"review_hub/internal/domain"
	"review_hub/internal/shared"
	"review_hub/internal/storage"
)

// syncer runs one sync for every known platform and exits; schedule it externally.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("store", cfg.StoreDriver).
		Int("workers", cfg.SyncWorkers).
		Bool("env_credentials", cfg.EnvCredentials).
		Msg("syncer starting")

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer closeStore()

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	factory := platforms.NewFactory(store, platforms.Options{
		GoogleBase:   cfg.GoogleBase,
		YelpBase:     cfg.YelpBase,
		FacebookBase: cfg.FacebookBase,
		RPS:          cfg.UpstreamRPS,
		Timeout:      cfg.UpstreamTimeout,
	})
	syncs := app.NewSyncService(store, factory, app.NewQueryService(store, cache, cfg.CacheTTL), cfg.EnvBundles)

	workers := cfg.SyncWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, p := range domain.KnownPlatforms() {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(p domain.Platform) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := syncs.SyncPlatform(ctx, string(p))
			switch {
			case errors.Is(err, domain.ErrPlatformDisabled), errors.Is(err, domain.ErrPlatformNotConfigured):
				log.Info().Str("platform", string(p)).Msg("sync skipped")
			case err != nil:
				log.Warn().Str("platform", string(p)).Err(err).Msg("sync failed")
			default:
				log.Info().Str("platform", string(p)).Int("synced", res.Synced).Msg("sync ok")
			}
		}(p)
	}

	wg.Wait()
	log.Info().Msg("sync run completed")
}
