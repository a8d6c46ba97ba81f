package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_hub/internal/adapters/observability"
	"review_hub/internal/domain"
)

// SyncService gates syncs on the stored platform integration and records lastSync.
type SyncService struct {
	platforms domain.PlatformRepository
	factory   domain.AdapterFactory
	reviews   *QueryService
	// envBundles is the legacy fallback used only for platforms with no stored integration.
	envBundles map[domain.Platform]domain.Credentials
	now        func() time.Time
}

func NewSyncService(p domain.PlatformRepository, f domain.AdapterFactory, q *QueryService, envBundles map[domain.Platform]domain.Credentials) *SyncService {
	return &SyncService{platforms: p, factory: f, reviews: q, envBundles: envBundles, now: time.Now}
}

// canonical maps known platform names to their stored spelling; unknown names pass through.
func canonical(name string) string {
	if p, ok := domain.ParsePlatform(name); ok {
		return string(p)
	}
	return strings.TrimSpace(name)
}

// metricLabel keeps the platform label set to the known platforms.
func metricLabel(name string) string {
	if p, ok := domain.ParsePlatform(name); ok {
		return string(p)
	}
	return "unknown"
}

// SyncPlatform checks the integration is enabled, syncs it, then records lastSync.
func (s *SyncService) SyncPlatform(ctx context.Context, name string) (domain.SyncResult, error) {
	name = canonical(name)
	if name == "" {
		return domain.SyncResult{}, fmt.Errorf("%w: platform is required", domain.ErrInvalidRequest)
	}

	integ, fromEnv, err := s.integration(ctx, name)
	if err != nil {
		observability.ObserveSync(metricLabel(name), 0, err)
		return domain.SyncResult{}, err
	}
	if !integ.IsEnabled {
		err := fmt.Errorf("%w: %s", domain.ErrPlatformDisabled, name)
		observability.ObserveSync(metricLabel(name), 0, err)
		return domain.SyncResult{}, err
	}

	adapter, err := s.factory.New(name, integ.Credentials)
	if err != nil {
		observability.ObserveSync(metricLabel(name), 0, err)
		return domain.SyncResult{}, err
	}

	log.Info().Str("platform", name).Bool("env_credentials", fromEnv).Msg("sync starting")
	res, err := adapter.SyncReviews(ctx)
	if s.reviews != nil {
		// rows may have changed even when the batch failed partway
		s.reviews.InvalidateReviews(ctx, adapter.Platform())
	}
	observability.ObserveSync(metricLabel(name), res.Synced, err)
	if err != nil {
		log.Warn().Err(err).Str("platform", name).Msg("sync failed")
		return domain.SyncResult{}, err
	}

	if !fromEnv {
		if err := s.platforms.TouchLastSync(ctx, name, s.now()); err != nil {
			log.Warn().Err(err).Str("platform", name).Msg("lastSync update failed")
		}
	}
	log.Info().Str("platform", name).Int("synced", res.Synced).Msg("sync finished")
	return res, nil
}

func (s *SyncService) integration(ctx context.Context, name string) (domain.PlatformIntegration, bool, error) {
	integ, err := s.platforms.GetPlatform(ctx, name)
	if err == nil {
		return integ, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.PlatformIntegration{}, false, err
	}
	if p, ok := domain.ParsePlatform(name); ok {
		if c, ok := s.envBundles[p]; ok {
			return domain.PlatformIntegration{Platform: name, IsEnabled: true, Credentials: &c}, true, nil
		}
	}
	return domain.PlatformIntegration{}, false, fmt.Errorf("%w: %s", domain.ErrPlatformNotConfigured, name)
}

// SetPlatformEnabled upserts the integration row. Credentials are stored as
// given; they are validated when a sync builds the adapter.
func (s *SyncService) SetPlatformEnabled(ctx context.Context, platform string, enabled bool, creds domain.Credentials) (domain.PlatformIntegration, error) {
	name := canonical(platform)
	if name == "" {
		return domain.PlatformIntegration{}, fmt.Errorf("%w: platform is required", domain.ErrInvalidRequest)
	}
	integ, err := s.platforms.UpsertPlatform(ctx, name, enabled, creds)
	if err != nil {
		return domain.PlatformIntegration{}, err
	}
	log.Info().Str("platform", name).Bool("enabled", enabled).Msg("platform integration updated")
	return integ, nil
}

// ListPlatforms returns stored integrations with secrets masked.
func (s *SyncService) ListPlatforms(ctx context.Context, enabledOnly bool) ([]domain.PlatformIntegration, error) {
	all, err := s.platforms.ListPlatforms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlatformIntegration, 0, len(all))
	for _, p := range all {
		if enabledOnly && !p.IsEnabled {
			continue
		}
		out = append(out, p.Redacted())
	}
	return out, nil
}
