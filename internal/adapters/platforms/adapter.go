package platforms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_hub/internal/domain"
)

// normalizer is implemented by every adapter: it maps one upstream review
// into the unified shape, including its platform-specific external id.
type normalizer interface {
	domain.Adapter
	Normalize(raw domain.RawReview) (domain.Review, error)
}

// syncReviews fetches, normalizes and upserts in upstream order. The first
// failure aborts the batch; rows upserted before it stay.
func syncReviews(ctx context.Context, a normalizer, reviews domain.ReviewRepository) (domain.SyncResult, error) {
	p := a.Platform()
	raws, err := a.FetchRawReviews(ctx)
	if err != nil {
		return domain.SyncResult{}, err
	}

	for i, raw := range raws {
		rv, err := a.Normalize(raw)
		if err != nil {
			log.Error().Err(err).Str("platform", string(p)).Int("index", i).Msg("normalize review failed")
			return domain.SyncResult{}, err
		}
		if _, err := reviews.UpsertReview(ctx, rv); err != nil {
			log.Error().Err(err).Str("platform", string(p)).
				Str("external_id", rv.ExternalID()).Msg("upsert review failed")
			return domain.SyncResult{}, fmt.Errorf("upsert %s review %s: %w", p, rv.ExternalID(), err)
		}
	}

	return domain.SyncResult{
		Success:  true,
		Message:  fmt.Sprintf("%s reviews synced successfully", p),
		Platform: p,
		Synced:   len(raws),
	}, nil
}

// malformed reports an upstream review that cannot be keyed or dated.
func malformed(p domain.Platform, format string, args ...any) error {
	return fmt.Errorf("%w: malformed %s review: %s", domain.ErrUpstreamFetch, p, fmt.Sprintf(format, args...))
}
