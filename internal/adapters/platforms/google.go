package platforms

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_hub/internal/domain"
)

// Google reads reviews from the Places details endpoint.
type Google struct {
	up      *upstream
	reviews domain.ReviewRepository
	baseURL string
	creds   domain.GoogleCredentials
}

func (g *Google) Platform() domain.Platform { return domain.PlatformGoogle }

func (g *Google) FetchRawReviews(ctx context.Context) ([]domain.RawReview, error) {
	q := url.Values{}
	q.Set("place_id", g.creds.PlaceID)
	q.Set("fields", "reviews")
	q.Set("key", g.creds.APIKey)
	u := strings.TrimRight(g.baseURL, "/") + "/maps/api/place/details/json?" + q.Encode()

	var payload map[string]any
	if err := g.up.getJSON(ctx, domain.PlatformGoogle, "place_details", u, nil, &payload); err != nil {
		log.Error().Err(err).Str("platform", "Google").Msg("fetch reviews failed")
		return nil, err
	}
	return rawList(payload, "result.reviews"), nil
}

func (g *Google) SyncReviews(ctx context.Context) (domain.SyncResult, error) {
	return syncReviews(ctx, g, g.reviews)
}

// Normalize keys the review by its upstream id when one is sent. The Places
// API normally sends none, so the key falls back to the creation time in
// epoch seconds; two reviews posted in the same second share that key and
// the later one overwrites the earlier.
func (g *Google) Normalize(raw domain.RawReview) (domain.Review, error) {
	sec := firstInt64Flexible(raw, "time")
	if sec == nil {
		return domain.Review{}, malformed(domain.PlatformGoogle, "missing time")
	}
	id := lookupID(raw, "id")
	if id == "" {
		id = lookupID(raw, "time")
	}

	rv := domain.Review{
		Platform: domain.PlatformGoogle,
		Author:   lookupStr(raw, "author_name"),
		Avatar:   orDefault(lookupStr(raw, "profile_photo_url"), domain.PlaceholderAvatar),
		Content:  lookupStr(raw, "text"),
		Date:     time.Unix(*sec, 0).UTC(),
	}
	if r := getFloatFlexible(raw, "rating"); r != nil {
		rv.Rating = *r
	}
	rv.PlatformData.SetExternalID(domain.PlatformGoogle, id)
	rv.PlatformData.ProfileURL = lookupStr(raw, "author_url")
	return rv, nil
}
