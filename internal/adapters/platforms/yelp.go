package platforms

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"review_hub/internal/domain"
)

// Yelp reads reviews from the Fusion business reviews endpoint.
type Yelp struct {
	up      *upstream
	reviews domain.ReviewRepository
	baseURL string
	creds   domain.YelpCredentials
}

func (y *Yelp) Platform() domain.Platform { return domain.PlatformYelp }

func (y *Yelp) FetchRawReviews(ctx context.Context) ([]domain.RawReview, error) {
	u := strings.TrimRight(y.baseURL, "/") + "/v3/businesses/" + url.PathEscape(y.creds.BusinessID) + "/reviews"
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+y.creds.AccessToken)

	var payload map[string]any
	if err := y.up.getJSON(ctx, domain.PlatformYelp, "business_reviews", u, hdr, &payload); err != nil {
		log.Error().Err(err).Str("platform", "Yelp").Msg("fetch reviews failed")
		return nil, err
	}
	return rawList(payload, "reviews"), nil
}

func (y *Yelp) SyncReviews(ctx context.Context) (domain.SyncResult, error) {
	return syncReviews(ctx, y, y.reviews)
}

func (y *Yelp) Normalize(raw domain.RawReview) (domain.Review, error) {
	id := lookupID(raw, "id")
	if id == "" {
		return domain.Review{}, malformed(domain.PlatformYelp, "missing id")
	}
	date, err := parseTimeFlexible(lookupStr(raw, "time_created"))
	if err != nil {
		return domain.Review{}, malformed(domain.PlatformYelp, "review %s: %v", id, err)
	}

	rv := domain.Review{
		Platform: domain.PlatformYelp,
		Author:   lookupStr(raw, "user.name"),
		Avatar:   orDefault(lookupStr(raw, "user.image_url"), domain.PlaceholderAvatar),
		Content:  lookupStr(raw, "text"),
		Date:     date,
	}
	if r := getFloatFlexible(raw, "rating"); r != nil {
		rv.Rating = *r
	}
	rv.PlatformData.SetExternalID(domain.PlatformYelp, id)
	rv.PlatformData.ProfileURL = lookupStr(raw, "url")
	return rv, nil
}
