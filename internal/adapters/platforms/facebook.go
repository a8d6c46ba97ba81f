package platforms

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"review_hub/internal/domain"
)

// Facebook reads page ratings from the Graph API.
type Facebook struct {
	up      *upstream
	reviews domain.ReviewRepository
	baseURL string
	creds   domain.FacebookCredentials
}

func (f *Facebook) Platform() domain.Platform { return domain.PlatformFacebook }

func (f *Facebook) FetchRawReviews(ctx context.Context) ([]domain.RawReview, error) {
	q := url.Values{}
	q.Set("access_token", f.creds.AccessToken)
	u := strings.TrimRight(f.baseURL, "/") + "/" + url.PathEscape(f.creds.PageID) + "/ratings?" + q.Encode()

	var payload map[string]any
	if err := f.up.getJSON(ctx, domain.PlatformFacebook, "page_ratings", u, nil, &payload); err != nil {
		log.Error().Err(err).Str("platform", "Facebook").Msg("fetch reviews failed")
		return nil, err
	}
	return rawList(payload, "data"), nil
}

func (f *Facebook) SyncReviews(ctx context.Context) (domain.SyncResult, error) {
	return syncReviews(ctx, f, f.reviews)
}

// Normalize keys a rating by reviewer id plus creation time: the ratings
// edge exposes no review id of its own.
func (f *Facebook) Normalize(raw domain.RawReview) (domain.Review, error) {
	created := lookupStr(raw, "created_time")
	date, err := parseTimeFlexible(created)
	if err != nil {
		return domain.Review{}, malformed(domain.PlatformFacebook, "%v", err)
	}
	reviewer := lookupID(raw, "reviewer.id")
	id := created
	if reviewer != "" {
		id = reviewer + ":" + created
	}

	rv := domain.Review{
		Platform: domain.PlatformFacebook,
		Author:   lookupStr(raw, "reviewer.name"),
		Avatar:   orDefault(lookupStr(raw, "reviewer.picture.data.url"), domain.PlaceholderAvatar),
		Content:  lookupStr(raw, "review_text"),
		Date:     date,
	}
	if r := getFloatFlexible(raw, "rating"); r != nil {
		rv.Rating = *r
	} else {
		// recommendations carry no star rating
		switch lookupStr(raw, "recommendation_type") {
		case "positive":
			rv.Rating = 5
		case "negative":
			rv.Rating = 1
		}
	}
	rv.PlatformData.SetExternalID(domain.PlatformFacebook, id)
	if reviewer != "" {
		rv.PlatformData.ProfileURL = "https://facebook.com/" + reviewer
	}
	return rv, nil
}
