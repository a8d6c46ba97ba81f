package platforms

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"review_hub/internal/domain"
)

type Options struct {
	GoogleBase   string
	YelpBase     string
	FacebookBase string
	RPS          int
	Timeout      time.Duration
	// BreakerFailures consecutive failures open a platform's circuit for BreakerOpen.
	BreakerFailures uint32
	BreakerOpen     time.Duration
	HTTPClient      *http.Client
}

// Factory builds adapters. It is safe for concurrent use; adapters built by
// one factory share its rate limiters and circuit breakers.
type Factory struct {
	reviews domain.ReviewRepository
	opts    Options
	up      *upstream
}

func NewFactory(reviews domain.ReviewRepository, opts Options) *Factory {
	if opts.GoogleBase == "" {
		opts.GoogleBase = "https://maps.googleapis.com"
	}
	if opts.YelpBase == "" {
		opts.YelpBase = "https://api.yelp.com"
	}
	if opts.FacebookBase == "" {
		opts.FacebookBase = "https://graph.facebook.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.BreakerOpen <= 0 {
		opts.BreakerOpen = 30 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Factory{
		reviews: reviews,
		opts:    opts,
		up:      newUpstream(hc, opts.RPS, opts.BreakerFailures, opts.BreakerOpen),
	}
}

// New validates creds for platform and returns its adapter. It never touches the network.
func (f *Factory) New(platform string, creds *domain.Credentials) (domain.Adapter, error) {
	pc, err := Validate(platform, creds)
	if err != nil {
		return nil, err
	}
	switch c := pc.(type) {
	case domain.GoogleCredentials:
		return &Google{up: f.up, reviews: f.reviews, baseURL: f.opts.GoogleBase, creds: c}, nil
	case domain.YelpCredentials:
		return &Yelp{up: f.up, reviews: f.reviews, baseURL: f.opts.YelpBase, creds: c}, nil
	case domain.FacebookCredentials:
		return &Facebook{up: f.up, reviews: f.reviews, baseURL: f.opts.FacebookBase, creds: c}, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, platform)
}

// Validate turns a stored credential bundle into the variant platform requires.
func Validate(platform string, creds *domain.Credentials) (domain.PlatformCredentials, error) {
	if creds == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCredentials, platform)
	}
	p, ok := domain.ParsePlatform(platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, platform)
	}

	switch p {
	case domain.PlatformGoogle:
		if err := require(p, "apiKey", creds.APIKey, "placeId", creds.PlaceID); err != nil {
			return nil, err
		}
		return domain.GoogleCredentials{APIKey: creds.APIKey, PlaceID: creds.PlaceID}, nil
	case domain.PlatformYelp:
		if err := require(p, "businessId", creds.BusinessID, "accessToken", creds.AccessToken); err != nil {
			return nil, err
		}
		return domain.YelpCredentials{BusinessID: creds.BusinessID, AccessToken: creds.AccessToken}, nil
	case domain.PlatformFacebook:
		if err := require(p, "accessToken", creds.AccessToken, "pageId", creds.PageID); err != nil {
			return nil, err
		}
		return domain.FacebookCredentials{AccessToken: creds.AccessToken, PageID: creds.PageID}, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, platform)
}

// require takes (name, value) pairs and reports the first blank one.
func require(p domain.Platform, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s requires %s", domain.ErrMissingRequiredField, p, pairs[i])
		}
	}
	return nil
}
