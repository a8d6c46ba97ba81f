package shared

import (
	"testing"
	"time"

	"review_hub/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("CACHE_TTL_SECONDS", "")
	t.Setenv("ENV_CREDENTIALS_FALLBACK", "")

	c := Load()
	if c.StoreDriver != "mysql" {
		t.Fatalf("store driver: %q", c.StoreDriver)
	}
	if c.CacheTTL != 300*time.Second {
		t.Fatalf("cache ttl: %v", c.CacheTTL)
	}
	if c.EnvCredentials || c.EnvBundles != nil {
		t.Fatalf("env fallback must be off by default")
	}
}

func TestLoad_EnvFallbackBundles(t *testing.T) {
	t.Setenv("ENV_CREDENTIALS_FALLBACK", "true")
	t.Setenv("GOOGLE_API_KEY", "k")
	t.Setenv("GOOGLE_PLACE_ID", "p")
	t.Setenv("YELP_ACCESS_TOKEN", "")
	t.Setenv("FACEBOOK_ACCESS_TOKEN", "")
	t.Setenv("STORE_DRIVER", "Mongo")

	c := Load()
	if c.StoreDriver != "mongo" {
		t.Fatalf("store driver should be lower-cased, got %q", c.StoreDriver)
	}
	if !c.EnvCredentials {
		t.Fatalf("expected fallback on")
	}
	got, ok := c.EnvBundles[domain.PlatformGoogle]
	if !ok || got.APIKey != "k" || got.PlaceID != "p" {
		t.Fatalf("unexpected google bundle: %+v", got)
	}
	if _, ok := c.EnvBundles[domain.PlatformYelp]; ok {
		t.Fatalf("yelp bundle should be absent")
	}
}
