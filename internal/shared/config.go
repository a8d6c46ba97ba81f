package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"review_hub/internal/domain"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StoreDriver string // mysql|mongo|memory
	MySQLDSN    string
	MongoURI    string
	MongoDB     string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	GoogleBase      string
	YelpBase        string
	FacebookBase    string
	UpstreamRPS     int
	UpstreamTimeout time.Duration
	SyncWorkers     int

	// EnvCredentials enables the legacy path: platforms without a stored
	// integration sync with credentials read from the environment.
	EnvCredentials bool
	EnvBundles     map[domain.Platform]domain.Credentials

	QRWidth int
}

// Load reads an optional .env file, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		LogLevel:        env("LOG_LEVEL", "info"),
		HTTPAddr:        env("HTTP_ADDR", ":3001"),
		MetricsAddr:     env("METRICS_ADDR", ""),
		StoreDriver:     strings.ToLower(env("STORE_DRIVER", "mysql")),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		MongoURI:        env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         env("MONGO_DB", "review_hub"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		GoogleBase:      env("GOOGLE_BASE_URL", "https://maps.googleapis.com"),
		YelpBase:        env("YELP_BASE_URL", "https://api.yelp.com"),
		FacebookBase:    env("FACEBOOK_BASE_URL", "https://graph.facebook.com"),
		UpstreamRPS:     atoi("UPSTREAM_RPS", 5),
		UpstreamTimeout: time.Duration(atoi("UPSTREAM_TIMEOUT_SECONDS", 20)) * time.Second,
		SyncWorkers:     atoi("SYNC_WORKERS", 3),
		EnvCredentials:  envBool("ENV_CREDENTIALS_FALLBACK", false),
		QRWidth:         atoi("QR_DEFAULT_WIDTH", 300),
	}
	if c.EnvCredentials {
		c.EnvBundles = envBundles()
		if len(c.EnvBundles) == 0 {
			log.Warn().Msg("ENV_CREDENTIALS_FALLBACK is on but no platform credentials are set")
		}
	}
	return c
}

// envBundles collects the platform credentials present in the environment.
func envBundles() map[domain.Platform]domain.Credentials {
	out := map[domain.Platform]domain.Credentials{}
	if k := os.Getenv("GOOGLE_API_KEY"); k != "" {
		out[domain.PlatformGoogle] = domain.Credentials{APIKey: k, PlaceID: os.Getenv("GOOGLE_PLACE_ID")}
	}
	if t := os.Getenv("YELP_ACCESS_TOKEN"); t != "" {
		out[domain.PlatformYelp] = domain.Credentials{AccessToken: t, BusinessID: os.Getenv("YELP_BUSINESS_ID")}
	}
	if t := os.Getenv("FACEBOOK_ACCESS_TOKEN"); t != "" {
		out[domain.PlatformFacebook] = domain.Credentials{AccessToken: t, PageID: os.Getenv("FACEBOOK_PAGE_ID")}
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
