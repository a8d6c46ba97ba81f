package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"review_hub/internal/adapters/observability"
	"review_hub/internal/domain"
)

// upstream is the shared outbound transport: one rate limiter and one
// circuit breaker per platform. It never retries; a tripped breaker
// fails fast with ErrUpstreamFetch until its timeout elapses.
type upstream struct {
	hc       *http.Client
	limiters map[domain.Platform]*rate.Limiter
	breakers map[domain.Platform]*gobreaker.CircuitBreaker
}

func newUpstream(hc *http.Client, rps int, trip uint32, open time.Duration) *upstream {
	if rps <= 0 {
		rps = 5
	}
	if trip == 0 {
		trip = 5
	}
	u := &upstream{
		hc:       hc,
		limiters: map[domain.Platform]*rate.Limiter{},
		breakers: map[domain.Platform]*gobreaker.CircuitBreaker{},
	}
	for _, p := range domain.KnownPlatforms() {
		u.limiters[p] = rate.NewLimiter(rate.Limit(rps), rps)
		u.breakers[p] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    string(p),
			Timeout: open,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= trip
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("platform", name).Str("from", from.String()).Str("to", to.String()).
					Msg("upstream circuit state changed")
			},
		})
	}
	return u
}

// getJSON issues one GET and decodes a 2xx body into out.
// endpoint is a short label for metrics and logs; rawURL never reaches either
// because it can carry credentials in its query string.
func (u *upstream) getJSON(ctx context.Context, p domain.Platform, endpoint, rawURL string, hdr http.Header, out any) error {
	if err := u.limiters[p].Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUpstreamFetch, p, endpoint, err)
	}
	_, err := u.breakers[p].Execute(func() (any, error) {
		return nil, u.do(ctx, p, endpoint, rawURL, hdr, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUpstreamFetch, p, endpoint, err)
	}
	return err
}

func (u *upstream) do(ctx context.Context, p domain.Platform, endpoint, rawURL string, hdr http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUpstreamFetch, p, endpoint, stripURL(err))
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "review-hub/1.0")

	start := time.Now()
	resp, err := u.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(string(p), endpoint, 0, time.Since(start))
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUpstreamFetch, p, endpoint, stripURL(err))
	}
	defer resp.Body.Close()
	observability.ObserveExternal(string(p), endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s %s: status %d: %s",
			domain.ErrUpstreamFetch, p, endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %s %s: decode: %w", domain.ErrUpstreamFetch, p, endpoint, err)
	}
	return nil
}

// stripURL drops the request URL from transport errors so query-string
// secrets (API keys, access tokens) stay out of logs and responses.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
