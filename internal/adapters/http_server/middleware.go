package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"review_hub/internal/adapters/observability"
)

// Timeout bounds a whole request, sync calls to upstream platforms included.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

// AccessLog records every request twice: once in the HTTP metrics and once
// as an http_request event. Server errors are logged at error level.
func AccessLog(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			t0 := time.Now()
			next.ServeHTTP(ww, r)
			took := time.Since(t0)

			route := matchedRoute(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			observability.ObserveHTTP(route, r.Method, status, took)

			lvl := zerolog.InfoLevel
			if status >= http.StatusInternalServerError {
				lvl = zerolog.ErrorLevel
			}
			l.WithLevel(lvl).
				Str("route", route).
				Str("method", r.Method).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", took).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("remote", clientHost(r.RemoteAddr)).
				Msg("http_request")
		})
	}
}

// matchedRoute is the chi pattern that served r; only valid after routing.
func matchedRoute(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil || rc.RoutePattern() == "" {
		return "unmatched"
	}
	return rc.RoutePattern()
}

// clientHost strips the port; chimw.RealIP has already applied forwarding headers.
func clientHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
