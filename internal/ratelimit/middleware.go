package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// route is the matched chi pattern so path ids share one counter.
func route(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// clientIP drops the port so every connection from one address shares a
// counter.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. Requests are keyed by client address and route; chi's RealIP
// middleware must run first for proxied deployments.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := l.Allow(l.scope + "|" + clientIP(r) + "|" + route(r))
		if !ok {
			secs := int(math.Ceil(retry.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":       "För många förfrågningar. Försök igen om " + strconv.Itoa(secs) + " sekunder.",
				"retry_after": secs,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
