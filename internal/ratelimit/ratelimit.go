// Package ratelimit is a per-process fixed-window request counter. State
// lives in memory only: it is not shared between instances and is lost on
// restart.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bokfor_rate_limit_rejected_total",
		Help: "Requests rejected by the in-memory rate limiter.",
	},
	[]string{"scope"},
)

// maxTracked bounds the number of identifiers held at once. The least
// recently used identifier is dropped first.
const maxTracked = 100_000

type window struct {
	start time.Time
	count int
}

// Limiter allows Limit requests per identifier per Window.
type Limiter struct {
	Limit  int
	Window time.Duration
	scope  string

	mu      sync.Mutex
	windows *expirable.LRU[string, *window]
	now     func() time.Time
}

// New returns a limiter. scope labels the rejection metric.
func New(scope string, limit int, win time.Duration) *Limiter {
	return &Limiter{
		Limit:   limit,
		Window:  win,
		scope:   scope,
		windows: expirable.NewLRU[string, *window](maxTracked, nil, win),
		now:     time.Now,
	}
}

// Allow counts a request for id. When the limit is reached it returns false
// and how long until the current window ends.
func (l *Limiter) Allow(id string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows.Get(id)
	if !ok || now.Sub(w.start) >= l.Window {
		l.windows.Add(id, &window{start: now, count: 1})
		return true, 0
	}
	if w.count >= l.Limit {
		rejectedTotal.WithLabelValues(l.scope).Inc()
		return false, w.start.Add(l.Window).Sub(now)
	}
	w.count++
	return true, 0
}

// Reset forgets id, e.g. after a successful login.
func (l *Limiter) Reset(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows.Remove(id)
}
