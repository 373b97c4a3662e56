package http

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkrupp/mediagate/internal/infra/logging"
)

const (
	limiterIdleTimeout = 10 * time.Minute
	limiterMaxEntries  = 4096
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter keeps one token bucket per key (typically the client host).
// Idle buckets are evicted once the table grows past limiterMaxEntries.
type KeyedRateLimiter struct {
	limit rate.Limit
	burst int

	m       sync.Mutex
	entries map[string]*limiterEntry

	// Clock returns the current time; replaced in tests.
	Clock func() time.Time
}

// NewKeyedRateLimiter creates a limiter allowing perMinute events per key per minute,
// with bursts of up to perMinute events.
func NewKeyedRateLimiter(perMinute int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limit:   rate.Limit(float64(perMinute) / time.Minute.Seconds()),
		burst:   perMinute,
		entries: make(map[string]*limiterEntry),
		Clock:   time.Now,
	}
}

// Allow reports whether an event for key may happen now.
func (l *KeyedRateLimiter) Allow(key string) bool {
	now := l.Clock()

	l.m.Lock()
	defer l.m.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= limiterMaxEntries {
			l.evict(now)
		}

		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}

	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

func (l *KeyedRateLimiter) evict(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > limiterIdleTimeout {
			delete(l.entries, key)
		}
	}
}

// RateLimitingMiddleware rejects requests with 429 Too Many Requests once the
// client host has exhausted its bucket. A nil limiter disables limiting.
func RateLimitingMiddleware(limiter *KeyedRateLimiter, log logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := ClientHost(r)

			if !limiter.Allow(host) {
				log.WarnContext(r.Context(), "rate limited", "remote", host, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientHost returns the host part of the request's remote address.
func ClientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
