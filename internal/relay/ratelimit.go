package relay

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Per-IP budget for the relay endpoints. Generous for a human filling out a
// form, tight enough to blunt scripted abuse of the upstream mail quota.
const (
	limitPerMinute = 6
	limiterTTL     = 10 * time.Minute
)

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimit returns middleware applying a per-client-IP token bucket to the
// wrapped handlers. Exhausted budgets respond 429 with the standard error body.
func RateLimit() func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		entries = map[string]*limiterEntry{}
	)
	get := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now()
		if e, ok := entries[ip]; ok {
			e.seen = now
			return e.lim
		}
		// opportunistic sweep of idle entries
		for k, e := range entries {
			if now.Sub(e.seen) > limiterTTL {
				delete(entries, k)
			}
		}
		e := &limiterEntry{
			lim:  rate.NewLimiter(rate.Every(time.Minute/limitPerMinute), limitPerMinute),
			seen: now,
		}
		entries[ip] = e
		return e.lim
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !get(clientIP(r)).Allow() {
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[len(parts)-1])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}
