package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"storefront/internal/model"
	"storefront/internal/security"
)

const (
	// idleTTL is how long an untouched client bucket is kept.
	idleTTL = 10 * time.Minute
	// maxVisitors forces an early sweep once this many buckets are held.
	maxVisitors = 10_000
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	logger    zerolog.Logger
}

// NewRateLimiter allows perMinute requests per client with the given burst.
func NewRateLimiter(perMinute, burst int, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		now:      time.Now,
		logger:   logger.With().Str("component", "rate_limit").Logger(),
	}
}

// Allow reports whether the client identified by key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleTTL {
		l.sweepLocked(now, idleTTL)
	}

	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= maxVisitors {
			l.sweepLocked(now, time.Minute)
			if len(l.visitors) >= maxVisitors {
				l.logger.Warn().Int("visitors", len(l.visitors)).Msg("rate limiter full, rejecting new client")
				return false
			}
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweepLocked drops buckets idle for longer than ttl.
func (l *RateLimiter) sweepLocked(now time.Time, ttl time.Duration) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > ttl {
			delete(l.visitors, k)
		}
	}
	l.lastSweep = now
}

// Middleware rejects clients that exceed their budget with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := security.ClientIP(r)
		if !l.Allow(ip) {
			l.logger.Warn().Str("client_ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
			writeError(w, http.StatusTooManyRequests, model.ErrCodeRateLimited, "Too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
