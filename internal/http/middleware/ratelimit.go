package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/grooming-platform/pkg/logging"
)

// RateLimiter provides per-IP rate limiting using a token bucket algorithm.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // max tokens
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter creates a rate limiter allowing rate requests/sec with the
// given burst size per IP.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
	}
	// Periodically evict stale entries to prevent memory growth.
	go rl.cleanup()
	return rl
}

// Allow returns true if the request from ip is within the rate limit.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastTime: now}
		rl.buckets[ip] = b
	}

	elapsed := now.Sub(b.lastTime).Seconds()
	b.tokens += elapsed * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastTime = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for ip, b := range rl.buckets {
			if b.lastTime.Before(cutoff) {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit returns an HTTP middleware that rejects requests exceeding the
// configured rate with 429 Too Many Requests.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.Allow(ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ImportQuota caps how many imports an operator may start per window, backed
// by a Redis counter. A Redis outage fails open: imports are not blocked
// just because the counter is unreachable.
type ImportQuota struct {
	redis  *redis.Client
	logger *logging.Logger
	max    int
	window time.Duration
}

// NewImportQuota creates an import quota limiter. A nil client disables it.
func NewImportQuota(redisClient *redis.Client, maxPerWindow int, window time.Duration, logger *logging.Logger) *ImportQuota {
	if logger == nil {
		logger = logging.Default()
	}
	return &ImportQuota{
		redis:  redisClient,
		logger: logger,
		max:    maxPerWindow,
		window: window,
	}
}

// Middleware rejects requests once the authenticated operator exhausts the
// quota. It must run after OperatorJWT.
func (q *ImportQuota) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q == nil || q.redis == nil || q.max <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		operatorID, ok := OperatorIDFromContext(r.Context())
		if !ok {
			http.Error(w, "operator identity required", http.StatusUnauthorized)
			return
		}

		key := fmt.Sprintf("quota:import:%s", operatorID)
		count, err := q.redis.Incr(r.Context(), key).Result()
		if err != nil {
			q.logger.Error("import quota check failed", "error", err, "key", key)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			q.redis.Expire(r.Context(), key, q.window)
		}

		if int(count) > q.max {
			ttl, err := q.redis.TTL(r.Context(), key).Result()
			if err != nil {
				ttl = q.window
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			http.Error(w, fmt.Sprintf("import quota of %d per %s exceeded", q.max, q.window), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
