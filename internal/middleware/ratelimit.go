package middleware

import (
	"encoding/json"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiter implements a token bucket algorithm for rate limiting
type RateLimiter struct {
	mu              sync.RWMutex
	requestsPerMin  int
	clients         map[string]*clientBucket
	cleanupInterval time.Duration
	lockoutDuration time.Duration // optional lockout after violations
	maxViolations   int           // number of violations before lockout
	trusted         []netip.Prefix
	log             *zap.SugaredLogger
	stop            chan struct{}
	stopOnce        sync.Once
}

// clientBucket tracks tokens and violations for a single client (IP)
type clientBucket struct {
	tokens      int
	lastRefill  time.Time
	violations  int
	lockedUntil time.Time
	mu          sync.Mutex
}

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	LockoutDuration   time.Duration
	MaxViolations     int
	// TrustedProxyCIDRs lists the proxies whose forwarding headers are
	// believed.
	TrustedProxyCIDRs []netip.Prefix
	Log               *zap.SugaredLogger
}

// NewRateLimiter creates a new rate limiter with the given configuration.
// Call Stop to end its cleanup goroutine.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.MaxViolations == 0 {
		config.MaxViolations = 10 // default: lockout after 10 violations
	}
	if config.Log == nil {
		config.Log = zap.NewNop().Sugar()
	}

	rl := &RateLimiter{
		requestsPerMin:  config.RequestsPerMinute,
		clients:         make(map[string]*clientBucket),
		cleanupInterval: config.CleanupInterval,
		lockoutDuration: config.LockoutDuration,
		maxViolations:   config.MaxViolations,
		trusted:         config.TrustedProxyCIDRs,
		log:             config.Log,
		stop:            make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// RateLimit creates middleware with specified requests per minute
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		LockoutDuration:   5 * time.Minute,
		MaxViolations:     10,
	})
	return limiter.Middleware()
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware returns an HTTP middleware function. A limiter with no
// requests per minute lets everything through.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl.requestsPerMin <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r, rl.trusted)

			allowed, remaining, resetTime := rl.Allow(clientIP)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				rl.log.Warnw("rate limit exceeded", "ip", clientIP, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error":      "too many requests, please try again later",
					"retryAfter": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Allow checks if a request from the given client IP is allowed
// Returns: (allowed bool, remaining tokens, reset time)
func (rl *RateLimiter) Allow(clientIP string) (bool, int, time.Time) {
	rl.mu.Lock()
	bucket, exists := rl.clients[clientIP]
	if !exists {
		bucket = &clientBucket{
			tokens:     rl.requestsPerMin,
			lastRefill: time.Now().UTC(),
		}
		rl.clients[clientIP] = bucket
	}
	rl.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now().UTC()

	if !bucket.lockedUntil.IsZero() {
		if now.Before(bucket.lockedUntil) {
			return false, 0, bucket.lockedUntil
		}
		bucket.lockedUntil = time.Time{}
		bucket.violations = 0
	}

	// Full refill every minute, proportional refill in between
	elapsed := now.Sub(bucket.lastRefill)
	if elapsed >= time.Minute {
		bucket.tokens = rl.requestsPerMin
		bucket.lastRefill = now
	} else {
		tokensToAdd := int(float64(rl.requestsPerMin) * (elapsed.Seconds() / 60.0))
		if tokensToAdd > 0 {
			bucket.tokens = min(bucket.tokens+tokensToAdd, rl.requestsPerMin)
			bucket.lastRefill = now
		}
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true, bucket.tokens, bucket.lastRefill.Add(time.Minute)
	}

	bucket.violations++
	if rl.lockoutDuration > 0 && bucket.violations >= rl.maxViolations {
		bucket.lockedUntil = now.Add(rl.lockoutDuration)
		rl.log.Warnw("client locked out",
			"ip", clientIP,
			"until", bucket.lockedUntil,
			"violations", bucket.violations,
		)
		return false, 0, bucket.lockedUntil
	}

	return false, 0, bucket.lastRefill.Add(time.Minute)
}

// cleanupLoop periodically removes stale client buckets to prevent memory leaks
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup removes client buckets that haven't been used recently
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UTC()
	staleThreshold := 10 * time.Minute

	for ip, bucket := range rl.clients {
		bucket.mu.Lock()
		lastActivity := bucket.lastRefill
		isLocked := !bucket.lockedUntil.IsZero() && now.Before(bucket.lockedUntil)
		bucket.mu.Unlock()

		if !isLocked && now.Sub(lastActivity) > staleThreshold {
			delete(rl.clients, ip)
		}
	}
}
