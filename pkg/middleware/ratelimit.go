package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Rate is the sustained request rate per client (default: 10/s).
	Rate rate.Limit

	// Burst is the maximum burst size per client (default: 20).
	Burst int

	// KeyFunc extracts the client key from a request. The default
	// uses the remote IP.
	KeyFunc func(r *http.Request) string

	// TTL is how long an idle client's limiter is kept before the
	// sweeper drops it (default: 3 minutes).
	TTL time.Duration
}

// RateLimitOption configures the rate limiting middleware.
type RateLimitOption func(*RateLimitConfig)

// WithRate sets the sustained per-client request rate.
func WithRate(r rate.Limit) RateLimitOption {
	return func(c *RateLimitConfig) {
		c.Rate = r
	}
}

// WithBurst sets the per-client burst size.
func WithBurst(burst int) RateLimitOption {
	return func(c *RateLimitConfig) {
		c.Burst = burst
	}
}

// WithKeyFunc sets how clients are identified.
func WithKeyFunc(fn func(r *http.Request) string) RateLimitOption {
	return func(c *RateLimitConfig) {
		c.KeyFunc = fn
	}
}

func defaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Rate:    10,
		Burst:   20,
		KeyFunc: clientIP,
		TTL:     3 * time.Minute,
	}
}

// clientEntry tracks one client's limiter and last-seen time.
type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit creates middleware that applies a per-client token-bucket
// limit. Requests over the limit are answered with 429.
//
// Example:
//
//	handler := middleware.RateLimit(
//	    middleware.WithRate(100),
//	    middleware.WithBurst(200),
//	)(app.Handler())
func RateLimit(opts ...RateLimitOption) func(http.Handler) http.Handler {
	config := defaultRateLimitConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*clientEntry)
		swept   time.Time
	)

	allow := func(key string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		// Sweep idle clients at most once per TTL.
		if now.Sub(swept) > config.TTL {
			for k, e := range clients {
				if now.Sub(e.lastSeen) > config.TTL {
					delete(clients, k)
				}
			}
			swept = now
		}

		entry, ok := clients[key]
		if !ok {
			entry = &clientEntry{limiter: rate.NewLimiter(config.Rate, config.Burst)}
			clients[key] = entry
		}
		entry.lastSeen = now
		return entry.limiter.Allow()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(config.KeyFunc(r)) {
				http.Error(w, "Too many requests.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
