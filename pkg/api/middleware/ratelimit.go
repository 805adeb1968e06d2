package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	CleanupInterval   time.Duration
	ClientExpiration  time.Duration
	MaxClients        int
}

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		CleanupInterval:   5 * time.Minute,
		ClientExpiration:  10 * time.Minute,
		MaxClients:        10000,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per client.
type RateLimiter struct {
	cfg     RateLimitConfig
	logger  logging.Logger
	now     func() time.Time
	mu      sync.Mutex
	clients map[string]*client
}

// NewRateLimiter creates a limiter. Zero fields of cfg take defaults.
func NewRateLimiter(cfg RateLimitConfig, logger logging.Logger) *RateLimiter {
	d := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = d.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = d.BurstSize
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = d.CleanupInterval
	}
	if cfg.ClientExpiration <= 0 {
		cfg.ClientExpiration = d.ClientExpiration
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RateLimiter{
		cfg:     cfg,
		logger:  logger.With(logging.Component("ratelimit")),
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow reports whether clientID may make a request now. New clients are
// refused once MaxClients are tracked.
func (rl *RateLimiter) Allow(clientID string) bool {
	now := rl.now()

	rl.mu.Lock()
	c, ok := rl.clients[clientID]
	if !ok {
		if rl.cfg.MaxClients > 0 && len(rl.clients) >= rl.cfg.MaxClients {
			rl.mu.Unlock()
			rl.logger.Warn("rate limiter full, rejecting new client", logging.String("client", clientID))
			return false
		}
		c = &client{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize)}
		rl.clients[clientID] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Cleanup forgets clients idle for longer than ClientExpiration.
func (rl *RateLimiter) Cleanup() int {
	cutoff := rl.now().Add(-rl.cfg.ClientExpiration)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for id, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every CleanupInterval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := rl.Cleanup(); n > 0 {
				rl.logger.Debug("expired idle clients", logging.Count(n))
			}
		}
	}
}

// LimitRecorder counts rejected requests.
type LimitRecorder interface {
	RecordRateLimited()
}

// RateLimit rejects requests over the client's limit with 429. A nil limiter
// disables limiting; recorder may be nil.
func RateLimit(limiter *RateLimiter, clientID func(*http.Request) string, recorder LimitRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientID(r)
			if limiter.Allow(id) {
				next.ServeHTTP(w, r)
				return
			}
			limiter.logger.Debug("rate limit exceeded",
				logging.String("client", id),
				logging.Path(r.URL.Path),
				logging.RequestID(GetRequestID(r.Context())),
			)
			if recorder != nil {
				recorder.RecordRateLimited()
			}
			w.Header().Set("Retry-After", "1")
			w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(limiter.cfg.RequestsPerSecond, 'f', -1, 64))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		})
	}
}
