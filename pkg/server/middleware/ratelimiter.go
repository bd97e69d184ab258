package server

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/config"
	"github.com/milan604/permcatalog/pkg/response"
)

// RateLimitConfig encapsulates both configuration and runtime state for per-IP rate limiting.
type RateLimitConfig struct {
	Enabled         bool
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
	// IdleTTL is how long an unused client limiter is kept.
	IdleTTL time.Duration

	limit   rate.Limit
	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitConfig creates a new RateLimitConfig. Call StartCleanup to evict
// idle clients in the background.
func NewRateLimitConfig(enabled bool, rps float64, burst int, cleanupInterval time.Duration) *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:         enabled,
		RPS:             rps,
		Burst:           burst,
		CleanupInterval: cleanupInterval,
		IdleTTL:         3 * cleanupInterval,
		limit:           rate.Limit(rps),
		clients:         make(map[string]*client),
	}
}

// RateLimitConfigFrom builds a limiter from settings.
func RateLimitConfigFrom(s config.RateLimitSettings) *RateLimitConfig {
	return NewRateLimitConfig(s.Enabled, s.RPS, s.Burst, time.Minute)
}

// getLimiter returns the rate limiter for the given IP, creating one if needed.
func (rl *RateLimitConfig) getLimiter(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cl, ok := rl.clients[ip]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(rl.limit, rl.Burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// Evict drops limiters not used since before cutoff and returns how many.
func (rl *RateLimitConfig) Evict(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for ip, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			n++
		}
	}
	return n
}

// StartCleanup evicts idle clients every CleanupInterval until stop is closed.
func (rl *RateLimitConfig) StartCleanup(stop <-chan struct{}) {
	if rl.CleanupInterval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(rl.CleanupInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-t.C:
				rl.Evict(now.Add(-rl.IdleTTL))
			}
		}
	}()
}

// remoteIP prefers the first X-Forwarded-For hop.
func remoteIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

// Middleware returns the gin middleware enforcing per-IP rate limits.
// Rejected requests get 429 in the standard error envelope.
func (rl *RateLimitConfig) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled {
			c.Next()
			return
		}
		if !rl.getLimiter(remoteIP(c), time.Now()).Allow() {
			response.JSONError(c, apperr.New(apperr.ErrorCodeRateLimited))
			c.Abort()
			return
		}
		c.Next()
	}
}
