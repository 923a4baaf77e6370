package middleware

import (
	"net/http"
	"sync"
	"time"

	"dotrip/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	every    time.Duration
	burst    int
}

// NewRateLimiter allows perMinute requests per IP with an equal burst.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RateLimiter{
		limiters: map[string]*limiterEntry{},
		every:    time.Minute / time.Duration(perMinute),
		burst:    perMinute,
	}
}

func (s *RateLimiter) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(s.every), s.burst)}
		s.limiters[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Prune forgets IPs idle for longer than idle.
func (s *RateLimiter) Prune(idle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	for ip, e := range s.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(s.limiters, ip)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (s *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !s.get(ip).Allow() {
			utils.GetLogger().Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded. Try again later.",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
