package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenBucket is a token-bucket limiter refilled continuously.
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func NewTokenBucket(capacity int64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	return tb.allowAt(time.Now())
}

func (tb *TokenBucket) allowAt(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if elapsed := now.Sub(tb.lastRefill).Seconds(); elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// KeyedLimiter keeps one bucket per client key. Buckets idle for longer than
// idleTTL are dropped on the next sweep.
type KeyedLimiter struct {
	capacity   int64
	refillRate float64
	idleTTL    time.Duration

	mu        sync.Mutex
	buckets   map[string]*TokenBucket
	lastSweep time.Time
}

// NewPerMinuteLimiter allows bursts of perMinute requests per key, refilled
// evenly over a minute.
func NewPerMinuteLimiter(perMinute int64) *KeyedLimiter {
	return &KeyedLimiter{
		capacity:   perMinute,
		refillRate: float64(perMinute) / 60,
		idleTTL:    10 * time.Minute,
		buckets:    make(map[string]*TokenBucket),
		lastSweep:  time.Now(),
	}
}

func (l *KeyedLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) > l.idleTTL {
		for k, b := range l.buckets {
			b.mu.Lock()
			idle := now.Sub(b.lastRefill) > l.idleTTL
			b.mu.Unlock()
			if idle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.buckets[key]
	if !ok {
		b = NewTokenBucket(l.capacity, l.refillRate)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.allowAt(now)
}

// RateLimit rejects clients (by IP) that exceed the limiter with 429.
func RateLimit(l *KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
