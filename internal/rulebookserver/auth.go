package rulebookserver

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates a bearer token against RULEBOOK_AUTH_TOKEN. If
// the env var is unset, every request is allowed (development mode); it
// logs a warning once if GIN_MODE=release and no token is configured.
func AuthMiddleware() gin.HandlerFunc {
	token := os.Getenv("RULEBOOK_AUTH_TOKEN")
	if token == "" && os.Getenv("GIN_MODE") == "release" {
		log.Println("[SECURITY WARNING] RULEBOOK_AUTH_TOKEN is not set in release mode; all endpoints are publicly writable")
	}

	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			c.Abort()
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid Authorization header format"})
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		c.Next()
	}
}

const cleanupIdleDuration = 10 * time.Minute

type actorBucket struct {
	tokens   float64
	lastSeen time.Time
	mu       sync.Mutex
}

// RateLimiter is a per-actor token bucket, refilled continuously at rate
// tokens/sec up to a burst ceiling. An actor is the caller's bearer token
// when one was presented (so a client's budget travels with its
// credential, not the IP it happens to connect from), falling back to the
// remote IP when no bearer token is sent. When RULEBOOK_AUTH_TOKEN is unset,
// AuthMiddleware validates nothing, so a presented token is used as the key
// unchecked.
type RateLimiter struct {
	rate    float64
	burst   float64
	mu      sync.Mutex
	buckets map[string]*actorBucket
}

// NewRateLimiter allows ratePerMin requests per minute per actor, with the
// given burst capacity.
func NewRateLimiter(ratePerMin, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:    float64(ratePerMin) / 60.0,
		burst:   float64(burst),
		buckets: make(map[string]*actorBucket),
	}
	go rl.cleanupLoop()
	return rl
}

// actorKey identifies the caller a bucket is keyed by: the bearer token from
// a well-formed Authorization header, or the client IP when none was sent.
func actorKey(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
		return "token:" + parts[1]
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) allow(actor string) (bool, time.Duration) {
	rl.mu.Lock()
	bucket, ok := rl.buckets[actor]
	if !ok {
		bucket = &actorBucket{tokens: rl.burst}
		rl.buckets[actor] = bucket
	}
	rl.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(bucket.lastSeen).Seconds()
	bucket.tokens += elapsed * rl.rate
	if bucket.tokens > rl.burst {
		bucket.tokens = rl.burst
	}
	bucket.lastSeen = now

	if bucket.tokens >= 1.0 {
		bucket.tokens--
		return true, 0
	}
	retryAfter := time.Duration((1.0-bucket.tokens)/rl.rate*1000) * time.Millisecond
	return false, retryAfter
}

// Middleware enforces the rate limit, responding 429 with Retry-After when
// exhausted.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.allow(actorKey(c))
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"retryAfter": retryAfter.String(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupIdleDuration)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-cleanupIdleDuration)
		rl.mu.Lock()
		for actor, b := range rl.buckets {
			b.mu.Lock()
			idle := b.lastSeen.Before(cutoff)
			b.mu.Unlock()
			if idle {
				delete(rl.buckets, actor)
			}
		}
		rl.mu.Unlock()
	}
}
