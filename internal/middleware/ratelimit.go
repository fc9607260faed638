package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/auth"
)

type visitor struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyFunc picks the bucket a request is charged against.
type KeyFunc func(c *gin.Context) string

// KeyByClientIP charges requests to the client address.
func KeyByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// KeyByCaller charges requests to the authenticated caller, falling back to
// the client address when no caller is known yet.
func KeyByCaller(c *gin.Context) string {
	if caller, ok := auth.CallerFromContext(c); ok && caller.UID != "" {
		return "uid:" + caller.UID
	}
	return KeyByClientIP(c)
}

// RateLimiter tracks per-key token bucket limiters.
type RateLimiter struct {
	visitors sync.Map
	rps      rate.Limit
	burst    int
	key      KeyFunc
}

// NewRateLimiter creates a Gin middleware that applies per-key rate limiting.
// rps controls the steady-state rate (requests per second), burst is the
// maximum number of tokens that can be consumed in a single burst.
func NewRateLimiter(rps rate.Limit, burst int, key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = KeyByClientIP
	}
	rl := &RateLimiter{rps: rps, burst: burst, key: key}
	go rl.cleanupLoop()
	return rl.handle
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()
	val, ok := rl.visitors.Load(key)
	if !ok {
		val, _ = rl.visitors.LoadOrStore(key, &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)})
	}
	v := val.(*visitor)
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
	return v.limiter
}

func (rl *RateLimiter) handle(c *gin.Context) {
	limiter := rl.getVisitor(rl.key(c))

	if !limiter.Allow() {
		apperrors.Abort(c, apperrors.New(apperrors.CodeRateLimited, "too many requests, please try again later"))
		return
	}

	c.Next()
}

// cleanupLoop removes visitors that haven't been seen for 3 minutes.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.visitors.Range(func(key, value any) bool {
			v := value.(*visitor)
			v.mu.Lock()
			idle := time.Since(v.lastSeen) > 3*time.Minute
			v.mu.Unlock()
			if idle {
				rl.visitors.Delete(key)
			}
			return true
		})
	}
}
