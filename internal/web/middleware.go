package web

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/go-while/go-mcpdir/internal/logging"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestIDMiddleware echoes a sane client supplied X-Request-ID or assigns a
// fresh uuid, and stores it for the access log.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Set(logging.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorLimiter hands out one token bucket per client ip. Idle entries are
// dropped during a sweep that runs at most once per sweepEvery.
type visitorLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	idleAfter time.Duration

	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

func newVisitorLimiter(rps float64, burst int) *visitorLimiter {
	return &visitorLimiter{
		visitors:   make(map[string]*visitor),
		rps:        rate.Limit(rps),
		burst:      burst,
		idleAfter:  10 * time.Minute,
		sweepEvery: 5 * time.Minute,
		now:        time.Now,
	}
}

func (vl *visitorLimiter) get(ip string) *rate.Limiter {
	vl.mu.Lock()
	defer vl.mu.Unlock()

	now := vl.now()
	if now.Sub(vl.lastSweep) >= vl.sweepEvery {
		for key, v := range vl.visitors {
			if now.Sub(v.lastSeen) > vl.idleAfter {
				delete(vl.visitors, key)
			}
		}
		vl.lastSweep = now
	}

	v, exists := vl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(vl.rps, vl.burst)}
		vl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (vl *visitorLimiter) size() int {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	return len(vl.visitors)
}

// RateLimitMiddleware answers 429 once a client exceeds its bucket. Paths in
// exempt are never limited.
func RateLimitMiddleware(vl *visitorLimiter, logger logrus.FieldLogger, exempt ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}
	retryAfter := "1"
	if vl.rps > 0 && vl.rps < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(vl.rps))))
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if !vl.get(ip).Allow() {
			logger.Warnf("[WEB]: Rate limit exceeded for %s", ip)
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// recoveryHandler logs a recovered panic and answers 500.
func recoveryHandler(logger logrus.FieldLogger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.Errorf("[WEB]: panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
