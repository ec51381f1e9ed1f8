package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/content-platform-api/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// contextUserID is the gin context key holding the authenticated caller id
const contextUserID = "userID"

func callerID(c *gin.Context) string {
	return c.GetString(contextUserID)
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"message": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS for the configured origins; "*" allows any
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-auth-token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware requires a valid bearer token and stores the caller id
func authMiddleware(verifier *auth.Verifier, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.TokenFromHeaders(c.GetHeader("Authorization"), c.GetHeader("x-auth-token"))

		identity, err := verifier.Verify(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Rejected token")
			msg := auth.ErrInvalidToken.Error()
			if token == "" {
				msg = auth.ErrMissingToken.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
			return
		}

		c.Set(contextUserID, identity.ID)
		c.Next()
	}
}

// rateLimiter keeps one token bucket per client IP
type rateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(requestsPerMinute, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limiters:  make(map[string]*clientLimiter),
		rate:      rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:     burst,
		idleAfter: 10 * time.Minute,
		lastSweep: time.Now(),
	}
}

// get returns the limiter for key, dropping limiters idle for longer than idleAfter
func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.idleAfter {
		for k, cl := range rl.limiters {
			if now.Sub(cl.lastSeen) > rl.idleAfter {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// rateLimitMiddleware throttles requests per client IP
func rateLimitMiddleware(requestsPerMinute, burst int) gin.HandlerFunc {
	limiter := newRateLimiter(requestsPerMinute, burst)

	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", strconv.Itoa(int((time.Minute / time.Duration(requestsPerMinute)).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests, limit is " + strconv.Itoa(requestsPerMinute) + " per minute",
			})
			return
		}
		c.Next()
	}
}

// joinOrigins is used for logging the CORS configuration
func joinOrigins(origins []string) string {
	return strings.Join(origins, ",")
}
