package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/util"
)

// Context keys set by AuthRequired
const (
	ClaimsKey  = "claims"
	SubjectKey = "subject"
)

func abort(c *gin.Context, status int, field, description string) {
	c.AbortWithStatusJSON(status, models.Responsify(
		[]models.FieldError{{Field: field, Description: description}},
		http.StatusText(status), status))
}

// AuthRequired validates the bearer token from the Authorization header,
// falling back to the auth_token cookie, and sets the claims in context
func AuthRequired(cfg util.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		} else if cookie, err := c.Cookie("auth_token"); err == nil {
			token = cookie
		}
		if token == "" {
			abort(c, http.StatusUnauthorized, "authorization", "Missing or invalid authentication token")
			return
		}

		claims, err := util.ValidateToken(token, cfg)
		if err != nil {
			// Lets clients tell an expired session from a bad token
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.Header("WWW-Authenticate", `Bearer error="invalid_token", error_description="token expired"`)
			} else {
				c.Header("WWW-Authenticate", `Bearer error="invalid_token", error_description="invalid token"`)
			}
			abort(c, http.StatusUnauthorized, "authorization", "Invalid or expired token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// RequireScope rejects requests whose token lacks scope. Must run after
// AuthRequired.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Get(ClaimsKey)
		if !ok {
			abort(c, http.StatusUnauthorized, "authorization", "Missing or invalid authentication token")
			return
		}
		if !slices.Contains(claims.(*util.JWTClaims).Scopes, scope) {
			abort(c, http.StatusForbidden, "authorization", "Token lacks the "+scope+" scope")
			return
		}
		c.Next()
	}
}

// RateLimiter keeps a token bucket per client IP
type RateLimiter struct {
	clients map[string]*client
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	window  time.Duration
	cleanup *time.Ticker
	done    chan struct{}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows maxRequests per window per IP, refilling evenly
// over the window. Call Stop to end the background cleanup.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-rl.cleanup.C:
				rl.cleanupOldEntries()
			case <-rl.done:
				return
			}
		}
	}()

	return rl
}

func (rl *RateLimiter) Stop() {
	rl.cleanup.Stop()
	close(rl.done)
}

// cleanupOldEntries forgets IPs idle for a whole window; their buckets
// would be full again anyway
func (rl *RateLimiter) cleanupOldEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// Allow takes a token from ip's bucket and reports whether one was left
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = time.Now()
	rl.mu.Unlock()

	return c.limiter.Allow()
}

// RateLimit rejects requests from IPs over rl's limit
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			abort(c, http.StatusTooManyRequests, "data", "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}

// RequestTimeout gives the handler chain a context deadline. Handlers that
// honour the context and return context.DeadlineExceeded without writing
// get a 504.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			abort(c, http.StatusGatewayTimeout, "data", "Request timed out")
		}
	}
}

// RequestLogger logs one line per request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if subject, ok := c.Get(SubjectKey); ok {
			fields = append(fields, zap.Any("subject", subject))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
