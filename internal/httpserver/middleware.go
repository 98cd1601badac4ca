package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskvault/internal/handler"
	"taskvault/internal/service/auth"
	"taskvault/internal/store"
	"taskvault/pkg/logger"
	"taskvault/pkg/metrics"
	"taskvault/pkg/trace"
)

// TraceMiddleware reads or generates X-Trace-ID and echoes it back.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName))
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)
		c.Next()
	}
}

// RequestLogMiddleware logs one line per request and records its latency.
func RequestLogMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(status), latency)

		logger.WithTrace(c.Request.Context(), l).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// StoreMiddleware opens the store on first use and puts it on the context.
func StoreMiddleware(h *store.Handle, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := h.Get(c.Request.Context())
		if err != nil {
			logger.WithTrace(c.Request.Context(), l).Error("store unavailable", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
			return
		}
		c.Set(handler.StoreKey, st)
		c.Next()
	}
}

// AuthMiddleware rejects requests without a valid session for the allowed
// email and makes sure the user row exists. Runs after StoreMiddleware.
func AuthMiddleware(svc *auth.Service, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := svc.Authorize(handler.TokenFromRequest(c))
		if err == auth.ErrForbidden {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		st, _ := c.Get(handler.StoreKey)
		if err := st.(store.Store).EnsureUser(c.Request.Context(), sess.Email); err != nil {
			logger.WithTrace(c.Request.Context(), l).Error("ensure user failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(handler.SessionKey, sess)
		c.Next()
	}
}
