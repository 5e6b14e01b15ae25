package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/msgboard/msgboard/engine/infra/server/router"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
)

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns a new one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(router.HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(router.HeaderRequestID, id)
		c.Set("request_id", id)
		c.Next()
	}
}

// LoggerMiddleware attaches a request-scoped logger to the request context
// and logs HTTP request details once the handler chain completes.
func LoggerMiddleware(ctx context.Context) gin.HandlerFunc {
	base := logger.FromContext(ctx)
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		log := base.With("request_id", c.GetString("request_id"))
		c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), log))
		c.Next()
		if raw != "" {
			path = path + "?" + raw
		}
		fields := []any{
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"status_code", c.Writer.Status(),
			"body_size", c.Writer.Size(),
			"path", path,
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, "error", msg)
		}
		log.Info("Request completed", fields...)
	}
}

// CORSMiddleware enables CORS support with configurable origins.
func CORSMiddleware(corsConfig config.CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		// No configured origins means none are allowed.
		isAllowed := false
		for _, allowed := range corsConfig.AllowedOrigins {
			if origin == allowed || allowed == "*" {
				isAllowed = true
				break
			}
		}
		if isAllowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			if corsConfig.AllowCredentials {
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, "+
				"X-Requested-With, "+router.HeaderRequestID,
		)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if corsConfig.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", corsConfig.MaxAge))
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
