package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-frameworks/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

var quietPaths = map[string]bool{
	"/healthcheck": true,
	"/readycheck":  true,
	"/metrics":     true,
}

// RequestLogger writes one line per request. Probe and scrape traffic is logged at
// debug unless it fails.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := append([]any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
			"duration_ms", time.Since(start).Milliseconds(),
		}, ctxutil.LogFields(c.Request.Context())...)
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		case quietPaths[c.Request.URL.Path]:
			log.Debug("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
