package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/fintelis/fintelis-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// HealthPath is left out of the request log
const HealthPath = "/api/v1/health"

// RequestLogger logs each API request once it has been served. The route
// template is logged next to the concrete path so requests for different
// ledger rows aggregate under one route.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if path == HealthPath || strings.HasPrefix(path, "/swagger/") {
			return
		}

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Int("bytes", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
		}
		if raw := c.Request.URL.RawQuery; raw != "" {
			attrs = append(attrs, slog.String("query", raw))
		}
		if userID, ok := c.Get("userID"); ok {
			attrs = append(attrs, slog.Any("user_id", userID))
		}
		if companyID, ok := c.Get("companyID"); ok {
			attrs = append(attrs, slog.Any("company_id", companyID))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, slog.String("error", errs))
		}

		switch {
		case status >= 500:
			logger.Log.Error("Request failed", attrs...)
		case status >= 400:
			logger.Log.Warn("Request rejected", attrs...)
		default:
			logger.Log.Info("Request served", attrs...)
		}
	}
}
