package middleware

import (
	"time"

	"github.com/farmstand/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinLoggerMiddleware is a Gin middleware that logs HTTP requests with structured fields
// This replaces gin.Logger with structured logging
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// Get request ID from context (set by RequestIDMiddleware)
		requestID := c.GetString("request_id")

		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		clientIP := c.ClientIP()

		c.Next()

		statusCode := c.Writer.Status()
		responseSize := c.Writer.Size()
		latency := time.Since(startTime)

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("client_ip", clientIP),
			zap.Int("status", statusCode),
			zap.Int("response_size", responseSize),
			zap.Duration("latency", latency),
		}

		if requestID != "" {
			fields = append(fields, logger.WithRequestID(requestID))
		}

		// Log level based on status code
		switch {
		case statusCode >= 500:
			logger.Log.Error("request completed", fields...)
		case statusCode >= 400:
			logger.Log.Warn("request completed", fields...)
		default:
			logger.Log.Info("request completed", fields...)
		}
	}
}
