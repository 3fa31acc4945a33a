package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snnyvrz/books-catalog/internal/validation"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestID reuses an incoming X-Request-ID or mints a new one and echoes it
// on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func Logger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", GetRequestID(c),
			"client_ip", c.ClientIP(),
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("HTTP request", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("HTTP request", attrs...)
		default:
			log.Info("HTTP request", attrs...)
		}
	}
}

// Recovery turns a panic into the same 500 body as any other unexpected
// error.
func Recovery(log *slog.Logger, exposeErrors bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				log.Error("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", GetRequestID(c),
				)
				c.Header("Connection", "close")
				writeInternalError(c, err, exposeErrors)
			}
		}()
		c.Next()
	}
}

// Errors is the single fallback for errors handlers attached with c.Error
// without writing a response themselves.
func Errors(log *slog.Logger, exposeErrors bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		log.Error("request failed",
			"error", err,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", GetRequestID(c),
		)

		if c.Writer.Written() {
			return
		}
		writeInternalError(c, err, exposeErrors)
	}
}

func writeInternalError(c *gin.Context, err error, exposeErrors bool) {
	message := "Internal server error"
	if exposeErrors {
		message = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, validation.ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Error:   "Something went wrong!",
		Message: message,
	})
}

const contentSecurityPolicy = "default-src 'self'; " +
	"style-src 'self' 'unsafe-inline' https://maxcdn.bootstrapcdn.com; " +
	"script-src 'self' https://code.jquery.com https://maxcdn.bootstrapcdn.com; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' https://maxcdn.bootstrapcdn.com; " +
	"frame-ancestors 'none'; object-src 'none'"

// SecurityHeaders sets the standard hardening headers. Paths under
// cspExempt skip the Content-Security-Policy, which would block the inline
// scripts of the API docs UI.
func SecurityHeaders(cspExempt ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if !hasAnyPrefix(c.Request.URL.Path, cspExempt) {
			h.Set("Content-Security-Policy", contentSecurityPolicy)
		}
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		c.Next()
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, validation.ErrorResponse{
			Code:  "ROUTE_NOT_FOUND",
			Error: "Route not found",
		})
	}
}
