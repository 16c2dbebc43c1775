package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/service"
	"github.com/rl1809/garage-ledger/internal/metrics"
)

const (
	HeaderUserEmail      = "X-User-Email"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// RequestLogger logs every request once it completes and records it in m.
func RequestLogger(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		m.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), elapsed)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", elapsed),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
			return
		}
		log.Debug("request served", fields...)
	}
}

// Authenticate resolves the caller named in X-User-Email and stores the
// session on the request context.
func Authenticate(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := users.Resolve(c.Request.Context(), c.GetHeader(HeaderUserEmail))
		if err != nil {
			status, resp := newErrorResponse(err)
			c.AbortWithStatusJSON(status, resp)
			return
		}
		c.Request = c.Request.WithContext(domain.WithSession(c.Request.Context(), session))
		c.Next()
	}
}

func sessionOf(c *gin.Context) domain.Session {
	s, _ := domain.SessionFrom(c.Request.Context())
	return s
}
