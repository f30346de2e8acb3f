package server

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	"go.uber.org/zap"
)

// OrgContext resolves the tenant for the request. Multi-tenant callers
// pass X-Org-ID; single-tenant deployments rely on DEFAULT_ORG.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := s.cfg.DefaultOrgID
		if header := strings.TrimSpace(c.GetHeader("X-Org-ID")); header != "" {
			parsed, err := strconv.ParseInt(header, 10, 64)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			orgID = parsed
		}
		if orgID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), orgID))
		c.Next()
	}
}

// CronAuthRequired gates the internal trigger endpoint with a shared
// secret. With no secret configured the endpoint is open, which is only
// acceptable for local development.
func (s *Server) CronAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.CronSecret == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-Cron-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.CronSecret)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
			log.Warn("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
