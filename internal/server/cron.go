package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunCron triggers one batch cycle synchronously and reports what it
// did. Deployments without the background loop point their external
// cron at this endpoint.
func (s *Server) RunCron(c *gin.Context) {
	report, err := s.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"report": report,
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
