package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	collectiondomain "github.com/smallbiznis/collecta/internal/collection/domain"
)

func (s *Server) ListSteps(c *gin.Context) {
	var req collectiondomain.ListStepsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	steps, err := s.collectionSvc.ListSteps(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

// ExecuteStep handles the manual "send now" action. The same path also
// serves retries of failed steps.
func (s *Server) ExecuteStep(c *gin.Context) {
	result, err := s.collectionSvc.ExecuteStep(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) SkipStep(c *gin.Context) {
	step, err := s.collectionSvc.SkipStep(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (s *Server) UpdateStep(c *gin.Context) {
	var req collectiondomain.UpdateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	step, err := s.collectionSvc.UpdateStep(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}
