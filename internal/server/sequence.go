package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
)

func (s *Server) ListSequences(c *gin.Context) {
	sequences, err := s.sequenceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sequences": sequences})
}

func (s *Server) CreateSequence(c *gin.Context) {
	var req sequencedomain.CreateSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	created, err := s.sequenceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetSequenceByID(c *gin.Context) {
	found, err := s.sequenceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}
