package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	debtordomain "github.com/smallbiznis/collecta/internal/debtor/domain"
)

func (s *Server) ListDebtors(c *gin.Context) {
	debtors, err := s.debtorSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debtors": debtors})
}

func (s *Server) CreateDebtor(c *gin.Context) {
	var req debtordomain.CreateDebtorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	created, err := s.debtorSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetDebtorByID(c *gin.Context) {
	found, err := s.debtorSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}
