package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	collectiondomain "github.com/smallbiznis/collecta/internal/collection/domain"
	invoicedomain "github.com/smallbiznis/collecta/internal/invoice/domain"
)

func (s *Server) ListInvoices(c *gin.Context) {
	var req invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	invoices, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	created, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	found, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

type assignSequenceRequest struct {
	SequenceID string `json:"sequence_id"`
}

func (s *Server) AssignInvoiceSequence(c *gin.Context) {
	var req assignSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SequenceID) == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if err := s.invoiceSvc.AssignSequence(c.Request.Context(), c.Param("id"), req.SequenceID); err != nil {
		AbortWithError(c, err)
		return
	}

	steps, err := s.collectionSvc.ListSteps(c.Request.Context(), collectiondomain.ListStepsRequest{InvoiceID: c.Param("id")})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

func (s *Server) RecordInvoicePayment(c *gin.Context) {
	var req invoicedomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	updated, err := s.invoiceSvc.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) UpdateInvoiceSettings(c *gin.Context) {
	var req invoicedomain.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	updated, err := s.invoiceSvc.UpdateSettings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	updated, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), c.Param("id"), invoicedomain.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) ListInvoiceSteps(c *gin.Context) {
	steps, err := s.collectionSvc.ListSteps(c.Request.Context(), collectiondomain.ListStepsRequest{
		InvoiceID: c.Param("id"),
		Status:    c.Query("status"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

func (s *Server) ListInvoiceActions(c *gin.Context) {
	actions, err := s.collectionSvc.ListActions(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}
