package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	collectiondomain "github.com/smallbiznis/collecta/internal/collection/domain"
	debtordomain "github.com/smallbiznis/collecta/internal/debtor/domain"
	invoicedomain "github.com/smallbiznis/collecta/internal/invoice/domain"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, collectiondomain.ErrInvalidOrganization),
		errors.Is(err, debtordomain.ErrInvalidOrganization),
		errors.Is(err, invoicedomain.ErrInvalidOrganization),
		errors.Is(err, sequencedomain.ErrInvalidOrganization):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	// Lifecycle conflicts: the step is terminal or another executor
	// holds the claim.
	case errors.Is(err, collectiondomain.ErrInvalidState),
		errors.Is(err, collectiondomain.ErrAlreadyClaimed):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	// The request was fine but the step cannot be delivered as stored.
	case errors.Is(err, collectiondomain.ErrMissingContact),
		errors.Is(err, collectiondomain.ErrNoSequence),
		errors.Is(err, sequencedomain.ErrInvalidTemplate):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}

	case errors.Is(err, collectiondomain.ErrSendFailure):
		return http.StatusBadGateway, errorPayload{
			Type:    "send_failure",
			Message: err.Error(),
		}

	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, collectiondomain.ErrNotFound),
		errors.Is(err, debtordomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, sequencedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, collectiondomain.ErrInvalidID),
		errors.Is(err, collectiondomain.ErrInvalidDate),
		errors.Is(err, debtordomain.ErrInvalidID),
		errors.Is(err, debtordomain.ErrInvalidName),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidAmount),
		errors.Is(err, invoicedomain.ErrInvalidDate),
		errors.Is(err, invoicedomain.ErrInvalidSendTime),
		errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, sequencedomain.ErrInvalidID),
		errors.Is(err, sequencedomain.ErrInvalidName),
		errors.Is(err, sequencedomain.ErrInvalidChannel):
		return true
	default:
		return false
	}
}
