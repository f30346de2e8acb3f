package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/collecta/pkg/db/pagination"
)

type CreateInvoiceRequest struct {
	InvoiceNumber   string `json:"invoice_number"`
	DebtorID        string `json:"debtor_id"`
	PrincipalAmount int64  `json:"principal_amount"`
	Currency        string `json:"currency"`
	IssueDate       string `json:"issue_date"`
	DueDate         string `json:"due_date"`
	SequenceID      string `json:"sequence_id"`
	AutoSend        bool   `json:"auto_send"`
	SendTime        string `json:"send_time"`
	PaymentLink     string `json:"payment_link"`
}

type ListInvoiceRequest struct {
	Status string `form:"status"`
	pagination.Pagination
}

type RecordPaymentRequest struct {
	Amount int64 `json:"amount"`
}

type UpdateSettingsRequest struct {
	AutoSend *bool   `json:"auto_send"`
	SendTime *string `json:"send_time"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) ([]Invoice, error)
	// AssignSequence sets the invoice's collection sequence and
	// regenerates its schedule; pending steps of a previously assigned
	// sequence are voided first.
	AssignSequence(ctx context.Context, id, sequenceID string) error
	// RecordPayment accumulates a payment; a fully covered principal
	// marks the invoice paid and cancels all still-pending reminder steps.
	RecordPayment(ctx context.Context, id string, req RecordPaymentRequest) (Invoice, error)
	UpdateSettings(ctx context.Context, id string, req UpdateSettingsRequest) (Invoice, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Invoice, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidSendTime     = errors.New("invalid_send_time")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrNotFound            = errors.New("not_found")
)
