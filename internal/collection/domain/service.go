package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/pkg/db/pagination"
)

type ListStepsRequest struct {
	InvoiceID string `form:"invoice_id"`
	Status    string `form:"status"`
	pagination.Pagination
}

type UpdateStepRequest struct {
	ScheduledDate *string `json:"scheduled_date"`
	EmailSubject  *string `json:"email_subject"`
	EmailBody     *string `json:"email_body"`
	SMSBody       *string `json:"sms_body"`
}

// ExecuteResult reports the outcome of a single step execution.
type ExecuteResult struct {
	Step      ScheduledStep `json:"step"`
	Cancelled int           `json:"cancelled_earlier"`
	MessageID string        `json:"message_id,omitempty"`
}

type Service interface {
	// GenerateSchedule expands the invoice's assigned sequence into
	// dated scheduled steps. Steps already generated for the same
	// (invoice, sequence step) pair are left untouched. Pending steps
	// of any other sequence are voided first.
	GenerateSchedule(ctx context.Context, invoiceID snowflake.ID) ([]ScheduledStep, error)
	// ExecuteStep claims a step, cancels earlier pending steps of the
	// same invoice, renders the effective content and delivers it. The
	// step ends sent or failed; both outcomes append an action.
	ExecuteStep(ctx context.Context, stepID string) (ExecuteResult, error)
	// SkipStep terminally skips a pending or failed step without
	// sending anything.
	SkipStep(ctx context.Context, stepID string) (ScheduledStep, error)
	UpdateStep(ctx context.Context, stepID string, req UpdateStepRequest) (ScheduledStep, error)
	ListSteps(ctx context.Context, req ListStepsRequest) ([]ScheduledStep, error)
	ListActions(ctx context.Context, invoiceID string) ([]Action, error)
	// CancelInvoiceSteps voids every non-terminal step of an invoice,
	// recording a cancellation action per step.
	CancelInvoiceSteps(ctx context.Context, invoiceID snowflake.ID, reason string) (int, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrNoSequence          = errors.New("no_sequence_assigned")
	ErrInvalidState        = errors.New("invalid_step_state")
	ErrAlreadyClaimed      = errors.New("step_already_claimed")
	ErrMissingContact      = errors.New("missing_contact")
	ErrSendFailure         = errors.New("send_failure")
	ErrInvalidDate         = errors.New("invalid_date")
)
