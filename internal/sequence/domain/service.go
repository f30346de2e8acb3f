package domain

import (
	"context"
	"errors"
)

type CreateStepRequest struct {
	DaysOffset         int     `json:"days_offset"`
	Channel            Channel `json:"channel"`
	EmailSubject       string  `json:"email_subject"`
	EmailBody          string  `json:"email_body"`
	SMSBody            string  `json:"sms_body"`
	IncludePaymentLink bool    `json:"include_payment_link"`
	IncludeInterest    bool    `json:"include_interest"`
}

type CreateSequenceRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Steps       []CreateStepRequest `json:"steps"`
}

type Service interface {
	Create(ctx context.Context, req CreateSequenceRequest) (Sequence, error)
	GetByID(ctx context.Context, id string) (Sequence, error)
	List(ctx context.Context) ([]Sequence, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidChannel      = errors.New("invalid_channel")
	ErrNotFound            = errors.New("not_found")
	// ErrInvalidTemplate covers sequences without steps and steps missing
	// required content for their channel.
	ErrInvalidTemplate = errors.New("invalid_template")
)

// ValidateStepContent checks a step carries the content its channel needs.
func ValidateStepContent(step Step) error {
	if step.Channel.NeedsEmail() && step.EmailBody == "" {
		return ErrInvalidTemplate
	}
	if step.Channel.NeedsPhone() && step.SMSBody == "" {
		return ErrInvalidTemplate
	}
	return nil
}
