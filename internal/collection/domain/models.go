// Package domain contains the collection schedule models: dated reminder
// steps expanded from a sequence template and the append-only action
// ledger recording every delivery attempt.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	"gorm.io/datatypes"
)

// StepStatus is the lifecycle state of a scheduled reminder step.
//
// pending -> sent        successful delivery (terminal)
// pending -> failed      delivery attempt failed, retryable
// pending -> cancelled   invoice paid, sequence swapped, or skipped over
// pending -> skipped     manually skipped by an operator (terminal)
// failed  -> sent | cancelled | skipped   retries follow the same edges
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepSent      StepStatus = "sent"
	StepFailed    StepStatus = "failed"
	StepCancelled StepStatus = "cancelled"
	StepSkipped   StepStatus = "skipped"
)

func (s StepStatus) Terminal() bool {
	switch s {
	case StepSent, StepCancelled, StepSkipped:
		return true
	}
	return false
}

// Executable reports whether a step in this status may be claimed for
// delivery. Failed steps stay executable so a retry can pick them up.
func (s StepStatus) Executable() bool {
	return s == StepPending || s == StepFailed
}

// ScheduledStep is one dated reminder for one invoice, expanded from a
// sequence step template. ScheduledDate is a calendar date at UTC
// midnight. The (invoice_id, sequence_step_id) pair is unique so that
// regenerating a schedule can never duplicate a step.
type ScheduledStep struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID `gorm:"not null;index" json:"organization_id"`
	InvoiceID      snowflake.ID `gorm:"not null;uniqueIndex:ux_scheduled_steps_invoice_step,priority:1" json:"invoice_id"`
	SequenceID     snowflake.ID `gorm:"not null;index" json:"sequence_id"`
	SequenceStepID snowflake.ID `gorm:"not null;uniqueIndex:ux_scheduled_steps_invoice_step,priority:2" json:"sequence_step_id"`

	StepOrder     int                    `gorm:"not null" json:"step_order"`
	Channel       sequencedomain.Channel `gorm:"type:text;not null" json:"channel"`
	ScheduledDate time.Time              `gorm:"type:date;not null;index" json:"scheduled_date"`
	Status        StepStatus             `gorm:"type:text;not null;default:'pending';index" json:"status"`

	// Overrides hold per-step content edits; non-empty values win over
	// the template at execution time.
	Overrides datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"overrides,omitempty"`

	// ClaimToken and ClaimedAt form the execution guard: a step is
	// claimed with a fresh token before any send, and only the holder
	// of the token may finalize it.
	ClaimToken *string    `gorm:"type:text" json:"-"`
	ClaimedAt  *time.Time `json:"-"`

	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	LastError  string     `gorm:"type:text" json:"last_error,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ScheduledStep) TableName() string { return "scheduled_steps" }

// ActionType labels entries in the collection action ledger.
type ActionType string

const (
	ActionReminderSent   ActionType = "reminder_sent"
	ActionReminderFailed ActionType = "reminder_failed"
	ActionStepSkipped    ActionType = "step_skipped"
	ActionStepCancelled  ActionType = "step_cancelled"
)

// Action is an append-only record of something the engine did to an
// invoice. Actions are never updated or deleted.
type Action struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	InvoiceID       snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	ScheduledStepID *snowflake.ID `gorm:"index" json:"scheduled_step_id,omitempty"`

	Type      ActionType             `gorm:"type:text;not null" json:"type"`
	Channel   sequencedomain.Channel `gorm:"type:text" json:"channel,omitempty"`
	Recipient string                 `gorm:"type:text" json:"recipient,omitempty"`
	MessageID string                 `gorm:"type:text" json:"message_id,omitempty"`
	Detail    string                 `gorm:"type:text" json:"detail,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Action) TableName() string { return "collection_actions" }
