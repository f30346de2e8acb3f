// Package domain contains the reusable reminder sequence templates.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Channel is the delivery medium requested by a template step.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelBoth  Channel = "both"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelBoth:
		return true
	}
	return false
}

// NeedsEmail reports whether the channel requires a deliverable email
// address.
func (c Channel) NeedsEmail() bool {
	return c == ChannelEmail || c == ChannelBoth
}

// NeedsPhone reports whether the channel requires a phone number.
func (c Channel) NeedsPhone() bool {
	return c == ChannelSMS || c == ChannelBoth
}

// Sequence is a named, reusable template of ordered reminder steps.
// Templates are immutable once steps have been scheduled against an
// invoice; edits never retroactively alter generated scheduled steps.
type Sequence struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Steps []Step `gorm:"foreignKey:SequenceID" json:"steps,omitempty"`
}

func (Sequence) TableName() string { return "sequences" }

// Step is one template entry: a day offset relative to the invoice due
// date (negative = before), a channel and per-channel content.
type Step struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	SequenceID snowflake.ID `gorm:"not null;index" json:"sequence_id"`
	StepOrder  int          `gorm:"not null" json:"step_order"`
	DaysOffset int          `gorm:"not null" json:"days_offset"`
	Channel    Channel      `gorm:"type:text;not null" json:"channel"`

	EmailSubject string `gorm:"type:text" json:"email_subject,omitempty"`
	EmailBody    string `gorm:"type:text" json:"email_body,omitempty"`
	SMSBody      string `gorm:"type:text" json:"sms_body,omitempty"`

	IncludePaymentLink bool `gorm:"not null;default:false" json:"include_payment_link"`
	IncludeInterest    bool `gorm:"not null;default:false" json:"include_interest"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Step) TableName() string { return "sequence_steps" }
