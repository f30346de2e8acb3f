// Package domain contains persistence models for receivables.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status represents invoice lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDueSoon    Status = "due_soon"
	StatusOverdue    Status = "overdue"
	StatusPartial    Status = "partial"
	StatusPaid       Status = "paid"
	StatusPaused     Status = "paused"
	StatusWrittenOff Status = "written_off"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDueSoon, StatusOverdue, StatusPartial,
		StatusPaid, StatusPaused, StatusWrittenOff:
		return true
	}
	return false
}

// Collectible reports whether reminders may still be sent for an invoice
// in this status. Paid and written-off invoices are terminal; paused
// invoices keep their schedule but are skipped by the batch gate.
func (s Status) Collectible() bool {
	switch s {
	case StatusPaid, StatusWrittenOff, StatusPaused:
		return false
	}
	return true
}

// Invoice identifies a receivable. Amounts are in minor currency units.
// DueDate and IssueDate are calendar dates stored at UTC midnight.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	InvoiceNumber string        `gorm:"not null" json:"invoice_number"`
	DebtorID      snowflake.ID  `gorm:"not null;index" json:"debtor_id"`
	SequenceID    *snowflake.ID `gorm:"index" json:"sequence_id,omitempty"`

	PrincipalAmount int64  `gorm:"not null" json:"principal_amount"`
	PaidAmount      int64  `gorm:"not null;default:0" json:"paid_amount"`
	Currency        string `gorm:"type:text;not null" json:"currency"`

	IssueDate time.Time `gorm:"type:date;not null" json:"issue_date"`
	DueDate   time.Time `gorm:"type:date;not null;index" json:"due_date"`
	Status    Status    `gorm:"type:text;not null;default:'pending';index" json:"status"`

	// AutoSend opts the invoice into batch sending; SendTime ("HH:MM",
	// business time zone) is the earliest wall clock at which the batch
	// may deliver for this invoice on any given day.
	AutoSend    bool   `gorm:"not null;default:false" json:"auto_send"`
	SendTime    string `gorm:"type:text;not null;default:'09:00'" json:"send_time"`
	PaymentLink string `gorm:"type:text" json:"payment_link,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// Outstanding returns the unpaid part of the principal.
func (i Invoice) Outstanding() int64 {
	remaining := i.PrincipalAmount - i.PaidAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}
