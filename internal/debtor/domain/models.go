package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Debtor is the counterparty of an invoice. Contact channels decide
// whether a reminder is deliverable.
type Debtor struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Name        string            `gorm:"not null" json:"name"`
	CompanyName string            `gorm:"column:company_name" json:"company_name,omitempty"`
	Email       string            `gorm:"column:email" json:"email,omitempty"`
	Phone       string            `gorm:"column:phone" json:"phone,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Debtor) TableName() string { return "debtors" }
