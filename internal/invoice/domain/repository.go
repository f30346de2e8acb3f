package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter, limit int) ([]Invoice, error)
	UpdateSequence(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, sequenceID snowflake.ID, now time.Time) error
	UpdatePayment(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, paidAmount int64, status Status, now time.Time) error
	UpdateSettings(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, autoSend bool, sendTime string, now time.Time) error
	UpdateStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status Status, now time.Time) error
}
