package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/invoice/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository { return &repository{} }

func (r *repository) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).Raw(`
SELECT *
FROM invoices
WHERE org_id = ? AND id = ?
LIMIT 1`, orgID, id).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter, limit int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT *
FROM invoices
WHERE org_id = ?`
	args := []interface{}{orgID}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += `
ORDER BY due_date ASC, id ASC
LIMIT ?`
	args = append(args, limit)

	var invoices []domain.Invoice
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) UpdateSequence(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, sequenceID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(`
UPDATE invoices
SET sequence_id = ?, updated_at = ?
WHERE org_id = ? AND id = ?`, sequenceID, now, orgID, id).Error
}

func (r *repository) UpdatePayment(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, paidAmount int64, status domain.Status, now time.Time) error {
	return db.WithContext(ctx).Exec(`
UPDATE invoices
SET paid_amount = ?, status = ?, updated_at = ?
WHERE org_id = ? AND id = ?`, paidAmount, status, now, orgID, id).Error
}

func (r *repository) UpdateSettings(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, autoSend bool, sendTime string, now time.Time) error {
	return db.WithContext(ctx).Exec(`
UPDATE invoices
SET auto_send = ?, send_time = ?, updated_at = ?
WHERE org_id = ? AND id = ?`, autoSend, sendTime, now, orgID, id).Error
}

func (r *repository) UpdateStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status domain.Status, now time.Time) error {
	return db.WithContext(ctx).Exec(`
UPDATE invoices
SET status = ?, updated_at = ?
WHERE org_id = ? AND id = ?`, status, now, orgID, id).Error
}
