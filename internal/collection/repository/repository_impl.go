package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/collection/domain"
	invoicedomain "github.com/smallbiznis/collecta/internal/invoice/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository { return &repository{} }

func (r *repository) InsertSteps(ctx context.Context, db *gorm.DB, steps []domain.ScheduledStep) error {
	if len(steps) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&steps).Error
}

func (r *repository) FindStepByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.ScheduledStep, error) {
	var steps []domain.ScheduledStep
	err := db.WithContext(ctx).Raw(`
SELECT *
FROM scheduled_steps
WHERE org_id = ? AND id = ?
LIMIT 1`, orgID, id).Scan(&steps).Error
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, nil
	}
	return &steps[0], nil
}

func (r *repository) ListSteps(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.StepFilter, limit int) ([]domain.ScheduledStep, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `
SELECT *
FROM scheduled_steps
WHERE org_id = ?`
	args := []interface{}{orgID}
	if filter.InvoiceID != 0 {
		query += ` AND invoice_id = ?`
		args = append(args, filter.InvoiceID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += `
ORDER BY scheduled_date ASC, step_order ASC
LIMIT ?`
	args = append(args, limit)

	var steps []domain.ScheduledStep
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// ClaimStep is the execution guard. The conditional UPDATE succeeds only
// when the step is still executable and carries no live claim, so two
// concurrent executors can never both deliver the same step. A claim
// older than staleBefore is treated as abandoned and may be taken over.
func (r *repository) ClaimStep(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, claim domain.Claim, staleBefore time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(`
UPDATE scheduled_steps
SET claim_token = ?, claimed_at = ?, updated_at = ?
WHERE org_id = ? AND id = ?
  AND status IN ('pending', 'failed')
  AND (claim_token IS NULL OR claimed_at < ?)`,
		claim.Token, claim.ClaimedAt, claim.ClaimedAt, orgID, id, staleBefore)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FinalizeStep(ctx context.Context, db *gorm.DB, id snowflake.ID, token string, status domain.StepStatus, executedAt time.Time, lastError string) (bool, error) {
	res := db.WithContext(ctx).Exec(`
UPDATE scheduled_steps
SET status = ?, executed_at = ?, last_error = ?, claim_token = NULL, claimed_at = NULL, updated_at = ?
WHERE id = ? AND claim_token = ?`,
		status, executedAt, lastError, executedAt, id, token)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CancelEarlierPending voids steps superseded by a later delivery. Only
// pending, unclaimed rows qualify: resolved steps are history, failed
// steps keep their retry affordance, and a row mid-execution belongs to
// its claim holder.
func (r *repository) CancelEarlierPending(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, beforeOrder int, now time.Time) ([]domain.ScheduledStep, error) {
	var victims []domain.ScheduledStep
	err := db.WithContext(ctx).Raw(`
SELECT *
FROM scheduled_steps
WHERE invoice_id = ? AND step_order < ? AND status = 'pending' AND claim_token IS NULL`,
		invoiceID, beforeOrder).Scan(&victims).Error
	if err != nil {
		return nil, err
	}
	if len(victims) == 0 {
		return nil, nil
	}
	ids := make([]snowflake.ID, 0, len(victims))
	for _, v := range victims {
		ids = append(ids, v.ID)
	}
	err = db.WithContext(ctx).Exec(`
UPDATE scheduled_steps
SET status = 'cancelled', updated_at = ?
WHERE id IN ? AND status = 'pending' AND claim_token IS NULL`, now, ids).Error
	if err != nil {
		return nil, err
	}
	return victims, nil
}

func (r *repository) CancelAllPending(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, keepSequenceID *snowflake.ID, now time.Time) ([]domain.ScheduledStep, error) {
	query := `
SELECT *
FROM scheduled_steps
WHERE invoice_id = ? AND status = 'pending' AND claim_token IS NULL`
	args := []interface{}{invoiceID}
	if keepSequenceID != nil {
		query += ` AND sequence_id <> ?`
		args = append(args, *keepSequenceID)
	}
	var victims []domain.ScheduledStep
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&victims).Error; err != nil {
		return nil, err
	}
	if len(victims) == 0 {
		return nil, nil
	}
	ids := make([]snowflake.ID, 0, len(victims))
	for _, v := range victims {
		ids = append(ids, v.ID)
	}
	err := db.WithContext(ctx).Exec(`
UPDATE scheduled_steps
SET status = 'cancelled', updated_at = ?
WHERE id IN ? AND status = 'pending' AND claim_token IS NULL`, now, ids).Error
	if err != nil {
		return nil, err
	}
	return victims, nil
}

func (r *repository) MarkSkipped(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(`
UPDATE scheduled_steps
SET status = 'skipped', updated_at = ?
WHERE org_id = ? AND id = ? AND status = 'pending' AND claim_token IS NULL`, now, orgID, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateOverrides(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, overrides map[string]interface{}, scheduledDate *time.Time, now time.Time) (bool, error) {
	raw, err := json.Marshal(datatypes.JSONMap(overrides))
	if err != nil {
		return false, err
	}
	query := `
UPDATE scheduled_steps
SET overrides = ?, updated_at = ?`
	args := []interface{}{string(raw), now}
	if scheduledDate != nil {
		query += `, scheduled_date = ?`
		args = append(args, *scheduledDate)
	}
	query += `
WHERE org_id = ? AND id = ? AND status IN ('pending', 'failed')`
	args = append(args, orgID, id)

	res := db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FirstPendingOrder is the shared definition of "earlier" for the
// skip-ahead rule: the lowest step_order still pending for the invoice,
// or 0 when none is.
func (r *repository) FirstPendingOrder(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int, error) {
	var order int
	err := db.WithContext(ctx).Raw(`
SELECT COALESCE(MIN(step_order), 0)
FROM scheduled_steps
WHERE invoice_id = ? AND status = 'pending'`, invoiceID).Scan(&order).Error
	return order, err
}

// DueSteps selects steps ripe for the batch run: pending, due on or
// before the business date, belonging to an auto-send invoice that is
// still collectible and whose send time has passed. Failed steps are
// never picked up here; retrying one is an explicit operator call. Row
// locks prevent overlapping scheduler instances from picking the same
// batch when the backing store supports them.
func (r *repository) DueSteps(ctx context.Context, db *gorm.DB, date time.Time, timeOfDay string, limit int) ([]domain.ScheduledStep, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT s.*
FROM scheduled_steps s
JOIN invoices i ON i.id = s.invoice_id
WHERE s.status = 'pending'
  AND s.claim_token IS NULL
  AND s.scheduled_date <= ?
  AND i.auto_send = ?
  AND i.status NOT IN ('paid', 'written_off', 'paused')
  AND i.send_time <= ?
ORDER BY s.scheduled_date ASC, s.step_order ASC
LIMIT ?`
	if db.Dialector.Name() == "postgres" {
		query += `
FOR UPDATE OF s SKIP LOCKED`
	}
	var steps []domain.ScheduledStep
	err := db.WithContext(ctx).Raw(query, date, true, timeOfDay, limit).Scan(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *repository) InsertAction(ctx context.Context, db *gorm.DB, action *domain.Action) error {
	return db.WithContext(ctx).Create(action).Error
}

func (r *repository) ListActions(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID, limit int) ([]domain.Action, error) {
	if limit <= 0 {
		limit = 200
	}
	var actions []domain.Action
	err := db.WithContext(ctx).Raw(`
SELECT *
FROM collection_actions
WHERE org_id = ? AND invoice_id = ?
ORDER BY created_at ASC, id ASC
LIMIT ?`, orgID, invoiceID, limit).Scan(&actions).Error
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// MarkOverdue is the lifecycle sweep run by the scheduler: pending and
// due_soon invoices past their due date become overdue, and pending
// invoices entering the due-soon window become due_soon. It lives here
// rather than the invoice repository because the sweep is part of the
// collection batch cycle.
func (r *repository) MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time, dueSoonDays int, now time.Time) (int64, int64, error) {
	res := db.WithContext(ctx).Exec(`
UPDATE invoices
SET status = ?, updated_at = ?
WHERE status IN ('pending', 'due_soon') AND due_date < ?`,
		invoicedomain.StatusOverdue, now, today)
	if res.Error != nil {
		return 0, 0, res.Error
	}
	overdue := res.RowsAffected

	soonCutoff := today.AddDate(0, 0, dueSoonDays)
	res = db.WithContext(ctx).Exec(`
UPDATE invoices
SET status = ?, updated_at = ?
WHERE status = 'pending' AND due_date >= ? AND due_date <= ?`,
		invoicedomain.StatusDueSoon, now, today, soonCutoff)
	if res.Error != nil {
		return overdue, 0, res.Error
	}
	return overdue, res.RowsAffected, nil
}
