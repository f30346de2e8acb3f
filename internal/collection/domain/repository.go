package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Claim is the token handed to an executor that successfully claimed a
// step. Finalization must present the same token.
type Claim struct {
	Token     string
	ClaimedAt time.Time
}

type StepFilter struct {
	InvoiceID snowflake.ID
	Status    StepStatus
}

type Repository interface {
	InsertSteps(ctx context.Context, db *gorm.DB, steps []ScheduledStep) error
	FindStepByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*ScheduledStep, error)
	ListSteps(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter StepFilter, limit int) ([]ScheduledStep, error)

	// ClaimStep atomically stamps a claim token onto an executable step.
	// It returns false when the step is terminal or already carries a
	// live claim, in which case the caller must not execute it.
	ClaimStep(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, claim Claim, staleBefore time.Time) (bool, error)
	// FinalizeStep records the execution outcome and clears the claim.
	// Only the holder of the claim token can finalize.
	FinalizeStep(ctx context.Context, db *gorm.DB, id snowflake.ID, token string, status StepStatus, executedAt time.Time, lastError string) (bool, error)

	// CancelEarlierPending cancels pending, unclaimed steps of the same
	// invoice with a lower step order than the given one. Failed and
	// claimed steps are left alone. Returns the cancelled steps so
	// actions can be recorded.
	CancelEarlierPending(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, beforeOrder int, now time.Time) ([]ScheduledStep, error)
	// CancelAllPending cancels every pending, unclaimed step of an
	// invoice, optionally restricted to steps not belonging to
	// keepSequenceID.
	CancelAllPending(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, keepSequenceID *snowflake.ID, now time.Time) ([]ScheduledStep, error)
	MarkSkipped(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, now time.Time) (bool, error)
	UpdateOverrides(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, overrides map[string]interface{}, scheduledDate *time.Time, now time.Time) (bool, error)

	// FirstPendingOrder returns the lowest step order among the
	// invoice's pending steps, or 0 when none remain. It is the shared
	// notion of "earlier" used by the skip-ahead rule.
	FirstPendingOrder(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int, error)

	// MarkOverdue advances invoice lifecycle states for the given
	// business date: past-due invoices become overdue, invoices inside
	// the due-soon window become due_soon. Returns counts per bucket.
	MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time, dueSoonDays int, now time.Time) (int64, int64, error)

	// DueSteps claims a batch of steps due on or before the given date
	// for auto-send invoices whose send time has passed, locking the
	// rows against concurrent scheduler runs.
	DueSteps(ctx context.Context, db *gorm.DB, date time.Time, timeOfDay string, limit int) ([]ScheduledStep, error)

	InsertAction(ctx context.Context, db *gorm.DB, action *Action) error
	ListActions(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID, limit int) ([]Action, error)
}
