package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/sequence/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sequence *domain.Sequence) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO sequences (id, org_id, name, description, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sequence.ID,
			sequence.OrgID,
			sequence.Name,
			sequence.Description,
			sequence.CreatedAt,
			sequence.UpdatedAt,
		).Error; err != nil {
			return err
		}
		for i := range sequence.Steps {
			step := &sequence.Steps[i]
			if err := tx.Exec(
				`INSERT INTO sequence_steps (
					id, sequence_id, step_order, days_offset, channel,
					email_subject, email_body, sms_body,
					include_payment_link, include_interest, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				step.ID,
				step.SequenceID,
				step.StepOrder,
				step.DaysOffset,
				step.Channel,
				step.EmailSubject,
				step.EmailBody,
				step.SMSBody,
				step.IncludePaymentLink,
				step.IncludeInterest,
				step.CreatedAt,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Sequence, error) {
	var sequence domain.Sequence
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, description, created_at, updated_at
		 FROM sequences WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&sequence).Error
	if err != nil {
		return nil, err
	}
	if sequence.ID == 0 {
		return nil, nil
	}

	steps, err := r.FindSteps(ctx, db, sequence.ID)
	if err != nil {
		return nil, err
	}
	sequence.Steps = steps
	return &sequence, nil
}

func (r *repo) FindSteps(ctx context.Context, db *gorm.DB, sequenceID snowflake.ID) ([]domain.Step, error) {
	var steps []domain.Step
	err := db.WithContext(ctx).Raw(
		`SELECT id, sequence_id, step_order, days_offset, channel,
		        email_subject, email_body, sms_body,
		        include_payment_link, include_interest, created_at
		 FROM sequence_steps
		 WHERE sequence_id = ?
		 ORDER BY step_order ASC`,
		sequenceID,
	).Scan(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *repo) FindStepByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Step, error) {
	var step domain.Step
	err := db.WithContext(ctx).Raw(
		`SELECT id, sequence_id, step_order, days_offset, channel,
		        email_subject, email_body, sms_body,
		        include_payment_link, include_interest, created_at
		 FROM sequence_steps WHERE id = ?`,
		id,
	).Scan(&step).Error
	if err != nil {
		return nil, err
	}
	if step.ID == 0 {
		return nil, nil
	}
	return &step, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]domain.Sequence, error) {
	if limit <= 0 {
		limit = 50
	}
	var sequences []domain.Sequence
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, description, created_at, updated_at
		 FROM sequences WHERE org_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		orgID,
		limit,
	).Scan(&sequences).Error
	if err != nil {
		return nil, err
	}
	return sequences, nil
}
