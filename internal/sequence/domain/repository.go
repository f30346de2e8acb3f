package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sequence *Sequence) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Sequence, error)
	// FindSteps returns the sequence's steps ordered by step_order ascending.
	FindSteps(ctx context.Context, db *gorm.DB, sequenceID snowflake.ID) ([]Step, error)
	FindStepByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Step, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]Sequence, error)
}
