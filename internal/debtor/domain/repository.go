package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, debtor *Debtor) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Debtor, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]Debtor, error)
}
