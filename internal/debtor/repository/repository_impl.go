package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/debtor/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, debtor *domain.Debtor) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO debtors (id, org_id, name, company_name, email, phone, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debtor.ID,
		debtor.OrgID,
		debtor.Name,
		debtor.CompanyName,
		debtor.Email,
		debtor.Phone,
		debtor.Metadata,
		debtor.CreatedAt,
		debtor.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Debtor, error) {
	var debtor domain.Debtor
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, company_name, email, phone, metadata, created_at, updated_at
		 FROM debtors WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&debtor).Error
	if err != nil {
		return nil, err
	}
	if debtor.ID == 0 {
		return nil, nil
	}
	return &debtor, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]domain.Debtor, error) {
	if limit <= 0 {
		limit = 50
	}
	var debtors []domain.Debtor
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, company_name, email, phone, metadata, created_at, updated_at
		 FROM debtors WHERE org_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		orgID,
		limit,
	).Scan(&debtors).Error
	if err != nil {
		return nil, err
	}
	return debtors, nil
}
