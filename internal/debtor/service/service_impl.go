package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/debtor/domain"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params, repo domain.Repository) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("debtor.service"),
		genID: p.GenID,
		repo:  repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateDebtorRequest) (domain.Debtor, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Debtor{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Debtor{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	debtor := domain.Debtor{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		CompanyName: strings.TrimSpace(req.CompanyName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &debtor); err != nil {
		return domain.Debtor{}, err
	}
	return debtor, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Debtor, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Debtor{}, domain.ErrInvalidOrganization
	}

	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Debtor{}, domain.ErrInvalidID
	}

	debtor, err := s.repo.FindByID(ctx, s.db, orgID, parsed)
	if err != nil {
		return domain.Debtor{}, err
	}
	if debtor == nil {
		return domain.Debtor{}, domain.ErrNotFound
	}
	return *debtor, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Debtor, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.List(ctx, s.db, orgID, 0)
}
