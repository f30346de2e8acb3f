package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	"github.com/smallbiznis/collecta/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("sequence.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSequenceRequest) (domain.Sequence, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Sequence{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Sequence{}, domain.ErrInvalidName
	}
	if len(req.Steps) == 0 {
		return domain.Sequence{}, domain.ErrInvalidTemplate
	}

	now := s.clock.Now()
	sequence := domain.Sequence{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for i, stepReq := range req.Steps {
		if !stepReq.Channel.Valid() {
			return domain.Sequence{}, domain.ErrInvalidChannel
		}
		step := domain.Step{
			ID:                 s.genID.Generate(),
			SequenceID:         sequence.ID,
			StepOrder:          i + 1,
			DaysOffset:         stepReq.DaysOffset,
			Channel:            stepReq.Channel,
			EmailSubject:       stepReq.EmailSubject,
			EmailBody:          stepReq.EmailBody,
			SMSBody:            stepReq.SMSBody,
			IncludePaymentLink: stepReq.IncludePaymentLink,
			IncludeInterest:    stepReq.IncludeInterest,
			CreatedAt:          now,
		}
		if err := domain.ValidateStepContent(step); err != nil {
			return domain.Sequence{}, err
		}
		sequence.Steps = append(sequence.Steps, step)
	}

	if err := s.repo.Insert(ctx, s.db, &sequence); err != nil {
		return domain.Sequence{}, err
	}
	return sequence, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Sequence, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Sequence{}, domain.ErrInvalidOrganization
	}

	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Sequence{}, domain.ErrInvalidID
	}

	sequence, err := s.repo.FindByID(ctx, s.db, orgID, parsed)
	if err != nil {
		return domain.Sequence{}, err
	}
	if sequence == nil {
		return domain.Sequence{}, domain.ErrNotFound
	}
	return *sequence, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Sequence, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.List(ctx, s.db, orgID, 0)
}
