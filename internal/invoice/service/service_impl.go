package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/clock"
	collectiondomain "github.com/smallbiznis/collecta/internal/collection/domain"
	debtordomain "github.com/smallbiznis/collecta/internal/debtor/domain"
	"github.com/smallbiznis/collecta/internal/invoice/domain"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	DebtorRepo   debtordomain.Repository
	SequenceRepo sequencedomain.Repository
	Collection   collectiondomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	debtorRepo   debtordomain.Repository
	sequenceRepo sequencedomain.Repository
	collection   collectiondomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invoice.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		debtorRepo:   p.DebtorRepo,
		sequenceRepo: p.SequenceRepo,
		collection:   p.Collection,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	if req.PrincipalAmount <= 0 {
		return domain.Invoice{}, domain.ErrInvalidAmount
	}

	debtorID, err := snowflake.ParseString(strings.TrimSpace(req.DebtorID))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	debtor, err := s.debtorRepo.FindByID(ctx, s.db, orgID, debtorID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if debtor == nil {
		return domain.Invoice{}, debtordomain.ErrNotFound
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidDate
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidDate
	}
	if dueDate.Before(issueDate) {
		return domain.Invoice{}, domain.ErrInvalidDate
	}

	sendTime := strings.TrimSpace(req.SendTime)
	if sendTime == "" {
		sendTime = "09:00"
	}
	normalized, err := normalizeSendTime(sendTime)
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidSendTime
	}

	var sequenceID *snowflake.ID
	if strings.TrimSpace(req.SequenceID) != "" {
		parsed, perr := snowflake.ParseString(strings.TrimSpace(req.SequenceID))
		if perr != nil {
			return domain.Invoice{}, domain.ErrInvalidID
		}
		seq, serr := s.sequenceRepo.FindByID(ctx, s.db, orgID, parsed)
		if serr != nil {
			return domain.Invoice{}, serr
		}
		if seq == nil {
			return domain.Invoice{}, sequencedomain.ErrNotFound
		}
		sequenceID = &parsed
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "PLN"
	}

	now := s.clock.Now()
	invoice := domain.Invoice{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		InvoiceNumber:   number,
		DebtorID:        debtorID,
		SequenceID:      sequenceID,
		PrincipalAmount: req.PrincipalAmount,
		Currency:        currency,
		IssueDate:       issueDate,
		DueDate:         dueDate,
		Status:          domain.StatusPending,
		AutoSend:        req.AutoSend,
		SendTime:        normalized,
		PaymentLink:     strings.TrimSpace(req.PaymentLink),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, s.db, &invoice); err != nil {
		return domain.Invoice{}, err
	}

	if sequenceID != nil {
		if _, gerr := s.collection.GenerateSchedule(ctx, invoice.ID); gerr != nil {
			s.log.Error("generate schedule after create",
				zap.Int64("invoice_id", int64(invoice.ID)), zap.Error(gerr))
		}
	}
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	invoice, err := s.repo.FindByID(ctx, s.db, orgID, parsed)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) ([]domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	filter := domain.ListFilter{}
	if status := strings.TrimSpace(req.Status); status != "" {
		parsed := domain.Status(status)
		if !parsed.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = parsed
	}
	return s.repo.List(ctx, s.db, orgID, filter, req.Limit())
}

func (s *Service) AssignSequence(ctx context.Context, id, sequenceID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}
	seqID, err := snowflake.ParseString(strings.TrimSpace(sequenceID))
	if err != nil {
		return domain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return domain.ErrNotFound
	}
	sequence, err := s.sequenceRepo.FindByID(ctx, s.db, orgID, seqID)
	if err != nil {
		return err
	}
	if sequence == nil {
		return sequencedomain.ErrNotFound
	}

	if err := s.repo.UpdateSequence(ctx, s.db, orgID, invoiceID, seqID, s.clock.Now()); err != nil {
		return err
	}
	_, err = s.collection.GenerateSchedule(ctx, invoiceID)
	return err
}

func (s *Service) RecordPayment(ctx context.Context, id string, req domain.RecordPaymentRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	if req.Amount <= 0 {
		return domain.Invoice{}, domain.ErrInvalidAmount
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	if invoice.Status == domain.StatusPaid || invoice.Status == domain.StatusWrittenOff {
		return *invoice, domain.ErrInvalidStatus
	}

	paid := invoice.PaidAmount + req.Amount
	status := domain.StatusPartial
	if paid >= invoice.PrincipalAmount {
		status = domain.StatusPaid
	}

	now := s.clock.Now()
	if err := s.repo.UpdatePayment(ctx, s.db, orgID, invoiceID, paid, status, now); err != nil {
		return domain.Invoice{}, err
	}
	invoice.PaidAmount = paid
	invoice.Status = status
	invoice.UpdatedAt = now

	// Full payment ends collection; pending reminders are voided.
	if status == domain.StatusPaid {
		cancelled, cerr := s.collection.CancelInvoiceSteps(ctx, invoiceID, "invoice paid")
		if cerr != nil {
			s.log.Error("cancel steps after payment",
				zap.Int64("invoice_id", int64(invoiceID)), zap.Error(cerr))
		} else if cancelled > 0 {
			s.log.Info("pending steps cancelled after payment",
				zap.Int64("invoice_id", int64(invoiceID)), zap.Int("count", cancelled))
		}
	}
	return *invoice, nil
}

func (s *Service) UpdateSettings(ctx context.Context, id string, req domain.UpdateSettingsRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	autoSend := invoice.AutoSend
	if req.AutoSend != nil {
		autoSend = *req.AutoSend
	}
	sendTime := invoice.SendTime
	if req.SendTime != nil {
		normalized, nerr := normalizeSendTime(strings.TrimSpace(*req.SendTime))
		if nerr != nil {
			return domain.Invoice{}, domain.ErrInvalidSendTime
		}
		sendTime = normalized
	}

	now := s.clock.Now()
	if err := s.repo.UpdateSettings(ctx, s.db, orgID, invoiceID, autoSend, sendTime, now); err != nil {
		return domain.Invoice{}, err
	}
	invoice.AutoSend = autoSend
	invoice.SendTime = sendTime
	invoice.UpdatedAt = now
	return *invoice, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	if !status.Valid() {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, orgID, invoiceID, status, now); err != nil {
		return domain.Invoice{}, err
	}
	invoice.Status = status
	invoice.UpdatedAt = now

	if status == domain.StatusWrittenOff {
		if _, cerr := s.collection.CancelInvoiceSteps(ctx, invoiceID, "invoice written off"); cerr != nil {
			s.log.Error("cancel steps after write-off",
				zap.Int64("invoice_id", int64(invoiceID)), zap.Error(cerr))
		}
	}
	return *invoice, nil
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return clock.DateOnly(parsed), nil
}

// normalizeSendTime validates an "HH:MM" wall clock and zero-pads it so
// stored values compare lexically.
func normalizeSendTime(value string) (string, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return "", err
	}
	return parsed.Format("15:04"), nil
}
