package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/collection/domain"
	"github.com/smallbiznis/collecta/internal/config"
	debtordomain "github.com/smallbiznis/collecta/internal/debtor/domain"
	"github.com/smallbiznis/collecta/internal/interest"
	invoicedomain "github.com/smallbiznis/collecta/internal/invoice/domain"
	"github.com/smallbiznis/collecta/internal/invoice/format"
	"github.com/smallbiznis/collecta/internal/observability/metrics"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	"github.com/smallbiznis/collecta/internal/render"
	"github.com/smallbiznis/collecta/internal/sender"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// claimTTL is how long an execution claim stays live. A claim older than
// this is treated as abandoned by a crashed executor and may be retaken.
const claimTTL = 10 * time.Minute

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Config       config.Config
	Repo         domain.Repository
	InvoiceRepo  invoicedomain.Repository
	SequenceRepo sequencedomain.Repository
	DebtorRepo   debtordomain.Repository
	Dispatcher   *sender.Dispatcher
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	invoiceRepo  invoicedomain.Repository
	sequenceRepo sequencedomain.Repository
	debtorRepo   debtordomain.Repository
	dispatcher   *sender.Dispatcher
	rate         float64
	zone         *time.Location
}

func New(p Params) domain.Service {
	loc, err := time.LoadLocation(p.Config.BusinessTimeZone)
	if err != nil {
		loc = time.UTC
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("collection.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		invoiceRepo:  p.InvoiceRepo,
		sequenceRepo: p.SequenceRepo,
		debtorRepo:   p.DebtorRepo,
		dispatcher:   p.Dispatcher,
		rate:         p.Config.InterestAnnualRate,
		zone:         loc,
	}
}

func (s *Service) GenerateSchedule(ctx context.Context, invoiceID snowflake.ID) ([]domain.ScheduledStep, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	if invoice.SequenceID == nil {
		return nil, domain.ErrNoSequence
	}
	sequenceID := *invoice.SequenceID

	templateSteps, err := s.sequenceRepo.FindSteps(ctx, s.db, sequenceID)
	if err != nil {
		return nil, err
	}
	if len(templateSteps) == 0 {
		return nil, sequencedomain.ErrInvalidTemplate
	}

	now := s.clock.Now()
	dueDate := clock.DateOnly(invoice.DueDate)
	var generated []domain.ScheduledStep

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A sequence swap voids the old schedule before the new one is
		// laid down. Terminal steps stay as history.
		voided, err := s.repo.CancelAllPending(ctx, tx, invoiceID, &sequenceID, now)
		if err != nil {
			return err
		}
		for _, v := range voided {
			if err := s.appendAction(ctx, tx, actionParams{
				orgID:      v.OrgID,
				invoiceID:  v.InvoiceID,
				stepID:     v.ID,
				actionType: domain.ActionStepCancelled,
				channel:    v.Channel,
				detail:     "sequence reassigned",
				at:         now,
			}); err != nil {
				return err
			}
		}

		// Regeneration is idempotent: (invoice, sequence step) pairs
		// that already exist are left untouched whatever their status.
		existing, err := s.repo.ListSteps(ctx, tx, orgID, domain.StepFilter{InvoiceID: invoiceID}, 0)
		if err != nil {
			return err
		}
		seen := make(map[snowflake.ID]bool, len(existing))
		for _, e := range existing {
			seen[e.SequenceStepID] = true
		}

		for _, tpl := range templateSteps {
			if seen[tpl.ID] {
				continue
			}
			generated = append(generated, domain.ScheduledStep{
				ID:             s.genID.Generate(),
				OrgID:          orgID,
				InvoiceID:      invoiceID,
				SequenceID:     sequenceID,
				SequenceStepID: tpl.ID,
				StepOrder:      tpl.StepOrder,
				Channel:        tpl.Channel,
				ScheduledDate:  dueDate.AddDate(0, 0, tpl.DaysOffset),
				Status:         domain.StepPending,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}
		return s.repo.InsertSteps(ctx, tx, generated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("schedule generated",
		zap.Int64("invoice_id", int64(invoiceID)),
		zap.Int64("sequence_id", int64(sequenceID)),
		zap.Int("steps", len(generated)))
	return generated, nil
}

func (s *Service) ExecuteStep(ctx context.Context, stepID string) (domain.ExecuteResult, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ExecuteResult{}, domain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(stepID))
	if err != nil {
		return domain.ExecuteResult{}, domain.ErrInvalidID
	}

	step, err := s.repo.FindStepByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.ExecuteResult{}, err
	}
	if step == nil {
		return domain.ExecuteResult{}, domain.ErrNotFound
	}
	if step.Status.Terminal() {
		return domain.ExecuteResult{Step: *step}, domain.ErrInvalidState
	}

	now := s.clock.Now()
	claim := domain.Claim{Token: uuid.NewString(), ClaimedAt: now}
	claimed, err := s.repo.ClaimStep(ctx, s.db, orgID, id, claim, now.Add(-claimTTL))
	if err != nil {
		return domain.ExecuteResult{}, err
	}
	if !claimed {
		// Either a concurrent executor finished it or it holds a live
		// claim. Re-read to tell the cases apart.
		current, rerr := s.repo.FindStepByID(ctx, s.db, orgID, id)
		if rerr == nil && current != nil && current.Status.Terminal() {
			return domain.ExecuteResult{Step: *current}, domain.ErrInvalidState
		}
		return domain.ExecuteResult{}, domain.ErrAlreadyClaimed
	}
	step.ClaimToken = &claim.Token
	step.ClaimedAt = &now

	return s.executeClaimed(ctx, *step, claim)
}

// executeClaimed carries a step from a freshly won claim to a terminal
// or failed status. Every exit path finalizes the step so the claim can
// never leak.
func (s *Service) executeClaimed(ctx context.Context, step domain.ScheduledStep, claim domain.Claim) (domain.ExecuteResult, error) {
	now := s.clock.Now()

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, step.OrgID, step.InvoiceID)
	if err != nil {
		return domain.ExecuteResult{}, s.finalizeFailed(ctx, step, claim, err)
	}
	if invoice == nil || !invoice.Status.Collectible() {
		detail := "invoice no longer collectible"
		if invoice == nil {
			detail = "invoice missing"
		}
		return s.finalizeCancelled(ctx, step, claim, detail)
	}

	// Skip-ahead: delivering a later reminder supersedes any earlier
	// ones still waiting. "Earlier" is measured against the invoice's
	// first pending order, and the cancel happens before the send so
	// that superseded steps are voided even if the send itself fails.
	firstPending, err := s.repo.FirstPendingOrder(ctx, s.db, step.InvoiceID)
	if err != nil {
		return domain.ExecuteResult{}, s.finalizeFailed(ctx, step, claim, err)
	}
	var victims []domain.ScheduledStep
	if firstPending > 0 && firstPending < step.StepOrder {
		victims, err = s.repo.CancelEarlierPending(ctx, s.db, step.InvoiceID, step.StepOrder, now)
		if err != nil {
			return domain.ExecuteResult{}, s.finalizeFailed(ctx, step, claim, err)
		}
	}
	for _, v := range victims {
		if aerr := s.appendAction(ctx, s.db, actionParams{
			orgID:      v.OrgID,
			invoiceID:  v.InvoiceID,
			stepID:     v.ID,
			actionType: domain.ActionStepCancelled,
			channel:    v.Channel,
			detail:     fmt.Sprintf("superseded by step %d", step.StepOrder),
			at:         now,
		}); aerr != nil {
			s.log.Warn("record cancel action", zap.Error(aerr))
		}
	}

	template, err := s.sequenceRepo.FindStepByID(ctx, s.db, step.SequenceStepID)
	if err != nil {
		return domain.ExecuteResult{}, s.finalizeFailed(ctx, step, claim, err)
	}
	if template == nil {
		return domain.ExecuteResult{}, s.finalizeFailed(ctx, step, claim, fmt.Errorf("template step %d missing", step.SequenceStepID))
	}
	debtor, err := s.debtorRepo.FindByID(ctx, s.db, step.OrgID, invoice.DebtorID)
	if err != nil {
		return domain.ExecuteResult{}, s.finalizeFailed(ctx, step, claim, err)
	}
	if debtor == nil {
		return domain.ExecuteResult{}, s.finalizeFailed(ctx, step, claim, fmt.Errorf("debtor %d missing", invoice.DebtorID))
	}

	content := domain.EffectiveContent(step, *template)
	if (step.Channel.NeedsEmail() && content.EmailBody == "") ||
		(step.Channel.NeedsPhone() && content.SMSBody == "") {
		return domain.ExecuteResult{}, s.finalizeFailed(ctx, step, claim, sequencedomain.ErrInvalidTemplate)
	}
	fields := s.renderFields(*invoice, *debtor, template.IncludeInterest, now)

	result := domain.ExecuteResult{Cancelled: len(victims)}
	var sendErrs []string
	missing := 0

	if step.Channel.NeedsEmail() {
		if debtor.Email == "" {
			missing++
			sendErrs = append(sendErrs, "email: no address on file")
			s.recordAttempt(ctx, step, sequencedomain.ChannelEmail, "", "", "no address on file", now)
		} else {
			subject := render.Render(content.EmailSubject, fields)
			body := render.Render(content.EmailBody, fields)
			body = s.appendPaymentLink(body, content.EmailBody, *template, *invoice, "\n\n")
			res, derr := s.dispatcher.Dispatch(ctx, sender.ChannelEmail, debtor.Email, subject, body)
			if derr != nil {
				sendErrs = append(sendErrs, "email: "+derr.Error())
				s.recordAttempt(ctx, step, sequencedomain.ChannelEmail, debtor.Email, "", derr.Error(), now)
				metrics.IncSendAttempt("email", "failure")
			} else {
				result.MessageID = res.MessageID
				s.recordAttempt(ctx, step, sequencedomain.ChannelEmail, debtor.Email, res.MessageID, "", now)
				metrics.IncSendAttempt("email", "success")
			}
		}
	}
	if step.Channel.NeedsPhone() {
		if debtor.Phone == "" {
			missing++
			sendErrs = append(sendErrs, "sms: no phone on file")
			s.recordAttempt(ctx, step, sequencedomain.ChannelSMS, "", "", "no phone on file", now)
		} else {
			body := render.Render(content.SMSBody, fields)
			body = s.appendPaymentLink(body, content.SMSBody, *template, *invoice, " ")
			res, derr := s.dispatcher.Dispatch(ctx, sender.ChannelSMS, debtor.Phone, "", body)
			if derr != nil {
				sendErrs = append(sendErrs, "sms: "+derr.Error())
				s.recordAttempt(ctx, step, sequencedomain.ChannelSMS, debtor.Phone, "", derr.Error(), now)
				metrics.IncSendAttempt("sms", "failure")
			} else {
				if result.MessageID == "" {
					result.MessageID = res.MessageID
				}
				s.recordAttempt(ctx, step, sequencedomain.ChannelSMS, debtor.Phone, res.MessageID, "", now)
				metrics.IncSendAttempt("sms", "success")
			}
		}
	}

	if len(sendErrs) > 0 {
		lastError := strings.Join(sendErrs, "; ")
		finalized, ferr := s.repo.FinalizeStep(ctx, s.db, step.ID, claim.Token, domain.StepFailed, now, lastError)
		if ferr != nil {
			return domain.ExecuteResult{}, ferr
		}
		if !finalized {
			return domain.ExecuteResult{}, domain.ErrAlreadyClaimed
		}
		metrics.IncStepExecuted("failed")
		step.Status = domain.StepFailed
		step.LastError = lastError
		step.ExecutedAt = &now
		result.Step = step
		if missing == len(sendErrs) {
			return result, domain.ErrMissingContact
		}
		return result, fmt.Errorf("%w: %s", domain.ErrSendFailure, lastError)
	}

	finalized, ferr := s.repo.FinalizeStep(ctx, s.db, step.ID, claim.Token, domain.StepSent, now, "")
	if ferr != nil {
		return domain.ExecuteResult{}, ferr
	}
	if !finalized {
		// Our claim was taken over while sending, so the row no longer
		// reflects this execution. Surface the conflict instead of
		// reporting a sent step that the store never recorded.
		return domain.ExecuteResult{}, domain.ErrAlreadyClaimed
	}
	metrics.IncStepExecuted("sent")
	step.Status = domain.StepSent
	step.LastError = ""
	step.ExecutedAt = &now
	result.Step = step

	s.log.Info("step executed",
		zap.Int64("step_id", int64(step.ID)),
		zap.Int64("invoice_id", int64(step.InvoiceID)),
		zap.Int("cancelled_earlier", result.Cancelled))
	return result, nil
}

func (s *Service) SkipStep(ctx context.Context, stepID string) (domain.ScheduledStep, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ScheduledStep{}, domain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(stepID))
	if err != nil {
		return domain.ScheduledStep{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	skipped, err := s.repo.MarkSkipped(ctx, s.db, orgID, id, now)
	if err != nil {
		return domain.ScheduledStep{}, err
	}
	if !skipped {
		step, rerr := s.repo.FindStepByID(ctx, s.db, orgID, id)
		if rerr != nil {
			return domain.ScheduledStep{}, rerr
		}
		if step == nil {
			return domain.ScheduledStep{}, domain.ErrNotFound
		}
		return *step, domain.ErrInvalidState
	}

	step, err := s.repo.FindStepByID(ctx, s.db, orgID, id)
	if err != nil || step == nil {
		return domain.ScheduledStep{}, err
	}
	if aerr := s.appendAction(ctx, s.db, actionParams{
		orgID:      step.OrgID,
		invoiceID:  step.InvoiceID,
		stepID:     step.ID,
		actionType: domain.ActionStepSkipped,
		channel:    step.Channel,
		detail:     "skipped by operator",
		at:         now,
	}); aerr != nil {
		s.log.Warn("record skip action", zap.Error(aerr))
	}
	return *step, nil
}

func (s *Service) UpdateStep(ctx context.Context, stepID string, req domain.UpdateStepRequest) (domain.ScheduledStep, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ScheduledStep{}, domain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(stepID))
	if err != nil {
		return domain.ScheduledStep{}, domain.ErrInvalidID
	}

	step, err := s.repo.FindStepByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.ScheduledStep{}, err
	}
	if step == nil {
		return domain.ScheduledStep{}, domain.ErrNotFound
	}
	if step.Status.Terminal() {
		return *step, domain.ErrInvalidState
	}

	overrides := map[string]interface{}{}
	for k, v := range step.Overrides {
		overrides[k] = v
	}
	if req.EmailSubject != nil {
		overrides[domain.OverrideEmailSubject] = *req.EmailSubject
	}
	if req.EmailBody != nil {
		overrides[domain.OverrideEmailBody] = *req.EmailBody
	}
	if req.SMSBody != nil {
		overrides[domain.OverrideSMSBody] = *req.SMSBody
	}

	var scheduledDate *time.Time
	if req.ScheduledDate != nil {
		parsed, perr := time.ParseInLocation("2006-01-02", strings.TrimSpace(*req.ScheduledDate), time.UTC)
		if perr != nil {
			return domain.ScheduledStep{}, domain.ErrInvalidDate
		}
		scheduledDate = &parsed
	}

	now := s.clock.Now()
	updated, err := s.repo.UpdateOverrides(ctx, s.db, orgID, id, overrides, scheduledDate, now)
	if err != nil {
		return domain.ScheduledStep{}, err
	}
	if !updated {
		return *step, domain.ErrInvalidState
	}

	fresh, err := s.repo.FindStepByID(ctx, s.db, orgID, id)
	if err != nil || fresh == nil {
		return domain.ScheduledStep{}, err
	}
	return *fresh, nil
}

func (s *Service) ListSteps(ctx context.Context, req domain.ListStepsRequest) ([]domain.ScheduledStep, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	filter := domain.StepFilter{Status: domain.StepStatus(strings.TrimSpace(req.Status))}
	if req.InvoiceID != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter.InvoiceID = parsed
	}
	return s.repo.ListSteps(ctx, s.db, orgID, filter, req.Limit())
}

func (s *Service) ListActions(ctx context.Context, invoiceID string) ([]domain.Action, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	parsed, err := snowflake.ParseString(strings.TrimSpace(invoiceID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListActions(ctx, s.db, orgID, parsed, 0)
}

func (s *Service) CancelInvoiceSteps(ctx context.Context, invoiceID snowflake.ID, reason string) (int, error) {
	now := s.clock.Now()
	victims, err := s.repo.CancelAllPending(ctx, s.db, invoiceID, nil, now)
	if err != nil {
		return 0, err
	}
	for _, v := range victims {
		if aerr := s.appendAction(ctx, s.db, actionParams{
			orgID:      v.OrgID,
			invoiceID:  v.InvoiceID,
			stepID:     v.ID,
			actionType: domain.ActionStepCancelled,
			channel:    v.Channel,
			detail:     reason,
			at:         now,
		}); aerr != nil {
			s.log.Warn("record cancel action", zap.Error(aerr))
		}
	}
	return len(victims), nil
}

// renderFields assembles the placeholder values for one invoice. Interest
// accrues up to today's business date only when the template asks for it.
func (s *Service) renderFields(invoice invoicedomain.Invoice, debtor debtordomain.Debtor, includeInterest bool, now time.Time) render.Fields {
	today := clock.BusinessDate(now, s.zone)
	outstanding := invoice.Outstanding()

	fields := render.Fields{
		InvoiceNumber: invoice.InvoiceNumber,
		Amount:        format.Amount(outstanding),
		Currency:      invoice.Currency,
		DueDate:       format.Date(invoice.DueDate),
		DebtorName:    debtor.Name,
		CompanyName:   debtor.CompanyName,
		PaymentLink:   invoice.PaymentLink,
	}

	accrual := interest.Compute(outstanding, invoice.DueDate, today, s.rate)
	fields.DaysOverdue = strconv.Itoa(accrual.DaysOverdue)
	if includeInterest {
		fields.InterestAmount = format.Amount(accrual.Interest)
		fields.TotalWithInterest = format.Amount(accrual.Total)
	} else {
		fields.InterestAmount = format.Amount(0)
		fields.TotalWithInterest = format.Amount(outstanding)
	}
	return fields
}

// appendPaymentLink adds the payment link to a rendered body when the
// template opted in and the author did not already place the token.
func (s *Service) appendPaymentLink(rendered, rawTemplate string, template sequencedomain.Step, invoice invoicedomain.Invoice, sep string) string {
	if !template.IncludePaymentLink || invoice.PaymentLink == "" {
		return rendered
	}
	if strings.Contains(rawTemplate, "{{payment_link}}") {
		return rendered
	}
	if rendered == "" {
		return invoice.PaymentLink
	}
	return rendered + sep + invoice.PaymentLink
}

type actionParams struct {
	orgID      snowflake.ID
	invoiceID  snowflake.ID
	stepID     snowflake.ID
	actionType domain.ActionType
	channel    sequencedomain.Channel
	recipient  string
	messageID  string
	detail     string
	at         time.Time
}

func (s *Service) appendAction(ctx context.Context, db *gorm.DB, p actionParams) error {
	stepID := p.stepID
	action := domain.Action{
		ID:              s.genID.Generate(),
		OrgID:           p.orgID,
		InvoiceID:       p.invoiceID,
		ScheduledStepID: &stepID,
		Type:            p.actionType,
		Channel:         p.channel,
		Recipient:       p.recipient,
		MessageID:       p.messageID,
		Detail:          p.detail,
		CreatedAt:       p.at,
	}
	return s.repo.InsertAction(ctx, db, &action)
}

func (s *Service) recordAttempt(ctx context.Context, step domain.ScheduledStep, ch sequencedomain.Channel, recipient, messageID, failure string, at time.Time) {
	actionType := domain.ActionReminderSent
	if failure != "" {
		actionType = domain.ActionReminderFailed
	}
	if err := s.appendAction(ctx, s.db, actionParams{
		orgID:      step.OrgID,
		invoiceID:  step.InvoiceID,
		stepID:     step.ID,
		actionType: actionType,
		channel:    ch,
		recipient:  recipient,
		messageID:  messageID,
		detail:     failure,
		at:         at,
	}); err != nil {
		s.log.Warn("record send action", zap.Error(err))
	}
}

func (s *Service) finalizeFailed(ctx context.Context, step domain.ScheduledStep, claim domain.Claim, cause error) error {
	now := s.clock.Now()
	finalized, err := s.repo.FinalizeStep(ctx, s.db, step.ID, claim.Token, domain.StepFailed, now, cause.Error())
	if err != nil {
		s.log.Error("finalize failed step", zap.Error(err))
	} else if !finalized {
		s.log.Warn("claim lost before failure could be recorded",
			zap.Int64("step_id", int64(step.ID)))
	}
	metrics.IncStepExecuted("failed")
	return cause
}

func (s *Service) finalizeCancelled(ctx context.Context, step domain.ScheduledStep, claim domain.Claim, detail string) (domain.ExecuteResult, error) {
	now := s.clock.Now()
	finalized, err := s.repo.FinalizeStep(ctx, s.db, step.ID, claim.Token, domain.StepCancelled, now, "")
	if err != nil {
		return domain.ExecuteResult{}, err
	}
	if !finalized {
		return domain.ExecuteResult{}, domain.ErrAlreadyClaimed
	}
	if aerr := s.appendAction(ctx, s.db, actionParams{
		orgID:      step.OrgID,
		invoiceID:  step.InvoiceID,
		stepID:     step.ID,
		actionType: domain.ActionStepCancelled,
		channel:    step.Channel,
		detail:     detail,
		at:         now,
	}); aerr != nil {
		s.log.Warn("record cancel action", zap.Error(aerr))
	}
	metrics.IncStepExecuted("cancelled")
	step.Status = domain.StepCancelled
	step.ExecutedAt = &now
	return domain.ExecuteResult{Step: step}, nil
}
