package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collecta/internal/clock"
	collectiondomain "github.com/smallbiznis/collecta/internal/collection/domain"
	collectionrepository "github.com/smallbiznis/collecta/internal/collection/repository"
	collectionservice "github.com/smallbiznis/collecta/internal/collection/service"
	appconfig "github.com/smallbiznis/collecta/internal/config"
	debtordomain "github.com/smallbiznis/collecta/internal/debtor/domain"
	debtorrepository "github.com/smallbiznis/collecta/internal/debtor/repository"
	invoicedomain "github.com/smallbiznis/collecta/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/collecta/internal/invoice/repository"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	"github.com/smallbiznis/collecta/internal/sender"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	sequencerepository "github.com/smallbiznis/collecta/internal/sequence/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrgID = snowflake.ID(1)

type recordingProvider struct {
	emailErr error
	emails   int
	smss     int
}

func (p *recordingProvider) SendEmail(context.Context, string, string, string) (string, error) {
	if p.emailErr != nil {
		return "", p.emailErr
	}
	p.emails++
	return fmt.Sprintf("email-%d", p.emails), nil
}

func (p *recordingProvider) SendSMS(context.Context, string, string) (string, error) {
	p.smss++
	return fmt.Sprintf("sms-%d", p.smss), nil
}

type schedulerFixture struct {
	db         *gorm.DB
	sched      *Scheduler
	clk        *clock.FakeClock
	provider   *recordingProvider
	node       *snowflake.Node
	collection collectiondomain.Service
	seqStep    sequencedomain.Step
	debtorID   snowflake.ID
}

// newSchedulerFixture wires the real collection service behind the
// scheduler. The fake clock reads 2026-03-20 11:30 UTC.
func newSchedulerFixture(t *testing.T, cfg Config) *schedulerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&debtordomain.Debtor{},
		&sequencedomain.Sequence{},
		&sequencedomain.Step{},
		&invoicedomain.Invoice{},
		&collectiondomain.ScheduledStep{},
		&collectiondomain.Action{},
	))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 20, 11, 30, 0, 0, time.UTC))
	provider := &recordingProvider{}
	log := zap.NewNop()
	appCfg := appconfig.Config{BusinessTimeZone: "UTC", InterestAnnualRate: 11.5}

	collection := collectionservice.New(collectionservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Config:       appCfg,
		Repo:         collectionrepository.Provide(),
		InvoiceRepo:  invoicerepository.Provide(),
		SequenceRepo: sequencerepository.Provide(),
		DebtorRepo:   debtorrepository.Provide(),
		Dispatcher:   sender.NewDispatcher(provider, provider, time.Second),
	})

	sched, err := New(Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Clock:         clk,
		CollectionSvc: collection,
		Repo:          collectionrepository.Provide(),
		AppConfig:     appCfg,
		Config:        cfg,
	})
	require.NoError(t, err)

	f := &schedulerFixture{db: db, sched: sched, clk: clk, provider: provider, node: node, collection: collection}

	debtor := debtordomain.Debtor{
		ID:    node.Generate(),
		OrgID: testOrgID,
		Name:  "Jan Kowalski",
		Email: "jan@example.com",
	}
	require.NoError(t, db.Create(&debtor).Error)

	seq := sequencedomain.Sequence{ID: node.Generate(), OrgID: testOrgID, Name: "Standard dunning"}
	require.NoError(t, db.Create(&seq).Error)
	f.seqStep = sequencedomain.Step{
		ID:           node.Generate(),
		SequenceID:   seq.ID,
		StepOrder:    1,
		DaysOffset:   1,
		Channel:      sequencedomain.ChannelEmail,
		EmailSubject: "Overdue {{invoice_number}}",
		EmailBody:    "Pay {{amount}} {{currency}}.",
	}
	require.NoError(t, db.Create(&f.seqStep).Error)
	f.debtorID = debtor.ID
	return f
}

type invoiceSeed struct {
	number    string
	status    invoicedomain.Status
	dueDate   time.Time
	autoSend  bool
	sendTime  string
	withStep  bool
	stepDate  time.Time
	stepState collectiondomain.StepStatus
}

func (f *schedulerFixture) seedInvoice(t *testing.T, seed invoiceSeed) invoicedomain.Invoice {
	t.Helper()
	inv := invoicedomain.Invoice{
		ID:              f.node.Generate(),
		OrgID:           testOrgID,
		InvoiceNumber:   seed.number,
		DebtorID:        f.debtorID,
		SequenceID:      &f.seqStep.SequenceID,
		PrincipalAmount: 100_000,
		Currency:        "PLN",
		IssueDate:       seed.dueDate.AddDate(0, 0, -14),
		DueDate:         seed.dueDate,
		Status:          seed.status,
		AutoSend:        seed.autoSend,
		SendTime:        seed.sendTime,
	}
	require.NoError(t, f.db.Create(&inv).Error)

	if seed.withStep {
		state := seed.stepState
		if state == "" {
			state = collectiondomain.StepPending
		}
		step := collectiondomain.ScheduledStep{
			ID:             f.node.Generate(),
			OrgID:          testOrgID,
			InvoiceID:      inv.ID,
			SequenceID:     f.seqStep.SequenceID,
			SequenceStepID: f.seqStep.ID,
			StepOrder:      1,
			Channel:        f.seqStep.Channel,
			ScheduledDate:  seed.stepDate,
			Status:         state,
		}
		require.NoError(t, f.db.Create(&step).Error)
	}
	return inv
}

func (f *schedulerFixture) stepStatus(t *testing.T, invoiceID snowflake.ID) collectiondomain.StepStatus {
	t.Helper()
	var steps []collectiondomain.ScheduledStep
	require.NoError(t, f.db.Where("invoice_id = ?", invoiceID).Find(&steps).Error)
	require.Len(t, steps, 1)
	return steps[0].Status
}

func TestRunOnce_SendsOnlyGatedSteps(t *testing.T) {
	f := newSchedulerFixture(t, Config{BatchSize: 10})
	past := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)

	eligible := f.seedInvoice(t, invoiceSeed{
		number: "INV-OK", status: invoicedomain.StatusOverdue,
		dueDate: past, autoSend: true, sendTime: "09:00",
		withStep: true, stepDate: past,
	})
	autoOff := f.seedInvoice(t, invoiceSeed{
		number: "INV-MANUAL", status: invoicedomain.StatusOverdue,
		dueDate: past, autoSend: false, sendTime: "09:00",
		withStep: true, stepDate: past,
	})
	notYet := f.seedInvoice(t, invoiceSeed{
		number: "INV-EVENING", status: invoicedomain.StatusOverdue,
		dueDate: past, autoSend: true, sendTime: "23:00",
		withStep: true, stepDate: past,
	})
	paused := f.seedInvoice(t, invoiceSeed{
		number: "INV-PAUSED", status: invoicedomain.StatusPaused,
		dueDate: past, autoSend: true, sendTime: "09:00",
		withStep: true, stepDate: past,
	})
	future := f.seedInvoice(t, invoiceSeed{
		number: "INV-FUTURE", status: invoicedomain.StatusOverdue,
		dueDate: past, autoSend: true, sendTime: "09:00",
		withStep: true, stepDate: time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC),
	})

	report, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, f.provider.emails)

	assert.Equal(t, collectiondomain.StepSent, f.stepStatus(t, eligible.ID))
	assert.Equal(t, collectiondomain.StepPending, f.stepStatus(t, autoOff.ID))
	assert.Equal(t, collectiondomain.StepPending, f.stepStatus(t, notYet.ID))
	assert.Equal(t, collectiondomain.StepPending, f.stepStatus(t, paused.ID))
	assert.Equal(t, collectiondomain.StepPending, f.stepStatus(t, future.ID))
}

func TestRunOnce_LifecycleSweep(t *testing.T) {
	f := newSchedulerFixture(t, Config{BatchSize: 10, DueSoonDays: 7})

	pastDue := f.seedInvoice(t, invoiceSeed{
		number: "INV-LATE", status: invoicedomain.StatusPending,
		dueDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), sendTime: "09:00",
	})
	soon := f.seedInvoice(t, invoiceSeed{
		number: "INV-SOON", status: invoicedomain.StatusPending,
		dueDate: time.Date(2026, 3, 24, 0, 0, 0, 0, time.UTC), sendTime: "09:00",
	})
	far := f.seedInvoice(t, invoiceSeed{
		number: "INV-FAR", status: invoicedomain.StatusPending,
		dueDate: time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), sendTime: "09:00",
	})

	report, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.MarkedOverdue)
	assert.Equal(t, int64(1), report.MarkedDueSoon)

	status := func(id snowflake.ID) invoicedomain.Status {
		var inv invoicedomain.Invoice
		require.NoError(t, f.db.First(&inv, "id = ?", id).Error)
		return inv.Status
	}
	assert.Equal(t, invoicedomain.StatusOverdue, status(pastDue.ID))
	assert.Equal(t, invoicedomain.StatusDueSoon, status(soon.ID))
	assert.Equal(t, invoicedomain.StatusPending, status(far.ID))
}

// A step that fails is left in failed for an operator to retry; later
// cycles must not pick it up and must not append more ledger rows.
func TestRunOnce_FailedSendNotAutoRetried(t *testing.T) {
	f := newSchedulerFixture(t, Config{BatchSize: 10})
	past := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)

	inv := f.seedInvoice(t, invoiceSeed{
		number: "INV-OK", status: invoicedomain.StatusOverdue,
		dueDate: past, autoSend: true, sendTime: "09:00",
		withStep: true, stepDate: past,
	})
	f.provider.emailErr = errors.New("smtp: connection refused")

	report, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "connection refused")
	assert.Equal(t, collectiondomain.StepFailed, f.stepStatus(t, inv.ID))

	for i := 0; i < 2; i++ {
		f.clk.Advance(15 * time.Minute)
		report, err = f.sched.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Processed)
	}
	assert.Equal(t, collectiondomain.StepFailed, f.stepStatus(t, inv.ID))

	var failures int64
	require.NoError(t, f.db.Model(&collectiondomain.Action{}).
		Where("invoice_id = ? AND type = ?", inv.ID, collectiondomain.ActionReminderFailed).
		Count(&failures).Error)
	assert.Equal(t, int64(1), failures)

	// An explicit retry is what delivers it.
	f.provider.emailErr = nil
	var step collectiondomain.ScheduledStep
	require.NoError(t, f.db.First(&step, "invoice_id = ?", inv.ID).Error)
	ctx := orgcontext.WithOrgID(context.Background(), int64(testOrgID))
	_, err = f.collection.ExecuteStep(ctx, step.ID.String())
	require.NoError(t, err)
	assert.Equal(t, collectiondomain.StepSent, f.stepStatus(t, inv.ID))
}

func TestRunOnce_RespectsEnabledJobs(t *testing.T) {
	f := newSchedulerFixture(t, Config{BatchSize: 10, EnabledJobs: []string{"mark_overdue"}})
	past := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)

	inv := f.seedInvoice(t, invoiceSeed{
		number: "INV-OK", status: invoicedomain.StatusOverdue,
		dueDate: past, autoSend: true, sendTime: "09:00",
		withStep: true, stepDate: past,
	})

	report, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, collectiondomain.StepPending, f.stepStatus(t, inv.ID))
}

func TestRunOnce_DrainsInBatches(t *testing.T) {
	f := newSchedulerFixture(t, Config{BatchSize: 2})
	past := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		f.seedInvoice(t, invoiceSeed{
			number: fmt.Sprintf("INV-%d", i), status: invoicedomain.StatusOverdue,
			dueDate: past, autoSend: true, sendTime: "09:00",
			withStep: true, stepDate: past,
		})
	}

	report, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Processed)
	assert.Equal(t, 5, report.Succeeded)
	assert.Equal(t, 5, f.provider.emails)
}

func TestNew_RejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 2*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 7, cfg.DueSoonDays)
	assert.Equal(t, 5*time.Minute, cfg.LockTTL)
}
