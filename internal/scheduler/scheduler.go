// Package scheduler drives the periodic collection batch: advancing
// invoice lifecycle states and delivering due reminder steps.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/clock"
	collectiondomain "github.com/smallbiznis/collecta/internal/collection/domain"
	appconfig "github.com/smallbiznis/collecta/internal/config"
	"github.com/smallbiznis/collecta/internal/observability/metrics"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	"github.com/smallbiznis/collecta/internal/runlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const runLockKey = "collecta:scheduler:run"

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	CollectionSvc collectiondomain.Service
	Repo          collectiondomain.Repository
	AppConfig     appconfig.Config
	Locker        *runlock.Locker `optional:"true"`
	Config        Config          `optional:"true"`
}

type Scheduler struct {
	db            *gorm.DB
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	collectionSvc collectiondomain.Service
	repo          collectiondomain.Repository
	locker        *runlock.Locker
	zone          *time.Location
}

// Report summarizes one full batch cycle, exposed through the internal
// cron endpoint.
type Report struct {
	MarkedOverdue int64    `json:"marked_overdue"`
	MarkedDueSoon int64    `json:"marked_due_soon"`
	Processed     int      `json:"processed"`
	Succeeded     int      `json:"succeeded"`
	Failed        int      `json:"failed"`
	Skipped       bool     `json:"skipped,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.CollectionSvc == nil || p.Repo == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config
	if cfg.RunInterval == 0 && cfg.BatchSize == 0 && len(cfg.EnabledJobs) == 0 {
		cfg = FromAppConfig(p.AppConfig)
	}
	cfg = cfg.withDefaults()
	loc, err := time.LoadLocation(p.AppConfig.BusinessTimeZone)
	if err != nil || p.AppConfig.BusinessTimeZone == "" {
		loc = time.UTC
	}
	return &Scheduler{
		db:            p.DB,
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           cfg,
		genID:         p.GenID,
		clock:         p.Clock,
		collectionSvc: p.CollectionSvc,
		repo:          p.Repo,
		locker:        p.Locker,
		zone:          loc,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, s.cfg.BatchSize)
	if owner {
		s.logJobStart(run)
	}
	metrics.IncJobRun(name)

	err := fn(ctx)
	metrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(run)
	}
	if err == nil {
		return nil
	}

	metrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes one full batch cycle. Overlapping cycles across
// instances are prevented by the optional distributed lock; without
// Redis the caller is expected to run a single scheduler instance.
func (s *Scheduler) RunOnce(parent context.Context) (Report, error) {
	var report Report

	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(parent, runLockKey, s.cfg.LockTTL)
		if err != nil {
			return report, fmt.Errorf("acquire run lock: %w", err)
		}
		if !acquired {
			s.log.Info("scheduler run skipped, another instance holds the lock")
			report.Skipped = true
			return report, nil
		}
		defer func() {
			if rerr := s.locker.Release(parent, runLockKey, token); rerr != nil {
				s.log.Warn("release run lock", zap.Error(rerr))
			}
		}()
	}

	var err error
	if s.isJobEnabled("mark_overdue") {
		err = errors.Join(err, s.runJob(parent, "mark_overdue", func(ctx context.Context) error {
			return s.MarkOverdueJob(ctx, &report)
		}))
	}
	if s.isJobEnabled("send_reminders") {
		err = errors.Join(err, s.runJob(parent, "send_reminders", func(ctx context.Context) error {
			return s.SendRemindersJob(ctx, &report)
		}))
	}
	return report, err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs means all jobs run (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// MarkOverdueJob advances invoice lifecycle states against today's
// business date.
func (s *Scheduler) MarkOverdueJob(ctx context.Context, report *Report) error {
	ctx, run, owner := s.ensureJobRun(ctx, "mark_overdue", s.cfg.BatchSize)
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}

	now := s.clock.Now()
	today := clock.BusinessDate(now, s.zone)
	overdue, dueSoon, err := s.repo.MarkOverdue(ctx, s.db, today, s.cfg.DueSoonDays, now)
	if err != nil {
		s.logJobError(run, "mark_overdue", err)
		return err
	}
	run.AddProcessed(int(overdue + dueSoon))
	if report != nil {
		report.MarkedOverdue += overdue
		report.MarkedDueSoon += dueSoon
	}
	if overdue > 0 || dueSoon > 0 {
		s.log.Info("invoice lifecycle sweep",
			zap.Int64("marked_overdue", overdue),
			zap.Int64("marked_due_soon", dueSoon),
		)
	}
	return nil
}

// SendRemindersJob claims batches of due steps and executes them until
// the queue is drained. A failed send counts against the report but does
// not stop the batch; the step lands in failed and stays there until an
// operator retries it explicitly.
func (s *Scheduler) SendRemindersJob(ctx context.Context, report *Report) error {
	ctx, run, owner := s.ensureJobRun(ctx, "send_reminders", s.cfg.BatchSize)
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}

	now := s.clock.Now()
	today := clock.BusinessDate(now, s.zone)
	timeOfDay := clock.BusinessTimeOfDay(now, s.zone)
	var jobErr error

	// An executed step leaves the pending pool whatever the outcome, but
	// an attempt that errors before claiming leaves the row selectable.
	// Remember what this run already tried so such rows cannot be
	// re-fetched until the job timeout.
	attempted := make(map[snowflake.ID]bool)

	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		var fetched []collectiondomain.ScheduledStep
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var ferr error
			fetched, ferr = s.repo.DueSteps(ctx, tx, today, timeOfDay, s.cfg.BatchSize)
			return ferr
		})
		if err != nil {
			s.logJobError(run, "send_reminders", err)
			return errors.Join(jobErr, err)
		}

		steps := fetched[:0:0]
		for _, step := range fetched {
			if attempted[step.ID] {
				continue
			}
			attempted[step.ID] = true
			steps = append(steps, step)
		}
		if len(steps) == 0 {
			break
		}

		for _, step := range steps {
			if ctx.Err() != nil {
				return errors.Join(jobErr, ctx.Err())
			}

			stepCtx := orgcontext.WithOrgID(ctx, int64(step.OrgID))
			_, execErr := s.collectionSvc.ExecuteStep(stepCtx, step.ID.String())
			run.AddProcessed(1)
			if report != nil {
				report.Processed++
			}

			switch {
			case execErr == nil:
				if report != nil {
					report.Succeeded++
				}
			case errors.Is(execErr, collectiondomain.ErrInvalidState),
				errors.Is(execErr, collectiondomain.ErrAlreadyClaimed):
				// Another executor got there first; not a batch failure.
				s.log.Debug("step no longer executable",
					zap.Int64("step_id", int64(step.ID)),
					zap.Error(execErr),
				)
			default:
				if report != nil {
					report.Failed++
					report.Errors = append(report.Errors, fmt.Sprintf("step %d: %v", step.ID, execErr))
				}
				s.logJobError(run, "send_reminders", execErr,
					zap.Int64("step_id", int64(step.ID)),
					zap.Int64("invoice_id", int64(step.InvoiceID)),
				)
			}
		}

		if len(fetched) < s.cfg.BatchSize {
			break
		}
	}

	return jobErr
}
