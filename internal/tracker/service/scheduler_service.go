package service

import (
	"context"
	"time"

	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"
	"stock-tracker/pkg/telegram"

	"github.com/robfig/cron/v3"
)

// SchedulerService drives the orchestrator, either once or on a fixed
// interval.
type SchedulerService interface {
	RunOnce(ctx context.Context) (*dto.CycleReport, error)
	Start(ctx context.Context) error
}

type schedulerService struct {
	cfg         *config.Config
	log         *logger.Logger
	etl         ETLService
	notifier    telegram.Notifier
	refreshCron cron.Schedule
	nextRefresh time.Time
}

// NewSchedulerService creates the scheduler. The notifier may be nil,
// in which case failure alerts are skipped.
func NewSchedulerService(cfg *config.Config, log *logger.Logger, etl ETLService, notifier telegram.Notifier) (SchedulerService, error) {
	s := &schedulerService{
		cfg:      cfg,
		log:      log,
		etl:      etl,
		notifier: notifier,
	}
	if expr := cfg.Tracker.MetadataRefreshCron; expr != "" {
		schedule, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, apperror.Wrap(apperror.Configuration, err, "parse metadata_refresh_cron")
		}
		s.refreshCron = schedule
		s.nextRefresh = schedule.Next(time.Now())
	}
	return s, nil
}

// RunOnce runs a single cycle. The caller decides what a failed report
// means; the error return covers only infrastructure problems.
func (s *schedulerService) RunOnce(ctx context.Context) (*dto.CycleReport, error) {
	report, err := s.etl.RunCycle(ctx, CycleOptions{Mode: ModeOnce})
	if err != nil {
		return nil, err
	}
	s.notifyFailures(report)
	return report, nil
}

// Start runs cycles on the configured interval until ctx is cancelled.
// Cycles run serially and never overlap; cancellation is observed
// between cycles so an in-flight cycle drains instead of aborting.
func (s *schedulerService) Start(ctx context.Context) error {
	s.log.Info("Scheduler started",
		logger.DurationField("interval", s.cfg.Tracker.Interval),
	)

	for {
		s.runScheduledCycle(ctx)

		timer := time.NewTimer(s.cfg.Tracker.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Scheduler stopped", logger.ErrorField(ctx.Err()))
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *schedulerService) runScheduledCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	// detached from the scheduler context so shutdown drains the cycle;
	// the interval bounds the cycle's lifetime instead
	cycleCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Tracker.Interval)
	defer cancel()

	report, err := s.etl.RunCycle(cycleCtx, CycleOptions{
		Mode:            ModeContinuous,
		RefreshProfiles: s.refreshDue(),
	})
	if err != nil {
		s.log.Error("Cycle failed to run", logger.ErrorField(err))
		return
	}
	s.notifyFailures(report)
}

// refreshDue reports whether the metadata refresh schedule has come due
// since the last cycle, advancing the schedule when it has.
func (s *schedulerService) refreshDue() bool {
	if s.refreshCron == nil {
		return false
	}
	now := time.Now()
	if now.Before(s.nextRefresh) {
		return false
	}
	s.nextRefresh = s.refreshCron.Next(now)
	return true
}

func (s *schedulerService) notifyFailures(report *dto.CycleReport) {
	if s.notifier == nil || !report.HasFailures() {
		return
	}
	if err := s.notifier.SendMessage(telegram.FormatCycleReport(report)); err != nil {
		s.log.Error("Failed to send failure notification", logger.ErrorField(err))
	}
}
