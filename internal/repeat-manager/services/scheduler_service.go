package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	syncJobName = "repeat_sync"
	syncJobTag  = "repeat_sync"
)

var ErrNotScheduled = errors.New("sync job is not scheduled")

// CycleRunner is what the scheduler triggers.
type CycleRunner interface {
	RunCycle(ctx context.Context) Report
}

// SchedulerService fires one sync cycle per cron tick. Overlapping ticks
// are rescheduled rather than run concurrently.
type SchedulerService struct {
	Scheduler  gocron.Scheduler
	Runner     CycleRunner
	CronExpr   string
	log        zerolog.Logger
	appContext context.Context

	mu  sync.Mutex
	job gocron.Job
}

// NewSchedulerService evaluates cronExpr on loc's wall clock. clock may be
// nil for the real clock.
func NewSchedulerService(ctx context.Context, runner CycleRunner, cronExpr string, loc *time.Location, clock clockwork.Clock, log zerolog.Logger) (*SchedulerService, error) {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc), gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &SchedulerService{
		Scheduler:  s,
		Runner:     runner,
		CronExpr:   cronExpr,
		log:        log,
		appContext: ctx,
	}, nil
}

func (s *SchedulerService) Start() error {
	s.log.Info().Str("cron", s.CronExpr).Msg("scheduler starting")
	s.Scheduler.Start()
	if err := s.ScheduleSync(); err != nil {
		return err
	}
	if next, err := s.NextRun(); err == nil {
		s.log.Info().Time("next_run", next).Msg("scheduler started")
	}
	return nil
}

func (s *SchedulerService) Stop() {
	s.log.Info().Msg("scheduler stopping")
	if err := s.Scheduler.Shutdown(); err != nil {
		s.log.Error().Err(err).Msg("error shutting down gocron scheduler")
		return
	}
	s.log.Info().Msg("gocron scheduler shut down")
}

// ScheduleSync (re)registers the single sync job.
func (s *SchedulerService) ScheduleSync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Scheduler.RemoveByTags(syncJobTag)
	s.job = nil

	job, err := s.Scheduler.NewJob(
		gocron.CronJob(s.CronExpr, false),
		gocron.NewTask(s.runSync),
		gocron.WithName(syncJobName),
		gocron.WithTags(syncJobTag),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sync job with cron %q: %w", s.CronExpr, err)
	}
	s.job = job
	s.log.Debug().Str("job_id", job.ID().String()).Msg("sync job scheduled")
	return nil
}

// Refresh drops and re-adds the sync job with the same CronExpr, so its next
// run is recomputed from the current clock. It does not reread settings.
func (s *SchedulerService) Refresh() error { return s.ScheduleSync() }

// NextRun reports when the sync job fires next.
func (s *SchedulerService) NextRun() (time.Time, error) {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	if job == nil {
		return time.Time{}, ErrNotScheduled
	}
	return job.NextRun()
}

func (s *SchedulerService) runSync() {
	s.log.Info().Msg("cron trigger fired")
	report := s.Runner.RunCycle(s.appContext)
	if report.QueryFailed() {
		s.log.Error().Str("run_id", report.RunID).Msg("scheduled sync could not query templates")
	}
}
