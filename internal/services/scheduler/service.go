package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/services/reports"
	"github.com/finbrief/finbrief/internal/services/supervisor"
)

// Service launches the daily briefing on a cron schedule. Scheduled launches
// go through the same report service path as API launches, so the conflict
// and prerequisite rules apply to both.
type Service struct {
	cfg     *common.Config
	reports *reports.Service
	cron    *cron.Cron
	logger  arbor.ILogger
	entryID cron.EntryID
}

func NewService(cfg *common.Config, reportService *reports.Service, logger arbor.ILogger) *Service {
	return &Service{
		cfg:     cfg,
		reports: reportService,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start validates the configured schedule and begins triggering briefings.
// A disabled scheduler starts nothing and returns nil.
func (s *Service) Start() error {
	if !s.cfg.Scheduler.Enabled {
		s.logger.Info().Msg("Briefing scheduler disabled")
		return nil
	}

	if err := common.ValidateSchedule(s.cfg.Scheduler.Schedule); err != nil {
		return fmt.Errorf("invalid briefing schedule: %w", err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Scheduler.Schedule, s.runBriefing)
	if err != nil {
		return fmt.Errorf("failed to schedule briefing: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()

	s.logger.Info().
		Str("schedule", s.cfg.Scheduler.Schedule).
		Msg("Briefing scheduler started")
	return nil
}

// Stop halts the scheduler. Any briefing worker already launched keeps
// running under supervisor management.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Briefing scheduler stopped")
}

func (s *Service) runBriefing() {
	taskID, err := s.reports.StartBriefing(context.Background(), reports.BriefingParams{})
	switch {
	case err == nil:
		s.logger.Info().Str("task_id", taskID).Msg("Scheduled briefing launched")
	case errors.Is(err, supervisor.ErrConflict):
		// A briefing for today is already running; nothing to do.
		s.logger.Info().Str("task_id", taskID).Msg("Scheduled briefing skipped, task already running")
	default:
		s.logger.Error().Err(err).Msg("Scheduled briefing launch failed")
	}
}
