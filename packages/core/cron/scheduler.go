package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"rankbot-api/packages/core/services"
)

const DefaultSchedule = "0 */15 * * * *"

type Scheduler struct {
	cron                  *cron.Cron
	schedule              string
	autoValidationService *services.AutoValidationService
	logger                zerolog.Logger
}

// printfLogger adapts zerolog to the cron Printf logger.
type printfLogger struct {
	logger zerolog.Logger
}

func (p printfLogger) Printf(format string, args ...interface{}) {
	p.logger.Debug().Msgf(format, args...)
}

func NewScheduler(autoValidationService *services.AutoValidationService, schedule string, logger zerolog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	logger = logger.With().Str("component", "scheduler").Logger()
	c := cron.New(cron.WithSeconds(), cron.WithLogger(cron.VerbosePrintfLogger(printfLogger{logger: logger})))

	return &Scheduler{
		cron:                  c,
		schedule:              schedule,
		autoValidationService: autoValidationService,
		logger:                logger,
	}
}

// Start registers the jobs and starts the scheduler. It does nothing when
// auto-validation is disabled.
func (s *Scheduler) Start() error {
	if !s.autoValidationService.Enabled() {
		s.logger.Info().Msg("auto-validation disabled, scheduler not started")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runAutoValidation); err != nil {
		s.logger.Error().Err(err).Str("schedule", s.schedule).Msg("failed to schedule auto-validation job")
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runAutoValidation() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expired, err := s.autoValidationService.GetExpiredMatchesCount(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count expired matches")
		return
	}
	if expired == 0 {
		s.logger.Debug().Msg("no expired matches to validate")
		return
	}

	settled, err := s.autoValidationService.ValidateExpiredMatches(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("auto-validation failed")
		return
	}
	s.logger.Info().Int64("expired", expired).Int("settled", settled).Msg("auto-validation job completed")
}

// RunNow runs the auto-validation job synchronously.
func (s *Scheduler) RunNow() {
	s.runAutoValidation()
}
