package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/service/herd"
)

// Graduator runs the calf graduation batch across farms.
type Graduator interface {
	GraduateAll(ctx context.Context) ([]herd.GraduationReport, error)
}

// DigestSender delivers a farm's daily digest.
type DigestSender interface {
	SendDigest(ctx context.Context, farmID, to string) (string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	graduator Graduator
	digests   DigestSender
	cfg       config.SchedulerConfig
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance. digests may be nil, in which
// case no digest job is registered.
func NewScheduler(cfg config.SchedulerConfig, graduator Graduator, digests DigestSender, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(cfg.Location()))

	return &Scheduler{
		cron:      c,
		graduator: graduator,
		digests:   digests,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.GraduationCron, s.RunGraduation); err != nil {
		return fmt.Errorf("schedule graduation batch: %w", err)
	}

	if s.digests != nil && len(s.cfg.DigestFarmIDs) > 0 {
		if _, err := s.cron.AddFunc(s.cfg.DigestCron, s.SendDigests); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	} else {
		s.logger.Info("digest job disabled")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunGraduation graduates every calf that has reached maturity.
func (s *Scheduler) RunGraduation() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	reports, err := s.graduator.GraduateAll(ctx)
	if err != nil {
		s.logger.Error("graduation batch failed", zap.Error(err))
	}

	var graduated, failed int
	for _, r := range reports {
		graduated += len(r.Graduated)
		failed += len(r.Failed)
	}
	s.logger.Info("graduation batch finished",
		zap.Int("farms", len(reports)),
		zap.Int("graduated", graduated),
		zap.Int("failed", failed))
}

// SendDigests sends the daily digest of every configured farm.
func (s *Scheduler) SendDigests() {
	for _, farmID := range s.cfg.DigestFarmIDs {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if _, err := s.digests.SendDigest(ctx, farmID, s.cfg.DigestRecipient); err != nil {
			s.logger.Error("failed to send digest", zap.String("farm_id", farmID), zap.Error(err))
		} else {
			s.logger.Info("digest sent successfully", zap.String("farm_id", farmID))
		}
		cancel()
	}
}
