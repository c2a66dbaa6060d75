package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/plotsales/internal/config"
	"github.com/mamadbah2/plotsales/internal/domain/models"
	"github.com/mamadbah2/plotsales/internal/service/reporting"
)

// SnapshotBuilder produces the daily dashboard snapshot.
type SnapshotBuilder interface {
	DailySnapshot(ctx context.Context, now time.Time) (models.DailySnapshot, error)
}

// SnapshotArchive stores snapshots.
type SnapshotArchive interface {
	SaveSnapshot(ctx context.Context, snapshot models.DailySnapshot) error
}

// Notifier delivers the digest text.
type Notifier interface {
	Send(ctx context.Context, req models.OutboundMessageRequest) (string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	builder   SnapshotBuilder
	archive   SnapshotArchive
	notifier  Notifier
	recipient string
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. archive and notifier are
// optional; a nil value skips that step of the digest.
func NewScheduler(cfg config.Config, builder SnapshotBuilder, archive SnapshotArchive, notifier Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Reporting.Timezone, err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		spec:      cfg.Reporting.CronSchedule,
		builder:   builder,
		archive:   archive,
		notifier:  notifier,
		recipient: cfg.WhatsApp.ManagerID,
		logger:    logger,
		now:       func() time.Time { return time.Now().In(loc) },
	}, nil
}

// Start registers the daily digest and starts the cron engine.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.spec))

	if _, err := s.cron.AddFunc(s.spec, s.runDigest); err != nil {
		return fmt.Errorf("schedule daily digest: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.SendDigest(ctx); err != nil {
		s.logger.Error("daily digest failed", zap.Error(err))
	}
}

// SendDigest builds today's snapshot, archives it and notifies the manager.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	s.logger.Info("generating daily digest")

	snapshot, err := s.builder.DailySnapshot(ctx, s.now())
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.SaveSnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to archive snapshot", zap.Error(err), zap.String("date", snapshot.Date))
		}
	}

	if s.notifier == nil || s.recipient == "" {
		return nil
	}

	req := models.OutboundMessageRequest{
		To:      s.recipient,
		Message: reporting.FormatDigest(snapshot),
	}
	if _, err := s.notifier.Send(ctx, req); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	s.logger.Info("daily digest sent", zap.String("date", snapshot.Date))
	return nil
}
