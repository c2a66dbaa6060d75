package ledger

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/mamadbah2/plotsales/internal/config"
	"github.com/mamadbah2/plotsales/internal/domain/models"
)

// ErrUnauthorized indicates a missing or incorrect admin key.
var ErrUnauthorized = errors.New("invalid admin key")

// ErrLockTimeout indicates the write lock could not be acquired in time. The
// record was not written.
var ErrLockTimeout = errors.New("ledger busy, write lock not acquired")

// Store is the record persistence used by the ledger.
type Store interface {
	Append(ctx context.Context, record models.SalesRecord) error
	LoadAll(ctx context.Context) ([]models.SalesRecord, error)
	LoadSchedule(ctx context.Context) ([]models.ScheduleEntry, error)
}

// Service serializes submissions into the store and gates reads behind the
// shared admin key.
type Service struct {
	store       Store
	adminKey    string
	reps        models.SalesReps
	lock        *semaphore.Weighted
	lockTimeout time.Duration
	logger      *zap.Logger
}

// NewService constructs the ledger service.
func NewService(store Store, cfg config.LedgerConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.LockTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		store:       store,
		adminKey:    cfg.AdminKey,
		reps:        models.SalesReps(cfg.SalesReps),
		lock:        semaphore.NewWeighted(1),
		lockTimeout: timeout,
		logger:      logger,
	}
}

// Submit validates a form payload and appends the resulting record. Concurrent
// submissions are serialized; a submission that cannot take the lock within the
// configured wait fails with ErrLockTimeout without writing.
func (s *Service) Submit(ctx context.Context, in models.RecordInput) (models.SalesRecord, error) {
	if err := s.reps.Check(in); err != nil {
		return models.SalesRecord{}, err
	}
	record, err := models.NewRecord(in)
	if err != nil {
		return models.SalesRecord{}, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := s.lock.Acquire(lockCtx, 1); err != nil {
		s.logger.Warn("write lock not acquired", zap.String("record_id", record.ID), zap.Duration("timeout", s.lockTimeout))
		return models.SalesRecord{}, ErrLockTimeout
	}
	defer s.lock.Release(1)

	if err := s.store.Append(ctx, record); err != nil {
		return models.SalesRecord{}, fmt.Errorf("append record %s: %w", record.ID, err)
	}

	s.logger.Info("record appended",
		zap.String("record_id", record.ID),
		zap.String("report_type", string(record.ReportType)),
		zap.String("sales_rep", record.SalesRep),
		zap.Float64("actual_price", record.ActualPrice))
	return record, nil
}

// Authorize checks the shared admin key.
func (s *Service) Authorize(key string) error {
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Load returns every stored record when the key is valid.
func (s *Service) Load(ctx context.Context, key string) ([]models.SalesRecord, error) {
	if err := s.Authorize(key); err != nil {
		return nil, err
	}
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return records, nil
}

// Schedule returns the install schedule when the key is valid.
func (s *Service) Schedule(ctx context.Context, key string) ([]models.ScheduleEntry, error) {
	if err := s.Authorize(key); err != nil {
		return nil, err
	}
	entries, err := s.store.LoadSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return entries, nil
}

// Records loads the full snapshot for internal consumers that are already trusted.
func (s *Service) Records(ctx context.Context) ([]models.SalesRecord, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return records, nil
}
