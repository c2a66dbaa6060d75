package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/plotsales/internal/analytics"
	"github.com/mamadbah2/plotsales/internal/config"
	"github.com/mamadbah2/plotsales/internal/domain/models"
)

// Client is the subset of the go-redis client used by the store.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// Store persists the whole record collection as one JSON document under a fixed
// key. Every append rewrites the document.
type Store struct {
	client Client
	key    string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewClient connects to redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	opts, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func buildOptions(cfg config.RedisConfig) (*goredis.Options, error) {
	if cfg.URL != "" {
		opt, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	return &goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// NewStore wraps a redis client.
func NewStore(client Client, key string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, key: key, logger: logger}
}

// Append adds a record to the end of the stored collection.
func (s *Store) Append(ctx context.Context, record models.SalesRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)

	data, err := models.MarshalRecords(records)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}

	s.logger.Debug("record collection rewritten", zap.String("key", s.key), zap.Int("records", len(records)))
	return nil
}

// LoadAll returns the stored collection in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]models.SalesRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// LoadSchedule derives the install schedule from the stored collection.
func (s *Store) LoadSchedule(ctx context.Context) ([]models.ScheduleEntry, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.InstallSchedule(records), nil
}

func (s *Store) load(ctx context.Context) ([]models.SalesRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []models.SalesRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return models.UnmarshalRecords(data)
}
