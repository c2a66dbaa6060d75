package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/plotsales/internal/analytics"
	"github.com/mamadbah2/plotsales/internal/config"
	"github.com/mamadbah2/plotsales/internal/domain/models"
)

type memoryStore struct {
	mu       sync.Mutex
	records  []models.SalesRecord
	entered  chan struct{}
	release  chan struct{}
	failLoad bool
}

func (m *memoryStore) Append(ctx context.Context, record models.SalesRecord) error {
	if m.entered != nil {
		m.entered <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStore) LoadAll(ctx context.Context) ([]models.SalesRecord, error) {
	if m.failLoad {
		return nil, errors.New("sheet unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SalesRecord(nil), m.records...), nil
}

func (m *memoryStore) LoadSchedule(ctx context.Context) ([]models.ScheduleEntry, error) {
	records, err := m.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.InstallSchedule(records), nil
}

func input(rep string) models.RecordInput {
	return models.RecordInput{
		ReportType:     models.ReportNewSale,
		Date:           "2024-03-01",
		SalesRep:       rep,
		ProductType:    models.ProductLifeSeat,
		BuyerName:      "Chen",
		ActualPrice:    models.Amount(1000),
		ReceivedAmount: models.Amount(400),
		InstallDate:    "2024-06-01",
	}
}

func ledgerConfig(timeout time.Duration) config.LedgerConfig {
	return config.LedgerConfig{AdminKey: "012820", LockTimeout: timeout}
}

func TestSubmit_AppendsRecord(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, ledgerConfig(time.Second), nil)

	rec, err := svc.Submit(context.Background(), input("Hong"))
	require.NoError(t, err)
	assert.Equal(t, 600.0, rec.BalanceAmount)
	require.Len(t, store.records, 1)
	assert.Equal(t, rec, store.records[0])
}

func TestSubmit_ValidationErrorDoesNotWrite(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, ledgerConfig(time.Second), nil)

	in := input(models.SalesRepOther)
	_, err := svc.Submit(context.Background(), in)

	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Empty(t, store.records)
}

func TestSubmit_KnownRepRoster(t *testing.T) {
	store := &memoryStore{}
	cfg := ledgerConfig(time.Second)
	cfg.SalesReps = []string{"Hong", "Fan"}
	svc := NewService(store, cfg, nil)

	_, err := svc.Submit(context.Background(), input("Stranger"))
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "salesRep", verr.Field)

	_, err = svc.Submit(context.Background(), input("Fan"))
	require.NoError(t, err)

	in := input(models.SalesRepOther)
	in.CustomSalesRep = "Stranger"
	rec, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Stranger", rec.SalesRep)
	assert.Len(t, store.records, 2)
}

func TestSubmit_LockTimeoutGatesWrite(t *testing.T) {
	store := &memoryStore{entered: make(chan struct{}, 1), release: make(chan struct{})}
	svc := NewService(store, ledgerConfig(50*time.Millisecond), nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), input("Hong"))
		done <- err
	}()
	<-store.entered

	store.entered = nil
	_, err := svc.Submit(context.Background(), input("Fan"))
	assert.ErrorIs(t, err, ErrLockTimeout)

	close(store.release)
	require.NoError(t, <-done)

	records, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Hong", records[0].SalesRep)
}

func TestSubmit_SerializesConcurrentWriters(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, ledgerConfig(time.Second), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), input("Hong"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, store.records, 20)
}

func TestAuthorize(t *testing.T) {
	svc := NewService(&memoryStore{}, ledgerConfig(time.Second), nil)

	assert.NoError(t, svc.Authorize("012820"))
	assert.ErrorIs(t, svc.Authorize(""), ErrUnauthorized)
	assert.ErrorIs(t, svc.Authorize("012821"), ErrUnauthorized)
}

func TestLoadAndSchedule(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, ledgerConfig(time.Second), nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, input("Hong"))
	require.NoError(t, err)

	_, err = svc.Load(ctx, "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	records, err := svc.Load(ctx, "012820")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	schedule, err := svc.Schedule(ctx, "012820")
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, "2024-06-01", schedule[0].InstallDate)

	store.failLoad = true
	_, err = svc.Load(ctx, "012820")
	assert.Error(t, err)
}
