package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/plotsales/internal/config"
	"github.com/mamadbah2/plotsales/internal/domain/models"
)

type fakeClient struct {
	values map[string][]byte
	setErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: make(map[string][]byte)}
}

func (f *fakeClient) Get(ctx context.Context, key string) *goredis.StringCmd {
	data, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(string(data), nil)
}

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *goredis.StatusCmd {
	if f.setErr != nil {
		return goredis.NewStatusResult("", f.setErr)
	}
	f.values[key] = value.([]byte)
	return goredis.NewStatusResult("OK", nil)
}

func TestStore_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := NewStore(client, "plotsales:records", nil)

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	first := models.SalesRecord{ID: "a", ReportType: models.ReportNewSale, ActualPrice: 100, Timestamp: ts}
	second := models.SalesRecord{ID: "b", ReportType: models.ReportFinalPayment, InstallDate: "2024-05-01", Timestamp: ts.Add(time.Minute)}

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	records, err = store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.SalesRecord{first, second}, records)

	reopened := NewStore(client, "plotsales:records", nil)
	again, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, again)

	schedule, err := store.LoadSchedule(ctx)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, "2024-05-01", schedule[0].InstallDate)
}

func TestStore_AppendReportsSetFailure(t *testing.T) {
	client := newFakeClient()
	client.setErr = errors.New("READONLY")
	store := NewStore(client, "k", nil)

	err := store.Append(context.Background(), models.SalesRecord{ID: "a"})
	assert.ErrorContains(t, err, "READONLY")
}

func TestStore_CorruptDocument(t *testing.T) {
	client := newFakeClient()
	client.values["k"] = []byte("{not json")
	store := NewStore(client, "k", nil)

	_, err := store.LoadAll(context.Background())
	assert.Error(t, err)
}

func TestBuildOptions(t *testing.T) {
	opts, err := buildOptions(config.RedisConfig{URL: "redis://:pw@cache:6380/3"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)

	opts, err = buildOptions(config.RedisConfig{Addr: "127.0.0.1:6379", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	_, err = buildOptions(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}
