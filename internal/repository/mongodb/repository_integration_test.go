//go:build integration

package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/plotsales/internal/domain/models"
)

// Run with: MONGODB_URI=mongodb://localhost:27017 go test -tags integration ./internal/repository/mongodb
func TestSnapshotArchive(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "plotsales_test_" + time.Now().Format("20060102150405")
	repo, err := NewMongoDBRepository(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.client.Database(dbName).Drop(context.Background())
		_ = repo.Close(context.Background())
	})

	latest, err := repo.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	created := time.Date(2024, 5, 6, 20, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveSnapshot(ctx, models.DailySnapshot{Date: "2024-05-05", Narrative: "old", CreatedAt: created}))
	require.NoError(t, repo.SaveSnapshot(ctx, models.DailySnapshot{Date: "2024-05-06", Narrative: "first", CreatedAt: created}))
	require.NoError(t, repo.SaveSnapshot(ctx, models.DailySnapshot{
		Date:      "2024-05-06",
		Summary:   models.DashboardSummary{RecordCount: 2},
		Narrative: "rerun",
		CreatedAt: created,
	}))

	latest, err = repo.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-05-06", latest.Date)
	assert.Equal(t, "rerun", latest.Narrative)
	assert.Equal(t, 2, latest.Summary.RecordCount)

	count, err := repo.client.Database(dbName).Collection(repo.collName).CountDocuments(ctx, map[string]any{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
