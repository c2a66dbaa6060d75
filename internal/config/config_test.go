package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_RedisStore(t *testing.T) {
	t.Setenv("ADMIN_KEY", "012820")
	t.Setenv("LEDGER_STORE", "redis")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SALES_REPS", " Hong, Fan ,,")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
	assert.Equal(t, StoreRedis, cfg.Ledger.Store)
	assert.Equal(t, 3*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"Hong", "Fan"}, cfg.Ledger.SalesReps)
	assert.Equal(t, "plotsales:records", cfg.Redis.Key)
	assert.False(t, cfg.WhatsApp.Enabled())
}

func TestLoad_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "ADMIN_KEY=secret\nGOOGLE_SHEETS_CREDENTIALS_PATH=/tmp/creds.json\nGOOGLE_SHEET_DATABASE_ID=sheet-1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range []string{"ADMIN_KEY", "GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID"} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StoreSheets, cfg.Ledger.Store)
	assert.Equal(t, 10*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, "sheet-1", cfg.Sheets.SpreadsheetID)
	assert.Empty(t, cfg.Ledger.SalesReps)
	assert.Equal(t, "SalesData", cfg.Sheets.LedgerTab)
}

func TestLoad_RequiresAdminKey(t *testing.T) {
	t.Setenv("ADMIN_KEY", "")
	t.Setenv("LEDGER_STORE", "redis")

	_, err := Load(missingEnvFile(t))
	assert.EqualError(t, err, "ADMIN_KEY must be provided")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("ADMIN_KEY", "k")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "ten seconds")

	_, err := Load(missingEnvFile(t))
	assert.Error(t, err)
}

func TestValidate_SheetsNeedsCredentials(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "8080"},
		Ledger:    LedgerConfig{AdminKey: "k", Store: StoreSheets, LockTimeout: time.Second},
		Sheets:    SheetsConfig{SpreadsheetID: "id", LedgerTab: "SalesData", ScheduleTab: "InstallSchedule"},
		Reporting: ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "UTC"},
	}
	assert.EqualError(t, cfg.Validate(), "GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")

	cfg.Sheets.CredentialsPath = "/creds.json"
	assert.NoError(t, cfg.Validate())

	cfg.Ledger.Store = "postgres"
	assert.Error(t, cfg.Validate())
}
