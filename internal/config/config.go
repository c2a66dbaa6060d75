package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends supported for the sales ledger.
const (
	StoreSheets = "sheets"
	StoreRedis  = "redis"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Ledger    LedgerConfig
	Sheets    SheetsConfig
	Redis     RedisConfig
	Reporting ReportingConfig
	AI        AIConfig
	MongoDB   MongoDBConfig
	WhatsApp  WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level       string
	Development bool
}

// LedgerConfig controls the ingestion and read endpoints.
type LedgerConfig struct {
	AdminKey    string
	Store       string
	LockTimeout time.Duration
	SalesReps   []string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	LedgerTab       string
	ScheduleTab     string
}

// RedisConfig locates the redis instance holding the local record collection.
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	Key      string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey string
	BaseURL      string
}

// MongoDBConfig holds settings for the snapshot archive. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// WhatsAppConfig contains credentials for digest notifications. An empty
// AccessToken disables them.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	ManagerID     string
}

// Enabled reports whether digest notifications can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.ManagerID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	lockTimeout, err := getenvDuration("LEDGER_LOCK_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: strings.EqualFold(os.Getenv("APP_ENV"), "development"),
		},
		Ledger: LedgerConfig{
			AdminKey:    os.Getenv("ADMIN_KEY"),
			Store:       strings.ToLower(getenvWithDefault("LEDGER_STORE", StoreSheets)),
			LockTimeout: lockTimeout,
			SalesReps:   getenvList("SALES_REPS"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			LedgerTab:       getenvWithDefault("SHEETS_LEDGER_TAB", "SalesData"),
			ScheduleTab:     getenvWithDefault("SHEETS_SCHEDULE_TAB", "InstallSchedule"),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Addr:     getenvWithDefault("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Key:      getenvWithDefault("REDIS_RECORDS_KEY", "plotsales:records"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Taipei"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:      getenvWithDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "plotsales"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ManagerID:     os.Getenv("WHATSAPP_MANAGER_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Ledger.AdminKey == "" {
		return errors.New("ADMIN_KEY must be provided")
	}

	if c.Ledger.LockTimeout <= 0 {
		return errors.New("LEDGER_LOCK_TIMEOUT must be positive")
	}

	switch c.Ledger.Store {
	case StoreSheets:
		switch {
		case c.Sheets.CredentialsPath == "":
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		case c.Sheets.SpreadsheetID == "":
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
		case c.Sheets.LedgerTab == "" || c.Sheets.ScheduleTab == "":
			return errors.New("SHEETS_LEDGER_TAB and SHEETS_SCHEDULE_TAB must not be empty")
		}
	case StoreRedis:
		if c.Redis.URL == "" && c.Redis.Addr == "" {
			return errors.New("REDIS_URL or REDIS_ADDR must be provided")
		}
		if c.Redis.Key == "" {
			return errors.New("REDIS_RECORDS_KEY must not be empty")
		}
	default:
		return fmt.Errorf("unsupported LEDGER_STORE %q", c.Ledger.Store)
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.WhatsApp.AccessToken != "" && c.WhatsApp.PhoneNumberID == "" {
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided with WHATSAPP_TOKEN")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
