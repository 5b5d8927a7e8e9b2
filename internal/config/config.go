package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Backends accepted by DATA_BACKEND.
var validBackends = []string{"memory", "sqlite", "mongo"}

type Config struct {
	// HTTP Server
	Port string `toml:"port"`

	// Backend selection
	DataBackend string `toml:"data_backend"`

	// SQLite
	SQLiteDBPath string `toml:"sqlite_db_path"`

	// MongoDB
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`

	// Seed list of categories for the memory backend, one per line
	CategoriesFile string `toml:"categories_file"`

	// AMQP
	AMQPURL        string `toml:"amqp_url"`
	AMQPExchange   string `toml:"amqp_exchange"`
	AMQPQueue      string `toml:"amqp_queue"`
	AMQPAlertQueue string `toml:"amqp_alert_queue"`

	// Google Sheets export
	GoogleSpreadsheetID      string `toml:"google_spreadsheet_id"`
	GoogleSheetName          string `toml:"google_sheet_name"`
	GoogleServiceAccountFile string `toml:"google_service_account_file"`
	GoogleServiceAccountJSON string `toml:"-"`

	// Reports
	ForecastMonths int           `toml:"forecast_months"`
	ReportCacheTTL time.Duration `toml:"-"`

	// Worker
	WorkerInterval time.Duration `toml:"-"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// fileDurations carries the duration keys of the TOML file as strings
// ("30s", "5m") since TOML has no duration type.
type fileDurations struct {
	ReportCacheTTL string `toml:"report_cache_ttl"`
	WorkerInterval string `toml:"worker_interval"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:          "8081",
		DataBackend:   "memory",
		SQLiteDBPath:  "./data/bilancio.db",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "bilancio",

		AMQPExchange:   "bilancio",
		AMQPQueue:      "ledger_changes",
		AMQPAlertQueue: "budget_alerts",

		GoogleSheetName: "Forecast",

		ForecastMonths: 6,
		ReportCacheTTL: time.Minute,
		WorkerInterval: 5 * time.Minute,

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from defaults, the optional TOML file named
// by BILANCIO_CONFIG and finally the environment, each layer overriding the
// previous one.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("BILANCIO_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile overlays the values found in a TOML file onto c.
func (c *Config) LoadFile(path string) error {
	var durations fileDurations
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &durations); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var errs []error
	if durations.ReportCacheTTL != "" {
		d, err := time.ParseDuration(durations.ReportCacheTTL)
		if err != nil {
			errs = append(errs, fmt.Errorf("report_cache_ttl: %w", err))
		}
		c.ReportCacheTTL = d
	}
	if durations.WorkerInterval != "" {
		d, err := time.ParseDuration(durations.WorkerInterval)
		if err != nil {
			errs = append(errs, fmt.Errorf("worker_interval: %w", err))
		}
		c.WorkerInterval = d
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.CategoriesFile = getEnv("CATEGORIES_FILE", c.CategoriesFile)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)
	c.AMQPAlertQueue = getEnv("AMQP_ALERT_QUEUE", c.AMQPAlertQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", c.GoogleSheetName)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)

	c.ForecastMonths = getEnvInt("FORECAST_MONTHS", c.ForecastMonths)
	c.ReportCacheTTL = getEnvDuration("REPORT_CACHE_TTL", c.ReportCacheTTL)
	c.WorkerInterval = getEnvDuration("WORKER_INTERVAL", c.WorkerInterval)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// SheetsEnabled reports whether forecast export to Google Sheets is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "mongo" {
		if c.MongoURI == "" {
			problems = append(problems, "MongoDB URI cannot be empty when using mongo backend")
		} else if u, err := url.Parse(c.MongoURI); err != nil || (u.Scheme != "mongodb" && u.Scheme != "mongodb+srv") {
			problems = append(problems, fmt.Sprintf("invalid MongoDB URI '%s': scheme must be 'mongodb' or 'mongodb+srv'", c.MongoURI))
		}
		if c.MongoDatabase == "" {
			problems = append(problems, "MongoDB database name cannot be empty when using mongo backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			problems = append(problems, "Google Sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ForecastMonths < 1 || c.ForecastMonths > 120 {
		problems = append(problems, fmt.Sprintf("invalid forecast months %d: must be between 1 and 120", c.ForecastMonths))
	}

	if c.ReportCacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid report cache TTL %v: cannot be negative", c.ReportCacheTTL))
	}

	if c.WorkerInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid worker interval %v: must be at least 1 second", c.WorkerInterval))
	} else if c.WorkerInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid worker interval %v: must be at most 24 hours", c.WorkerInterval))
	}

	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
