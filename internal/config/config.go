package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"conti/internal/log"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	// Writes allowed per client IP per minute; 0 disables limiting.
	WriteRateLimit int

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// AMQP; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (worker)
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		WriteRateLimit:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/conti.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "conti"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transactions_export"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks the server configuration and reports every problem at once.
func (c *Config) Validate() error {
	return joinProblems(c.problems())
}

// ValidateWorker checks what the export worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	errs := c.problems()
	if c.DataBackend != BackendSQLite {
		errs = append(errs, "export worker requires the sqlite backend to read transactions")
	}
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP URL is required for the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errs = append(errs, "Google Spreadsheet ID is required for the export worker")
	}
	if c.GoogleSheetName == "" {
		errs = append(errs, "Google Sheet name cannot be empty")
	}
	return joinProblems(errs)
}

func (c *Config) problems() []string {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if c.WriteRateLimit < 0 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be zero or positive", c.WriteRateLimit))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	errs = append(errs, c.amqpProblems()...)

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	return errs
}

func (c *Config) amqpProblems() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errs []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errs
}

func joinProblems(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
