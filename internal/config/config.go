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
)

const (
	BackendMemory = "memory"
	BackendRemote = "remote"

	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port               string
	RequestTimeout     time.Duration
	SecureCookies      bool
	RateLimitPerMinute int

	// Attendance record store
	DataBackend string
	APIBaseURL  string
	APITimeout  time.Duration
	DataDir     string

	// Admin login
	AdminUsername string
	AdminPassword string
	SessionStore  string

	// Database (sessions, audit log)
	SQLiteDBPath string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets report export, disabled when the spreadsheet id is empty
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Payroll
	PayrollConcurrency int

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 7*time.Second),
		SecureCookies:      getEnvBool("SECURE_COOKIES", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),
		APIBaseURL:  getEnv("API_BASE_URL", ""),
		APITimeout:  getEnvDuration("API_TIMEOUT", 10*time.Second),
		DataDir:     getEnv("DATA_DIR", "./data"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		SessionStore:  getEnv("SESSION_STORE", SessionStoreMemory),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/pam-admin.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pam"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "attendance_audit"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Attendance"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		PayrollConcurrency: getEnvInt("PAYROLL_CONCURRENCY", 4),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// AMQPEnabled reports whether status change events go through the broker.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

func (c *Config) SheetsExportEnabled() bool { return c.GoogleSpreadsheetID != "" }

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendRemote}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendRemote {
		if c.APIBaseURL == "" {
			errors = append(errors, "API_BASE_URL is required when using remote backend")
		} else if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http(s) URL", c.APIBaseURL))
		}
	}
	if c.APITimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be positive", c.APITimeout))
	}
	if c.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be positive", c.RequestTimeout))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.AdminUsername == "" || c.AdminPassword == "" {
		errors = append(errors, "admin username and password cannot be empty")
	}

	validStores := []string{SessionStoreMemory, SessionStoreSQLite}
	if !slices.Contains(validStores, c.SessionStore) {
		errors = append(errors, fmt.Sprintf("invalid session store '%s': must be one of %v", c.SessionStore, validStores))
	}

	if c.SessionStore == SessionStoreSQLite || c.AMQPEnabled() {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPEnabled() {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsExportEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.PayrollConcurrency < 1 || c.PayrollConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid payroll concurrency %d: must be between 1 and 64", c.PayrollConcurrency))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
