package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Finance backend API
	BackendBaseURL string
	BackendTimeout time.Duration

	// Snapshot persistence
	SnapshotBackend string
	SQLiteDBPath    string

	// AMQP (optional import events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Upload queue
	AcceptedImportTypes []string
	UploadConcurrency   int

	// Google Sheets export (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8082"),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:3333"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),

		SnapshotBackend: getEnv("SNAPSHOT_BACKEND", "memory"),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/gofinances.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "gofinances"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "import_completed"),

		AcceptedImportTypes: getEnvList("ACCEPTED_IMPORT_TYPES", []string{".csv"}),
		UploadConcurrency:   getEnvInt("UPLOAD_CONCURRENCY", 3),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.BackendBaseURL == "" {
		errors = append(errors, "backend base URL cannot be empty")
	} else if parsed, err := url.Parse(c.BackendBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid backend base URL '%s': %v", c.BackendBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid backend base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if c.BackendTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid backend timeout %v: must be at least 1 second", c.BackendTimeout))
	}

	switch c.SnapshotBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite snapshot backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid snapshot backend '%s': must be one of [memory sqlite]", c.SnapshotBackend))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(c.AcceptedImportTypes) == 0 {
		errors = append(errors, "accepted import types cannot be empty")
	}
	for _, ext := range c.AcceptedImportTypes {
		if !strings.HasPrefix(ext, ".") {
			errors = append(errors, fmt.Sprintf("invalid import type '%s': must start with a dot", ext))
		}
	}

	if c.UploadConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid upload concurrency %d: must be at least 1", c.UploadConcurrency))
	} else if c.UploadConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid upload concurrency %d: must be at most 64", c.UploadConcurrency))
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google sheet name cannot be empty when a spreadsheet ID is provided")
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
