package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ledger drivers.
const (
	LedgerSQLite = "sqlite"
	LedgerSheets = "sheets"
)

// MaxResultLimit is the largest accepted RESULT_LIMIT.
const MaxResultLimit = 5

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string
	LLMTimeout   time.Duration

	CatalogDBPath string
	CatalogWatch  bool
	BrandsFile    string

	LedgerDriver          string
	LedgerDBPath          string
	SecuritySheetID       string
	SecuritySheetRange    string
	GoogleCredentialsFile string
	LedgerTimeout         time.Duration

	LineChannelSecret      string
	LineChannelAccessToken string

	HotSheetURL  string
	TechSheetURL string

	APIPort     string
	AskAPIToken string
	LogLevel    slog.Level
	LogFormat   string

	ResultLimit      int
	TabularThreshold int
}

// LineEnabled reports whether both LINE channel credentials are set.
func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelAccessToken != ""
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:             getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMModelName:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:              getEnv("LLM_API_KEY", ""),
		CatalogDBPath:          getEnv("CATALOG_DB_PATH", "./data/catalog.db"),
		BrandsFile:             getEnv("BRANDS_FILE", ""),
		LedgerDriver:           strings.ToLower(getEnv("LEDGER_DRIVER", LedgerSQLite)),
		LedgerDBPath:           getEnv("LEDGER_DB_PATH", "./data/ledger.db"),
		SecuritySheetID:        getEnv("SECURITY_SHEET_ID", ""),
		SecuritySheetRange:     getEnv("SECURITY_SHEET_RANGE", "Sheet1"),
		GoogleCredentialsFile:  getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		HotSheetURL:            getEnv("HOT_SHEET_URL", ""),
		TechSheetURL:           getEnv("TECH_SHEET_URL", ""),
		APIPort:                getEnv("API_PORT", getEnv("PORT", "9000")),
		AskAPIToken:            getEnv("ASK_API_TOKEN", ""),
		LogFormat:              strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.LedgerTimeout, err = getDuration("LEDGER_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CatalogWatch, err = getBool("CATALOG_WATCH", false); err != nil {
		return nil, err
	}
	if cfg.ResultLimit, err = getPositiveInt("RESULT_LIMIT", MaxResultLimit); err != nil {
		return nil, err
	}
	if cfg.ResultLimit > MaxResultLimit {
		return nil, fmt.Errorf("RESULT_LIMIT must be at most %d, got %d", MaxResultLimit, cfg.ResultLimit)
	}
	if cfg.TabularThreshold, err = getPositiveInt("TABULAR_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR: %w", err)
	}

	// Validate enumerations and driver-specific requirements
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	switch cfg.LedgerDriver {
	case LedgerSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.LedgerDBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	case LedgerSheets:
		if cfg.SecuritySheetID == "" {
			return nil, fmt.Errorf("SECURITY_SHEET_ID is required when LEDGER_DRIVER=sheets")
		}
	default:
		return nil, fmt.Errorf("LEDGER_DRIVER must be sqlite or sheets, got %q", cfg.LedgerDriver)
	}
	if (cfg.LineChannelSecret == "") != (cfg.LineChannelAccessToken == "") {
		return nil, fmt.Errorf("LINE_CHANNEL_SECRET and LINE_CHANNEL_ACCESS_TOKEN must be set together")
	}

	// Create the catalog directory so the builder and watcher have somewhere to look
	if err := os.MkdirAll(filepath.Dir(cfg.CatalogDBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}
