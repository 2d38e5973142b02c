// Package config centralizes environment- and .env-driven settings for
// the CLI, generalized from _examples/tugsousa-Rumoclaro/backend's
// src/config/config.go (LoadConfig/getEnv pattern) from web-server
// settings (JWT, SMTP, OAuth) to engine settings (reporting currency,
// strategy map path, output directory, default tax rate).
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/tugsousa/taxlots/internal/money"
)

// AppConfig holds the settings the CLI reads at startup.
type AppConfig struct {
	LogLevel string

	// ReportingCurrency is read from REPORTING_CURRENCY and logged at
	// startup. The compute command always uses money.DefaultCZKTable, which
	// converts into CZK whatever this setting says.
	ReportingCurrency string

	// DatabasePath is the SQLite file backing the run-history audit trail.
	DatabasePath string

	// StrategyMapPath is read from STRATEGY_MAP_PATH, naming a JSON file
	// mapping year->strategy (spec.md §6). The compute command does not
	// read it; it takes a strategy-map path only from --strategy-config.
	StrategyMapPath string

	// OutputDir is the writable directory result files are written under
	// (spec.md §6's CLI surface).
	OutputDir string

	// DefaultTaxRate is the illustrative, non-authoritative rate used for
	// the tax-estimate supplement (spec.md §13).
	DefaultTaxRate money.Amount
}

// Cfg is the global instance other packages read after Load runs.
var Cfg *AppConfig

// Load reads configuration from environment variables or a .env file,
// centralizing configuration logic for the CLI the way the teacher's
// LoadConfig centralizes it for the web server.
func Load() {
	if errEnv := godotenv.Load(); errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: no .env file found, relying on OS environment variables")
		} else {
			log.Printf("Warning: error loading .env file: %v, relying on OS environment variables", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully")
	}

	taxRateStr := getEnv("DEFAULT_TAX_RATE", "0.15")
	taxRate, err := money.ParseAmount(taxRateStr)
	if err != nil {
		log.Printf("Invalid DEFAULT_TAX_RATE %q, using 0.15: %v", taxRateStr, err)
		taxRate = money.New("0.15")
	}

	Cfg = &AppConfig{
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ReportingCurrency:  getEnv("REPORTING_CURRENCY", "CZK"),
		DatabasePath:       getEnv("DATABASE_PATH", "./taxlots.db"),
		StrategyMapPath:    getEnv("STRATEGY_MAP_PATH", ""),
		OutputDir:          getEnv("OUTPUT_DIR", "./output"),
		DefaultTaxRate:     taxRate,
	}

	log.Printf("Configuration loaded: ReportingCurrency=%s, DatabasePath=%s, OutputDir=%s",
		Cfg.ReportingCurrency, Cfg.DatabasePath, Cfg.OutputDir)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

