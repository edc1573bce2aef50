package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database. DBPath is the sqlite file; ":memory:" is accepted for
	// throwaway runs.
	DBPath string

	// HistoryDebounce is the quiet window the history recorder waits for
	// after the last net-worth change before committing an entry.
	HistoryDebounce time.Duration

	// External endpoints, overridable for tests and offline use.
	RatesURL        string
	CoinGeckoURL    string
	YahooChartURL   string
	PriceCacheTTL   time.Duration
	RefreshInterval time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port:   getEnv("PORT", "8090"),
		Env:    getEnv("ENV", "development"),
		DBPath: getEnv("DB_PATH", "dashworth.db"),

		RatesURL:      getEnv("RATES_URL", "https://api.frankfurter.dev/v1/latest"),
		CoinGeckoURL:  getEnv("COINGECKO_URL", "https://api.coingecko.com/api/v3/simple/price"),
		YahooChartURL: getEnv("YAHOO_CHART_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
	}

	config.HistoryDebounce = getEnvDuration("HISTORY_DEBOUNCE", 3*time.Second)
	config.PriceCacheTTL = getEnvDuration("PRICE_CACHE_TTL", 5*time.Minute)
	config.RefreshInterval = getEnvDuration("RATE_REFRESH_INTERVAL", time.Hour)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, value, defaultValue)
		return defaultValue
	}
	return dur
}
