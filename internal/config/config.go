package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Logger    Logger    `mapstructure:"logger"`
	CoinGecko CoinGecko `mapstructure:"coingecko"`
	Cache     Cache     `mapstructure:"cache"`
	Analysis  Analysis  `mapstructure:"analysis"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CoinGecko holds the configuration for the CoinGecko price oracle.
type CoinGecko struct {
	BaseURL        string  `mapstructure:"base_url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	MaxBatchSize   int     `mapstructure:"max_batch_size"`
}

// Cache holds the configuration for the price cache.
// FreshnessWindowSeconds is how long a quote is served without a new fetch;
// StalenessCeilingSeconds is how old a quote may be and still act as a
// fallback when a live fetch fails.
type Cache struct {
	FreshnessWindowSeconds  int `mapstructure:"freshness_window_seconds"`
	StalenessCeilingSeconds int `mapstructure:"staleness_ceiling_seconds"`
}

// Analysis holds the configuration for portfolio analysis output.
type Analysis struct {
	PercentPrecision int32 `mapstructure:"percent_precision"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "portfolio.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("coingecko.timeout_seconds", 10)
	viper.SetDefault("coingecko.rate_limit", 0.5) // requests per second, free tier
	viper.SetDefault("coingecko.rate_limit_burst", 3)
	viper.SetDefault("coingecko.max_batch_size", 100)
	viper.SetDefault("cache.freshness_window_seconds", 60)
	viper.SetDefault("cache.staleness_ceiling_seconds", 900)
	viper.SetDefault("analysis.percent_precision", 2)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
