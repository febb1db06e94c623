package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Journal   Journal   `mapstructure:"journal"`
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	PriceFeed PriceFeed `mapstructure:"pricefeed"`
}

// Journal holds the portfolio defaults used until the user saves settings.
type Journal struct {
	StartDate      string  `mapstructure:"start_date"`
	InitialBalance float64 `mapstructure:"initial_balance"`
	QuoteCurrency  string  `mapstructure:"quote_currency"`
}

// PriceFeed holds the configuration for the market price lookup.
type PriceFeed struct {
	BaseURL        string        `mapstructure:"base_url"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
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

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error: defaults and the environment apply.
func LoadConfig(path string) (config Config, err error) {
	// .env is optional; values already in the environment win
	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	SetDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, nil
}

// SetDefaults registers a default for every key so AutomaticEnv can see them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("journal.start_date", "")
	v.SetDefault("journal.initial_balance", 0)
	v.SetDefault("journal.quote_currency", "USDT")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.dsn", "journal.db")

	v.SetDefault("pricefeed.base_url", "https://api.binance.com/api/v3")
	v.SetDefault("pricefeed.rate_limit", 10)      // requests per second
	v.SetDefault("pricefeed.rate_limit_burst", 5) // burst size
	v.SetDefault("pricefeed.timeout", 10*time.Second)
}
