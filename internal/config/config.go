package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string `toml:"port"`
		ReadTimeout  string `toml:"read_timeout"`
		WriteTimeout string `toml:"write_timeout"`
		LogLevel     string `toml:"log_level"`
	} `toml:"server"`

	WeatherAPI struct {
		OpenWeatherAPIKey string `toml:"openweather_api_key"`
		OpenWeatherURL    string `toml:"openweather_url"`
		Timeout           string `toml:"timeout"`
	} `toml:"weather_api"`

	CircuitBreaker struct {
		Threshold int    `toml:"threshold"`
		Timeout   string `toml:"timeout"`
	} `toml:"circuit_breaker"`

	Retry struct {
		MaxRetries int     `toml:"max_retries"`
		Delay      string  `toml:"delay"`
		Multiplier float64 `toml:"multiplier"`
	} `toml:"retry"`

	RateLimit struct {
		RPS   float64 `toml:"rps"`
		Burst int     `toml:"burst"`
	} `toml:"rate_limit"`

	Storage struct {
		Driver string `toml:"driver"`
		Path   string `toml:"path"`
	} `toml:"storage"`

	RecentSearch struct {
		Limit int `toml:"limit"`
	} `toml:"recent_search"`
}

func (c *Config) ReadTimeout() time.Duration  { return parseDuration(c.Server.ReadTimeout) }
func (c *Config) WriteTimeout() time.Duration { return parseDuration(c.Server.WriteTimeout) }
func (c *Config) HTTPTimeout() time.Duration  { return parseDuration(c.WeatherAPI.Timeout) }
func (c *Config) RetryDelay() time.Duration   { return parseDuration(c.Retry.Delay) }
func (c *Config) BreakerTimeout() time.Duration {
	return parseDuration(c.CircuitBreaker.Timeout)
}

// Defaults returns the configuration used when neither a config file nor the
// environment says otherwise.
func Defaults() *Config {
	cfg := &Config{}

	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = "10s"
	cfg.Server.WriteTimeout = "10s"
	cfg.Server.LogLevel = "info"

	cfg.WeatherAPI.OpenWeatherURL = "https://api.openweathermap.org/data/2.5"
	cfg.WeatherAPI.Timeout = "10s"

	cfg.CircuitBreaker.Threshold = 3
	cfg.CircuitBreaker.Timeout = "30s"

	cfg.Retry.MaxRetries = 2
	cfg.Retry.Delay = "500ms"
	cfg.Retry.Multiplier = 2

	// OpenWeatherMap free tier allows 60 calls per minute
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 10

	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Path = "weather.db"

	cfg.RecentSearch.Limit = 10

	return cfg
}

// LoadConfig layers defaults, an optional TOML file named by CONFIG_FILE, and
// environment variables, in that order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.Server.Port = getEnv("FIBER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnv("FIBER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnv("FIBER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", cfg.Server.LogLevel)

	cfg.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", cfg.WeatherAPI.OpenWeatherAPIKey)
	cfg.WeatherAPI.OpenWeatherURL = getEnv("OPENWEATHER_BASE_URL", cfg.WeatherAPI.OpenWeatherURL)
	cfg.WeatherAPI.Timeout = getEnv("HTTP_TIMEOUT", cfg.WeatherAPI.Timeout)

	cfg.CircuitBreaker.Threshold = parseInt(os.Getenv("CIRCUIT_BREAKER_THRESHOLD"), cfg.CircuitBreaker.Threshold)
	cfg.CircuitBreaker.Timeout = getEnv("CIRCUIT_BREAKER_TIMEOUT", cfg.CircuitBreaker.Timeout)

	cfg.Retry.MaxRetries = parseInt(os.Getenv("MAX_RETRIES"), cfg.Retry.MaxRetries)
	cfg.Retry.Delay = getEnv("RETRY_DELAY", cfg.Retry.Delay)
	cfg.Retry.Multiplier = parseFloat(os.Getenv("RETRY_MULTIPLIER"), cfg.Retry.Multiplier)

	cfg.RateLimit.RPS = parseFloat(os.Getenv("RATE_LIMIT_RPS"), cfg.RateLimit.RPS)
	cfg.RateLimit.Burst = parseInt(os.Getenv("RATE_LIMIT_BURST"), cfg.RateLimit.Burst)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Path = getEnv("STORAGE_PATH", cfg.Storage.Path)

	cfg.RecentSearch.Limit = parseInt(os.Getenv("RECENT_SEARCH_LIMIT"), cfg.RecentSearch.Limit)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Storage.Driver == "sqlite" && c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH is required for the sqlite driver")
	}

	if c.WeatherAPI.OpenWeatherAPIKey == "" {
		zap.L().Warn("OPENWEATHER_API_KEY is not set; upstream calls will be rejected")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

// parseInt returns fallback when value is empty or malformed.
func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int, keeping previous value",
			zap.String("value", value), zap.Int("fallback", fallback), zap.Error(err))
		return fallback
	}
	return intValue
}

func parseFloat(value string, fallback float64) float64 {
	if value == "" {
		return fallback
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float, keeping previous value",
			zap.String("value", value), zap.Float64("fallback", fallback), zap.Error(err))
		return fallback
	}
	return floatValue
}
