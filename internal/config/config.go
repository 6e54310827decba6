package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all service settings, populated from the environment.
type AppConfig struct {
	Port            string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// ThingSpeak channel feeds.
	ThingSpeakBaseURL    string `envconfig:"THINGSPEAK_BASE_URL" default:"https://api.thingspeak.com" validate:"required,url"`
	ThingSpeakReadAPIKey string `envconfig:"THINGSPEAK_READ_API_KEY"`
	ThingSpeakResults    int    `envconfig:"THINGSPEAK_RESULTS" default:"800" validate:"min=1,max=8000"`

	// Stations are ThingSpeak channel ids.
	Stations      []string      `envconfig:"STATIONS" default:"159150,196384,178434" validate:"min=1,dive,required,numeric"`
	IgnoredFields []string      `envconfig:"IGNORED_FIELDS" default:"field5,field6"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s" validate:"gt=0"`

	// RefreshInterval controls how often every station feed is fetched.
	RefreshInterval    time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m" validate:"gte=1m"`
	RefreshConcurrency int           `envconfig:"REFRESH_CONCURRENCY" default:"4" validate:"min=1,max=64"`

	// In-memory store retention.
	StoreMaxHistory int           `envconfig:"STORE_MAX_HISTORY" default:"800" validate:"min=0"` // samples per series (0 = unlimited)
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"0s" validate:"min=0"`     // max sample age (0 = unlimited)

	// CacheTTL bounds how long a report is served without recomputation (0 = until next refresh).
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"15m" validate:"min=0"`

	// Alert publishing is disabled when no brokers are configured.
	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	KafkaAlertTopic string   `envconfig:"KAFKA_ALERT_TOPIC" default:"weather-alerts" validate:"required_with=KafkaBrokers"`
}

// AlertsEnabled reports whether alerts are published to Kafka.
func (c *AppConfig) AlertsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

var validate = validator.New()

// Load reads configuration from the environment, after loading a .env file if present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
