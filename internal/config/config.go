package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds environment-based settings
type Config struct {
	Environment    string `validate:"oneof=development production test"`
	ServerAddress  string `validate:"required"`
	DatabaseURL    string `validate:"required,url"`
	MigrationsPath string `validate:"required"`
	JWTSecret      string `validate:"required,min=16"`
	LogLevel       string `validate:"oneof=trace debug info warn error"`

	RedisAddress  string `validate:"omitempty,hostname_port"`
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string `validate:"omitempty,url"`

	AladhanBaseURL string        `validate:"required,url"`
	PrayerMethod   int           `validate:"gte=0,lte=99"`
	NotifyLead     time.Duration `validate:"gte=0,lte=1h"`
	TickInterval   time.Duration `validate:"gte=100ms,lte=1m"`
	// TimerIdle is how long an unwatched timer with no reminders to send
	// keeps running after its last request.
	TimerIdle time.Duration `validate:"gte=1m"`
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config from a variable lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Environment:    get("APP_ENV", "production"),
		ServerAddress:  get("SERVER_ADDRESS", ":8080"),
		DatabaseURL:    getenv("DATABASE_URL"),
		MigrationsPath: get("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:      getenv("JWT_SECRET"),
		LogLevel:       get("LOG_LEVEL", "info"),
		RedisAddress:   getenv("REDIS_ADDRESS"),
		RedisUsername:  getenv("REDIS_USERNAME"),
		RedisPassword:  getenv("REDIS_PASSWORD"),
		MQTTBrokerURL:  getenv("MQTT_BROKER_URL"),
		AladhanBaseURL: get("ALADHAN_BASE_URL", "https://api.aladhan.com/v1"),
	}

	var err error
	if cfg.PrayerMethod, err = strconv.Atoi(get("PRAYER_METHOD", "2")); err != nil {
		return nil, fmt.Errorf("PRAYER_METHOD: %w", err)
	}
	if cfg.NotifyLead, err = time.ParseDuration(get("NOTIFY_LEAD", "1m")); err != nil {
		return nil, fmt.Errorf("NOTIFY_LEAD: %w", err)
	}
	if cfg.TickInterval, err = time.ParseDuration(get("TICK_INTERVAL", "1s")); err != nil {
		return nil, fmt.Errorf("TICK_INTERVAL: %w", err)
	}
	if cfg.TimerIdle, err = time.ParseDuration(get("TIMER_IDLE", "30m")); err != nil {
		return nil, fmt.Errorf("TIMER_IDLE: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
