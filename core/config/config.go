package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"leadbook/core/logger"
)

type ServerConfig struct {
	Host string `mapstructure:"SERVER_HOST"`
	Port int    `mapstructure:"SERVER_PORT"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     int    `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type GoogleAPIConfig struct {
	ClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	ClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string `mapstructure:"GOOGLE_REDIRECT_URI"`
}

type BookingConfig struct {
	// Timezone is the business timezone; slot labels and day bounds are
	// computed in it, not in the server's ambient zone.
	Timezone  string `mapstructure:"BOOKING_TIMEZONE"`
	JWTSecret string `mapstructure:"BOOKING_JWT_SECRET"`
	// SealKey encrypts provider tokens at rest. 32 bytes, hex or raw.
	SealKey      string `mapstructure:"BOOKING_SEAL_KEY"`
	SalesEmail   string `mapstructure:"BOOKING_SALES_EMAIL"`
	MeetingTitle string `mapstructure:"BOOKING_MEETING_TITLE"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	GoogleAPI GoogleAPIConfig `mapstructure:",squash"`
	Booking   BookingConfig   `mapstructure:",squash"`
}

var (
	instance *Config
	once     sync.Once
)

// Load reads .env (when present) plus the process environment into the
// config singleton. Safe to call more than once.
func Load() (*Config, error) {
	var loadErr error
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logger.Debug("config: no .env file, using environment only")
		}

		v := viper.New()
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		v.SetDefault("SERVER_HOST", "0.0.0.0")
		v.SetDefault("SERVER_PORT", 7070)
		v.SetDefault("DB_HOST", "localhost")
		v.SetDefault("DB_PORT", 5432)
		v.SetDefault("DB_USER", "postgres")
		v.SetDefault("DB_PASSWORD", "postgres")
		v.SetDefault("DB_NAME", "leadbook")
		v.SetDefault("REDIS_ADDR", "localhost:6379")
		v.SetDefault("REDIS_PASSWORD", "")
		v.SetDefault("REDIS_DB", 0)
		v.SetDefault("GOOGLE_CLIENT_ID", "")
		v.SetDefault("GOOGLE_CLIENT_SECRET", "")
		v.SetDefault("GOOGLE_REDIRECT_URI", "http://localhost:7070/api/v1/public/calendar-link/callback")
		v.SetDefault("BOOKING_TIMEZONE", "America/New_York")
		v.SetDefault("BOOKING_JWT_SECRET", "")
		v.SetDefault("BOOKING_SEAL_KEY", "")
		v.SetDefault("BOOKING_SALES_EMAIL", "")
		v.SetDefault("BOOKING_MEETING_TITLE", "30-Minute Strategy Call")

		// Bind the keys AutomaticEnv alone cannot discover through Unmarshal.
		for _, key := range []string{
			"SERVER_HOST", "SERVER_PORT",
			"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
			"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
			"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URI",
			"BOOKING_TIMEZONE", "BOOKING_JWT_SECRET", "BOOKING_SEAL_KEY",
			"BOOKING_SALES_EMAIL", "BOOKING_MEETING_TITLE",
		} {
			_ = v.BindEnv(key)
		}

		cfg := &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
		instance = cfg
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return instance, nil
}

// Get returns the config singleton, loading it on first use.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		logger.Error("config: load failed", "error", err)
		return &Config{}
	}
	return cfg
}

// GetSafe returns the singleton plus whether it has been initialized.
func GetSafe() (*Config, bool) {
	return instance, instance != nil
}
