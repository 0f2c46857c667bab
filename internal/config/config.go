package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	HTTPAddr    string
	DBDSN       string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RateLimitRequests int
	RateLimitWindow   time.Duration

	TelegramToken string

	RestoreSeatsOnCancel  bool
	RideAutocompleteAfter time.Duration
	SchedulerInterval     time.Duration
	PrivateRequestTTL     time.Duration
	NearbyPrecision       uint
}

func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:   getString("ENV", "development"),
		HTTPAddr:      getString("HTTP_ADDR", ":8080"),
		DBDSN:         os.Getenv("DB_DSN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getString("JWT_ISSUER", "carpool"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitRequests, err = getInt("RATE_LIMIT_REQUESTS", 30); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RestoreSeatsOnCancel, err = getBool("BOOKING_RESTORE_SEATS_ON_CANCEL", false); err != nil {
		return nil, err
	}
	if cfg.RideAutocompleteAfter, err = getDuration("RIDE_AUTOCOMPLETE_AFTER", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SchedulerInterval, err = getDuration("SCHEDULER_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PrivateRequestTTL, err = getDuration("PRIVATE_REQUEST_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	precision, err := getInt("NEARBY_GEOHASH_PRECISION", 4)
	if err != nil {
		return nil, err
	}
	if precision < 1 || precision > 7 {
		return nil, fmt.Errorf("NEARBY_GEOHASH_PRECISION must be between 1 and 7, got %d", precision)
	}
	cfg.NearbyPrecision = uint(precision)

	// Required fields
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	if cfg.RateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}

	log.Printf("Config loaded (env=%s)\n", cfg.Environment)

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
