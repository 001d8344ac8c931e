package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Maps     MapsConfig
	Pricing  PricingConfig
	Surge    SurgeConfig
	Matching MatchingConfig
	Cache    CacheConfig
	Notify   NotifyConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// MapsConfig holds Google Maps routing configuration.
type MapsConfig struct {
	APIKey string
}

// FareRate holds the per-class fare components, in whole currency units.
type FareRate struct {
	Base      float64
	PerKm     float64
	PerMinute float64
}

// PricingConfig holds the fare table keyed by vehicle class.
type PricingConfig struct {
	Rates map[string]FareRate
}

// SurgeConfig holds surge pricing parameters.
type SurgeConfig struct {
	RadiusKm       float64
	DemandLookback time.Duration
	CacheTTL       time.Duration
}

// MatchingConfig holds driver matching parameters.
type MatchingConfig struct {
	RadiusKm     float64
	CandidateCap int
	MaxResults   int
	CacheTTL     time.Duration
}

// CacheConfig holds cache TTLs and the per-operation time budget.
type CacheConfig struct {
	DriverLocationTTL time.Duration
	IdempotencyTTL    time.Duration
	OpTimeout         time.Duration
}

// NotifyConfig holds notification dispatcher configuration.
type NotifyConfig struct {
	BufferSize int
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "swiftride"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "swiftride"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Maps: MapsConfig{
			APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		Pricing: PricingConfig{
			Rates: map[string]FareRate{
				"CAR":        {Base: 50, PerKm: 15, PerMinute: 3},
				"AUTO":       {Base: 30, PerKm: 10, PerMinute: 2},
				"MOTORCYCLE": {Base: 20, PerKm: 8, PerMinute: 1.5},
			},
		},
		Surge: SurgeConfig{
			RadiusKm:       getFloatEnv("SURGE_RADIUS_KM", 2),
			DemandLookback: getDurationEnv("SURGE_DEMAND_LOOKBACK", 10*time.Minute),
			CacheTTL:       getDurationEnv("SURGE_CACHE_TTL", 5*time.Minute),
		},
		Matching: MatchingConfig{
			RadiusKm:     getFloatEnv("MATCHING_RADIUS_KM", 5),
			CandidateCap: getIntEnv("MATCHING_CANDIDATE_CAP", 50),
			MaxResults:   getIntEnv("MATCHING_MAX_RESULTS", 10),
			CacheTTL:     getDurationEnv("MATCHING_CACHE_TTL", 30*time.Second),
		},
		Cache: CacheConfig{
			DriverLocationTTL: getDurationEnv("CACHE_DRIVER_LOCATION_TTL", 60*time.Second),
			IdempotencyTTL:    getDurationEnv("CACHE_IDEMPOTENCY_TTL", 24*time.Hour),
			OpTimeout:         getDurationEnv("CACHE_OP_TIMEOUT", 200*time.Millisecond),
		},
		Notify: NotifyConfig{
			BufferSize: getIntEnv("NOTIFY_BUFFER_SIZE", 256),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
