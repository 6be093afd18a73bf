package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	AdminToken  string
	CORSOrigin  string
	LogLevel    string
	Debug       bool

	PageSize      int
	IndexCacheTTL time.Duration
	CacheBackend  string
	RedisHost     string
	RedisPort     string
	RedisPasswd   string

	MediaBackend  string
	MediaRoot     string
	S3Region      string
	S3Bucket      string
	MaxImageBytes int64

	RateLimitRPS   float64
	RateLimitBurst int
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"

	MediaLocal = "local"
	MediaS3    = "s3"
)

// Load reads a .env file if present and then builds the Config from env vars.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		// Production sets env vars directly, so a missing file is fine.
		log.Println("No .env file found, reading from environment")
	}

	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://yatube.db"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenTTL:    getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		AdminToken:  getEnv("X_ADMIN_TOKEN", ""),
		CORSOrigin:  getEnv("CORS_ORIGIN", "*"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Debug:       getEnvAsBool("DEBUG", false),

		PageSize:      getEnvAsInt("PAGE_SIZE", 10),
		IndexCacheTTL: getEnvAsDuration("INDEX_CACHE_TTL", 20*time.Second),
		CacheBackend:  getEnv("CACHE_BACKEND", CacheMemory),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPasswd:   getEnv("REDIS_PASSWD", ""),

		MediaBackend:  getEnv("MEDIA_BACKEND", MediaLocal),
		MediaRoot:     getEnv("MEDIA_ROOT", "./media"),
		S3Region:      getEnv("S3_REGION", "us-west-2"),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		MaxImageBytes: int64(getEnvAsInt("MAX_IMAGE_BYTES", 5<<20)),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 1.0/3.0),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 1),
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.AdminToken == "" {
		errs = append(errs, errors.New("X_ADMIN_TOKEN is not set"))
	}
	if c.PageSize < 1 {
		errs = append(errs, errors.New("PAGE_SIZE must be positive"))
	}
	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		errs = append(errs, errors.New("CACHE_BACKEND must be memory or redis"))
	}
	switch c.MediaBackend {
	case MediaLocal:
	case MediaS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 media backend"))
		}
	default:
		errs = append(errs, errors.New("MEDIA_BACKEND must be local or s3"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return defaultVal
}
