package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Provider names selectable via STUDYDOC_PROVIDER.
const (
	ProviderGemini      = "gemini"
	ProviderHuggingFace = "huggingface"
)

type Config struct {
	HTTPPort string

	// database
	DBDriver string // sqlite or postgres
	DBDSN    string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// blob storage
	BlobBackend string // local or gcs
	UploadDir   string
	GCSBucket   string

	// generation provider
	Provider        string
	GeminiProject   string
	GeminiRegion    string
	GeminiModel     string
	HuggingFaceURL  string
	ProviderTimeout time.Duration

	// pipeline
	Workers   int
	QueueSize int

	// jobs
	ReapSchedule string
	ReapAfter    time.Duration
}

// LoadConfig reads the configuration from the environment. A .env file is
// loaded automatically when present.
func LoadConfig() *Config {
	return &Config{
		HTTPPort: GetEnv("HTTP_PORT", "4001"),

		DBDriver: GetEnv("DB_DRIVER", "sqlite"),
		DBDSN:    GetEnv("DB_DSN", ".db/studydoc.db"),

		RedisAddr:     GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		BlobBackend: GetEnv("BLOB_BACKEND", "local"),
		UploadDir:   GetEnv("UPLOAD_DIR", ".uploads"),
		GCSBucket:   GetEnv("GCS_BUCKET", ""),

		Provider:        GetEnv("STUDYDOC_PROVIDER", ProviderGemini),
		GeminiProject:   GetEnv("GEMINI_PROJECT_ID", ""),
		GeminiRegion:    GetEnv("GEMINI_REGION", "us-central1"),
		GeminiModel:     GetEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		HuggingFaceURL:  GetEnv("HUGGINGFACE_URL", ""),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 60*time.Second),

		Workers:   getEnvInt("PIPELINE_WORKERS", 4),
		QueueSize: getEnvInt("PIPELINE_QUEUE_SIZE", 256),

		ReapSchedule: GetEnv("REAP_SCHEDULE", "@every 5m"),
		ReapAfter:    getEnvDuration("REAP_AFTER", 30*time.Minute),
	}
}

// GetDb opens the configured database.
func GetDb(cnf *Config) *gorm.DB {
	var dialector gorm.Dialector
	switch cnf.DBDriver {
	case "postgres":
		dialector = postgres.Open(cnf.DBDSN)
	default:
		dialector = sqlite.Open(cnf.DBDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to open database: %v", err)
	}

	return db
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("invalid value for %s: %v", key, err)
		return fallback
	}

	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		logrus.Warnf("invalid value for %s: %v", key, err)
		return fallback
	}

	return d
}
