package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends understood by STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendSQLite = "sqlite"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	Env         string
	LogLevel    string
	SwaggerHost string
	JWTSecret   string

	StoreBackend string
	StorePrefix  string
	MySQLDSN     string
	SQLitePath   string
	RedisAddr    string
	RedisDB      int
	RedisPass    string

	IDStrategy      string
	StatusPolicy    string
	ComplaintAccess string
	SubmitDelay     time.Duration
	MediaMaxBytes   int
	// BodyLimit caps request bodies, in echo's size notation ("32M").
	BodyLimit string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Env:         getEnv("ENV", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		StorePrefix:  os.Getenv("STORE_PREFIX"),
		MySQLDSN:     getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/complaints?charset=utf8mb4&parseTime=True&loc=Local"),
		SQLitePath:   getEnv("SQLITE_PATH", "complaintdesk.db"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),

		IDStrategy:      strings.ToLower(getEnv("ID_STRATEGY", "uuid")),
		StatusPolicy:    strings.ToLower(getEnv("STATUS_POLICY", "forward-only")),
		ComplaintAccess: strings.ToLower(getEnv("COMPLAINT_ACCESS", "shared")),
		SubmitDelay:     getEnvDuration("SUBMIT_DELAY", 0),
		MediaMaxBytes:   getEnvInt("MEDIA_MAX_BYTES", 10<<20),
		BodyLimit:       getEnv("BODY_LIMIT", "64M"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
