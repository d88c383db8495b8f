package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Workspace  WorkspaceConfig
	FileCache  FileCacheConfig
	Extraction ExtractionConfig
	Storage    StorageConfig
	Ingest     IngestConfig
	Otel       OtelConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	NatsURL     string
	RedisURL    string
}

type DatabaseConfig struct {
	Connection string
}

type WorkspaceConfig struct {
	CacheTTLSeconds int
	CacheMaxEntries int
}

type FileCacheConfig struct {
	// ReadEnabled gates cache lookups and cleanup only. Saves always run so
	// the cache keeps growing even while reuse is switched off.
	ReadEnabled          bool
	CleanupMaxAgeDays    int
	CleanupMinReferences int
}

type ExtractionConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type StorageConfig struct {
	BaseURL string
	APIKey  string
}

type IngestConfig struct {
	TopicName string
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "app.log"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Workspace: WorkspaceConfig{
			CacheTTLSeconds: getEnvAsInt("WORKSPACE_CACHE_TTL_SECONDS", 300),
			CacheMaxEntries: getEnvAsInt("WORKSPACE_CACHE_MAX_ENTRIES", 100),
		},
		FileCache: FileCacheConfig{
			ReadEnabled:          getEnvAsBool("GLOBAL_FILE_CACHE_ENABLED", true),
			CleanupMaxAgeDays:    getEnvAsInt("CACHE_CLEANUP_MAX_AGE_DAYS", 90),
			CleanupMinReferences: getEnvAsInt("CACHE_CLEANUP_MIN_REFERENCES", 2),
		},
		Extraction: ExtractionConfig{
			BaseURL: getEnv("EXTRACTION_BASE_URL", "http://localhost:8090"),
			APIKey:  getEnv("EXTRACTION_API_KEY", ""),
			Model:   getEnv("EXTRACTION_MODEL", "gemini/doubao"),
		},
		Storage: StorageConfig{
			BaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8091"),
			APIKey:  getEnv("STORAGE_API_KEY", ""),
		},
		Ingest: IngestConfig{
			TopicName: getEnv("INGEST_FILES_TOPIC_NAME", "INGEST_FILES"),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "agentfs-backend"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := strings.ToLower(getEnv(key, ""))
	if strValue == "" {
		return fallback
	}
	switch strValue {
	case "true", "1", "yes":
		return true
	}
	return false
}
