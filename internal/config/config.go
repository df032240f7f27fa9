package config

import (
	"os"
	"strconv"
)

// Storage modes for report files.
const (
	// StorageModeLegacy keeps serving files referenced under the public
	// legacy webroot prefix.
	StorageModeLegacy = "legacy"
	// StorageModeSecure stores new files under the private storage root and
	// serves them exclusively through the gateway services.
	StorageModeSecure = "secure"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// StorageConfig holds report file storage and access-policy settings.
// It is loaded once at startup and treated as immutable afterwards; components
// receive it at construction so tests can supply isolated roots.
type StorageConfig struct {
	// RootDir is the directory new report files are stored under.
	RootDir string
	// LegacyRootDir is the webroot directory behind the historical
	// "/uploads/reports/" references. Read-only from the gateway's view.
	LegacyRootDir string
	// Mode is "legacy" or "secure". Scheme selection for reads is derived
	// from each stored path; Mode is informational and logged at startup.
	Mode string
	// RequireAuthentication forces ownership checks on downloads.
	RequireAuthentication bool
	// DownloadsPerMinute caps downloads per principal (or client address)
	// within a trailing 60s window. Zero disables the limit.
	DownloadsPerMinute int
	// MaxUploadBytes is the upload size ceiling.
	MaxUploadBytes int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	Storage  StorageConfig
}

const defaultMaxUploadBytes = 200 << 20 // 200 MiB

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			RootDir:               getEnv("REPORTS_STORAGE_ROOT", "storage/reports"),
			LegacyRootDir:         getEnv("REPORTS_LEGACY_ROOT", "public/uploads/reports"),
			Mode:                  getEnv("REPORTS_STORAGE_MODE", StorageModeSecure),
			RequireAuthentication: getEnvBool("REPORTS_REQUIRE_AUTHENTICATION", false),
			DownloadsPerMinute:    getEnvInt("REPORTS_DOWNLOADS_PER_MINUTE", 10),
			MaxUploadBytes:        getEnvInt64("REPORTS_MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
