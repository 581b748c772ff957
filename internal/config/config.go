package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	LogFile   string

	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	BlobBackend    string
	BlobRoot       string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AlertChannel  string

	RegistryURL    string
	RegistryAPIKey string

	ISRCCountry    string
	ISRCRegistrant string
	UPCPrefix      string
	HomeCountry    string

	WorkerConcurrency int
	PolicyFile        string
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", constants.DefaultPort),
		DBPath:    getEnv("DB_PATH", constants.DefaultDBPath),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),

		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", constants.DefaultLogMaxSizeMB),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", constants.DefaultLogMaxBackups),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", constants.DefaultLogMaxAgeDays),

		BlobBackend:    getEnv("BLOB_BACKEND", constants.DefaultBlobBackend),
		BlobRoot:       getEnv("BLOB_ROOT", constants.DefaultBlobRoot),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		AlertChannel:  getEnv("ALERT_CHANNEL", constants.DefaultAlertChannel),

		RegistryURL:    getEnv("REGISTRY_URL", ""),
		RegistryAPIKey: getEnv("REGISTRY_API_KEY", ""),

		ISRCCountry:    strings.ToUpper(getEnv("ISRC_COUNTRY", constants.DefaultISRCCountry)),
		ISRCRegistrant: strings.ToUpper(getEnv("ISRC_REGISTRANT", constants.DefaultISRCRegistrant)),
		UPCPrefix:      getEnv("UPC_PREFIX", constants.DefaultUPCPrefix),
		HomeCountry:    strings.ToUpper(getEnv("HOME_COUNTRY", "")),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", constants.DefaultConcurrency),
		PolicyFile:        getEnv("POLICY_FILE", ""),
	}
}

var (
	countryPattern    = regexp.MustCompile(`^[A-Z]{2}$`)
	registrantPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	upcPrefixPattern  = regexp.MustCompile(`^[0-9]{3}$`)
)

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	// Validate blob backend
	switch c.BlobBackend {
	case constants.BlobBackendLocal:
		if c.BlobRoot == "" {
			errors = append(errors, "BLOB_ROOT cannot be empty for the local backend")
		}
	case constants.BlobBackendMinio:
		if c.MinioEndpoint == "" {
			errors = append(errors, "MINIO_ENDPOINT is required for the minio backend")
		}
		if c.MinioBucket == "" {
			errors = append(errors, "MINIO_BUCKET is required for the minio backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("BLOB_BACKEND must be one of: local, minio, got: %s", c.BlobBackend))
	}

	if c.RegistryURL != "" {
		if u, err := url.ParseRequestURI(c.RegistryURL); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("REGISTRY_URL is not a valid URL: %s", c.RegistryURL))
		}
	}

	// Identifier segments
	if !countryPattern.MatchString(c.ISRCCountry) {
		errors = append(errors, fmt.Sprintf("ISRC_COUNTRY must be 2 letters, got: %s", c.ISRCCountry))
	}
	if !registrantPattern.MatchString(c.ISRCRegistrant) {
		errors = append(errors, fmt.Sprintf("ISRC_REGISTRANT must be 3 letters, got: %s", c.ISRCRegistrant))
	}
	if !upcPrefixPattern.MatchString(c.UPCPrefix) {
		errors = append(errors, fmt.Sprintf("UPC_PREFIX must be 3 digits, got: %s", c.UPCPrefix))
	}
	if c.HomeCountry != "" && !countryPattern.MatchString(c.HomeCountry) {
		errors = append(errors, fmt.Sprintf("HOME_COUNTRY must be 2 letters, got: %s", c.HomeCountry))
	}

	if c.WorkerConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("WORKER_CONCURRENCY must be at least 1, got: %d", c.WorkerConcurrency))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// ApplyPolicy lets an explicit HOME_COUNTRY override the policy's
// home_territory, then records the effective value on c.
func (c *Config) ApplyPolicy(p *Policy) {
	if c.HomeCountry != "" {
		p.HomeTerritory = c.HomeCountry
	}
	c.HomeCountry = p.HomeTerritory
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
