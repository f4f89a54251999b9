package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL settings for the optional report ledger.
// An empty Host disables the ledger.
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

// Enabled reports whether a database host has been configured.
func (c DatabaseConfig) Enabled() bool { return c.Host != "" }

// MinIOConfig holds object storage settings for archiving final reports.
// An empty Endpoint disables archiving.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether an object storage endpoint has been configured.
func (c MinIOConfig) Enabled() bool { return c.Endpoint != "" }

// LogConfig controls logrus output and file rotation.
type LogConfig struct {
	Level      string
	MaxSizeMB  int
	MaxBackups int
}

// LLMConfig selects the chat model used for report analysis.
type LLMConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Prompt     string
	TimeoutSec int
}

// Timeout returns the configured call bound; zero means unbounded.
func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// SessionConfig controls how long abandoned sessions are kept.
type SessionConfig struct {
	TTLMin           int
	SweepIntervalMin int
}

// TTL returns the age after which an unconfirmed session is swept.
func (c SessionConfig) TTL() time.Duration { return time.Duration(c.TTLMin) * time.Minute }

// SweepInterval returns the period of the stale session sweeper.
func (c SessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMin) * time.Minute
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost       string
	Port          string
	DataRoot      string
	BodyLimitMB   int
	RedactionFile string
	Log           LogConfig
	LLM           LLMConfig
	Session       SessionConfig
	Database      DatabaseConfig
	MinIO         MinIOConfig
}

// DefaultPrompt asks the model for a plain-language reading of the report.
const DefaultPrompt = "Eres un asistente que explica informes a personas sin formación técnica. " +
	"Analiza el siguiente informe anonimizado y redacta un resumen claro y sencillo en español, " +
	"explicando los hallazgos principales, los términos técnicos y las recomendaciones que contenga. " +
	"No intentes deducir datos personales que hayan sido ocultados."

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:       getEnv("APP_HOST", "localhost:8080"),
		Port:          getEnv("PORT", "8080"),
		DataRoot:      getEnv("DATA_ROOT", ""),
		BodyLimitMB:   getEnvInt("BODY_LIMIT_MB", 32),
		RedactionFile: getEnv("REDACTION_FILE", ""),
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		},
		LLM: LLMConfig{
			Provider:   getEnv("LLM_PROVIDER", "gemini"),
			Model:      getEnv("LLM_MODEL", "gemini-2.0-flash"),
			APIKey:     getEnv("LLM_API_KEY", ""),
			BaseURL:    getEnv("LLM_BASE_URL", ""),
			Prompt:     getEnv("LLM_PROMPT", DefaultPrompt),
			TimeoutSec: getEnvInt("LLM_TIMEOUT_SEC", 300),
		},
		Session: SessionConfig{
			TTLMin:           getEnvInt("SESSION_TTL_MIN", 24*60),
			SweepIntervalMin: getEnvInt("SESSION_SWEEP_INTERVAL_MIN", 60),
		},
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
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
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
