package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Assistant AssistantConfig
	Review    ReviewConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	AdminToken         string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string // Postgres DSN, empty selects SQLite
	SQLitePath string
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type AssistantConfig struct {
	Provider        string // "openai" or "memory"
	APIKey          string
	BaseURL         string
	Model           string
	PollInitial     time.Duration
	PollMax         time.Duration
	PollTimeout     time.Duration
	VectorStoreName string
}

type ReviewConfig struct {
	PDFDir           string
	EthicistRoleFile string
	PersonaCatalog   string
	MaxRounds        int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			AdminToken:         getEnv("ADMIN_TOKEN", ""),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			SQLitePath: getEnv("REGISTRY_SQLITE_PATH", "data/registry.db"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "change-me"),
			TTL:    getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		},
		Assistant: AssistantConfig{
			Provider:        getEnv("ASSISTANT_PROVIDER", "openai"),
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", ""),
			Model:           getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
			PollInitial:     getEnvAsDuration("RUN_POLL_INITIAL", 500*time.Millisecond),
			PollMax:         getEnvAsDuration("RUN_POLL_MAX", 5*time.Second),
			PollTimeout:     getEnvAsDuration("RUN_POLL_TIMEOUT", 3*time.Minute),
			VectorStoreName: getEnv("VECTOR_STORE_NAME", "Agents4EthicalSE"),
		},
		Review: ReviewConfig{
			PDFDir:           getEnv("PDF_DIR", "./pdf_data_sources"),
			EthicistRoleFile: getEnv("ETHICIST_ROLE_FILE", "agent_role_examples/AI_ethicist.txt"),
			PersonaCatalog:   getEnv("PERSONA_CATALOG", ""),
			MaxRounds:        getEnvAsInt("MAX_ROUNDS", 10),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
