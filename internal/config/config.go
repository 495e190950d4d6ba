// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        string
	DatabaseURL string

	SecretKey      string
	AccessTokenTTL time.Duration

	GeminiAPIKey    string
	GenerationModel string
	EmbeddingModel  string
	EmbeddingDim    int
	VectorDBPath    string

	SMTPHost    string
	SMTPPort    int
	SMTPTimeout time.Duration

	AMQPURL string

	AllowedOrigins []string
	AuthRateLimit  int

	ScrapeUseBrowser bool
	ScrapeTimeout    time.Duration

	PublicBaseURL   string
	SenderSignature string

	LogLevel  string
	LogFormat string
}

// Load reads .env (optional) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := &Config{
		Port:             GetString("PORT", "8000"),
		DatabaseURL:      databaseURL(),
		SecretKey:        GetString("SECRET_KEY", ""),
		AccessTokenTTL:   time.Duration(GetInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7)) * time.Minute,
		GeminiAPIKey:     GetString("GEMINI_API_KEY", ""),
		GenerationModel:  GetString("GENERATION_MODEL", "gemini-2.5-flash"),
		EmbeddingModel:   GetString("EMBEDDING_MODEL", "gemini-embedding-001"),
		EmbeddingDim:     GetInt("EMBEDDING_DIM", 768),
		VectorDBPath:     GetString("VECTOR_DB_PATH", "./cold_email_rag.db"),
		SMTPHost:         GetString("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         GetInt("SMTP_PORT", 587),
		SMTPTimeout:      GetDuration("SMTP_TIMEOUT", 15*time.Second),
		AMQPURL:          GetString("AMQP_URL", ""),
		AllowedOrigins:   GetList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		AuthRateLimit:    GetInt("AUTH_RATE_LIMIT", 10),
		ScrapeUseBrowser: GetBool("SCRAPE_USE_BROWSER", true),
		ScrapeTimeout:    GetDuration("SCRAPE_TIMEOUT", 15*time.Second),
		PublicBaseURL:    strings.TrimRight(GetString("PUBLIC_BASE_URL", "http://localhost:8000"), "/"),
		SenderSignature:  GetString("SENDER_SIGNATURE", "The Team"),
		LogLevel:         GetString("LOG_LEVEL", "info"),
		LogFormat:        GetString("LOG_FORMAT", "console"),
	}

	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL (or DB_HOST/DB_NAME) is not set")
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the DB_* parts.
func databaseURL() string {
	if v := GetString("DATABASE_URL", ""); v != "" {
		return v
	}
	host := GetString("DB_HOST", "")
	name := GetString("DB_NAME", "")
	if host == "" || name == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		GetString("DB_USER", "postgres"),
		GetString("DB_PASSWORD", ""),
		host,
		GetString("DB_PORT", "5432"),
		name,
		GetString("DB_SSLMODE", "disable"),
	)
}

func GetString(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	valInt, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return valInt
}

func GetBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

// GetList splits a comma separated value, dropping empty items.
func GetList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
