package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"resume-builder/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	ObjectStoreType    string
	LocalStoreDir      string
	PublicBaseURL      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	S3Endpoint         string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SSEKMSKeyID        string
	SubmissionsPrefix  string

	LLMProvider   string
	LLMModel      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAITimeout time.Duration

	DatabaseURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIBaseURL          string
	JWTSecret          string
	JWTTTL             time.Duration

	HandoffTTL     time.Duration
	SessionIdleTTL time.Duration
	ExtractTimeout time.Duration

	UploadRatePerMin int
	UploadBurst      int
}

// Load reads configuration from environment variables with sensible defaults.
// .env files are loaded first for local development and never override the
// real environment.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))

	if env == "production" {
		if dbURL == "" {
			telemetry.Warn("config.missing", map[string]any{"key": "DATABASE_URL"})
		}
		if jwtSecret == "" {
			telemetry.Warn("config.missing", map[string]any{"key": "JWT_SECRET"})
		}
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),

		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		SubmissionsPrefix:  getEnv("SUBMISSIONS_PREFIX", "snips/"),

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "none")),
		LLMModel:      getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAITimeout: getDuration("OPENAI_TIMEOUT", 120*time.Second),

		DatabaseURL: dbURL,

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIBaseURL:          strings.TrimRight(getEnv("UI_BASE_URL", "http://localhost:3000"), "/"),
		JWTSecret:          jwtSecret,
		JWTTTL:             getDuration("JWT_TTL", 24*time.Hour),

		HandoffTTL:     getDuration("HANDOFF_TTL", 30*time.Minute),
		SessionIdleTTL: getDuration("SESSION_IDLE_TTL", 2*time.Hour),
		ExtractTimeout: getDuration("EXTRACT_TIMEOUT", 30*time.Second),

		UploadRatePerMin: getInt("UPLOAD_RATE_PER_MIN", 30),
		UploadBurst:      getInt("UPLOAD_BURST", 10),
	}
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			telemetry.Warn("config.dotenv_failed", map[string]any{"path": path, "err": err})
		}
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		telemetry.Warn("config.invalid_duration", map[string]any{"key": key, "value": raw})
		return def
	}
	return d
}

func getInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return n
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
