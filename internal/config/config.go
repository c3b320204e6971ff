package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	JWTTTL             time.Duration
	AppEnv             string
	EnableDocs         bool
	CORSAllowedOrigins string

	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	SignupCreditGrant       int
	ContributionCreditGrant int
	ContributeSkillURL      string

	StoreTimeout   time.Duration
	ScoringTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          jwtSecret,
		JWTTTL:             time.Duration(getEnvInt("JWT_TTL_MINUTES", 24*60)) * time.Minute,
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:         getEnvBool("ENABLE_API_DOCS", false),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),

		SignupCreditGrant:       getEnvInt("SIGNUP_CREDIT_GRANT", 5),
		ContributionCreditGrant: getEnvInt("CONTRIBUTION_CREDIT_GRANT", 1),
		ContributeSkillURL:      getEnv("CONTRIBUTE_SKILL_URL", "/skills/new"),

		StoreTimeout:   getEnvDuration("STORE_TIMEOUT", 10*time.Second),
		ScoringTimeout: getEnvDuration("SCORING_TIMEOUT", 10*time.Second),
	}
	if cfg.SignupCreditGrant < 0 || cfg.ContributionCreditGrant < 0 {
		return nil, fmt.Errorf("credit grants must not be negative")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}

// getEnvDuration accepts Go duration strings ("750ms", "10s") or a bare
// number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	if !exists || value == "" {
		return fallback
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		log.Printf("invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

// StorageEnabled reports whether listing image uploads can be served.
func (c *Config) StorageEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseBucket != "" && c.SupabaseServiceKey != ""
}
