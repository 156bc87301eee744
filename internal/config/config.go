package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"performa/internal/llm"
)

type Config struct {
	AppEnv string
	Port   string

	DB          DBConfig
	AutoMigrate bool

	RedisAddr   string
	KafkaBroker string

	JWTSecret string

	WebAuthn WebAuthnConfig
	LLM      llm.Config

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

type WebAuthnConfig struct {
	RPID          string
	RPDisplayName string
	RPOrigins     []string
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads the process environment once. Call godotenv.Load before it to
// pick up a local .env file.
func Load() (Config, error) {
	cfg := Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "3000"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "performa"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		AutoMigrate: getBool("DB_AUTO_MIGRATE", false),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		WebAuthn: WebAuthnConfig{
			RPID:          getEnv("WEBAUTHN_RP_ID", "localhost"),
			RPDisplayName: getEnv("WEBAUTHN_RP_NAME", "Performa"),
			RPOrigins:     splitList(getEnv("WEBAUTHN_RP_ORIGINS", "http://localhost:3000")),
		},
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	llmCfg, err := loadLLM()
	if err != nil {
		return Config{}, err
	}
	cfg.LLM = llmCfg

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func loadLLM() (llm.Config, error) {
	provider := llm.Provider(strings.ToLower(getEnv("LLM_PROVIDER", string(llm.ProviderNone))))

	cfg := llm.Config{
		Provider:    provider,
		BaseURL:     os.Getenv("LLM_BASE_URL"),
		MaxTokens:   getInt("LLM_MAX_TOKENS", 1024),
		Temperature: getFloat("LLM_TEMPERATURE", 0.3),
		Timeout:     30 * time.Second,
	}

	switch provider {
	case llm.ProviderNone:
	case llm.ProviderOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.Model = getEnv("OPENAI_MODEL", getEnv("LLM_MODEL", "gpt-4o-mini"))
	case llm.ProviderAnthropic:
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		cfg.Model = getEnv("ANTHROPIC_MODEL", getEnv("LLM_MODEL", "claude-3-5-haiku-latest"))
	default:
		return llm.Config{}, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	if err := cfg.Validate(); err != nil {
		return llm.Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
