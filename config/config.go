package config

import (
	"strconv"
	"strings"
	"time"

	"counseling-records/apperr"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	ServerPort    string
	DatabaseURL   string
	DatabaseKey   string
	AutoMigrate   bool
	SessionSecret string
	SessionTTL    time.Duration
	LogLevel      string
	LanguageModel LanguageModelConfig

	// Secrets stays attached so the admin password is resolved per login attempt.
	Secrets *Resolver
}

// LanguageModelConfig configures the optional text improvement client.
type LanguageModelConfig struct {
	APIKey   string
	Provider string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// Load reads .env, the secrets file and the process environment.
func Load() *Config {
	return FromResolver(NewResolver())
}

func FromResolver(r *Resolver) *Config {
	databaseURL, _ := r.Lookup("DATABASE_URL", "SUPABASE_URL")
	databaseKey, _ := r.Lookup("DATABASE_KEY", "SUPABASE_KEY")
	apiKey, _ := r.Lookup("LANGUAGE_MODEL_API_KEY", "OPENAI_API_KEY")

	return &Config{
		ServerPort:    getEnv(r, "SERVER_PORT", "8080"),
		DatabaseURL:   databaseURL,
		DatabaseKey:   databaseKey,
		AutoMigrate:   getEnvAsBool(r, "AUTO_MIGRATE", false),
		SessionSecret: getEnv(r, "SESSION_SECRET", ""),
		SessionTTL:    time.Duration(getEnvAsInt(r, "SESSION_TTL_HOURS", 12)) * time.Hour,
		LogLevel:      getEnv(r, "LOG_LEVEL", "info"),
		LanguageModel: LanguageModelConfig{
			APIKey:   apiKey,
			Provider: strings.ToLower(getEnv(r, "LANGUAGE_MODEL_PROVIDER", ProviderOpenAI)),
			Model:    getEnv(r, "LANGUAGE_MODEL_MODEL", ""),
			BaseURL:  getEnv(r, "LANGUAGE_MODEL_BASE_URL", ""),
			Timeout:  time.Duration(getEnvAsInt(r, "LANGUAGE_MODEL_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Secrets: r,
	}
}

// Validate reports missing database settings as a configuration error.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.DatabaseKey == "" {
		missing = append(missing, "DATABASE_KEY")
	}
	if len(missing) > 0 {
		return apperr.Configuration("database settings are required: set " +
			strings.Join(missing, " and ") + " in the environment or in the secrets file")
	}
	return nil
}

func getEnv(r *Resolver, key, defaultValue string) string {
	if value, ok := r.Lookup(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(r *Resolver, key string, defaultValue int) int {
	if value, ok := r.Lookup(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(r *Resolver, key string, defaultValue bool) bool {
	if value, ok := r.Lookup(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
