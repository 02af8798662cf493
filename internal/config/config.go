package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	FormsDir    string
	// LLM Configuration
	LLMProvider    string // "openai-compatible" or "scripted"
	LLMAPIEndpoint string
	LLMAPIKey      string
	LLMModelName   string
	LLMTimeoutSecs int
	LLMMaxTokens   int
	// Session management
	SessionTTLMinutes int
	// Debug flags
	Debug bool // Enables DEBUG features like raw LLM output logging
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		FormsDir:    getEnv("FORMS_DIR", "forms"),
		// LLM Configuration
		LLMProvider:    getEnv("LLM_PROVIDER", "openai-compatible"),
		LLMAPIEndpoint: getEnv("LLM_API_ENDPOINT", ""),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMModelName:   getEnv("LLM_MODEL_NAME", "default"),
		LLMTimeoutSecs: getEnvInt("LLM_TIMEOUT_SECONDS", 300),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1024),
		// Session management
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 30),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
