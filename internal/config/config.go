package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderGenAI  = "genai"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Server
	Port     int
	Env      string
	LogLevel string

	// AI provider
	Provider       string
	Model          string
	APIKey         string
	OpenAIBaseURL  string
	Temperature    float32
	RequestTimeout time.Duration

	// Redis (optional, backs the session in-flight guard)
	RedisURL string

	// Frontend
	FrontendURL string
}

// Load reads configuration from the environment once at startup.
// It panics when the provider's API key is missing.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderGemini))

	cfg := &Config{
		Port:           getEnvAsIntOrDefault("PORT", 5050),
		Env:            getEnvOrDefault("ENV", "development"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Provider:       provider,
		Model:          getEnvOrDefault("AI_MODEL", defaultModel(provider)),
		OpenAIBaseURL:  getEnvOrDefault("OPENAI_BASE_URL", ""),
		Temperature:    getEnvAsFloatOrDefault("AI_TEMPERATURE", 0.7),
		RequestTimeout: getEnvAsDurationOrDefault("RELAY_TIMEOUT", 30*time.Second),
		RedisURL:       getEnvOrDefault("REDIS_URL", ""),
		FrontendURL:    getEnvOrDefault("FRONTEND_URL", "*"),
	}

	switch provider {
	case ProviderOpenAI:
		cfg.APIKey = mustGetEnv("OPENAI_API_KEY")
	default:
		cfg.APIKey = mustGetEnv("GEMINI_API_KEY")
	}

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-4o-mini"
	}
	return "gemini-2.5-flash"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float32) float32 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return defaultVal
	}
	return float32(f)
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
