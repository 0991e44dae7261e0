package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"healthsync.ai/companion/internal/logger"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultChatBaseURL = "https://openrouter.ai/api/v1"
	DefaultChatModel   = "deepseek/deepseek-chat:free"
	DefaultGeminiModel = "gemini-1.5-flash-latest"
)

type Config struct {
	ChatProvider string
	ChatAPIKey   string
	ChatBaseURL  string
	ChatModel    string
	GeminiModel  string
	ChatTimeout  time.Duration
	DatabaseURL  string
	HTTPPort     string
	LogLevel     string
	JWTSecret    string
}

// Load reads configuration from the environment, after loading a .env file
// if one exists. Missing secrets are reported as an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		ChatProvider: getEnv("CHAT_PROVIDER", ProviderOpenAI),
		ChatAPIKey:   getEnv("CHAT_API_KEY", ""),
		ChatBaseURL:  getEnv("CHAT_BASE_URL", DefaultChatBaseURL),
		ChatModel:    getEnv("CHAT_MODEL", DefaultChatModel),
		GeminiModel:  getEnv("GEMINI_MODEL", DefaultGeminiModel),
		ChatTimeout:  time.Duration(getEnvAsInt("CHAT_TIMEOUT_SECONDS", 60)) * time.Second,
		DatabaseURL:  getEnv("DATABASE_URL", "healthsync.db"),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.ChatProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown CHAT_PROVIDER %q (want %q or %q)", c.ChatProvider, ProviderOpenAI, ProviderGemini)
	}
	if c.ChatAPIKey == "" {
		return fmt.Errorf("CHAT_API_KEY environment variable is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
