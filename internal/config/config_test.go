package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHAT_API_KEY", "test-key")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.ChatProvider)
	assert.Equal(t, DefaultChatBaseURL, cfg.ChatBaseURL)
	assert.Equal(t, DefaultChatModel, cfg.ChatModel)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, 60*time.Second, cfg.ChatTimeout)
	assert.Equal(t, "healthsync.db", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHAT_API_KEY", "test-key")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CHAT_PROVIDER", "gemini")
	t.Setenv("CHAT_TIMEOUT_SECONDS", "5")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.ChatProvider)
	assert.Equal(t, 5*time.Second, cfg.ChatTimeout)
	assert.Equal(t, "9090", cfg.HTTPPort)
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHAT_API_KEY", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAT_API_KEY")

	t.Setenv("CHAT_API_KEY", "k")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := &Config{ChatProvider: "deepseek", ChatAPIKey: "k", JWTSecret: "s"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deepseek")
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("HS_TEST_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("HS_TEST_INT", 7))
}
