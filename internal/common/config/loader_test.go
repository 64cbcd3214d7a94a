// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GENAI_API_KEY", "OPENAI_API_KEY", "GENAI_PROVIDER", "AWS_REGION", "REDIS_ADDRESS", "REDIS_PASSWORD", "PORT"} {
		t.Setenv(name, "")
	}
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "app:\n  name: test-app\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "responses", cfg.GenAI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.GenAI.Model)
	assert.Equal(t, 0.2, cfg.GenAI.Temperature)
	assert.Equal(t, "https://api.openai.com/v1", cfg.GenAI.BaseURL)
	assert.Equal(t, "chart", cfg.Modes.Default)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 60*time.Second, GetDuration(cfg.GenAI.Timeout))
	assert.Empty(t, cfg.GenAI.APIKey)
}

func TestLoadFromFile_EnvExpansionAndOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TEST_REDIS_HOST", "localhost:6379")
	t.Setenv("PORT", "9090")

	path := writeConfig(t, `
genai:
  provider: Chat
redis:
  address: ${TEST_REDIS_HOST}
rate_limit:
  enabled: true
  requests: 5
normalizer:
  substitutions:
    - from: patient
      to: resident
  fields: [note]
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.GenAI.APIKey)
	assert.Equal(t, "chat", cfg.GenAI.Provider)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, []TermSubstitution{{From: "patient", To: "resident"}}, cfg.Normalizer.Substitutions)
	assert.Equal(t, []string{"note"}, cfg.Normalizer.Fields)
}

func TestLoadFromFile_BedrockDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GENAI_PROVIDER", "bedrock")

	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: x\n"))
	require.NoError(t, err)

	assert.Equal(t, "bedrock", cfg.GenAI.Provider)
	assert.Equal(t, "us-east-1", cfg.GenAI.Region)
	assert.Contains(t, cfg.GenAI.Model, "anthropic.claude")
	assert.Empty(t, cfg.GenAI.BaseURL)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errText string
	}{
		{"unknown provider", "genai:\n  provider: carrier-pigeon\n", "genai.provider"},
		{"rate limit without redis", "rate_limit:\n  enabled: true\n", "redis.address"},
		{"temperature out of range", "genai:\n  temperature: 3.5\n", "genai.temperature"},
		{"bad substitution", "normalizer:\n  substitutions:\n    - from: patient\n", "normalizer.substitutions"},
		{"bad trusted proxy", "server:\n  trusted_proxies:\n    - 10.0.0.0/33\n", "server.trusted_proxies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestServerConfig_Address(t *testing.T) {
	assert.Equal(t, ":8080", ServerConfig{Port: 8080}.Address())
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Address())
}

func TestServerConfig_TrustedPrefixes(t *testing.T) {
	prefixes, err := ServerConfig{TrustedProxies: []string{"10.1.2.3", " 192.168.7.9/16 ", "::ffff:172.16.0.1", "fd00::/8"}}.TrustedPrefixes()
	require.NoError(t, err)

	got := make([]string, len(prefixes))
	for i, p := range prefixes {
		got[i] = p.String()
	}
	assert.Equal(t, []string{"10.1.2.3/32", "192.168.0.0/16", "172.16.0.1/32", "fd00::/8"}, got)

	_, err = ServerConfig{TrustedProxies: []string{"proxy.internal"}}.TrustedPrefixes()
	assert.ErrorContains(t, err, "server.trusted_proxies")
}
