// internal/common/config/config.go
package config

import (
	"fmt"
	"net/netip"
	"strings"
)

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	GenAI      GenAIConfig      `mapstructure:"genai"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Modes      ModesConfig      `mapstructure:"modes"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64    `mapstructure:"max_body_bytes"`
	StaticDir       string   `mapstructure:"static_dir"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	TrustedProxies  []string `mapstructure:"trusted_proxies"` // addresses or CIDRs allowed to set X-Forwarded-For
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TrustedPrefixes parses TrustedProxies. A bare address becomes a single-host prefix.
func (s ServerConfig) TrustedPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, entry := range s.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("server.trusted_proxies: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// GenAIConfig selects and configures the upstream text-generation provider.
type GenAIConfig struct {
	Provider      string   `mapstructure:"provider"` // responses, chat, bedrock, mock
	BaseURL       string   `mapstructure:"base_url"`
	APIKey        string   `mapstructure:"api_key"`
	Model         string   `mapstructure:"model"`
	Temperature   float64  `mapstructure:"temperature"`
	MaxTokens     int      `mapstructure:"max_tokens"`
	Timeout       int      `mapstructure:"timeout"` // milliseconds
	MaxRetries    int      `mapstructure:"max_retries"`
	Region        string   `mapstructure:"region"` // bedrock only
	EnvelopePaths []string `mapstructure:"envelope_paths"`
	MockResponse  string   `mapstructure:"mock_response"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig is a fixed window per client address on /api/chat.
type RateLimitConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Requests int    `mapstructure:"requests"`
	Window   int    `mapstructure:"window"` // milliseconds
	Prefix   string `mapstructure:"prefix"`
}

// NormalizerConfig holds server-side terminology rules.
type NormalizerConfig struct {
	Substitutions []TermSubstitution `mapstructure:"substitutions"`
	Fields        []string           `mapstructure:"fields"`
}

type TermSubstitution struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// ModesConfig points at an optional JSON registry of extra modes.
type ModesConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
	Default      string `mapstructure:"default"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
