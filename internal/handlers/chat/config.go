// internal/handlers/chat/config.go
package chat

import (
	"time"

	"charting-assistant/internal/common/config"
	"charting-assistant/internal/normalizer"
)

type Config struct {
	Timeout          time.Duration
	MaxBodyBytes     int64
	DefaultMode      string
	Substitutions    []normalizer.Substitution
	SubstituteFields []string
}

// LoadConfig maps the application config onto the handler.
func LoadConfig(cfg *config.Config) *Config {
	subs := make([]normalizer.Substitution, 0, len(cfg.Normalizer.Substitutions))
	for _, s := range cfg.Normalizer.Substitutions {
		subs = append(subs, normalizer.Substitution{From: s.From, To: s.To})
	}

	return &Config{
		Timeout:          config.GetDuration(cfg.GenAI.Timeout),
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		DefaultMode:      cfg.Modes.Default,
		Substitutions:    subs,
		SubstituteFields: cfg.Normalizer.Fields,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Timeout <= 0 {
		out.Timeout = 60 * time.Second
	}
	if out.MaxBodyBytes <= 0 {
		out.MaxBodyBytes = 64 << 10
	}
	if out.DefaultMode == "" {
		out.DefaultMode = ModeChart
	}
	return &out
}
