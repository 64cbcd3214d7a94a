package genai

import (
	"context"
	"fmt"
	"strings"

	"charting-assistant/internal/common/config"
)

// NewFromConfig creates the configured provider. It returns ErrMissingCredentials when the
// provider needs an API key that is not set; callers may still start and answer 500 per request.
func NewFromConfig(ctx context.Context, cfg config.GenAIConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "responses":
		c, err := NewResponsesClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "chat", "openai":
		c, err := NewChatClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "bedrock", "aws":
		c, err := NewBedrockClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mock":
		return NewMockClient(cfg.MockResponse), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: responses, chat, bedrock, mock)", cfg.Provider)
	}
}
