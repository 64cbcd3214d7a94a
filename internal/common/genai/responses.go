package genai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"charting-assistant/internal/common/config"
	commonhttp "charting-assistant/internal/common/http"
)

// ResponsesClient calls an OpenAI-compatible /responses endpoint over plain HTTP.
type ResponsesClient struct {
	http        *commonhttp.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	envelope    Envelope
}

func NewResponsesClient(cfg config.GenAIConfig) (*ResponsesClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingCredentials
	}
	return &ResponsesClient{
		http:        commonhttp.NewClient(config.GetDuration(cfg.Timeout), commonhttp.WithRetries(cfg.MaxRetries)),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		envelope:    NewEnvelope(cfg.EnvelopePaths, ResponsesPaths),
	}, nil
}

func (c *ResponsesClient) Name() string {
	return "responses"
}

type responsesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string                 `json:"model"`
	Input           []responsesMessage     `json:"input"`
	Temperature     float64                `json:"temperature"`
	MaxOutputTokens int                    `json:"max_output_tokens,omitempty"`
	Text            map[string]interface{} `json:"text,omitempty"`
}

func (c *ResponsesClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	req := responsesRequest{
		Model: c.model,
		Input: []responsesMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature:     c.temperature,
		MaxOutputTokens: c.maxTokens,
	}
	if prompt.JSONMode {
		req.Text = map[string]interface{}{
			"format": map[string]string{"type": "json_object"},
		}
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/responses", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, req)
	if err != nil {
		return "", classify(err)
	}

	if !resp.OK() {
		text := strings.TrimSpace(string(resp.Body))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return "", &UpstreamError{Provider: c.Name(), StatusCode: resp.StatusCode, Text: text}
	}

	if !c.envelope.Valid(resp.Body) {
		return "", fmt.Errorf("%w: response body is not JSON", ErrUpstreamFailure)
	}

	// An envelope with no text is handed on as empty; the normalizer falls back to defaults.
	text, _ := c.envelope.Text(resp.Body)
	return text, nil
}
