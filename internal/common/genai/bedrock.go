package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"charting-assistant/internal/common/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// bedrockInvoker is the part of *bedrockruntime.Client we use.
type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient invokes a Claude model on AWS Bedrock.
type BedrockClient struct {
	client      bedrockInvoker
	model       string
	temperature float64
	maxTokens   int
	envelope    Envelope
}

// NewBedrockClient loads AWS credentials from the environment or instance role.
func NewBedrockClient(ctx context.Context, cfg config.GenAIConfig) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("%w: load AWS config: %v", ErrMissingCredentials, err)
	}
	return newBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

func newBedrockClient(invoker bedrockInvoker, cfg config.GenAIConfig) *BedrockClient {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &BedrockClient{
		client:      invoker,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		envelope:    NewEnvelope(cfg.EnvelopePaths, BedrockPaths),
	}
}

func (c *BedrockClient) Name() string {
	return "bedrock"
}

type bedrockClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockClaudeRequest struct {
	System           string                 `json:"system,omitempty"`
	Messages         []bedrockClaudeMessage `json:"messages"`
	MaxTokens        int                    `json:"max_tokens"`
	Temperature      float64                `json:"temperature"`
	AnthropicVersion string                 `json:"anthropic_version"`
}

// Generate has no JSON mode on Bedrock; the system prompt carries the format instruction.
func (c *BedrockClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	body, err := json.Marshal(bedrockClaudeRequest{
		System:           prompt.System,
		Messages:         []bedrockClaudeMessage{{Role: "user", Content: prompt.User}},
		MaxTokens:        c.maxTokens,
		Temperature:      c.temperature,
		AnthropicVersion: "bedrock-2023-05-31",
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrUpstreamFailure, err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			status := http.StatusBadGateway
			var respErr *smithyhttp.ResponseError
			if errors.As(err, &respErr) {
				status = respErr.HTTPStatusCode()
			}
			return "", &UpstreamError{Provider: c.Name(), StatusCode: status, Text: apiErr.ErrorMessage()}
		}
		return "", classify(err)
	}

	text, _ := c.envelope.Text(resp.Body)
	return text, nil
}
