package generator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"whereiam/models"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIConfig configures the OpenAI backed generator
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Origin  Origin
	// HTTPClient overrides the transport, used by tests
	HTTPClient *http.Client
}

// OpenAIGenerator asks an OpenAI chat model for a location record
type OpenAIGenerator struct {
	client openai.Client
	model  string
	origin Origin
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Origin.Name == "" {
		cfg.Origin = DefaultOrigin
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		origin: cfg.Origin,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, key string, date time.Time) (models.LocationRecord, error) {
	schema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "location",
		Description: openai.String("Facts about the place the user is currently in"),
		Schema:      responseJSONSchema(),
		Strict:      openai.Bool(true),
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You answer with a single JSON object and nothing else."),
			openai.UserMessage(BuildPrompt(key, date, g.origin)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schema},
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return models.LocationRecord{}, fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	return ParseResponse(key, completion.Choices[0].Message.Content)
}
