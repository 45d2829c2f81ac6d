package generator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"whereiam/models"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini backed generator
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Origin     Origin
	HTTPClient *http.Client
}

// GeminiGenerator asks a Gemini model for a location record
type GeminiGenerator struct {
	client *genai.Client
	model  string
	origin Origin
}

func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Origin.Name == "" {
		cfg.Origin = DefaultOrigin
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: cfg.Model, origin: cfg.Origin}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, key string, date time.Time) (models.LocationRecord, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiResponseSchema(),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(key, date, g.origin)), config)
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("gemini generate content: %w", err)
	}

	return ParseResponse(key, resp.Text())
}

func geminiResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"flag":           {Type: genai.TypeString},
			"hello":          {Type: genai.TypeString},
			"timezoneOffset": {Type: genai.TypeInteger},
			"coordinates": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"lat": {Type: genai.TypeNumber},
					"lng": {Type: genai.TypeNumber},
				},
				Required: []string{"lat", "lng"},
			},
			"flightTime": {Type: genai.TypeInteger, Nullable: genai.Ptr(true)},
		},
		Required:         []string{"flag", "hello", "timezoneOffset", "coordinates", "flightTime"},
		PropertyOrdering: []string{"flag", "hello", "timezoneOffset", "coordinates", "flightTime"},
	}
}
