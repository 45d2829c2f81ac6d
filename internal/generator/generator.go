// Package generator asks a language model for the descriptive fields of a place.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"whereiam/models"
)

// Provider names a generation backend
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

var (
	// ErrMissingAPIKey is returned when a provider is selected without credentials
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrEmptyResponse is returned when the model produced no content
	ErrEmptyResponse = errors.New("model returned no content")
	// ErrInvalidProvider is returned for an unknown provider name
	ErrInvalidProvider = errors.New("provider is invalid")
)

// Generator produces a location record for key. Count and LastTime are left zero.
type Generator interface {
	Generate(ctx context.Context, key string, date time.Time) (models.LocationRecord, error)
}

// Origin is the fixed place flight times are measured from
type Origin struct {
	Name        string
	Coordinates models.Coordinates
}

// DefaultOrigin is the home location
var DefaultOrigin = Origin{
	Name:        "Rouen, France",
	Coordinates: models.DefaultLocation().Coordinates,
}

// BuildPrompt renders the request sent to the model
func BuildPrompt(key string, date time.Time, origin Origin) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I'm currently in this place %q and I need to share some facts about it. Please give me:\n", key)
	b.WriteString("* flag: the flag emoji of the country of the place\n")
	b.WriteString("* hello: the translation of \"Hello\" in the main language of the place\n")
	fmt.Fprintf(&b, "* timezoneOffset: the local UTC offset in whole hours for today, %s, taking daylight saving changes into account (UTC+2 is 2, UTC-6 is -6)\n",
		date.UTC().Format(time.RFC3339))
	b.WriteString("* coordinates: the latitude (lat) and longitude (lng) of the place in degrees\n")
	fmt.Fprintf(&b, "* flightTime: the usual flight time in whole hours from %s (lat %.4f, lng %.4f), or null if the place is not reached by plane\n",
		origin.Name, origin.Coordinates.Lat, origin.Coordinates.Lng)
	return b.String()
}

// generatedLocation is the object the models are asked to return
type generatedLocation struct {
	Flag           *string             `json:"flag"`
	Hello          *string             `json:"hello"`
	TimezoneOffset *float64            `json:"timezoneOffset"`
	Coordinates    *models.Coordinates `json:"coordinates"`
	FlightTime     *float64            `json:"flightTime"`
}

// ParseResponse decodes and checks a model response for key
func ParseResponse(key, content string) (models.LocationRecord, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return models.LocationRecord{}, ErrEmptyResponse
	}

	var payload generatedLocation
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return models.LocationRecord{}, fmt.Errorf("decode model response: %w", err)
	}

	switch {
	case payload.Flag == nil:
		return models.LocationRecord{}, errors.New("model response is missing flag")
	case payload.Hello == nil:
		return models.LocationRecord{}, errors.New("model response is missing hello")
	case payload.TimezoneOffset == nil:
		return models.LocationRecord{}, errors.New("model response is missing timezoneOffset")
	case payload.Coordinates == nil:
		return models.LocationRecord{}, errors.New("model response is missing coordinates")
	}

	offset := *payload.TimezoneOffset
	if offset != float64(int(offset)) {
		return models.LocationRecord{}, fmt.Errorf("timezoneOffset %v is not a whole number of hours", offset)
	}

	rec := models.LocationRecord{
		Location:       models.StringPtr(key),
		Flag:           strings.TrimSpace(*payload.Flag),
		Hello:          strings.TrimSpace(*payload.Hello),
		TimezoneOffset: int(offset),
		Coordinates:    *payload.Coordinates,
	}
	if payload.FlightTime != nil {
		if *payload.FlightTime < 0 {
			return models.LocationRecord{}, fmt.Errorf("flightTime %v is negative", *payload.FlightTime)
		}
		// round to the nearest hour, models sometimes answer 1.5
		rec.FlightTime = models.IntPtr(int(math.Round(*payload.FlightTime)))
	}

	if err := rec.Validate(); err != nil {
		return models.LocationRecord{}, fmt.Errorf("invalid model response: %w", err)
	}
	return rec, nil
}

// responseJSONSchema describes generatedLocation for providers that accept JSON schema
func responseJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"flag":           map[string]any{"type": "string"},
			"hello":          map[string]any{"type": "string"},
			"timezoneOffset": map[string]any{"type": "integer"},
			"coordinates": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"lat": map[string]any{"type": "number"},
					"lng": map[string]any{"type": "number"},
				},
				"required":             []string{"lat", "lng"},
				"additionalProperties": false,
			},
			"flightTime": map[string]any{"type": []string{"integer", "null"}},
		},
		"required":             []string{"flag", "hello", "timezoneOffset", "coordinates", "flightTime"},
		"additionalProperties": false,
	}
}
