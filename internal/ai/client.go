package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"rideshare/internal/config"
)

// Errors returned by the AI client. Handlers map parse errors to a
// distinct code so clients can tell upstream failures from bad output.
var (
	ErrNoContent  = errors.New("ai response contained no content")
	ErrBadPayload = errors.New("ai response could not be parsed")
)

// RoutePreferences tune a route optimization request.
type RoutePreferences struct {
	AvoidTolls    bool   `json:"avoidTolls"`
	AvoidHighways bool   `json:"avoidHighways"`
	OptimizeFor   string `json:"optimizeFor"` // "time", "distance", or "fuel"
}

// Point is a coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OptimizedRoute is the structured output of route optimization.
type OptimizedRoute struct {
	Distance      float64  `json:"distance"` // miles
	Duration      float64  `json:"duration"` // minutes
	Route         []Point  `json:"route"`
	Instructions  []string `json:"instructions"`
	EstimatedFuel float64  `json:"estimatedFuel"` // gallons
	TollCost      float64  `json:"tollCost,omitempty"`
}

// DemandPrediction is the structured output of demand prediction.
type DemandPrediction struct {
	DemandLevel    string  `json:"demandLevel"` // "low", "medium", or "high"
	SuggestedSurge float64 `json:"suggestedSurge"`
}

// chat-completions wire types.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client proxies AI features through an upstream chat-completions
// endpoint. All calls retry with exponential backoff.
type Client struct {
	httpClient *http.Client
	cfg        config.AIConfig
	retry      retryConfig
	log        *logrus.Logger
}

// NewClient creates a new AI client.
func NewClient(cfg config.AIConfig, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		retry:      defaultRetryConfig(cfg.MaxRetries),
		log:        log,
	}
}

// OptimizeRoute asks the model for an optimal route between two points.
func (c *Client) OptimizeRoute(ctx context.Context, origin, destination Point, prefs RoutePreferences) (*OptimizedRoute, error) {
	if prefs.OptimizeFor == "" {
		prefs.OptimizeFor = "time"
	}

	system := `You are a route optimization expert. Given origin and destination coordinates,
provide optimal route suggestions with distance, duration, and turn-by-turn directions.
Always respond with valid JSON in the following format:
{
  "distance": number (in miles),
  "duration": number (in minutes),
  "route": [{"lat": number, "lng": number}],
  "instructions": ["string array of turn-by-turn directions"],
  "estimatedFuel": number (in gallons),
  "tollCost": number (optional)
}`
	user := fmt.Sprintf(
		"Optimize route from %g,%g to %g,%g. Preferences: avoid tolls: %t, avoid highways: %t, optimize for: %s",
		origin.Lat, origin.Lng, destination.Lat, destination.Lng,
		prefs.AvoidTolls, prefs.AvoidHighways, prefs.OptimizeFor,
	)

	content, err := c.complete(ctx, system, user, 0.7, 1000)
	if err != nil {
		return nil, err
	}

	var route OptimizedRoute
	if err := json.Unmarshal([]byte(extractJSON(content)), &route); err != nil {
		return nil, ErrBadPayload
	}
	return &route, nil
}

// CustomerSupport generates a support reply for a user query. context is
// optional structured context forwarded to the model.
func (c *Client) CustomerSupport(ctx context.Context, query string, extra map[string]interface{}) (string, error) {
	system := `You are a helpful customer support assistant for RideShare, a ride-hailing platform.
Provide friendly, accurate, and concise responses to user queries.
If you cannot help with a specific issue, politely direct them to human support.
Keep responses under 200 words and maintain a professional, empathetic tone.`

	user := "User query: " + query
	if len(extra) > 0 {
		if data, err := json.Marshal(extra); err == nil {
			user += "\nContext: " + string(data)
		}
	}

	return c.complete(ctx, system, user, 0.7, 300)
}

// PredictDemand asks the model to estimate ride demand at a location and
// time.
func (c *Client) PredictDemand(ctx context.Context, location Point, timeContext string) (*DemandPrediction, error) {
	system := `You are a demand prediction expert for a ride-hailing service.
Analyze location and time context to predict ride demand.
Respond with JSON: {"demandLevel": "low|medium|high", "suggestedSurge": number}`
	user := fmt.Sprintf("Predict demand for location: %g, %g at %s", location.Lat, location.Lng, timeContext)

	content, err := c.complete(ctx, system, user, 0.7, 1000)
	if err != nil {
		return nil, err
	}

	var prediction DemandPrediction
	if err := json.Unmarshal([]byte(extractJSON(content)), &prediction); err != nil {
		return nil, ErrBadPayload
	}
	return &prediction, nil
}

// complete sends a two-message chat request and returns the first
// choice's content.
func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var content string
	err = withRetry(ctx, c.retry, c.log, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.CustomerID != "" {
			req.Header.Set("customerId", c.cfg.CustomerID)
		}
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}

		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
			return ErrNoContent
		}

		content = parsed.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}

// extractJSON strips markdown code fences that models sometimes wrap
// around JSON output.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}
