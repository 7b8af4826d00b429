package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const (
	// DefaultLocation is used when no region is configured
	DefaultLocation = "us-central1"
	// DefaultModel is the Gemini model used for name disambiguation
	DefaultModel = "gemini-1.5-flash"
)

// Config selects the Vertex AI project, region and model
type Config struct {
	ProjectID string
	Location  string
	Model     string
}

func (c Config) withDefaults() (Config, error) {
	if c.ProjectID == "" {
		c.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if c.ProjectID == "" {
		return c, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable not set")
	}
	if c.Location == "" {
		c.Location = os.Getenv("GOOGLE_CLOUD_LOCATION")
	}
	if c.Location == "" {
		c.Location = DefaultLocation
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	return c, nil
}

// VertexAIClient wraps the Vertex AI Gemini API
type VertexAIClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	projectID string
	location  string
}

// NewVertexAIClientWithConfig creates a client for cfg, falling back to the
// environment for unset fields
func NewVertexAIClientWithConfig(ctx context.Context, cfg Config) (*VertexAIClient, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)

	// Answers are short JSON objects picked from a closed set
	model.SetTemperature(0)
	model.SetTopK(1)
	model.SetMaxOutputTokens(256)
	model.ResponseMIMEType = "application/json"

	return &VertexAIClient{
		client:    client,
		model:     model,
		projectID: cfg.ProjectID,
		location:  cfg.Location,
	}, nil
}

// GenerateContent sends a prompt to the model and returns the response
func (v *VertexAIClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return sb.String(), nil
}

// Close closes the Vertex AI client
func (v *VertexAIClient) Close() error {
	return v.client.Close()
}
