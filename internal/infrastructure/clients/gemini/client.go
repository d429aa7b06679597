package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/pkg/config"
	"github.com/zatekoja/cashflow-diagnosis/pkg/retry"
)

// Client implements providers.NarrativeProvider on the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

var _ providers.NarrativeProvider = (*Client)(nil)

// NewClient creates a new Gemini client. baseURL overrides the API endpoint
// and is empty outside tests.
func NewClient(ctx context.Context, cfg *config.GeminiConfig, baseURL string) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "gemini"
}

// Generate returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, in providers.NarrativeRequest) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(in.Temperature)),
	}
	if in.MaxOutputTokens > 0 {
		gc.MaxOutputTokens = int32(in.MaxOutputTokens)
	}
	if in.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(in.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(in.Prompt), gc)
	if err != nil {
		if isPermanent(err) {
			return "", retry.Permanent(fmt.Errorf("gemini request failed: %w", err))
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini response missing text")
	}
	return text, nil
}

func isPermanent(err error) bool {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
