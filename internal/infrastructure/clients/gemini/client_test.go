package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/pkg/config"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), &config.GeminiConfig{}, "")
	assert.Error(t, err)
}

func TestClient_Generate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.0-flash:generateContent"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Build a 13-week cash plan."}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), &config.GeminiConfig{APIKey: "k", Model: "gemini-2.0-flash"}, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Name())

	text, err := c.Generate(context.Background(), providers.NarrativeRequest{
		System:          "You are a consultant.",
		Prompt:          "Scores",
		Temperature:     0.4,
		MaxOutputTokens: 420,
	})

	require.NoError(t, err)
	assert.Equal(t, "Build a 13-week cash plan.", text)
	assert.Contains(t, body, "You are a consultant.")
	assert.Contains(t, body, "420")
}
