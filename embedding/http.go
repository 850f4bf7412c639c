package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "text-embedding-3-small"
	defaultTimeout = 30 * time.Second
)

// HTTPConfig configures an OpenAI-compatible embeddings endpoint.
type HTTPConfig struct {
	BaseURL string
	// APIKey takes precedence over APIKeyEnv; both may be empty for local servers.
	APIKey    string
	APIKeyEnv string
	Model     string
	// Dimension is the expected vector width and is required.
	Dimension int
	Timeout   time.Duration
	// RequestsPerSecond throttles outgoing requests; zero disables throttling.
	RequestsPerSecond float64
	// Client overrides the HTTP client.
	Client *http.Client
}

// HTTP calls POST {BaseURL}/embeddings for every text.
type HTTP struct {
	baseURL string
	apiKey  string
	model   string
	dim     int
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTP creates an HTTP provider.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding: http provider requires a positive dimension, got %d", cfg.Dimension)
	}
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	ret := &HTTP{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  key,
		model:   cfg.Model,
		dim:     cfg.Dimension,
		client:  client,
	}
	if cfg.RequestsPerSecond > 0 {
		ret.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return ret, nil
}

// Dimension returns the configured vector width.
func (h *HTTP) Dimension() int { return h.dim }

type embedRequest struct {
	Input      string `json:"input"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed requests the embedding of text. A response of the wrong width fails
// with *DimensionError.
func (h *HTTP) Embed(ctx context.Context, text string) ([]float32, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	data, err := json.Marshal(embedRequest{Input: text, Model: h.model, Dimensions: h.dim})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: read response: %w", err)
	}
	var out embedResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode >= 300 {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return nil, fmt.Errorf("embedding: %s: %s", resp.Status, out.Error.Message)
		}
		return nil, fmt.Errorf("embedding: %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", decodeErr)
	}
	if len(out.Data) == 0 {
		return nil, errors.New("embedding: no embedding returned")
	}
	src := out.Data[0].Embedding
	if len(src) != h.dim {
		return nil, &DimensionError{Expected: h.dim, Actual: len(src)}
	}
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
