package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is kept in a StatusError.
const maxErrorBody = 4 << 10

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// OllamaClient calls the non-streaming /api/generate endpoint of an Ollama
// server.
type OllamaClient struct {
	config     Config
	httpClient *http.Client
}

var _ Completer = (*OllamaClient)(nil)

// NewOllamaClient returns a client for cfg with defaults applied.
func NewOllamaClient(cfg Config) *OllamaClient {
	cfg.SetDefaults()
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &OllamaClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *OllamaClient) WithHTTPClient(hc *http.Client) *OllamaClient {
	c.httpClient = hc
	return c
}

func (c *OllamaClient) Model() string {
	return c.config.Model
}

func (c *OllamaClient) BaseURL() string {
	return c.config.BaseURL
}

// Complete sends prompt to the model and returns the generated text.
func (c *OllamaClient) Complete(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	callOpts := CallOptions{
		Temperature: c.config.Temperature,
		NumPredict:  c.config.NumPredict,
	}
	for _, opt := range opts {
		opt(&callOpts)
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: callOpts.Temperature,
			NumPredict:  callOpts.NumPredict,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(text)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama API error: %s", out.Error)
	}
	return out.Response, nil
}
