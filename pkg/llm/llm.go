// Package llm talks to a local text-completion model.
package llm

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultBaseURL = "http://127.0.0.1:11434"
	DefaultModel   = "llama3.2:3b"
	DefaultTimeout = 60 * time.Second
)

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ...CallOption) (string, error)
}

// CallOptions are the sampling parameters of a single call.
type CallOptions struct {
	Temperature float64
	NumPredict  int
}

// CallOption adjusts CallOptions.
type CallOption func(*CallOptions)

func WithTemperature(t float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = t
	}
}

func WithNumPredict(n int) CallOption {
	return func(o *CallOptions) {
		o.NumPredict = n
	}
}

// Config describes the model endpoint.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	// Temperature and NumPredict apply when a call does not set its own.
	Temperature float64 `yaml:"temperature"`
	NumPredict  int     `yaml:"num_predict"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.NumPredict <= 0 {
		c.NumPredict = 256
	}
}

// StatusError is returned when the model server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama error %d: %s", e.StatusCode, e.Body)
}
