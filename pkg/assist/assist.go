// Package assist drafts placeholder values and follow-up questions with a
// language model, falling back to fixed rules when the model is unhelpful.
package assist

import (
	"errors"
	"time"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
)

// ErrNoPlaceholders is returned when a request names no placeholders.
var ErrNoPlaceholders = errors.New("no placeholders provided")

const (
	maxAutofillPlaceholders = 40
	maxSuggestPlaceholders  = 25
	maxSuggestions          = 10
	fallbackSuggestions     = 6

	autofillTemperature = 0.4
	suggestTemperature  = 0.5
	numPredict          = 256
)

type options struct {
	logger *docfill.Logger
	now    func() time.Time
}

// Option configures an Autofiller or Suggester.
type Option func(*options)

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *docfill.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock sets the time source for generated dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = docfill.GetLogger()
	}
	return o
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
