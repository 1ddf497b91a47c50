package assist

import (
	"context"
	"fmt"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/llm"
)

// AutofillRequest asks for a value for every placeholder.
type AutofillRequest struct {
	Placeholders []string `json:"placeholders"`
	Note         string   `json:"note"`
	Context      string   `json:"context"`
}

// Autofiller drafts values for placeholders.
type Autofiller struct {
	completer llm.Completer
	opts      options
}

func NewAutofiller(c llm.Completer, opts ...Option) *Autofiller {
	return &Autofiller{completer: c, opts: newOptions(opts)}
}

// Autofill asks the model for values of at most 40 placeholders. Only keys
// naming a requested placeholder are kept. When the reply yields no usable
// value every placeholder is filled from DefaultValue instead.
func (a *Autofiller) Autofill(ctx context.Context, req AutofillRequest) (map[string]string, error) {
	labels := limit(req.Placeholders, maxAutofillPlaceholders)
	if len(labels) == 0 {
		return nil, ErrNoPlaceholders
	}

	prompt, err := renderPrompt("autofill.tmpl", AutofillRequest{
		Placeholders: labels,
		Note:         req.Note,
		Context:      req.Context,
	})
	if err != nil {
		return nil, err
	}

	reply, err := a.completer.Complete(ctx, prompt,
		llm.WithTemperature(autofillTemperature),
		llm.WithNumPredict(numPredict))
	if err != nil {
		return nil, fmt.Errorf("autofill completion: %w", err)
	}

	values := parseValues(reply, labels)
	if len(values) > 0 {
		return values, nil
	}

	a.opts.logger.WithField("placeholders", len(labels)).Info("Model reply unusable, using default values")
	now := a.opts.now()
	values = make(map[string]string, len(labels))
	for _, label := range labels {
		values[label] = DefaultValue(label, now)
	}
	return values, nil
}

// parseValues reads the JSON object in reply and keeps the requested labels.
func parseValues(reply string, labels []string) map[string]string {
	data, ok := extractJSON(reply, '{', '}')
	if !ok {
		return nil
	}
	var obj map[string]any
	if err := decodeJSON(data, &obj); err != nil {
		return nil
	}

	values := make(map[string]string)
	for _, label := range labels {
		if v, ok := obj[label]; ok {
			values[label] = docfill.Stringify(v)
		}
	}
	return values
}
