package assist

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/benjaminschreck/go-docfill/pkg/llm"
)

// SuggestRequest describes the placeholders still to be answered.
type SuggestRequest struct {
	Placeholders []string          `json:"placeholders"`
	Answers      map[string]string `json:"answers"`
	Context      string            `json:"context"`
}

// Suggestion is a follow-up question for one placeholder.
type Suggestion struct {
	Label    string `json:"label"`
	Question string `json:"question"`
	Example  string `json:"example,omitempty"`
}

type answer struct {
	Label string
	Value string
}

// Suggester proposes questions that help a user fill placeholders.
type Suggester struct {
	completer llm.Completer
	opts      options
}

func NewSuggester(c llm.Completer, opts ...Option) *Suggester {
	return &Suggester{completer: c, opts: newOptions(opts)}
}

// Suggest returns up to 10 questions for at most 25 placeholders. When the
// model reply contains no usable question, a generic question is produced
// for each of the first six placeholders.
func (s *Suggester) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	labels := limit(req.Placeholders, maxSuggestPlaceholders)

	prompt, err := renderPrompt("suggest.tmpl", struct {
		Context      string
		Answered     []answer
		Placeholders []string
	}{req.Context, answered(req.Answers), labels})
	if err != nil {
		return nil, err
	}

	reply, err := s.completer.Complete(ctx, prompt,
		llm.WithTemperature(suggestTemperature),
		llm.WithNumPredict(numPredict))
	if err != nil {
		return nil, fmt.Errorf("suggest completion: %w", err)
	}

	if suggestions := parseSuggestions(reply); len(suggestions) > 0 {
		return suggestions, nil
	}

	s.opts.logger.WithField("placeholders", len(labels)).Info("Model reply unusable, using generic questions")
	suggestions := make([]Suggestion, 0, fallbackSuggestions)
	for _, label := range limit(labels, fallbackSuggestions) {
		suggestions = append(suggestions, Suggestion{
			Label:    label,
			Question: fmt.Sprintf("Please provide %s (keep it brief).", label),
			Example:  ExampleFor(label),
		})
	}
	return suggestions, nil
}

// answered lists the non-blank answers sorted by label.
func answered(answers map[string]string) []answer {
	var out []answer
	for label, value := range answers {
		if v := strings.TrimSpace(value); v != "" {
			out = append(out, answer{Label: label, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// parseSuggestions reads the JSON array in reply. Only the first ten items
// are considered and items without a label or question are dropped.
func parseSuggestions(reply string) []Suggestion {
	data, ok := extractJSON(reply, '[', ']')
	if !ok {
		return nil
	}
	var items []any
	if err := decodeJSON(data, &items); err != nil {
		return nil
	}

	var out []Suggestion
	for _, item := range limit(items, maxSuggestions) {
		var sg Suggestion
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &sg,
			TagName:          "json",
			WeaklyTypedInput: true,
		})
		if err != nil {
			continue
		}
		if err := decoder.Decode(item); err != nil {
			continue
		}
		if sg.Label != "" && sg.Question != "" {
			out = append(out, sg)
		}
	}
	return out
}
