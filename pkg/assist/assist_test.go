package assist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/llm"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
	opts   llm.CallOptions
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, opts ...llm.CallOption) (string, error) {
	f.prompt = prompt
	f.opts = llm.CallOptions{}
	for _, opt := range opts {
		opt(&f.opts)
	}
	return f.reply, f.err
}

var fixedNow = func() time.Time { return time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC) }

func quiet() Option {
	return WithLogger(docfill.NewLogger(nil, docfill.LogOff))
}

func TestAutofill_ModelValues(t *testing.T) {
	fc := &fakeCompleter{reply: "Sure! Here you go:\n" +
		`{"Company Name": "Acme, Inc.", "Purchase Amount": 50000, "Unrequested": "x", "Valid": true,}`}
	a := NewAutofiller(fc, quiet())

	values, err := a.Autofill(context.Background(), AutofillRequest{
		Placeholders: []string{"Company Name", "Purchase Amount", "Valid", "Missing"},
		Note:         "seed round",
		Context:      "SAFE agreement",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Company Name":    "Acme, Inc.",
		"Purchase Amount": "50000",
		"Valid":           "true",
	}, values)

	assert.Equal(t, 0.4, fc.opts.Temperature)
	assert.Equal(t, 256, fc.opts.NumPredict)
	assert.Contains(t, fc.prompt, "1. Company Name\n2. Purchase Amount\n3. Valid\n4. Missing\n")
	assert.Contains(t, fc.prompt, "seed round")
	assert.Contains(t, fc.prompt, "SAFE agreement")
	assert.Contains(t, fc.prompt, `{"Placeholder A":"Value A","Placeholder B":"Value B",...}`)
}

func TestAutofill_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json", "I cannot help with that."},
		{"broken json", `{"Company Name": "Acme`},
		{"no requested keys", `{"Other": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAutofiller(&fakeCompleter{reply: tt.reply}, quiet(), WithClock(fixedNow))

			values, err := a.Autofill(context.Background(), AutofillRequest{
				Placeholders: []string{"Company Name", "Effective Date", "Investor Name", "Governing Law", "Founder Title", "Amount"},
			})
			require.NoError(t, err)
			assert.Equal(t, map[string]string{
				"Company Name":   "Acme, Inc.",
				"Effective Date": "2026-03-09",
				"Investor Name":  "Alpha Ventures, LP",
				"Governing Law":  "State of Delaware",
				"Founder Title":  "CEO",
				"Amount":         "—",
			}, values)
		})
	}
}

func TestAutofill_Limits(t *testing.T) {
	labels := make([]string, 45)
	for i := range labels {
		labels[i] = string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	fc := &fakeCompleter{reply: "{}"}
	values, err := NewAutofiller(fc, quiet()).Autofill(context.Background(), AutofillRequest{Placeholders: labels})
	require.NoError(t, err)
	assert.Len(t, values, 40)
	assert.NotContains(t, fc.prompt, "41. ")
}

func TestAutofill_NoPlaceholders(t *testing.T) {
	fc := &fakeCompleter{}
	_, err := NewAutofiller(fc, quiet()).Autofill(context.Background(), AutofillRequest{})
	assert.ErrorIs(t, err, ErrNoPlaceholders)
	assert.Empty(t, fc.prompt)
}

func TestAutofill_CompletionError(t *testing.T) {
	boom := &llm.StatusError{StatusCode: 500, Body: "boom"}
	_, err := NewAutofiller(&fakeCompleter{err: boom}, quiet()).Autofill(context.Background(), AutofillRequest{Placeholders: []string{"A"}})

	var se *llm.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.StatusCode)
}

func TestSuggest_ModelQuestions(t *testing.T) {
	fc := &fakeCompleter{reply: `[
		{"label":"Company Name","question":"What is the company's legal name?","example":"Acme, Inc."},
		{"label":"Valuation Cap","question":"What is the cap?"},
		{"label":"","question":"dropped"},
		{"label":"No question"},
		"not an object",
		{"label":7,"question":"Numeric label?","example":null},
	]`}

	suggestions, err := NewSuggester(fc, quiet()).Suggest(context.Background(), SuggestRequest{
		Placeholders: []string{"Company Name", "Valuation Cap"},
		Answers:      map[string]string{"Investor Name": " Alpha ", "Blank": "  "},
		Context:      "SAFE",
	})
	require.NoError(t, err)

	assert.Equal(t, []Suggestion{
		{Label: "Company Name", Question: "What is the company's legal name?", Example: "Acme, Inc."},
		{Label: "Valuation Cap", Question: "What is the cap?"},
		{Label: "7", Question: "Numeric label?"},
	}, suggestions)

	assert.Equal(t, 0.5, fc.opts.Temperature)
	assert.Contains(t, fc.prompt, "Existing answers:\n- Investor Name: Alpha\n")
	assert.NotContains(t, fc.prompt, "Blank")
	assert.Contains(t, fc.prompt, "1. Company Name\n2. Valuation Cap\n")
}

func TestSuggest_NoAnswers(t *testing.T) {
	fc := &fakeCompleter{reply: "[]"}
	_, err := NewSuggester(fc, quiet()).Suggest(context.Background(), SuggestRequest{Placeholders: []string{"A"}})
	require.NoError(t, err)
	assert.Contains(t, fc.prompt, "Existing answers:\n(none)\n")
}

func TestSuggest_OnlyFirstTenItems(t *testing.T) {
	reply := "["
	for i := 0; i < 12; i++ {
		if i > 0 {
			reply += ","
		}
		reply += `{"label":"L","question":"Q"}`
	}
	reply += "]"

	suggestions, err := NewSuggester(&fakeCompleter{reply: reply}, quiet()).Suggest(context.Background(), SuggestRequest{Placeholders: []string{"L"}})
	require.NoError(t, err)
	assert.Len(t, suggestions, 10)
}

func TestSuggest_Fallback(t *testing.T) {
	labels := []string{"Company Name", "Date of Safe", "Investor Name", "Governing Law", "State of Incorporation", "Notes", "Title"}

	suggestions, err := NewSuggester(&fakeCompleter{reply: "no idea"}, quiet()).Suggest(context.Background(), SuggestRequest{Placeholders: labels})
	require.NoError(t, err)
	require.Len(t, suggestions, 6)

	assert.Equal(t, Suggestion{Label: "Company Name", Question: "Please provide Company Name (keep it brief).", Example: "Acme, Inc."}, suggestions[0])
	assert.Equal(t, "2025-01-15", suggestions[1].Example)
	assert.Equal(t, "Alpha Ventures, LP", suggestions[2].Example)
	assert.Equal(t, "State of Delaware", suggestions[3].Example)
	assert.Equal(t, "Delaware", suggestions[4].Example)
	assert.Empty(t, suggestions[5].Example)
}

func TestSuggest_EmptyPlaceholders(t *testing.T) {
	suggestions, err := NewSuggester(&fakeCompleter{reply: ""}, quiet()).Suggest(context.Background(), SuggestRequest{})
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestDefaultValue(t *testing.T) {
	now := fixedNow()
	tests := map[string]string{
		"Date of Safe":           "2026-03-09",
		"Company Name":           "Acme, Inc.",
		"Issuer":                 "Acme, Inc.",
		"Delaware LLC":           "Acme, Inc.",
		"Investor":               "Alpha Ventures, LP",
		"State of Incorporation": "Acme, Inc.",
		"Incorporation State":    "Acme, Inc.",
		"Governing Law":          "State of Delaware",
		"Signer Name":            "Jane Doe",
		"Title":                  "CEO",
		"Purchase Amount":        "—",
	}
	for label, want := range tests {
		assert.Equal(t, want, DefaultValue(label, now), label)
	}
}

func TestExampleFor(t *testing.T) {
	assert.Equal(t, "2025-01-15", ExampleFor("Effective Date"))
	assert.Equal(t, "Acme, Inc.", ExampleFor("issuer"))
	assert.Equal(t, "CEO", ExampleFor("Signer Title"))
	assert.Equal(t, "Delaware", ExampleFor("State of Incorporation"))
	assert.Equal(t, "State of Delaware", ExampleFor("Governing Law"))
	assert.Equal(t, "", ExampleFor("Purchase Amount"))
}
