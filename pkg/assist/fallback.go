package assist

import (
	"regexp"
	"time"
)

type rule struct {
	pattern *regexp.Regexp
	value   string
}

// dateLayout is used for generated date values.
const dateLayout = "2006-01-02"

// blankValue fills labels no rule recognises.
const blankValue = "—"

var datePattern = regexp.MustCompile(`(?i)date`)

// valueRules are tried in order after the date rule. "corporation" also
// catches "State of Incorporation".
var valueRules = []rule{
	{regexp.MustCompile(`(?i)company|issuer|corporation|llc`), "Acme, Inc."},
	{regexp.MustCompile(`(?i)investor`), "Alpha Ventures, LP"},
	{regexp.MustCompile(`(?i)governing law`), "State of Delaware"},
	{regexp.MustCompile(`(?i)name`), "Jane Doe"},
	{regexp.MustCompile(`(?i)title`), "CEO"},
}

var exampleRules = []rule{
	{datePattern, "2025-01-15"},
	{regexp.MustCompile(`(?i)governing law`), "State of Delaware"},
	{regexp.MustCompile(`(?i)state of incorporation`), "Delaware"},
	{regexp.MustCompile(`(?i)company|issuer`), "Acme, Inc."},
	{regexp.MustCompile(`(?i)investor`), "Alpha Ventures, LP"},
	{regexp.MustCompile(`(?i)title`), "CEO"},
}

// DefaultValue returns a plausible value for label. Dates resolve to now in
// UTC.
func DefaultValue(label string, now time.Time) string {
	if datePattern.MatchString(label) {
		return now.UTC().Format(dateLayout)
	}
	for _, r := range valueRules {
		if r.pattern.MatchString(label) {
			return r.value
		}
	}
	return blankValue
}

// ExampleFor returns a sample answer for label, or "" when none applies.
func ExampleFor(label string) string {
	for _, r := range exampleRules {
		if r.pattern.MatchString(label) {
			return r.value
		}
	}
	return ""
}
