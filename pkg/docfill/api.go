package docfill

import (
	"io"
	"regexp"
	"strings"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/render"
)

// Engine provides the main API for extracting and rendering placeholders.
// An Engine is immutable once built and safe for concurrent use.
type Engine struct {
	config  *Config
	pattern *regexp.Regexp
	logger  *Logger
}

// New creates a new engine configured from the environment.
func New() *Engine {
	return NewWithConfig(ConfigFromEnvironment())
}

// NewWithConfig creates a new engine with custom configuration.
// Unset fields fall back to DefaultConfig.
func NewWithConfig(config *Config) *Engine {
	e := &Engine{
		config: NewConfigWithDefaults(config),
	}
	e.compile()
	return e
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithDelimiters returns an option that sets the placeholder delimiters.
func WithDelimiters(open, close string) Option {
	return func(e *Engine) {
		e.config.OpenDelimiter = open
		e.config.CloseDelimiter = close
	}
}

// WithLineBreaks returns an option that toggles newline to line break conversion.
func WithLineBreaks(enabled bool) Option {
	return func(e *Engine) {
		e.config.LineBreaks = enabled
	}
}

// WithLogger returns an option that sets the engine logger.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	e := &Engine{config: NewConfigWithDefaults(ConfigFromEnvironment())}
	for _, opt := range opts {
		opt(e)
	}
	e.config = NewConfigWithDefaults(e.config)
	e.compile()
	return e
}

func (e *Engine) compile() {
	e.pattern = labelPattern(e.Delimiters())
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() *Config {
	c := *e.config
	return &c
}

// Delimiters returns the placeholder delimiters in use.
func (e *Engine) Delimiters() render.Delimiters {
	return render.Delimiters{Open: e.config.OpenDelimiter, Close: e.config.CloseDelimiter}
}

func (e *Engine) log() *Logger {
	if e.logger != nil {
		return e.logger
	}
	return GetLogger()
}

// labelPattern builds the non-greedy placeholder pattern. A label never
// contains a delimiter character, a carriage return or a newline.
func labelPattern(d render.Delimiters) *regexp.Regexp {
	var class strings.Builder
	seen := make(map[rune]bool)
	for _, r := range d.Open + d.Close {
		if seen[r] {
			continue
		}
		seen[r] = true
		if r == '-' {
			class.WriteString(`\-`)
			continue
		}
		class.WriteString(regexp.QuoteMeta(string(r)))
	}
	return regexp.MustCompile(regexp.QuoteMeta(d.Open) + `([^` + class.String() + `\r\n]+?)` + regexp.QuoteMeta(d.Close))
}

// DefaultEngine is the global default engine instance.
var DefaultEngine = New()

// Module-level convenience functions that use the default engine.

// Extract returns the placeholders of a DOCX read from r using the default engine.
func Extract(r io.Reader) ([]string, error) {
	return DefaultEngine.Extract(r)
}

// ExtractBytes returns the placeholders of an in-memory DOCX using the default engine.
func ExtractBytes(src []byte) ([]string, error) {
	return DefaultEngine.ExtractBytes(src)
}

// Render fills a DOCX using the default engine.
func Render(src []byte, values Values) ([]byte, error) {
	return DefaultEngine.Render(src, values)
}

// SeedValues completes a value map using the default engine.
func SeedValues(src []byte, values Values) (Values, error) {
	return DefaultEngine.SeedValues(src, values)
}
