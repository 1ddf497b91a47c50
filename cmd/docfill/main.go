// Command docfill fills bracketed placeholders in DOCX templates.
//
// Usage:
//
//	docfill serve --config docfill.yaml
//	docfill extract safe.docx
//	docfill render safe.docx --values answers.yaml --set "Company Name=Acme, Inc."
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/benjaminschreck/go-docfill/pkg/config"
	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/llm"
	"github.com/benjaminschreck/go-docfill/pkg/server"
	"github.com/benjaminschreck/go-docfill/pkg/store"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP server."`
	Extract ExtractCmd `cmd:"" help:"List the placeholders of a template."`
	Render  RenderCmd  `cmd:"" help:"Fill a template and write the completed document."`

	Config   string `short:"c" help:"Path to a YAML config file." type:"path" env:"DOCFILL_CONFIG"`
	LogLevel string `help:"Log level (debug, info, warn, error, off)." env:"DOCFILL_LOG_LEVEL"`
}

// loadConfig reads the service configuration and applies the global flags.
func (cli *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *docfill.Logger {
	logger := docfill.NewLogger(os.Stderr, docfill.ParseLogLevel(cfg.Log.Level))
	docfill.SetLogger(logger)
	return logger
}

func newEngine(cfg *config.Config, logger *docfill.Logger) *docfill.Engine {
	ec := cfg.EngineConfig()
	return docfill.NewWithOptions(
		docfill.WithDelimiters(ec.OpenDelimiter, ec.CloseDelimiter),
		docfill.WithLineBreaks(ec.LineBreaks),
		docfill.WithLogger(logger),
	)
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("docfill version %s\n", version)
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Port      int    `help:"Port to listen on (overrides config and PORT)."`
	StaticDir string `name:"static-dir" help:"Directory served at /." type:"path"`
	UploadDir string `name:"upload-dir" help:"Directory for uploaded templates." type:"path"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.StaticDir != "" {
		cfg.Server.StaticDir = c.StaticDir
	}
	if c.UploadDir != "" {
		cfg.Storage.UploadDir = c.UploadDir
	}

	logger := newLogger(cfg)

	gen, err := cfg.IDGenerator()
	if err != nil {
		return err
	}
	st, err := store.New(cfg.Storage.UploadDir, store.Options{Generator: gen})
	if err != nil {
		return err
	}

	completer := llm.NewOllamaClient(cfg.LLM)
	srv := server.New(newEngine(cfg, logger), st, completer, logger, server.Options{
		StaticDir:       cfg.Server.StaticDir,
		CORSOrigins:     cfg.Server.CORSOrigins,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		Retention:       cfg.Storage.Retention,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	logger.WithFields(docfill.Fields{
		"addr":       cfg.Addr(),
		"uploads":    st.Dir(),
		"id_format":  cfg.Storage.IDFormat,
		"model":      completer.Model(),
		"ollama_url": completer.BaseURL(),
	}).Info("Starting docfill")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, cfg.Addr())
}

// ExtractCmd prints the placeholders of a template.
type ExtractCmd struct {
	Template string `arg:"" help:"DOCX template." type:"existingfile"`
	JSON     bool   `help:"Print a JSON array instead of one label per line."`
}

func (c *ExtractCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	engine := newEngine(cfg, newLogger(cfg))

	f, err := os.Open(c.Template)
	if err != nil {
		return err
	}
	defer f.Close()

	labels, err := engine.Extract(f)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		return enc.Encode(labels)
	}
	for _, label := range labels {
		fmt.Println(label)
	}
	return nil
}

// RenderCmd fills a template from a value file and --set pairs.
type RenderCmd struct {
	Template string            `arg:"" help:"DOCX template." type:"existingfile"`
	Values   string            `short:"v" help:"JSON or YAML file with label values." type:"existingfile"`
	Set      map[string]string `short:"s" help:"Set a single value (label=value); repeatable." mapsep:"none"`
	Output   string            `short:"o" help:"Output path (default: <template>-completed.docx)." type:"path"`
}

func (c *RenderCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	engine := newEngine(cfg, newLogger(cfg))

	values := docfill.Values{}
	if c.Values != "" {
		values, err = loadValues(c.Values)
		if err != nil {
			return err
		}
	}
	for k, v := range c.Set {
		values[k] = v
	}

	src, err := os.ReadFile(c.Template)
	if err != nil {
		return err
	}

	out, err := engine.Render(src, values)
	if err != nil {
		var re *docfill.RenderError
		if errors.As(err, &re) {
			for _, p := range re.Problems {
				fmt.Fprintf(os.Stderr, "%s: %s\n", p.Part, p.Explanation)
			}
		}
		return err
	}

	output := c.Output
	if output == "" {
		output = completedPath(c.Template)
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Println(output)
	return nil
}

func completedPath(template string) string {
	ext := filepath.Ext(template)
	if strings.EqualFold(ext, ".docx") {
		template = strings.TrimSuffix(template, ext)
	}
	return template + "-completed.docx"
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("docfill"),
		kong.Description("Fill [bracketed] placeholders in DOCX templates."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
