// Package config loads the service configuration from .env files, an
// optional YAML file and the environment, in that order of precedence from
// lowest to highest.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/llm"
	"github.com/benjaminschreck/go-docfill/pkg/store"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	LLM     llm.Config    `yaml:"llm"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// StaticDir is served at / when set.
	StaticDir       string        `yaml:"static_dir"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	// IDFormat is nanoid or uuidv7.
	IDFormat string `yaml:"id_format"`
	// IDLength only applies to nanoid ids.
	IDLength int `yaml:"id_length"`
	// Retention removes uploads older than this. Zero keeps them forever.
	Retention time.Duration `yaml:"retention"`
}

type EngineConfig struct {
	OpenDelimiter  string `yaml:"open_delimiter"`
	CloseDelimiter string `yaml:"close_delimiter"`
	LineBreaks     bool   `yaml:"line_breaks"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	engine := docfill.DefaultConfig()
	cfg := &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            3000,
			CORSOrigins:     []string{"*"},
			MaxUploadBytes:  5 << 20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			UploadDir: "uploads",
			IDFormat:  store.FormatNanoID,
			IDLength:  8,
		},
		Engine: EngineConfig{
			OpenDelimiter:  engine.OpenDelimiter,
			CloseDelimiter: engine.CloseDelimiter,
			LineBreaks:     engine.LineBreaks,
		},
		Log: LogConfig{Level: engine.LogLevel},
	}
	cfg.LLM.SetDefaults()
	return cfg
}

// IDGenerator returns the upload id generator selected by Storage.
func (c *Config) IDGenerator() (store.Generator, error) {
	return store.GeneratorFor(c.Storage.IDFormat, c.Storage.IDLength)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EngineConfig returns the template engine configuration.
func (c *Config) EngineConfig() *docfill.Config {
	return &docfill.Config{
		OpenDelimiter:  c.Engine.OpenDelimiter,
		CloseDelimiter: c.Engine.CloseDelimiter,
		LineBreaks:     c.Engine.LineBreaks,
		LogLevel:       c.Log.Level,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Storage.UploadDir == "" {
		errs = append(errs, errors.New("storage.upload_dir is required"))
	}
	switch c.Storage.IDFormat {
	case store.FormatNanoID:
		if c.Storage.IDLength < 6 || c.Storage.IDLength > 64 {
			errs = append(errs, fmt.Errorf("storage.id_length %d must be between 6 and 64", c.Storage.IDLength))
		}
	case store.FormatUUIDv7:
	default:
		errs = append(errs, fmt.Errorf("storage.id_format %q must be %s or %s",
			c.Storage.IDFormat, store.FormatNanoID, store.FormatUUIDv7))
	}
	if c.Storage.Retention < 0 {
		errs = append(errs, errors.New("storage.retention must not be negative"))
	}
	if c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.base_url is required"))
	}
	if err := c.EngineConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	return errors.Join(errs...)
}
