package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "HOST", "OLLAMA_URL", "OLLAMA_MODEL", "DOCFILL_UPLOAD_DIR", "DOCFILL_STATIC_DIR",
	"DOCFILL_OPEN_DELIMITER", "DOCFILL_CLOSE_DELIMITER", "DOCFILL_LOG_LEVEL", "DOCFILL_LINE_BREAKS",
	"DOCFILL_CORS_ORIGINS", "DOCFILL_TEST_MODEL", "DOCFILL_ID_FORMAT", "DOCFILL_UPLOAD_RETENTION",
}

// isolate runs the test in an empty directory with a clean environment.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, int64(5<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "nanoid", cfg.Storage.IDFormat)
	assert.Equal(t, 8, cfg.Storage.IDLength)
	assert.Zero(t, cfg.Storage.Retention)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3.2:3b", cfg.LLM.Model)
	assert.Equal(t, "[", cfg.Engine.OpenDelimiter)
	assert.True(t, cfg.Engine.LineBreaks)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	dir := isolate(t)
	t.Setenv("DOCFILL_TEST_MODEL", "mistral:7b")

	path := filepath.Join(dir, "docfill.yaml")
	writeFile(t, path, `
server:
  port: "8080"
  static_dir: ./public
  cors_origins: https://a.example,https://b.example
  shutdown_timeout: 3s
storage:
  upload_dir: /var/lib/docfill
  id_format: uuidv7
  retention: 24h
llm:
  model: ${DOCFILL_TEST_MODEL}
  base_url: ${DOCFILL_TEST_URL:-http://ollama:11434}
  timeout: 90s
engine:
  open_delimiter: "{{"
  close_delimiter: "}}"
  line_breaks: false
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./public", cfg.Server.StaticDir)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/var/lib/docfill", cfg.Storage.UploadDir)
	assert.Equal(t, "uuidv7", cfg.Storage.IDFormat)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Retention)
	assert.Equal(t, "mistral:7b", cfg.LLM.Model)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "{{", cfg.Engine.OpenDelimiter)
	assert.False(t, cfg.Engine.LineBreaks)
	assert.Equal(t, "debug", cfg.EngineConfig().LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "docfill.yaml")
	writeFile(t, path, "server:\n  port: 8080\nllm:\n  model: from-file\n")

	t.Setenv("PORT", "9090")
	t.Setenv("OLLAMA_MODEL", "from-env")
	t.Setenv("DOCFILL_LINE_BREAKS", "false")
	t.Setenv("DOCFILL_ID_FORMAT", "uuidv7")
	t.Setenv("DOCFILL_UPLOAD_RETENTION", "90m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "uuidv7", cfg.Storage.IDFormat)
	assert.Equal(t, 90*time.Minute, cfg.Storage.Retention)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.False(t, cfg.Engine.LineBreaks)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "OLLAMA_URL=http://dotenv:11434\nPORT=4000\n")
	writeFile(t, filepath.Join(dir, ".env.local"), "PORT=4001\n")
	t.Cleanup(func() {
		os.Unsetenv("OLLAMA_URL")
		os.Unsetenv("PORT")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv:11434", cfg.LLM.BaseURL)
	assert.Equal(t, 4001, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown key", yaml: "server:\n  prot: 1\n", wantErr: "failed to decode config"},
		{name: "bad yaml", yaml: "server: [\n", wantErr: "failed to parse config"},
		{name: "bad port env", env: map[string]string{"PORT": "http"}, wantErr: "invalid PORT"},
		{name: "bad line breaks env", env: map[string]string{"DOCFILL_LINE_BREAKS": "maybe"}, wantErr: "invalid DOCFILL_LINE_BREAKS"},
		{name: "same delimiters", yaml: "engine:\n  open_delimiter: \"|\"\n  close_delimiter: \"|\"\n", wantErr: "open and close delimiters must differ"},
		{name: "unknown id format", yaml: "storage:\n  id_format: ulid\n", wantErr: "storage.id_format"},
		{name: "bad retention env", env: map[string]string{"DOCFILL_UPLOAD_RETENTION": "soon"}, wantErr: "invalid DOCFILL_UPLOAD_RETENTION"},
		{name: "bad log level", env: map[string]string{"DOCFILL_LOG_LEVEL": "loud"}, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := ""
			if tt.yaml != "" {
				path = filepath.Join(dir, "docfill.yaml")
				writeFile(t, path, tt.yaml)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	_, err := Load("does-not-exist.yaml")
	assert.ErrorContains(t, err, "failed to read config")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	cfg.Storage.UploadDir = ""
	cfg.Storage.IDLength = 2

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "storage.upload_dir")
	assert.Contains(t, err.Error(), "storage.id_length")
}

func TestValidate_IDFormat(t *testing.T) {
	cfg := Default()
	cfg.Storage.IDFormat = "uuidv7"
	cfg.Storage.IDLength = 0
	require.NoError(t, cfg.Validate(), "id_length is ignored for uuidv7")

	gen, err := cfg.IDGenerator()
	require.NoError(t, err)
	assert.Len(t, gen(), 36)

	cfg.Storage.IDFormat = "sequential"
	cfg.Storage.Retention = -time.Second
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `storage.id_format "sequential"`)
	assert.Contains(t, err.Error(), "storage.retention")

	cfg = Default()
	gen, err = cfg.IDGenerator()
	require.NoError(t, err)
	assert.Len(t, gen(), 8)
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("DOCFILL_TEST_MODEL", "phi3")

	assert.Equal(t, "model=phi3", expandEnvString("model=${DOCFILL_TEST_MODEL}"))
	assert.Equal(t, "fallback", expandEnvString("${DOCFILL_UNSET_VAR:-fallback}"))
	assert.Equal(t, "", expandEnvString("${DOCFILL_UNSET_VAR}"))
	assert.Equal(t, "$PLAIN", expandEnvString("$PLAIN"))
}
