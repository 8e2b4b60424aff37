package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/airc/internal/ai"
	"github.com/spigell/airc/internal/extract"
	"github.com/spigell/airc/internal/jobs"
	"github.com/spigell/airc/internal/metrics"
	"github.com/spigell/airc/internal/storage"
)

const sampleConfig = `
ai:
  gemini:
    model: gemini-2.5-pro
    timeout: 15s
storage:
  driver: local
  dir: /tmp/airc-test
server:
  max-upload-mb: 4
jobs:
  - id: backend
    title: Backend Engineer
    description: Senior Go engineer
`

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		t.Fatalf("bindEnv: %v", err)
	}
	return v
}

func TestDecodeConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airc.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := newTestViper(t)
	if err := readConfig(v, path); err != nil {
		t.Fatalf("readConfig: %v", err)
	}

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig: %v", err)
	}

	if config.AI.Gemini.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected model %q", config.AI.Gemini.Model)
	}
	if config.AI.Gemini.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %v", config.AI.Gemini.Timeout)
	}
	if config.AI.Gemini.MaxLogLength != 200 {
		t.Fatalf("expected default max log length, got %d", config.AI.Gemini.MaxLogLength)
	}
	if config.Server.MaxUploadMB != 4 || config.Server.Addr != ":5000" {
		t.Fatalf("unexpected server config %+v", config.Server)
	}
	if config.Extract.MaxBytes != extract.DefaultMaxBytes {
		t.Fatalf("unexpected max bytes %d", config.Extract.MaxBytes)
	}
	if len(config.Jobs) != 1 || config.Jobs[0].Description != "Senior Go engineer" {
		t.Fatalf("unexpected jobs %+v", config.Jobs)
	}
}

func TestReadConfigOptionalDefaultFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	v := newTestViper(t)
	if err := readConfig(v, ""); err != nil {
		t.Fatalf("missing default config must be ignored, got %v", err)
	}

	if err := readConfig(newTestViper(t), "missing.yaml"); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("AIRC_STORAGE_DRIVER", "s3")

	config, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decodeConfig: %v", err)
	}

	if config.AI.Gemini.APIKey != "from-env" {
		t.Fatalf("expected api key from GEMINI_API_KEY, got %q", config.AI.Gemini.APIKey)
	}
	if config.Storage.Driver != "s3" {
		t.Fatalf("expected driver from AIRC_STORAGE_DRIVER, got %q", config.Storage.Driver)
	}
}

func TestNewModelClientWithoutKeyIsUnconfigured(t *testing.T) {
	cfg := &AIConfig{Provider: "gemini", Gemini: &GeminiConfig{}}

	client, err := newModelClient(context.Background(), cfg, metrics.Nop{}, zap.NewNop())
	if err != nil {
		t.Fatalf("newModelClient: %v", err)
	}

	_, err = client.Invoke(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrUnconfigured) {
		t.Fatalf("expected unconfigured failure, got %v", err)
	}
}

func TestNewModelClientRejectsUnknownProvider(t *testing.T) {
	cfg := &AIConfig{Provider: "openai", Gemini: &GeminiConfig{APIKey: "k"}}
	if _, err := newModelClient(context.Background(), cfg, metrics.Nop{}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
}

func TestNewStore(t *testing.T) {
	store, err := newStore(context.Background(), &StorageConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	if _, ok := store.(*storage.Local); !ok {
		t.Fatalf("expected local store, got %T", store)
	}

	if _, err := newStore(context.Background(), &StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func newAnalyzeFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "analyze"}
	cmd.Flags().String("job-description", "", "")
	cmd.Flags().String("job-file", "", "")
	cmd.Flags().String("job-id", "", "")
	cmd.Flags().BoolP("interactive", "i", false, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestResolveJobDescription(t *testing.T) {
	catalog, err := jobs.NewCatalog([]jobs.Job{{ID: "backend", Description: "Senior Go engineer"}})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	jobFile := filepath.Join(t.TempDir(), "job.txt")
	if err := os.WriteFile(jobFile, []byte("Data engineer"), 0o600); err != nil {
		t.Fatalf("write job file: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"none", nil, ""},
		{"inline", []string{"--job-description", "Go developer"}, "Go developer"},
		{"file", []string{"--job-file", jobFile}, "Data engineer"},
		{"job id", []string{"--job-id", "backend"}, "Senior Go engineer"},
		{"inline wins", []string{"--job-description", "Go developer", "--job-id", "backend"}, "Go developer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveJobDescription(newAnalyzeFlags(t, tt.args...), catalog)
			if err != nil {
				t.Fatalf("resolveJobDescription: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := resolveJobDescription(newAnalyzeFlags(t, "--job-id", "missing"), catalog); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenDocumentLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := openDocument(context.Background(), &Config{Storage: &StorageConfig{}}, path)
	if err != nil {
		t.Fatalf("openDocument: %v", err)
	}
	if doc.Name() != "cv.pdf" {
		t.Fatalf("unexpected name %q", doc.Name())
	}

	if _, err := openDocument(context.Background(), &Config{Storage: &StorageConfig{}}, filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
