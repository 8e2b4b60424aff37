package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/airc/internal/ai"
	"github.com/spigell/airc/internal/ai/gemini"
	"github.com/spigell/airc/internal/analysis"
	"github.com/spigell/airc/internal/extract"
	"github.com/spigell/airc/internal/metrics"
	"github.com/spigell/airc/internal/secrets"
	"github.com/spigell/airc/internal/storage"

	"go.uber.org/zap"
)

// newModelClient returns the configured model client. A missing API key is
// not fatal: analyses degrade instead of failing.
func newModelClient(ctx context.Context, cfg *AIConfig, recorder metrics.Recorder, logger *zap.Logger) (ai.Client, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	switch {
	case errors.Is(err, secrets.ErrNotConfigured):
		logger.Warn("model is not configured, analyses will return fallback results",
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file"),
		)
		return ai.Unconfigured(err.Error()), nil
	case err != nil:
		logger.Warn("model api key could not be loaded, analyses will return fallback results", zap.Error(err))
		return ai.Unconfigured(err.Error()), nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.Timeout, logger)
	if err != nil {
		return nil, err
	}

	return ai.Instrumented(generator, recorder), nil
}

func newAnalyzer(ctx context.Context, config *Config, recorder metrics.Recorder, logger *zap.Logger) (*analysis.Analyzer, error) {
	client, err := newModelClient(ctx, config.AI, recorder, logger)
	if err != nil {
		return nil, err
	}

	return analysis.New(analysis.Deps{
		Extractor:    extract.New(logger, config.Extract.MaxBytes),
		Client:       client,
		Logger:       logger,
		Metrics:      recorder,
		MaxLogLength: config.AI.Gemini.MaxLogLength,
	}), nil
}

func newStore(ctx context.Context, cfg *StorageConfig) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "local":
		return storage.NewLocal(cfg.Dir)
	case "s3":
		return storage.NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
