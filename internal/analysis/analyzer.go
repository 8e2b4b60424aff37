package analysis

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/spigell/airc/internal/ai"
	"github.com/spigell/airc/internal/extract"
	"github.com/spigell/airc/internal/logger"
	"github.com/spigell/airc/internal/metrics"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, doc extract.Document, ext string) (string, error)
}

// Deps are the collaborators of an Analyzer.
type Deps struct {
	Extractor    TextExtractor
	Client       ai.Client
	Logger       *zap.Logger
	Metrics      metrics.Recorder
	MaxLogLength int
}

// Analyzer runs extraction, prompt building, the model call and normalization.
// It is safe for concurrent use when its dependencies are.
type Analyzer struct {
	extractor TextExtractor
	client    ai.Client
	logger    *zap.Logger
	metrics   metrics.Recorder
	maxLogLen int
}

func New(deps Deps) *Analyzer {
	a := &Analyzer{
		extractor: deps.Extractor,
		client:    deps.Client,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		maxLogLen: deps.MaxLogLength,
	}

	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.extractor == nil {
		a.extractor = extract.New(a.logger, 0)
	}
	if a.client == nil {
		a.client = ai.Unconfigured("")
	}
	if a.metrics == nil {
		a.metrics = metrics.Nop{}
	}
	if a.maxLogLen <= 0 {
		a.maxLogLen = defaultMaxLogLength
	}

	return a
}

// Analyze always returns a well-formed record. A blank jobDescription means
// general classification without a match score.
func (a *Analyzer) Analyze(ctx context.Context, doc extract.Document, ext, jobDescription string) *Record {
	withJob := strings.TrimSpace(jobDescription) != ""
	log := logger.WithDocument(a.logger, doc.Name(), ext).With(zap.Bool("with_job_description", withJob))

	text, err := a.extractor.Extract(ctx, doc, ext)
	if err != nil || text == "" {
		reason := zap.String("reason", "empty text")
		if err != nil {
			reason = zap.Error(err)
		}
		log.Warn("text extraction failed, skipping model call", reason)

		a.metrics.AnalysisCompleted(metrics.OutcomeExtractionFailed)
		return degraded(SummaryExtractionFailed, withJob)
	}

	prompt := BuildPrompt(text, jobDescription)

	log.Debug("model request",
		zap.Int("resume_length", utf8.RuneCountInString(text)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Preview(prompt, a.maxLogLen)),
	)

	raw, invokeErr := a.client.Invoke(ctx, prompt)
	if invokeErr == nil {
		log.Debug("model response",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", logger.Preview(raw, a.maxLogLen)),
		)
	}

	record, problem := normalize(raw, invokeErr, withJob)

	switch {
	case errors.Is(invokeErr, ai.ErrUnconfigured):
		log.Warn("model is not configured, returning fallback analysis", zap.Error(invokeErr))
	case invokeErr != nil:
		log.Warn("model call failed, returning fallback analysis", zap.Error(invokeErr))
	case record.Degraded:
		log.Warn("model response could not be parsed, returning fallback analysis",
			zap.Error(problem),
			zap.String("response_preview", logger.Preview(raw, a.maxLogLen)),
		)
	case problem != nil:
		log.Debug("some fields of the model response were ignored", zap.Error(problem))
	}

	outcome := metrics.OutcomeOK
	if record.Degraded {
		outcome = metrics.OutcomeDegraded
	}
	a.metrics.AnalysisCompleted(outcome)

	fields := []zap.Field{
		zap.String("experience_level", string(record.ExperienceLevel)),
		zap.Bool("degraded", record.Degraded),
	}
	if record.MatchScore != nil {
		fields = append(fields, zap.Int("match_score", *record.MatchScore))
	}
	log.Info("resume analyzed", fields...)

	return record
}
