// Package httpserver exposes resume analysis over HTTP.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spigell/airc/internal/analysis"
	"github.com/spigell/airc/internal/extract"
	"github.com/spigell/airc/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultMaxUploadMB     = 16
	defaultShutdownTimeout = 30 * time.Second
)

// Analyzer produces an analysis record for a stored document.
type Analyzer interface {
	Analyze(ctx context.Context, doc extract.Document, ext, jobDescription string) *analysis.Record
}

// JobCatalog resolves a job id to its description.
type JobCatalog interface {
	Description(id string) (string, error)
}

// Options configure a Server. Analyzer and Store are required.
type Options struct {
	Analyzer    Analyzer
	Store       storage.Store
	Jobs        JobCatalog
	Logger      *zap.Logger
	Gatherer    prometheus.Gatherer
	MaxUploadMB int64
}

type Server struct {
	analyzer       Analyzer
	store          storage.Store
	jobs           JobCatalog
	logger         *zap.Logger
	gatherer       prometheus.Gatherer
	maxUploadBytes int64
}

func New(opts Options) (*Server, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}

	s := &Server{
		analyzer: opts.Analyzer,
		store:    opts.Store,
		jobs:     opts.Jobs,
		logger:   opts.Logger,
		gatherer: opts.Gatherer,
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}

	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	s.maxUploadBytes = maxMB << 20

	return s, nil
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/resume/upload", s.handleResumeUpload)
		r.Post("/applications", s.handleApply)
		r.Post("/analysis", s.handleAnalyze)
		r.Post("/analysis/{resumeID}", s.handleReanalyze)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
