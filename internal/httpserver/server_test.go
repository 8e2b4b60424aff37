package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/airc/internal/analysis"
	"github.com/spigell/airc/internal/extract"
	"github.com/spigell/airc/internal/httpserver"
	"github.com/spigell/airc/internal/jobs"
	"github.com/spigell/airc/internal/metrics"
	"github.com/spigell/airc/internal/storage"
)

type analyzeCall struct {
	name string
	ext  string
	jd   string
}

type stubAnalyzer struct {
	mu     sync.Mutex
	calls  []analyzeCall
	record *analysis.Record
}

func (s *stubAnalyzer) Analyze(_ context.Context, doc extract.Document, ext, jd string) *analysis.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, analyzeCall{name: doc.Name(), ext: ext, jd: jd})
	if s.record != nil {
		return s.record
	}
	score := 64
	return &analysis.Record{
		Summary:         "Solid backend profile",
		Skills:          []string{"Go"},
		ExperienceLevel: analysis.LevelMid,
		Strengths:       []string{},
		Weaknesses:      []string{},
		MatchScore:      &score,
	}
}

type fixture struct {
	analyzer *stubAnalyzer
	store    *storage.Local
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	catalog, err := jobs.NewCatalog([]jobs.Job{
		{ID: "backend", Title: "Backend Engineer", Description: "Senior Go engineer"},
	})
	require.NoError(t, err)

	analyzer := &stubAnalyzer{}
	srv, err := httpserver.New(httpserver.Options{
		Analyzer:    analyzer,
		Store:       store,
		Jobs:        catalog,
		Gatherer:    prometheus.NewRegistry(),
		MaxUploadMB: 1,
	})
	require.NoError(t, err)

	return &fixture{analyzer: analyzer, store: store, handler: srv.Handler()}
}

func multipartRequest(t *testing.T, target, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("resume", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec, body := serve(f.handler, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheus(reg)
	require.NoError(t, err)
	recorder.AnalysisCompleted(metrics.OutcomeOK)

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	srv, err := httpserver.New(httpserver.Options{Analyzer: &stubAnalyzer{}, Store: store, Gatherer: reg})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `analyses_total{outcome="ok"} 1`)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := httpserver.New(httpserver.Options{})
	require.Error(t, err)

	_, err = httpserver.New(httpserver.Options{Analyzer: &stubAnalyzer{}})
	require.Error(t, err)
}

func TestResumeUpload(t *testing.T) {
	f := newFixture(t)

	rec, body := serve(f.handler, multipartRequest(t, "/api/resume/upload", "cv.pdf", []byte("%PDF-1.4"), nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Resume uploaded and analyzed successfully", body["message"])

	resumeID, _ := body["resume_id"].(string)
	require.NotEmpty(t, resumeID)
	assert.True(t, strings.HasSuffix(resumeID, "_cv.pdf"))

	result, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Solid backend profile", result["summary"])

	require.Len(t, f.analyzer.calls, 1)
	assert.Equal(t, "pdf", f.analyzer.calls[0].ext)
	assert.Empty(t, f.analyzer.calls[0].jd)

	_, err := f.store.Get(context.Background(), resumeID)
	require.NoError(t, err)
}

func TestResumeUploadExtractionFailed(t *testing.T) {
	f := newFixture(t)
	f.analyzer.record = &analysis.Record{
		Summary:         analysis.SummaryExtractionFailed,
		Skills:          []string{},
		Strengths:       []string{},
		Weaknesses:      []string{},
		ExperienceLevel: analysis.LevelUnknown,
		Degraded:        true,
	}

	rec, body := serve(f.handler, multipartRequest(t, "/api/resume/upload", "cv.docx", []byte("not a zip"), nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Resume uploaded but text extraction failed", body["message"])
	assert.NotEmpty(t, body["resume_id"])
	assert.NotContains(t, body, "analysis")
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		filename string
		content  []byte
		fields   map[string]string
		status   int
		message  string
	}{
		{"missing file", "/api/resume/upload", "", nil, nil, http.StatusBadRequest, "No resume file provided"},
		{"bad extension", "/api/resume/upload", "cv.png", []byte("png"), nil, http.StatusBadRequest, "Invalid file type. Only PDF and DOCX allowed."},
		{"unknown content without extension", "/api/analysis", "resume", []byte("plain text"), nil, http.StatusBadRequest, "Invalid file type. Only PDF and DOCX allowed."},
		{"missing job id", "/api/applications", "cv.pdf", []byte("%PDF-1.4"), nil, http.StatusBadRequest, "Job ID is required"},
		{"unknown job", "/api/applications", "cv.pdf", []byte("%PDF-1.4"), map[string]string{"job_id": "nope"}, http.StatusNotFound, "Job not found"},
		{"too large", "/api/resume/upload", "cv.pdf", bytes.Repeat([]byte("a"), 2<<20), nil, http.StatusRequestEntityTooLarge, "Resume file is too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec, body := serve(f.handler, multipartRequest(t, tt.target, tt.filename, tt.content, tt.fields))
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.message, body["error"])
			assert.Empty(t, f.analyzer.calls)
		})
	}
}

func TestUploadNotMultipart(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", strings.NewReader(`{"resume":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	rec, body := serve(f.handler, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No resume file provided", body["error"])
}

func TestApply(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, "/api/applications", "cv.pdf", []byte("%PDF-1.4"), map[string]string{"job_id": "backend"})
	rec, body := serve(f.handler, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, "Application submitted successfully", body["message"])
	assert.NotEmpty(t, body["application_id"])
	assert.EqualValues(t, 64, body["score"])
	assert.Equal(t, "Solid backend profile", body["analysis_summary"])

	require.Len(t, f.analyzer.calls, 1)
	assert.Equal(t, "Senior Go engineer", f.analyzer.calls[0].jd)
}

func TestAnalyzeSniffsContentWithoutExtension(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, "/api/analysis", "resume", []byte("%PDF-1.4\n%%EOF"), map[string]string{"job_description": "Go developer"})
	rec, body := serve(f.handler, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "Analysis complete", body["message"])
	assert.EqualValues(t, 64, body["score"])
	assert.Equal(t, "Solid backend profile", body["summary"])

	require.Len(t, f.analyzer.calls, 1)
	assert.Equal(t, analyzeCall{name: "resume.pdf", ext: "pdf", jd: "Go developer"}, f.analyzer.calls[0])
}

func TestReanalyzeStoredResume(t *testing.T) {
	f := newFixture(t)

	obj, err := f.store.Put(context.Background(), "cv.docx", strings.NewReader("PK"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/"+obj.Key, strings.NewReader("job_id=backend"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, body := serve(f.handler, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 64, body["score"])

	require.Len(t, f.analyzer.calls, 1)
	assert.Equal(t, analyzeCall{name: "cv.docx", ext: "docx", jd: "Senior Go engineer"}, f.analyzer.calls[0])
}

func TestReanalyzeMissingResume(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{
		"/api/analysis/resume_missing.pdf",
		"/api/analysis/..",
		"/api/analysis/..%2Fsecret.pdf",
	} {
		rec, body := serve(f.handler, httptest.NewRequest(http.MethodPost, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "Resume file not found", body["error"], path)
	}
}

type fixedText struct{ text string }

func (f fixedText) Extract(context.Context, extract.Document, string) (string, error) {
	return f.text, nil
}

type fixedClient struct{ response string }

func (c fixedClient) Invoke(context.Context, string) (string, error) {
	return c.response, nil
}

func TestApplyEndToEnd(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	catalog, err := jobs.NewCatalog([]jobs.Job{{ID: "7", Description: "Senior Python developer"}})
	require.NoError(t, err)

	analyzer := analysis.New(analysis.Deps{
		Extractor: fixedText{text: "Senior backend engineer, 8 years, Python/Go, led 3 teams."},
		Client: fixedClient{response: "```json\n" +
			`{"summary":"Strong fit","skills":["Python","Go"],"experience_level":"Senior","match_score":82,"recommendation":"Interview"}` +
			"\n```"},
	})

	srv, err := httpserver.New(httpserver.Options{Analyzer: analyzer, Store: store, Jobs: catalog, Gatherer: prometheus.NewRegistry()})
	require.NoError(t, err)

	req := multipartRequest(t, "/api/applications", "cv.pdf", []byte("%PDF-1.4"), map[string]string{"job_id": "7"})
	rec, body := serve(srv.Handler(), req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 82, body["score"])
	assert.Equal(t, "Strong fit", body["analysis_summary"])
}
