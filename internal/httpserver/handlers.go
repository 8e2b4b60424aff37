package httpserver

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spigell/airc/internal/extract"
	"github.com/spigell/airc/internal/jobs"
	"github.com/spigell/airc/internal/storage"
	"go.uber.org/zap"
)

const (
	msgNoFile          = "No resume file provided"
	msgNoSelectedFile  = "No selected file"
	msgInvalidType     = "Invalid file type. Only PDF and DOCX allowed."
	msgTooLarge        = "Resume file is too large"
	msgJobIDRequired   = "Job ID is required"
	msgJobNotFound     = "Job not found"
	msgResumeNotFound  = "Resume file not found"
	msgStoreFailed     = "Failed to store resume"
	msgLoadFailed      = "Failed to load resume"
	msgParseFailed     = "Failed to parse resume"
	msgUploadAnalyzed  = "Resume uploaded and analyzed successfully"
	msgUploadNoText    = "Resume uploaded but text extraction failed"
	msgApplicationDone = "Application submitted successfully"
	msgAnalysisDone    = "Analysis complete"

	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type upload struct {
	filename string
	ext      string
	data     []byte
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleResumeUpload(w http.ResponseWriter, r *http.Request) {
	up, ok := s.receive(w, r)
	if !ok || !checkType(w, up) {
		return
	}

	obj, ok := s.save(w, r, up)
	if !ok {
		return
	}

	record := s.analyzer.Analyze(r.Context(), obj, up.ext, "")
	if record.ExtractionFailed() {
		writeJSON(w, http.StatusCreated, uploadResponse{Message: msgUploadNoText, ResumeID: obj.Key})
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message:  msgUploadAnalyzed,
		ResumeID: obj.Key,
		Analysis: record,
	})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	up, ok := s.receive(w, r)
	if !ok {
		return
	}

	jobID := strings.TrimSpace(r.FormValue("job_id"))
	if jobID == "" {
		writeError(w, http.StatusBadRequest, msgJobIDRequired)
		return
	}
	if !checkType(w, up) {
		return
	}

	description, ok := s.lookupJob(w, jobID)
	if !ok {
		return
	}

	obj, ok := s.save(w, r, up)
	if !ok {
		return
	}

	record := s.analyzer.Analyze(r.Context(), obj, up.ext, description)
	projection := record.Projection()

	writeJSON(w, http.StatusCreated, applicationResponse{
		Message:         msgApplicationDone,
		ApplicationID:   uuid.NewString(),
		ResumeID:        obj.Key,
		Score:           projection.Score,
		AnalysisSummary: projection.Summary,
	})
}

// handleAnalyze analyzes an uploaded resume without storing it.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	up, ok := s.receive(w, r)
	if !ok || !checkType(w, up) {
		return
	}

	description, ok := s.jobDescription(w, r)
	if !ok {
		return
	}

	record := s.analyzer.Analyze(r.Context(), extract.Bytes(up.filename, up.data), up.ext, description)
	projection := record.Projection()

	writeJSON(w, http.StatusOK, analysisResponse{
		Message:  msgAnalysisDone,
		Score:    projection.Score,
		Summary:  projection.Summary,
		Analysis: record,
	})
}

// handleReanalyze runs the analysis again on a previously uploaded resume.
func (s *Server) handleReanalyze(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "resumeID")

	obj, err := s.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgResumeNotFound)
			return
		}
		s.logger.Error("failed to load stored resume", zap.String("resume_id", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	description, ok := s.jobDescription(w, r)
	if !ok {
		return
	}

	record := s.analyzer.Analyze(r.Context(), obj, extract.Ext(obj.Name()), description)
	if record.ExtractionFailed() {
		writeError(w, http.StatusUnprocessableEntity, msgParseFailed)
		return
	}

	projection := record.Projection()
	writeJSON(w, http.StatusOK, analysisResponse{
		Message:  msgAnalysisDone,
		Score:    projection.Score,
		Summary:  projection.Summary,
		Analysis: record,
	})
}

// receive reads the "resume" part of a multipart request into memory.
func (s *Server) receive(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return nil, false
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return nil, false
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		writeError(w, http.StatusBadRequest, msgNoSelectedFile)
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return nil, false
	}

	up := &upload{filename: header.Filename, data: data}
	up.ext = resolveExt(header.Filename, data)
	if extract.Ext(up.filename) == "" && up.ext != "" {
		up.filename += "." + up.ext
	}

	return up, true
}

func checkType(w http.ResponseWriter, up *upload) bool {
	if !extract.Supported(up.ext) {
		writeError(w, http.StatusBadRequest, msgInvalidType)
		return false
	}
	return true
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, up *upload) (*storage.Object, bool) {
	obj, err := s.store.Put(r.Context(), up.filename, bytes.NewReader(up.data))
	if err != nil {
		s.logger.Error("failed to store resume", zap.String("filename", up.filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgStoreFailed)
		return nil, false
	}
	return obj, true
}

// jobDescription prefers an inline job_description and falls back to job_id.
func (s *Server) jobDescription(w http.ResponseWriter, r *http.Request) (string, bool) {
	if description := strings.TrimSpace(r.FormValue("job_description")); description != "" {
		return description, true
	}
	if jobID := strings.TrimSpace(r.FormValue("job_id")); jobID != "" {
		return s.lookupJob(w, jobID)
	}
	return "", true
}

func (s *Server) lookupJob(w http.ResponseWriter, id string) (string, bool) {
	if s.jobs == nil {
		writeError(w, http.StatusNotFound, msgJobNotFound)
		return "", false
	}

	description, err := s.jobs.Description(id)
	if err != nil {
		if !errors.Is(err, jobs.ErrNotFound) {
			s.logger.Warn("job lookup failed", zap.String("job_id", id), zap.Error(err))
		}
		writeError(w, http.StatusNotFound, msgJobNotFound)
		return "", false
	}

	return description, true
}

// resolveExt trusts the filename extension and sniffs the content only when
// the name has none.
func resolveExt(filename string, data []byte) string {
	if ext := extract.Ext(filename); ext != "" {
		return ext
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return "pdf"
	case mt.Is(mimeDocx):
		return "docx"
	case mt.Is("application/msword"), mt.Is("application/x-ole-storage"):
		return "doc"
	}
	return ""
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "too large")
}
