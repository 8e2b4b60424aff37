package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/spigell/airc/internal/analysis"
)

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResponse struct {
	Message  string           `json:"message"`
	ResumeID string           `json:"resume_id"`
	Analysis *analysis.Record `json:"analysis,omitempty"`
}

type applicationResponse struct {
	Message         string `json:"message"`
	ApplicationID   string `json:"application_id"`
	ResumeID        string `json:"resume_id"`
	Score           int    `json:"score"`
	AnalysisSummary string `json:"analysis_summary"`
}

type analysisResponse struct {
	Message  string           `json:"message"`
	Score    int              `json:"score"`
	Summary  string           `json:"summary"`
	Analysis *analysis.Record `json:"analysis"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
