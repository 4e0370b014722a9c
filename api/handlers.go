package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"webrag/query"
	"webrag/repository"

	"go.uber.org/zap"
)

type IngestRequest struct {
	URL string `json:"url"`
}

type IngestResponse struct {
	Message        string `json:"message"`
	DocumentID     string `json:"document_id"`
	StatusEndpoint string `json:"status_endpoint"`
}

type DocumentStatusResponse struct {
	DocumentID   string `json:"document_id"`
	SourceURL    string `json:"source_url"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type QueryRequest struct {
	Question string `json:"question"`
	TopK     uint64 `json:"top_k"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// IngestURLHandler accepts a URL, creates the PENDING document and enqueues
// the ingestion job. The 202 response carries a status lookup reference.
func (s *Server) IngestURLHandler(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if !isValidURL(req.URL) {
		writeError(w, http.StatusBadRequest, "url must be a valid http or https URL")
		return
	}

	doc, err := s.docs.Create(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateURL) {
			writeError(w, http.StatusConflict, "This URL has already been submitted.")
			return
		}
		s.logger.Error("failed to create document", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create document")
		return
	}

	if err := s.dispatcher.Enqueue(r.Context(), doc.ID, doc.SourceURL); err != nil {
		// The row stays PENDING; resubmission conflicts, so surface the
		// failure instead of answering 202 for a job that never ran.
		s.logger.Error("failed to enqueue ingestion job",
			zap.String("document_id", doc.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to enqueue ingestion job")
		return
	}

	writeJSON(w, http.StatusAccepted, IngestResponse{
		Message:        "URL accepted for ingestion.",
		DocumentID:     doc.ID,
		StatusEndpoint: fmt.Sprintf("/status/%s", doc.ID),
	})
}

// StatusHandler returns the latest persisted state of an ingestion job. It
// never blocks waiting for completion.
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("document_id")

	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Document not found.")
			return
		}
		s.logger.Error("failed to load document", zap.String("document_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	writeJSON(w, http.StatusOK, DocumentStatusResponse{
		DocumentID:   doc.ID,
		SourceURL:    doc.SourceURL,
		Status:       string(doc.Status),
		ErrorMessage: doc.ErrorMessage,
	})
}

// QueryHandler answers a question grounded in indexed content.
func (s *Server) QueryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question cannot be empty.")
		return
	}
	if req.TopK == 0 {
		req.TopK = query.DefaultTopK
	}

	result, err := s.querySvc.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func isValidURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
