package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/agentic-query-router/agent/agents/router"
)

const (
	uploadSucceededMessage = "Document processed successfully."
	uploadFailedMessage    = "The document could not be processed."
)

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "a file is required in the \"file\" field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "the uploaded file could not be read"})
		return
	}

	name := filepath.Base(header.Filename)
	chunks, err := s.ingester.Ingest(r.Context(), name, data)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("document upload failed")
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: uploadFailedMessage})
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Message: uploadSucceededMessage, Chunks: chunks})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be JSON with a \"query\" field"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	result, err := s.router.Route(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, router.ErrInvalidQuery) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
			return
		}
		log.Error().Err(err).Msg("route query")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: result.Text})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}
