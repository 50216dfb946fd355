package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

type ingestRequest struct {
	FilePath string `json:"file_path"`
}

type ingestResponse struct {
	DocumentID string `json:"document_id"`
	Blocks     int    `json:"blocks"`
	FileType   string `json:"file_type"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FilePath == "" {
		s.respondError(w, http.StatusBadRequest, "file_path is required")
		return
	}
	s.logger.Debug("ingest request",
		zap.String("document_id", documentID), zap.String("file", req.FilePath))

	index, err := s.ingest.Ingest(documentID, req.FilePath)
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, ingestResponse{
		DocumentID: index.DocumentID,
		Blocks:     len(index.Blocks),
		FileType:   index.FileType,
	})
}

type processRequest struct {
	Query              string   `json:"query"`
	ReferencedBlockIDs []string `json:"referenced_block_ids,omitempty"`
	ConversationID     string   `json:"conversation_id,omitempty"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.analysis.Run(documentID, req.Query, req.ReferencedBlockIDs)
	if err != nil {
		s.logger.Error("process failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if req.ConversationID != "" {
		s.cache.SetActiveDocument(req.ConversationID, documentID)
	}
	s.respondJSON(w, http.StatusOK, result)
}

type applyPatchRequest struct {
	Plan       *models.PatchPlan `json:"plan"`
	InputPath  string            `json:"input_path"`
	OutputPath string            `json:"output_path"`
}

type applyPatchResponse struct {
	OutputPath string `json:"output_path"`
	Steps      int    `json:"steps_applied"`
}

func (s *Server) handleApplyPatch(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	var req applyPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Plan == nil || req.InputPath == "" {
		s.respondError(w, http.StatusBadRequest, "plan and input_path are required")
		return
	}
	if req.Plan.DocumentID != documentID {
		s.respondError(w, http.StatusBadRequest, "plan document_id does not match URL")
		return
	}
	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = s.defaultOutputPath(req.InputPath)
	}

	out, err := s.executor.Execute(req.Plan, req.InputPath, outputPath)
	if err != nil {
		s.logger.Error("patch failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, applyPatchResponse{
		OutputPath: out,
		Steps:      len(req.Plan.Operations),
	})
}

// defaultOutputPath places a patched copy of the input file in the configured
// patch output directory, used when the request names no output path.
func (s *Server) defaultOutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext) + "_patched" + ext
	return filepath.Join(s.config.Pipeline.PatchOutputDir, name)
}

type activeDocumentRequest struct {
	DocumentID string `json:"document_id"`
}

func (s *Server) handleSetActiveDocument(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	var req activeDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" {
		s.respondError(w, http.StatusBadRequest, "document_id is required")
		return
	}
	s.cache.SetActiveDocument(conversationID, req.DocumentID)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetActiveDocument(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	documentID, ok := s.cache.ActiveDocument(conversationID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "no active document for conversation")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"document_id": documentID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnsupportedFormat),
		errors.Is(err, models.ErrUnsupportedOperation),
		errors.Is(err, models.ErrInvalidIntent),
		errors.Is(err, models.ErrNoTargets),
		errors.Is(err, models.ErrUnscoped):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAmbiguous):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
