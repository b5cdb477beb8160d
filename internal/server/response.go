package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"archivum/internal/apperrors"
	"archivum/internal/extract"
	"archivum/internal/llm"
)

// ApiResponse wraps every successful JSON body.
type ApiResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

func (s *Server) writeData(w http.ResponseWriter, statusCode int, data any) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data}); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := http.StatusInternalServerError, "internal_error", "internal error"

	var llmErr *llm.Error
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, apperrors.ErrNotConfigured):
		status, code = http.StatusServiceUnavailable, "extraction_not_configured"
		message = "Entity extraction is not configured: set ARCHIVUM_LLM_API_KEY or llm.api_key"
	case errors.Is(err, apperrors.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "conflict", err.Error()
	case errors.As(err, &llmErr), errors.Is(err, extract.ErrExtractionFailed):
		status, code, message = http.StatusBadGateway, "extraction_failed", err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}
