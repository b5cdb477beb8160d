package server

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// parseUUID reads a path parameter as a UUID. On failure it writes a 400
// and returns false.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (string, bool) {
	id, err := uuid.Parse(r.PathValue(pathParam))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return id.String(), true
}

func (s *Server) projectID(w http.ResponseWriter, r *http.Request) (string, bool) {
	return parseUUID(w, r, "pid", "invalid_project_id", "Invalid project ID format", s.logger)
}

func (s *Server) entityID(w http.ResponseWriter, r *http.Request) (string, bool) {
	return parseUUID(w, r, "eid", "invalid_entity_id", "Invalid entity ID format", s.logger)
}
