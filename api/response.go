package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/asaidimu/go-roster/core/exception"
	"github.com/asaidimu/go-roster/core/persistence"
	"github.com/asaidimu/go-roster/core/query"
	"github.com/asaidimu/go-roster/sqlstore"
	"go.uber.org/zap"
)

// APIResponse is the envelope of every response.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *Server) parseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func (s *Server) writeSuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	s.writeJSONResponse(w, statusCode, APIResponse{Success: true, Data: data})
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, code, message, details string) {
	s.writeJSONResponse(w, statusCode, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError renders err. Exceptions keep their status and public message;
// their private message only reaches the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	fields := []zap.Field{zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err)}

	if ex, ok := exception.As(err); ok {
		if ex.Status >= http.StatusInternalServerError {
			s.logger.Error("Request failed", fields...)
		} else {
			s.logger.Debug("Request rejected", fields...)
		}
		s.writeErrorResponse(w, ex.Status, strconv.Itoa(ex.Code), ex.PublicMessage, "")
		return
	}

	var invalid *persistence.ValidationError
	switch {
	case errors.As(err, &invalid):
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_DOCUMENT", "Document does not conform to schema", invalid.Error())
	case errors.Is(err, query.ErrInvalidIncludePath),
		errors.Is(err, query.ErrInvalidIdentifier),
		errors.Is(err, query.ErrUnknownJoinSelection),
		errors.Is(err, query.ErrParameterCollision),
		errors.Is(err, query.ErrInvalidFilterValue),
		errors.Is(err, sqlstore.ErrUnknownRelation):
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_QUERY", "Invalid query", err.Error())
	default:
		s.logger.Error("Request failed", fields...)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", "")
	}
}
