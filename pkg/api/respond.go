package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/dd0wney/cluso-socialgraph/pkg/api/middleware"
	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
	"github.com/dd0wney/cluso-socialgraph/pkg/validation"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      status,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// respondErr maps err to a status. Client errors echo the message; server
// errors are logged and reported generically.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed",
			logging.Error(err),
			logging.RequestID(middleware.GetRequestID(r.Context())),
		)
		s.respondError(w, r, status, op+" failed")
		return
	}
	s.respondError(w, r, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, visualization.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, validation.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, visualization.ErrEngineStopped),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the body into v. Oversized bodies map to 413.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
