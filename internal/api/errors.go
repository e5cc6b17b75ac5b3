package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/wirelessmesh-core/internal/eventlog"
	"github.com/nerrad567/wirelessmesh-core/internal/location"
	"github.com/nerrad567/wirelessmesh-core/internal/mesh"
)

// Error is the body of every error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeBadGateway   = "bad_gateway"
	ErrCodeUnavailable  = "unavailable"
	ErrCodeInternal     = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort; the client may have gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeCommandError maps a command or query failure onto a status code.
// Rejections carry their failure signal verbatim.
func (s *Server) writeCommandError(w http.ResponseWriter, r *http.Request, err error) {
	var rej *location.Rejection
	switch {
	case errors.As(err, &rej):
		switch {
		case rej.NotFound():
			writeError(w, http.StatusNotFound, ErrCodeNotFound, rej.Reason)
			return
		case isFormatReason(rej.Reason):
			writeBadRequest(w, rej.Reason)
			return
		}
		writeError(w, http.StatusConflict, ErrCodeConflict, rej.Reason)
	case errors.Is(err, location.ErrActuationFailed):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
	case errors.Is(err, eventlog.ErrSequenceConflict):
		writeError(w, http.StatusConflict, ErrCodeConflict, "customer location was modified concurrently, retry")
	case errors.Is(err, location.ErrWrongLocation), errors.Is(err, location.ErrUnknownCommand):
		writeBadRequest(w, err.Error())
	case errors.Is(err, mesh.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "service is shutting down")
	case errors.Is(err, location.ErrCorruptLog):
		s.logger.Error("corrupt customer location history", "path", r.URL.Path, "error", err)
		writeInternalError(w, "customer location history is corrupt")
	default:
		s.logger.Error("command failed", "path", r.URL.Path, "error", err)
		writeInternalError(w, "internal server error")
	}
}

func isFormatReason(reason string) bool {
	switch reason {
	case location.ReasonLocationIDFormat, location.ReasonAccessTokenFormat,
		location.ReasonDeviceIDFormat, location.ReasonRoomFormat:
		return true
	}
	return false
}
