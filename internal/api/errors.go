package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/goliatone/go-device-cache/internal/logging"
	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"
)

// Error codes returned in the error body.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeTimeout          = "TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []fieldDetail `json:"details,omitempty"`
}

type fieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func badRequest(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput)
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // the client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string, details []fieldDetail) {
	writeJSON(w, status, errorResponse{Error: errorPayload{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// writeError maps err to a status and error body. Internal failures are
// logged and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if device.IsNotFound(err) {
		writeErrorCode(w, http.StatusNotFound, CodeNotFound, "device not found", nil)
		return
	}

	var gerr *goerrors.Error
	if errors.As(err, &gerr) {
		switch gerr.Category {
		case goerrors.CategoryValidation:
			details := make([]fieldDetail, 0, len(gerr.ValidationErrors))
			for _, fe := range gerr.ValidationErrors {
				details = append(details, fieldDetail{Field: fe.Field, Message: fe.Message})
			}
			writeErrorCode(w, http.StatusBadRequest, CodeValidation, gerr.Message, details)
			return
		case goerrors.CategoryBadInput:
			writeErrorCode(w, http.StatusBadRequest, CodeBadRequest, gerr.Message, nil)
			return
		case goerrors.CategoryAuth:
			writeErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, gerr.Message, nil)
			return
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		writeErrorCode(w, http.StatusGatewayTimeout, CodeTimeout, "request timed out", nil)
		return
	}

	logging.FromContext(r.Context(), s.logger).Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeErrorCode(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="devicesvc"`)
	s.writeError(w, r, err)
}
