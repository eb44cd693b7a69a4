package handlers

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dynprot/engine/internal/api/middleware"
	"github.com/dynprot/engine/internal/api/types"
	"github.com/dynprot/engine/internal/api/validators"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/dynprot/engine/pkg/logger"
)

var hideDetails atomic.Bool

// HideErrorDetails drops wrapped error text from responses. Enabled in production.
func HideErrorDetails(hide bool) { hideDetails.Store(hide) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.APIResponse{Success: true, Data: data})
}

// writeError maps err to its status. Server-side failures are logged and
// lose their message in production.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := types.StatusFor(err)
	apiErr := types.FromAppError(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	if hideDetails.Load() {
		apiErr.Details = ""
		if status == http.StatusInternalServerError {
			apiErr.Message = "internal error"
		}
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   apiErr,
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

func writeErrorStr(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   &types.APIError{Code: string(appErr.CodeInvalid), Message: msg},
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

// decodeJSON reads and validates a request body; failures are already written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := validators.New().Struct(dst); err != nil {
		writeErrorStr(w, r, http.StatusBadRequest, validators.Message(err))
		return false
	}
	return true
}
