package types

import (
	"net/http"

	appErr "github.com/dynprot/engine/pkg/errors"
)

// FromAppError converts any error into the envelope error. Foreign errors
// are reported as internal; their text is only kept as details.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if appErr.As(err, &e) {
		out := &APIError{Code: string(e.Code), Message: e.Message}
		if e.Err != nil {
			out.Details = e.Err.Error()
		}
		return out
	}
	return &APIError{Code: string(appErr.CodeInternal), Message: "internal error", Details: err.Error()}
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeInvalid, appErr.CodeAlreadyExists:
		return http.StatusBadRequest
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeForbidden:
		return http.StatusForbidden
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeConflict:
		return http.StatusConflict
	case appErr.CodeUnavailable:
		return http.StatusServiceUnavailable
	case appErr.CodeDeadline:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
