// Package httputil provides JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "riskgate/pkg/domain-errors"
)

// WriteJSON serializes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto an HTTP error response. Internal
// errors omit the description so server-side detail never reaches clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	body := map[string]string{"error": string(code)}
	if msg := dErrors.MessageOf(err); msg != "" {
		body["error_description"] = msg
	}

	WriteJSON(w, statusFor(code), body)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
