package httpapi

import (
	"encoding/json"
	"net/http"

	"duplex/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeDomainError maps a structured error to an HTTP response; anything
// unrecognized becomes a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	e, ok := err.(*errors.Error)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch e.Type {
	case errors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case errors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case errors.ErrorTypeUnauthorized:
		status = http.StatusForbidden
	case errors.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	}

	writeError(w, status, e.Code, e.Message)
}
