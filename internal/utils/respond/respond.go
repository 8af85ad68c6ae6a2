// Package respond standardizes JSON responses across all endpoints.
package respond

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/amora-app/amora-server/internal/errors"
)

// Response is the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Data sends a successful response carrying a payload.
func Data(w http.ResponseWriter, statusCode int, data interface{}) {
	write(w, statusCode, Response{Success: true, Data: data})
}

// Message sends a simple success message.
func Message(w http.ResponseWriter, statusCode int, message string) {
	write(w, statusCode, Response{Success: true, Message: message})
}

// Error classifies err and sends the mapped status with the caller-facing
// message. Internal errors stay opaque; callers log the cause.
func Error(w http.ResponseWriter, err error) {
	mapped := apperrors.Map(err)
	write(w, apperrors.HTTPStatus(mapped), Response{Success: false, Error: mapped.Error()})
}

func write(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
