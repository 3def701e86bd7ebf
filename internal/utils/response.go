package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON error envelope: {"error": "Not Found", "message": "..."}.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type MessageBody struct {
	Message string `json:"message"`
}

func ErrorResponse(status int, message string) ErrorBody {
	return ErrorBody{
		Error:   http.StatusText(status),
		Message: message,
	}
}

// WriteJSON writes v with the given status. Encoding errors are returned so
// the caller can log them; the status line is already sent by then.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, ErrorResponse(status, message))
}
