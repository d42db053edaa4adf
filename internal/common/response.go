package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload under "error" in every failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope wraps successful responses.
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// JSON writes v as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes a {"data": ..., "meta": ...} envelope. A nil meta is omitted.
func Data(w http.ResponseWriter, status int, data, meta any) {
	JSON(w, status, Envelope{Data: data, Meta: meta})
}

// JSONError writes {"error": {...}} with the given code and message.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]ErrorBody{
		"error": {Code: code, Message: message, Details: details},
	})
}
