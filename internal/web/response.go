// Package web holds the JSON response helpers shared by all handlers. Every
// error leaving the service carries a stable machine-readable kind alongside
// a human message; internal details (paths, SQL, driver errors) stay out of
// response bodies.
package web

import (
	"encoding/json"
	"net/http"
)

// Stable error kinds exposed to clients.
const (
	KindInvalidRequest     = "invalid_request"
	KindDuplicateUsername  = "duplicate_username"
	KindInvalidCredentials = "invalid_credentials"
	KindUnauthenticated    = "unauthenticated"
	KindNotFound           = "not_found"
	KindUploadFailed       = "upload_failed"
	KindInternal           = "internal"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error writes a machine-readable error body.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}
