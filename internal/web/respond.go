// Package web holds small JSON response helpers shared by all handlers.
package web

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

func ValidationFailed(w http.ResponseWriter, violations []string) {
	JSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":      "validation failed",
		"violations": violations,
	})
}

func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal error")
}
