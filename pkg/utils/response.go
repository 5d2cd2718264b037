package utils

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error writes the {message, status} body both the backend and the console
// use for failures.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message, "status": "error"})
}

// FieldError reports per-field validation failures.
func FieldError(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, map[string]interface{}{
		"message": "Missing Parameters",
		"status":  "error",
		"fields":  fields,
	})
}

// RawJSON relays a body that is already JSON.
func RawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
