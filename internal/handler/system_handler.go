// internal/handler/system_handler.go
package handler

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": "Cold Email AI is running!"})
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"})
}
