package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/memestream/backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.MessageResponse{Message: message})
}

// handleProviderError maps an identity-provider or store failure to the
// generic 500 response carrying the provider's message. No retries.
func handleProviderError(w http.ResponseWriter, err error) {
	writeMessage(w, http.StatusInternalServerError, err.Error())
}
