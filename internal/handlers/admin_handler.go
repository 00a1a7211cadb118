package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

type AdminHandler struct {
	memes services.MemeService
}

func NewAdminHandler(memes services.MemeService) *AdminHandler {
	return &AdminHandler{memes: memes}
}

// UpdateProfaneWords replaces the moderator-maintained word list. Words are
// stored lowercased; the trigger matches them against whole tokens.
func (h *AdminHandler) UpdateProfaneWords(w http.ResponseWriter, r *http.Request) {
	var req models.ProfaneWordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	words := make([]string, 0, len(req.Words))
	for _, word := range req.Words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		writeMessage(w, http.StatusBadRequest, models.MsgWordsRequired)
		return
	}

	if err := h.memes.SetProfaneWords(r.Context(), words); err != nil {
		handleProviderError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, models.MsgProfaneUpdated)
}
