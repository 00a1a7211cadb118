package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memestream/backend/internal/middleware"
	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

type UserHandler struct {
	identity services.IdentityProvider
	memes    services.MemeService
}

func NewUserHandler(identity services.IdentityProvider, memes services.MemeService) *UserHandler {
	return &UserHandler{identity: identity, memes: memes}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.identity.ListUsers(r.Context())
	if err != nil {
		handleProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.identity.GetUser(r.Context(), id)
	if err != nil {
		handleProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DisplayName == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, models.MsgMissingFields)
		return
	}

	user, err := h.identity.UpdateUser(r.Context(), id, req.DisplayName, req.Password)
	if err != nil {
		handleProviderError(w, err)
		return
	}

	// Role changes are an admin-only path; the role claim is otherwise
	// immutable after signup.
	caller := middleware.Identity(r.Context())
	if req.Role != "" && caller != nil && caller.Role == models.RoleAdmin {
		if err := h.identity.SetRole(r.Context(), id, req.Role); err != nil {
			handleProviderError(w, err)
			return
		}
		user.Role = req.Role
	}

	if err := h.memes.SaveProfile(r.Context(), id, user); err != nil {
		handleProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	email, err := h.identity.DeleteUser(r.Context(), id)
	if err != nil {
		handleProviderError(w, err)
		return
	}

	// The account's profile document goes with it.
	if err := h.memes.DeleteProfile(r.Context(), id); err != nil {
		handleProviderError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("%s %s", email, models.MsgUserRemoved))
}
