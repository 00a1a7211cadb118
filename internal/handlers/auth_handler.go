package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

type AuthHandler struct {
	identity services.IdentityProvider
	memes    services.MemeService
	// adminEmail is the bootstrap admin address; a signup matching it gets
	// the admin role.
	adminEmail string
}

func NewAuthHandler(identity services.IdentityProvider, memes services.MemeService, adminEmail string) *AuthHandler {
	return &AuthHandler{
		identity:   identity,
		memes:      memes,
		adminEmail: adminEmail,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" {
		writeMessage(w, http.StatusUnprocessableEntity, models.MsgEmailRequired)
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusUnprocessableEntity, models.MsgPasswordRequired)
		return
	}

	role := models.RoleUser
	if h.adminEmail != "" && req.Email == h.adminEmail {
		role = models.RoleAdmin
	}

	uid, err := h.identity.CreateUser(r.Context(), req.Email, req.Password, req.DisplayName, role)
	if err != nil {
		status := http.StatusInternalServerError
		if err == services.ErrWeakPassword {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.memes.SaveProfile(r.Context(), uid, &models.User{
		UID:         uid,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        role,
	}); err != nil {
		handleProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"uid":   uid,
		"email": req.Email,
		"role":  role,
	})
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req models.SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" {
		writeMessage(w, http.StatusUnprocessableEntity, models.MsgEmailRequired)
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusUnprocessableEntity, models.MsgPasswordRequired)
		return
	}

	token, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusInternalServerError
		if err == services.ErrInvalidCredentials {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
