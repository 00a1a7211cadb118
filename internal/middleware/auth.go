package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	ownerKey    contextKey = "resourceOwner"
)

// StatusInvalidToken is returned for a structurally malformed bearer token,
// as opposed to a missing or unverifiable one (401).
const StatusInvalidToken = 498

// Authenticate validates the Authorization header against the identity
// provider and attaches the verified identity to the request context. Any
// failure terminates the request.
func Authenticate(verifier services.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer") {
				writeMessage(w, http.StatusUnauthorized, models.MsgUnauthorized)
				return
			}

			parts := strings.Split(header, " ")
			if len(parts) != 2 {
				writeMessage(w, StatusInvalidToken, models.MsgTokenIssue)
				return
			}

			identity, err := verifier.VerifyToken(r.Context(), parts[1])
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identity returns the verified caller, or nil outside the authenticated group.
func Identity(ctx context.Context) *services.Identity {
	identity, _ := ctx.Value(identityKey).(*services.Identity)
	return identity
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.MessageResponse{Message: message})
}
