package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memestream/backend/internal/services"
)

// MemeOwner resolves the owner of the meme named by the {memeId} route
// parameter and attaches it for the authorization gate's same-user check.
// It enforces no policy itself; lookup failures are surfaced as-is.
func MemeOwner(memes services.MemeService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			memeID := chi.URLParam(r, "memeId")

			ownerID, err := memes.MemeOwner(r.Context(), memeID)
			if err != nil {
				writeMessage(w, http.StatusInternalServerError, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), ownerKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResourceOwner returns the owner id attached by MemeOwner.
func ResourceOwner(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerKey).(string)
	return ownerID, ok
}
