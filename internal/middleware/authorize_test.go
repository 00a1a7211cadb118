package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

func TestAuthorizeOptions_Decide(t *testing.T) {
	adminOnly := AuthorizeOptions{Roles: []models.Role{models.RoleAdmin}}
	adminOrSelf := AuthorizeOptions{Roles: []models.Role{models.RoleAdmin}, AllowSameUser: true}
	ownerOnly := AuthorizeOptions{AllowSameUser: true}
	anyRole := AuthorizeOptions{Roles: []models.Role{models.RoleAdmin, models.RoleUser}}

	tests := []struct {
		name     string
		opts     AuthorizeOptions
		identity services.Identity
		targetID string
		allow    bool
		message  string
	}{
		{"admin passes admin-only", adminOnly, services.Identity{UID: "a", Role: models.RoleAdmin}, "", true, ""},
		{"user denied admin-only", adminOnly, services.Identity{UID: "u", Role: models.RoleUser}, "", false, models.MsgPermissionIssue},
		{"roleless denied with role issue", adminOnly, services.Identity{UID: "u"}, "", false, models.MsgRoleIssue},
		{"self bypass on matching target", adminOrSelf, services.Identity{UID: "u", Role: models.RoleUser}, "u", true, ""},
		{"user denied on other target", adminOrSelf, services.Identity{UID: "u", Role: models.RoleUser}, "other", false, models.MsgPermissionIssue},
		{"admin passes on other target", adminOrSelf, services.Identity{UID: "a", Role: models.RoleAdmin}, "other", true, ""},
		{"roleless self bypass still works", adminOrSelf, services.Identity{UID: "u"}, "u", true, ""},
		{"owner-only passes owner", ownerOnly, services.Identity{UID: "u", Role: models.RoleUser}, "u", true, ""},
		{"owner-only denies admin non-owner", ownerOnly, services.Identity{UID: "a", Role: models.RoleAdmin}, "other", false, models.MsgPermissionIssue},
		{"empty target never matches bypass", adminOrSelf, services.Identity{UID: "u", Role: models.RoleUser}, "", false, models.MsgPermissionIssue},
		{"any role passes user", anyRole, services.Identity{UID: "u", Role: models.RoleUser}, "", true, ""},
		{"unknown role denied", anyRole, services.Identity{UID: "u", Role: "moderator"}, "", false, models.MsgPermissionIssue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allow, message := tt.opts.Decide(&tt.identity, tt.targetID)
			assert.Equal(t, tt.allow, allow)
			assert.Equal(t, tt.message, message)
		})
	}
}

func withIdentity(identity *services.Identity, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestAuthorize_UsesPathIDForSelfCheck(t *testing.T) {
	opts := AuthorizeOptions{Roles: []models.Role{models.RoleAdmin}, AllowSameUser: true}

	r := chi.NewRouter()
	r.With(Authorize(opts)).Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := withIdentity(&services.Identity{UID: "u1", Role: models.RoleUser}, r)

	own := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	recOwn := httptest.NewRecorder()
	handler.ServeHTTP(recOwn, own)
	assert.Equal(t, http.StatusOK, recOwn.Code)

	other := httptest.NewRequest(http.MethodGet, "/users/u2", nil)
	recOther := httptest.NewRecorder()
	handler.ServeHTTP(recOther, other)
	assert.Equal(t, http.StatusForbidden, recOther.Code)
	assert.Contains(t, recOther.Body.String(), models.MsgPermissionIssue)
}

func TestMemeOwner_AttachesOwnerForAuthorize(t *testing.T) {
	memes := services.NewMemoryMemeService()
	memeID, err := memes.CreateMeme(context.Background(), &models.Meme{Text: "hi", UserID: "owner-1"})
	require.NoError(t, err)

	opts := AuthorizeOptions{AllowSameUser: true}

	r := chi.NewRouter()
	r.With(MemeOwner(memes), Authorize(opts)).Patch("/memes/{memeId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	owner := withIdentity(&services.Identity{UID: "owner-1", Role: models.RoleUser}, r)
	req := httptest.NewRequest(http.MethodPatch, "/memes/"+memeID, nil)
	rec := httptest.NewRecorder()
	owner.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	stranger := withIdentity(&services.Identity{UID: "someone-else", Role: models.RoleUser}, r)
	req = httptest.NewRequest(http.MethodPatch, "/memes/"+memeID, nil)
	rec = httptest.NewRecorder()
	stranger.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMemeOwner_LookupFailureTerminates(t *testing.T) {
	memes := services.NewMemoryMemeService()

	r := chi.NewRouter()
	r.With(MemeOwner(memes), Authorize(AuthorizeOptions{AllowSameUser: true})).
		Get("/memes/{memeId}", func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		})
	handler := withIdentity(&services.Identity{UID: "u1", Role: models.RoleUser}, r)

	req := httptest.NewRequest(http.MethodGet, "/memes/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
