package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/memestream/backend/internal/middleware"
	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

const testAdminEmail = "admin@example.com"

type testEnv struct {
	router   http.Handler
	identity *services.LocalIdentity
	memes    *services.MemoryMemeService
	blobs    *services.LocalBlobStore
}

// newTestEnv wires the full route table the way cmd/server does, on top of
// the in-memory backends.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	identity := services.NewLocalIdentity("test-secret", time.Hour)
	memes := services.NewMemoryMemeService()
	blobs, err := services.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	authHandler := NewAuthHandler(identity, memes, testAdminEmail)
	userHandler := NewUserHandler(identity, memes)
	memeHandler := NewMemeHandler(memes, blobs, 10)
	adminHandler := NewAdminHandler(memes)

	adminOnly := appMiddleware.AuthorizeOptions{Roles: []models.Role{models.RoleAdmin}}
	adminOrSelf := appMiddleware.AuthorizeOptions{Roles: []models.Role{models.RoleAdmin}, AllowSameUser: true}
	anyRole := appMiddleware.AuthorizeOptions{Roles: []models.Role{models.RoleAdmin, models.RoleUser}}
	ownerOnly := appMiddleware.AuthorizeOptions{AllowSameUser: true}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/signin", authHandler.Signin)

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Authenticate(identity))

			r.Route("/users", func(r chi.Router) {
				r.With(appMiddleware.Authorize(adminOnly)).Get("/", userHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.With(appMiddleware.Authorize(adminOrSelf)).Get("/", userHandler.Get)
					r.With(appMiddleware.Authorize(adminOrSelf)).Patch("/", userHandler.Update)
					r.With(appMiddleware.Authorize(adminOnly)).Delete("/", userHandler.Delete)
				})
			})

			r.Route("/memes", func(r chi.Router) {
				r.With(appMiddleware.Authorize(anyRole)).Post("/", memeHandler.Create)
				r.With(appMiddleware.Authorize(anyRole)).Get("/", memeHandler.List)

				r.Route("/{memeId}", func(r chi.Router) {
					r.With(appMiddleware.Authorize(anyRole)).Put("/", memeHandler.Like)
					r.With(
						appMiddleware.MemeOwner(memes),
						appMiddleware.Authorize(adminOrSelf),
					).Get("/", memeHandler.Get)
					r.With(
						appMiddleware.MemeOwner(memes),
						appMiddleware.Authorize(ownerOnly),
					).Patch("/", memeHandler.Update)
					r.With(
						appMiddleware.MemeOwner(memes),
						appMiddleware.Authorize(adminOrSelf),
					).Delete("/", memeHandler.Delete)
				})
			})

			r.With(appMiddleware.Authorize(adminOnly)).Put("/admin/profane", adminHandler.UpdateProfaneWords)
		})
	})

	return &testEnv{
		router:   r,
		identity: identity,
		memes:    memes,
		blobs:    blobs,
	}
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doMultipart(t *testing.T, method, path, token, text, filename string, file []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("text", text))
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signup creates an account and returns its uid.
func (e *testEnv) signup(t *testing.T, email, password, displayName string) string {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/api/signup", "", models.SignupRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		UID string `json:"uid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.UID)
	return out.UID
}

// signin returns a bearer token for the account.
func (e *testEnv) signin(t *testing.T, email, password string) string {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/api/signin", "", models.SigninRequest{
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var out models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Message
}
