package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

func TestMemeIDFromPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "ce subject",
			path: "documents/memes/abc123",
			want: "abc123",
		},
		{
			name: "full resource name",
			path: "projects/p/databases/(default)/documents/memes/abc123",
			want: "abc123",
		},
		{
			name: "other collection",
			path: "documents/users/abc123",
			want: "",
		},
		{
			name: "like subdocument still yields meme id",
			path: "documents/memes/abc123/likes/uid1",
			want: "abc123",
		},
		{
			name: "trailing collection without id",
			path: "documents/memes",
			want: "",
		},
		{
			name: "empty",
			path: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, memeIDFromPath(tt.path))
		})
	}
}

func TestMemeIDFromEvent(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{
			name:    "header subject wins",
			subject: "documents/memes/from-header",
			body:    `{"subject":"documents/memes/from-body"}`,
			want:    "from-header",
		},
		{
			name: "structured body subject",
			body: `{"subject":"documents/memes/from-body"}`,
			want: "from-body",
		},
		{
			name: "legacy value name",
			body: `{"value":{"name":"projects/p/databases/(default)/documents/memes/legacy-id"}}`,
			want: "legacy-id",
		},
		{
			name: "unparseable body",
			body: `not json`,
			want: "",
		},
		{
			name:    "unrelated event",
			subject: "documents/users/u1",
			body:    `{"subject":"documents/users/u1"}`,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, memeIDFromEvent(tt.subject, []byte(tt.body)))
		})
	}
}

func postEvent(t *testing.T, moderator *services.Moderator, subject, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(body))
	if subject != "" {
		req.Header.Set("Ce-Subject", subject)
	}
	rec := httptest.NewRecorder()
	handleCreate(rec, req, moderator)
	return rec
}

func TestHandleCreate(t *testing.T) {
	memes := services.NewMemoryMemeService()
	ctx := context.Background()

	require.NoError(t, memes.SetProfaneWords(ctx, []string{"bad"}))
	memeID, err := memes.CreateMeme(ctx, &models.Meme{Text: "this is bad", UserID: "u1"})
	require.NoError(t, err)

	moderator := services.NewModerator(memes)

	rec := postEvent(t, moderator, "documents/memes/"+memeID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	meme, err := memes.GetMeme(ctx, memeID)
	require.NoError(t, err)
	assert.Equal(t, int64(-services.ProfanityPenalty), meme.Likes)
	assert.True(t, meme.Moderated)

	// Redelivery of the same event does not stack the penalty.
	rec = postEvent(t, moderator, "documents/memes/"+memeID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	meme, err = memes.GetMeme(ctx, memeID)
	require.NoError(t, err)
	assert.Equal(t, int64(-services.ProfanityPenalty), meme.Likes)
}

func TestHandleCreate_AcksIrrelevantEvents(t *testing.T) {
	moderator := services.NewModerator(services.NewMemoryMemeService())

	// Events for other collections are acknowledged, never retried.
	rec := postEvent(t, moderator, "documents/users/u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// A deleted meme is also a terminal outcome.
	rec = postEvent(t, moderator, "documents/memes/gone", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleCreate_RejectsNonPost(t *testing.T) {
	moderator := services.NewModerator(services.NewMemoryMemeService())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	handleCreate(rec, req, moderator)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
