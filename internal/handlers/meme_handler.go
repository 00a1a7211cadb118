package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/memestream/backend/internal/middleware"
	"github.com/memestream/backend/internal/models"
	"github.com/memestream/backend/internal/services"
)

type MemeHandler struct {
	memes     services.MemeService
	blobs     services.BlobStore
	maxSizeMB int64
}

func NewMemeHandler(memes services.MemeService, blobs services.BlobStore, maxSizeMB int64) *MemeHandler {
	return &MemeHandler{
		memes:     memes,
		blobs:     blobs,
		maxSizeMB: maxSizeMB,
	}
}

func (h *MemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.Identity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
		writeMessage(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, models.MsgMissingFile)
		return
	}
	defer file.Close()

	memeID, err := h.memes.CreateMeme(r.Context(), &models.Meme{
		Text:        r.FormValue("text"),
		IsPublished: false,
		Likes:       0,
		UserID:      identity.UID,
	})
	if err != nil {
		handleProviderError(w, err)
		return
	}

	key := mediaKey(identity.UID, memeID, header.Filename)
	if err := h.blobs.Upload(r.Context(), key, file); err != nil {
		handleProviderError(w, err)
		return
	}
	if err := h.memes.SetMemeMedia(r.Context(), memeID, key); err != nil {
		handleProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": models.MsgMemeCreated,
		"memeId":  memeID,
	})
}

func (h *MemeHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.Identity(r.Context())

	publishedOnly := identity.Role != models.RoleAdmin
	memes, err := h.memes.ListMemes(r.Context(), publishedOnly)
	if err != nil {
		handleProviderError(w, err)
		return
	}

	if len(memes) == 0 {
		writeMessage(w, http.StatusOK, models.MsgMemesUnpublished)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"memes": memes})
}

func (h *MemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	memeID := chi.URLParam(r, "memeId")

	meme, err := h.memes.GetMeme(r.Context(), memeID)
	if err != nil {
		handleProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meme)
}

// Update changes the text, and when a new file is attached replaces the
// media: upload the new blob, point the document at it, then delete the old
// blob. The document never references a blob that is not there yet.
func (h *MemeHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.Identity(r.Context())
	memeID := chi.URLParam(r, "memeId")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
		writeMessage(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}
	text := r.FormValue("text")

	file, header, err := r.FormFile("file")
	if err != nil {
		// Text-only update keeps the existing media.
		if err := h.memes.UpdateMemeText(r.Context(), memeID, text); err != nil {
			handleProviderError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, models.MsgMemeUpdated)
		return
	}
	defer file.Close()

	meme, err := h.memes.GetMeme(r.Context(), memeID)
	if err != nil {
		handleProviderError(w, err)
		return
	}
	oldKey := meme.MediaURL

	newKey := mediaKey(identity.UID, memeID, header.Filename)
	if err := h.blobs.Upload(r.Context(), newKey, file); err != nil {
		handleProviderError(w, err)
		return
	}
	if err := h.memes.UpdateMemeText(r.Context(), memeID, text); err != nil {
		handleProviderError(w, err)
		return
	}
	if err := h.memes.SetMemeMedia(r.Context(), memeID, newKey); err != nil {
		handleProviderError(w, err)
		return
	}

	// Same extension means the upload already overwrote the old object.
	if oldKey != "" && oldKey != newKey {
		if err := h.blobs.Delete(r.Context(), oldKey); err != nil && err != services.ErrBlobNotFound {
			handleProviderError(w, err)
			return
		}
	}

	writeMessage(w, http.StatusOK, models.MsgMemeUpdated)
}

func (h *MemeHandler) Like(w http.ResponseWriter, r *http.Request) {
	identity := middleware.Identity(r.Context())
	memeID := chi.URLParam(r, "memeId")

	var req models.LikeRequest
	if r.Body != nil {
		// An empty body toggles with the default magnitude.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	liked, err := h.memes.ToggleLike(r.Context(), memeID, identity.UID, count)
	if err != nil {
		handleProviderError(w, err)
		return
	}

	if liked {
		writeMessage(w, http.StatusOK, models.MsgMemeRated)
		return
	}
	writeMessage(w, http.StatusOK, models.MsgMemeUnrated)
}

func (h *MemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	memeID := chi.URLParam(r, "memeId")

	meme, err := h.memes.GetMeme(r.Context(), memeID)
	if err != nil {
		handleProviderError(w, err)
		return
	}

	if meme.MediaURL != "" {
		if err := h.blobs.Delete(r.Context(), meme.MediaURL); err != nil && err != services.ErrBlobNotFound {
			handleProviderError(w, err)
			return
		}
	}
	if err := h.memes.DeleteMeme(r.Context(), memeID); err != nil {
		handleProviderError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, models.MsgMemeDeleted)
}

// mediaKey builds the blob key "{uid}/{memeId}.{ext}".
func mediaKey(uid, memeID, filename string) string {
	ext := "bin"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = filename[i+1:]
	}
	return fmt.Sprintf("%s/%s.%s", uid, memeID, ext)
}
