package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/memestream/backend/internal/config"
	"github.com/memestream/backend/internal/services"
)

// Eventarc delivers a CloudEvent per created Firestore document. The meme id
// is in the Ce-Subject header ("documents/memes/{memeId}"); structured-mode
// bodies carry it under "subject" or the legacy "value.name" resource path.
type firestoreEvent struct {
	Subject string `json:"subject"`
	Value   struct {
		Name string `json:"name"`
	} `json:"value"`
}

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	memes, err := newMemeService(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("meme store (%s): %v", cfg.StoreBackend, err)
	}

	moderator := services.NewModerator(memes)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	http.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		handleCreate(w, r, moderator)
	})

	log.Printf("moderation-worker listening on %s", cfg.ServerAddress)
	log.Fatal(http.ListenAndServe(cfg.ServerAddress, nil))
}

func handleCreate(w http.ResponseWriter, r *http.Request, moderator *services.Moderator) {
	// Only accept POSTs from Eventarc.
	if r.Method != http.MethodPost {
		log.Printf("[worker] rejected non-POST method=%s", r.Method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ceType := r.Header.Get("Ce-Type")
	ceSubject := r.Header.Get("Ce-Subject")
	log.Printf("[worker] event received: Ce-Type=%s Ce-Subject=%s", ceType, ceSubject)

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("[worker] failed to read request body: %v", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	memeID := memeIDFromEvent(ceSubject, rawBody)
	if memeID == "" {
		// Not a meme-creation event; acknowledge so Eventarc stops retrying.
		log.Printf("[worker] skipping event: no meme id in subject or body")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	penalized, err := moderator.ModerateMeme(ctx, memeID)
	if err != nil {
		if err == services.ErrMemeNotFound {
			// Deleted before we got here; nothing to moderate.
			log.Printf("[worker] meme gone: id=%s", memeID)
			w.WriteHeader(http.StatusOK)
			return
		}
		// 5xx makes Eventarc redeliver; the moderation marker keeps the
		// penalty from being applied twice.
		log.Printf("[worker] moderation failed id=%s err=%v", memeID, err)
		http.Error(w, "moderation failed", http.StatusInternalServerError)
		return
	}

	log.Printf("[worker] DONE: id=%s penalized=%v", memeID, penalized)
	w.WriteHeader(http.StatusOK)
}

// memeIDFromEvent pulls the created document id out of the CloudEvent
// subject, falling back to the JSON body for structured content mode.
func memeIDFromEvent(subject string, body []byte) string {
	if id := memeIDFromPath(subject); id != "" {
		return id
	}

	var ev firestoreEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ""
	}
	if id := memeIDFromPath(ev.Subject); id != "" {
		return id
	}
	return memeIDFromPath(ev.Value.Name)
}

// memeIDFromPath extracts the id from a resource path ending in
// ".../documents/memes/{memeId}".
func memeIDFromPath(path string) string {
	if path == "" {
		return ""
	}
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "memes" {
			return parts[i+1]
		}
	}
	return ""
}

func newMemeService(ctx context.Context, cfg *config.Config) (services.MemeService, error) {
	switch cfg.StoreBackend {
	case "mongo":
		return services.NewMongoMemeService(ctx, cfg.MongoURI, cfg.MongoDB)
	case "memory":
		return services.NewMemoryMemeService(), nil
	default:
		return services.NewFirestoreMemeService(ctx, cfg.FirebaseProjectID)
	}
}
