package services

import (
	"context"
	"errors"

	"github.com/memestream/backend/internal/models"
)

var (
	ErrMemeNotFound = errors.New("meme not found")
	ErrBadInput     = errors.New("missing required input")
)

// MemeService is the document store behind memes, their likes subcollection,
// the profane word list and the user profile documents. Backends:
// FirestoreMemeService (production), MongoMemeService (self-hosted),
// MemoryMemeService (tests and zero-config runs).
type MemeService interface {
	CreateMeme(ctx context.Context, meme *models.Meme) (string, error)
	GetMeme(ctx context.Context, id string) (*models.Meme, error)
	// ListMemes returns all memes, or only published ones.
	ListMemes(ctx context.Context, publishedOnly bool) ([]*models.Meme, error)
	// MemeOwner resolves the owning account id for the authorization gate.
	MemeOwner(ctx context.Context, id string) (string, error)
	UpdateMemeText(ctx context.Context, id, text string) error
	SetMemeMedia(ctx context.Context, id, mediaURL string) error
	DeleteMeme(ctx context.Context, id string) error

	// ToggleLike flips the (meme, uid) like marker and moves the counter by
	// count atomically. Returns true when the toggle resulted in a like,
	// false when it removed one. At most one marker per pair exists even
	// under concurrent toggles.
	ToggleLike(ctx context.Context, memeID, uid string, count int64) (bool, error)

	// ApplyModeration marks the meme as moderated and subtracts penalty from
	// its like counter in one conditional write. Returns false without
	// touching the document when the marker was already set.
	ApplyModeration(ctx context.Context, memeID string, penalty int64) (bool, error)

	SetProfaneWords(ctx context.Context, words []string) error
	ProfaneWords(ctx context.Context) ([]string, error)

	SaveProfile(ctx context.Context, uid string, user *models.User) error
	DeleteProfile(ctx context.Context, uid string) error

	Close(ctx context.Context) error
}
