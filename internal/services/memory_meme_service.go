package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/memestream/backend/internal/models"
)

// MemoryMemeService is the in-memory store backend used by tests and
// zero-config local runs. The mutex gives it the atomicity the managed
// backends get from transactions and unique indexes.
type MemoryMemeService struct {
	mu       sync.RWMutex
	memes    map[string]*models.Meme
	likes    map[string]map[string]struct{} // memeID -> set of uids
	profane  []string
	profiles map[string]*models.User
}

func NewMemoryMemeService() *MemoryMemeService {
	return &MemoryMemeService{
		memes:    make(map[string]*models.Meme),
		likes:    make(map[string]map[string]struct{}),
		profiles: make(map[string]*models.User),
	}
}

func (s *MemoryMemeService) Close(ctx context.Context) error { return nil }

func (s *MemoryMemeService) CreateMeme(ctx context.Context, meme *models.Meme) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *meme
	stored.ID = uuid.New().String()
	stored.Moderated = false
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.memes[stored.ID] = &stored
	return stored.ID, nil
}

func (s *MemoryMemeService) GetMeme(ctx context.Context, id string) (*models.Meme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meme, exists := s.memes[id]
	if !exists {
		return nil, ErrMemeNotFound
	}
	copied := *meme
	return &copied, nil
}

func (s *MemoryMemeService) ListMemes(ctx context.Context, publishedOnly bool) ([]*models.Meme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memes := make([]*models.Meme, 0, len(s.memes))
	for _, meme := range s.memes {
		if publishedOnly && !meme.IsPublished {
			continue
		}
		copied := *meme
		memes = append(memes, &copied)
	}
	return memes, nil
}

func (s *MemoryMemeService) MemeOwner(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meme, exists := s.memes[id]
	if !exists {
		return "", ErrMemeNotFound
	}
	return meme.UserID, nil
}

func (s *MemoryMemeService) UpdateMemeText(ctx context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meme, exists := s.memes[id]
	if !exists {
		return ErrMemeNotFound
	}
	meme.Text = text
	return nil
}

func (s *MemoryMemeService) SetMemeMedia(ctx context.Context, id, mediaURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meme, exists := s.memes[id]
	if !exists {
		return ErrMemeNotFound
	}
	meme.MediaURL = mediaURL
	return nil
}

func (s *MemoryMemeService) DeleteMeme(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memes[id]; !exists {
		return ErrMemeNotFound
	}
	delete(s.memes, id)
	delete(s.likes, id)
	return nil
}

func (s *MemoryMemeService) ToggleLike(ctx context.Context, memeID, uid string, count int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meme, exists := s.memes[memeID]
	if !exists {
		return false, ErrMemeNotFound
	}

	if s.likes[memeID] == nil {
		s.likes[memeID] = make(map[string]struct{})
	}
	if _, liked := s.likes[memeID][uid]; liked {
		delete(s.likes[memeID], uid)
		meme.Likes -= count
		return false, nil
	}
	s.likes[memeID][uid] = struct{}{}
	meme.Likes += count
	return true, nil
}

func (s *MemoryMemeService) ApplyModeration(ctx context.Context, memeID string, penalty int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meme, exists := s.memes[memeID]
	if !exists {
		return false, ErrMemeNotFound
	}
	if meme.Moderated {
		return false, nil
	}
	meme.Moderated = true
	meme.Likes -= penalty
	return true, nil
}

func (s *MemoryMemeService) SetProfaneWords(ctx context.Context, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profane = append([]string(nil), words...)
	return nil
}

func (s *MemoryMemeService) ProfaneWords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.profane...), nil
}

func (s *MemoryMemeService) SaveProfile(ctx context.Context, uid string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *user
	s.profiles[uid] = &copied
	return nil
}

func (s *MemoryMemeService) DeleteProfile(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, uid)
	return nil
}

// LikeCount reports the number of like markers on a meme. Test helper.
func (s *MemoryMemeService) LikeCount(memeID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.likes[memeID])
}
