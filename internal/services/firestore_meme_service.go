package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/memestream/backend/internal/models"
)

const (
	memesCollection   = "memes"
	likesCollection   = "likes"
	profaneCollection = "profane"
	usersCollection   = "users"

	// Single document holding the moderator-maintained word list. Reads
	// still flatten the whole collection so manually added documents count.
	profaneWordListDoc = "wordlist"
)

type FirestoreMemeService struct {
	client *firestore.Client
}

func NewFirestoreMemeService(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirestoreMemeService, error) {
	if projectID == "" {
		return nil, ErrBadInput
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	log.Printf("Firestore connected: project=%s", projectID)
	return &FirestoreMemeService{client: client}, nil
}

func (s *FirestoreMemeService) Close(ctx context.Context) error {
	return s.client.Close()
}

func (s *FirestoreMemeService) CreateMeme(ctx context.Context, meme *models.Meme) (string, error) {
	createdAt := meme.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	ref, _, err := s.client.Collection(memesCollection).Add(ctx, map[string]interface{}{
		"text":        meme.Text,
		"isPublished": meme.IsPublished,
		"likes":       meme.Likes,
		"userId":      meme.UserID,
		"moderated":   false,
		"createdAt":   createdAt,
	})
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *FirestoreMemeService) GetMeme(ctx context.Context, id string) (*models.Meme, error) {
	snap, err := s.client.Collection(memesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrMemeNotFound
		}
		return nil, err
	}

	var meme models.Meme
	if err := snap.DataTo(&meme); err != nil {
		return nil, err
	}
	meme.ID = snap.Ref.ID
	return &meme, nil
}

func (s *FirestoreMemeService) ListMemes(ctx context.Context, publishedOnly bool) ([]*models.Meme, error) {
	var it *firestore.DocumentIterator
	if publishedOnly {
		it = s.client.Collection(memesCollection).Where("isPublished", "==", true).Documents(ctx)
	} else {
		it = s.client.Collection(memesCollection).Documents(ctx)
	}
	defer it.Stop()

	memes := make([]*models.Meme, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var meme models.Meme
		if err := snap.DataTo(&meme); err != nil {
			return nil, err
		}
		meme.ID = snap.Ref.ID
		memes = append(memes, &meme)
	}
	return memes, nil
}

func (s *FirestoreMemeService) MemeOwner(ctx context.Context, id string) (string, error) {
	meme, err := s.GetMeme(ctx, id)
	if err != nil {
		return "", err
	}
	return meme.UserID, nil
}

func (s *FirestoreMemeService) UpdateMemeText(ctx context.Context, id, text string) error {
	_, err := s.client.Collection(memesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "text", Value: text},
	})
	return translateNotFound(err)
}

func (s *FirestoreMemeService) SetMemeMedia(ctx context.Context, id, mediaURL string) error {
	_, err := s.client.Collection(memesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "mediaURL", Value: mediaURL},
	})
	return translateNotFound(err)
}

func (s *FirestoreMemeService) DeleteMeme(ctx context.Context, id string) error {
	memeRef := s.client.Collection(memesCollection).Doc(id)

	// Subcollection documents are not deleted with their parent.
	it := memeRef.Collection(likesCollection).Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return err
		}
	}

	_, err := memeRef.Delete(ctx)
	return err
}

// ToggleLike runs in a transaction with the caller's uid as the like
// document id, so two concurrent toggles cannot both insert a marker.
func (s *FirestoreMemeService) ToggleLike(ctx context.Context, memeID, uid string, count int64) (bool, error) {
	memeRef := s.client.Collection(memesCollection).Doc(memeID)
	likeRef := memeRef.Collection(likesCollection).Doc(uid)

	liked := false
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(memeRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrMemeNotFound
			}
			return err
		}

		_, err := tx.Get(likeRef)
		switch {
		case err == nil:
			liked = false
			if err := tx.Delete(likeRef); err != nil {
				return err
			}
			return tx.Update(memeRef, []firestore.Update{
				{Path: "likes", Value: firestore.Increment(-count)},
			})
		case status.Code(err) == codes.NotFound:
			liked = true
			if err := tx.Create(likeRef, map[string]interface{}{
				"uid":       uid,
				"createdAt": time.Now().UTC(),
			}); err != nil {
				return err
			}
			return tx.Update(memeRef, []firestore.Update{
				{Path: "likes", Value: firestore.Increment(count)},
			})
		default:
			return err
		}
	})
	return liked, err
}

func (s *FirestoreMemeService) ApplyModeration(ctx context.Context, memeID string, penalty int64) (bool, error) {
	memeRef := s.client.Collection(memesCollection).Doc(memeID)

	applied := false
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(memeRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrMemeNotFound
			}
			return err
		}

		var meme models.Meme
		if err := snap.DataTo(&meme); err != nil {
			return err
		}
		if meme.Moderated {
			applied = false
			return nil
		}

		applied = true
		return tx.Update(memeRef, []firestore.Update{
			{Path: "moderated", Value: true},
			{Path: "likes", Value: firestore.Increment(-penalty)},
		})
	})
	return applied, err
}

func (s *FirestoreMemeService) SetProfaneWords(ctx context.Context, words []string) error {
	_, err := s.client.Collection(profaneCollection).Doc(profaneWordListDoc).Set(ctx, map[string]interface{}{
		"profaneWords": words,
	})
	return err
}

func (s *FirestoreMemeService) ProfaneWords(ctx context.Context) ([]string, error) {
	it := s.client.Collection(profaneCollection).Documents(ctx)
	defer it.Stop()

	words := make([]string, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc struct {
			ProfaneWords []string `firestore:"profaneWords"`
		}
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		words = append(words, doc.ProfaneWords...)
	}
	return words, nil
}

func (s *FirestoreMemeService) SaveProfile(ctx context.Context, uid string, user *models.User) error {
	_, err := s.client.Collection(usersCollection).Doc(uid).Set(ctx, map[string]interface{}{
		"email":       user.Email,
		"displayName": user.DisplayName,
		"role":        string(user.Role),
	})
	return err
}

func (s *FirestoreMemeService) DeleteProfile(ctx context.Context, uid string) error {
	_, err := s.client.Collection(usersCollection).Doc(uid).Delete(ctx)
	return err
}

func translateNotFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrMemeNotFound
	}
	return err
}
