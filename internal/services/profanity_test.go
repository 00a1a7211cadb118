package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memestream/backend/internal/models"
)

func TestProfanityFilter_IsProfane(t *testing.T) {
	filter := NewProfanityFilter([]string{"bad", "Worse"})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact token", "this is bad", true},
		{"case insensitive text", "this is BAD", true},
		{"case insensitive list", "worse things happen", true},
		{"embedded word does not match", "badger meme", false},
		{"word with punctuation does not match", "bad!", false},
		{"empty text", "", false},
		{"clean text", "a perfectly fine meme", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.IsProfane(tt.text))
		})
	}
}

func TestProfanityFilter_IgnoresBlankListEntries(t *testing.T) {
	filter := NewProfanityFilter([]string{"", "  ", "bad"})
	assert.False(t, filter.IsProfane("a  b"))
	assert.True(t, filter.IsProfane("so bad"))
}

func TestModerator_AppliesPenaltyOnce(t *testing.T) {
	ctx := context.Background()
	memes := NewMemoryMemeService()
	require.NoError(t, memes.SetProfaneWords(ctx, []string{"bad"}))

	memeID, err := memes.CreateMeme(ctx, &models.Meme{Text: "this is bad", UserID: "u1"})
	require.NoError(t, err)

	moderator := NewModerator(memes)

	penalized, err := moderator.ModerateMeme(ctx, memeID)
	require.NoError(t, err)
	assert.True(t, penalized)

	meme, err := memes.GetMeme(ctx, memeID)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), meme.Likes)
	assert.True(t, meme.Moderated)

	// Redelivered event is a no-op.
	penalized, err = moderator.ModerateMeme(ctx, memeID)
	require.NoError(t, err)
	assert.False(t, penalized)

	meme, err = memes.GetMeme(ctx, memeID)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), meme.Likes)
}

func TestModerator_CleanMemeUntouchedButMarked(t *testing.T) {
	ctx := context.Background()
	memes := NewMemoryMemeService()
	require.NoError(t, memes.SetProfaneWords(ctx, []string{"bad"}))

	memeID, err := memes.CreateMeme(ctx, &models.Meme{Text: "wholesome content", UserID: "u1"})
	require.NoError(t, err)

	penalized, err := NewModerator(memes).ModerateMeme(ctx, memeID)
	require.NoError(t, err)
	assert.False(t, penalized)

	meme, err := memes.GetMeme(ctx, memeID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), meme.Likes)
	assert.True(t, meme.Moderated)
}

func TestModerator_MissingMeme(t *testing.T) {
	moderator := NewModerator(NewMemoryMemeService())
	_, err := moderator.ModerateMeme(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMemeNotFound)
}
