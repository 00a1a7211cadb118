package services

import (
	"context"
	"log"
	"strings"
)

// ProfanityPenalty is subtracted from a meme's like counter when its text
// contains a listed word.
const ProfanityPenalty = 3

// ProfanityFilter matches lowercased words against whole space-separated
// tokens. A listed word embedded inside a longer word does not match; the
// trade-off favors low false positives over recall.
type ProfanityFilter struct {
	words map[string]struct{}
}

func NewProfanityFilter(words []string) *ProfanityFilter {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			set[word] = struct{}{}
		}
	}
	return &ProfanityFilter{words: set}
}

func (f *ProfanityFilter) IsProfane(text string) bool {
	for _, token := range strings.Split(strings.ToLower(text), " ") {
		if _, ok := f.words[token]; ok {
			return true
		}
	}
	return false
}

// Moderator applies the profanity penalty to newly created memes. It is
// driven by document-create events, which may be redelivered; the store's
// moderation marker makes a second pass over the same meme a no-op.
type Moderator struct {
	memes MemeService
}

func NewModerator(memes MemeService) *Moderator {
	return &Moderator{memes: memes}
}

// ModerateMeme checks one meme against the aggregated word list. Returns
// true when the penalty was applied by this call.
func (m *Moderator) ModerateMeme(ctx context.Context, memeID string) (bool, error) {
	meme, err := m.memes.GetMeme(ctx, memeID)
	if err != nil {
		return false, err
	}
	if meme.Moderated {
		return false, nil
	}

	words, err := m.memes.ProfaneWords(ctx)
	if err != nil {
		return false, err
	}

	penalty := int64(0)
	if NewProfanityFilter(words).IsProfane(meme.Text) {
		penalty = ProfanityPenalty
	}

	// The marker is set even for clean memes so redelivered events skip them.
	applied, err := m.memes.ApplyModeration(ctx, memeID, penalty)
	if err != nil {
		return false, err
	}
	if applied && penalty > 0 {
		log.Printf("[moderation] profanity penalty applied: meme=%s penalty=%d", memeID, penalty)
		return true, nil
	}
	return false, nil
}
