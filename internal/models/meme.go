package models

import (
	"time"
)

// Meme is a post document. MediaURL is the blob-store key of the attached
// file, not a public URL. Moderated is set once the profanity trigger has
// seen the document, so event redelivery cannot apply the penalty twice.
type Meme struct {
	ID          string    `json:"id" firestore:"-"`
	Text        string    `json:"text" firestore:"text"`
	IsPublished bool      `json:"isPublished" firestore:"isPublished"`
	Likes       int64     `json:"likes" firestore:"likes"`
	UserID      string    `json:"userId" firestore:"userId"`
	MediaURL    string    `json:"mediaURL" firestore:"mediaURL"`
	Moderated   bool      `json:"moderated" firestore:"moderated"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

// LikeRequest optionally overrides the toggle magnitude.
type LikeRequest struct {
	Count int64 `json:"count"`
}

type ProfaneWordsRequest struct {
	Words []string `json:"words"`
}
