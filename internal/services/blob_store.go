package services

import (
	"context"
	"errors"
	"io"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is key-addressed binary storage for meme media. Keys look like
// "{uid}/{memeId}.{ext}".
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	Close() error
}
