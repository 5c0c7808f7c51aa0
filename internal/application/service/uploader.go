package service

import (
	"context"
	"io"
)

// Uploader stores an image on a remote host and returns its public URL.
// publicID is relative to folder; Delete takes the same pair.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	Delete(ctx context.Context, folder string, publicID string) error
}
