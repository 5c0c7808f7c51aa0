package service

import "context"

type AccountCacheWarmer interface {
	Warm(ctx context.Context, email string) error
}
