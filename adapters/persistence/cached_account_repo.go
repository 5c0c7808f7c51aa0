package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/account-service/internal/domain/account"
	"github.com/khoahotran/account-service/pkg/logger"
)

const accountCacheKeyPrefix = "account:email:"

// cachedAccount mirrors account.Account but keeps the hash, which the domain
// type hides from JSON.
type cachedAccount struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	PhotoURL     string    `json:"photo_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// CachedAccountRepo is a read-through Redis cache in front of another
// account.Repository. Accounts are immutable once stored, so entries never
// need invalidation; only hits are cached.
type CachedAccountRepo struct {
	next   account.Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedAccountRepo(next account.Repository, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedAccountRepo {
	return &CachedAccountRepo{next: next, rdb: rdb, ttl: ttl, logger: log}
}

func cacheKey(email string) string {
	return accountCacheKeyPrefix + email
}

func (r *CachedAccountRepo) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	raw, err := r.rdb.Get(ctx, cacheKey(email)).Bytes()
	switch {
	case err == nil:
		var c cachedAccount
		if err := json.Unmarshal(raw, &c); err == nil {
			return &account.Account{
				ID:           c.ID,
				Name:         c.Name,
				Email:        c.Email,
				PasswordHash: c.PasswordHash,
				PhotoURL:     c.PhotoURL,
				CreatedAt:    c.CreatedAt,
			}, nil
		}
		r.logger.Warn("Discarding unreadable account cache entry", zap.String("key", cacheKey(email)))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("Account cache read failed, falling back to database", zap.Error(err))
	}

	a, err := r.next.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	r.store(ctx, a)
	return a, nil
}

func (r *CachedAccountRepo) Save(ctx context.Context, a *account.Account) error {
	return r.next.Save(ctx, a)
}

// Warm loads the account from the backing store and caches it.
func (r *CachedAccountRepo) Warm(ctx context.Context, email string) error {
	a, err := r.next.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	payload, err := marshalCachedAccount(a)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, cacheKey(email), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to warm account cache: %w", err)
	}
	return nil
}

func (r *CachedAccountRepo) store(ctx context.Context, a *account.Account) {
	payload, err := marshalCachedAccount(a)
	if err != nil {
		r.logger.Warn("Cannot encode account for cache", zap.Error(err))
		return
	}
	if err := r.rdb.Set(ctx, cacheKey(a.Email), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("Account cache write failed", zap.Error(err))
	}
}

func marshalCachedAccount(a *account.Account) ([]byte, error) {
	return json.Marshal(cachedAccount{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		PhotoURL:     a.PhotoURL,
		CreatedAt:    a.CreatedAt,
	})
}
