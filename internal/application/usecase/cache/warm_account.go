package cache

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/khoahotran/account-service/internal/application/service"
	"github.com/khoahotran/account-service/internal/domain/account"
	"github.com/khoahotran/account-service/pkg/apperror"
	"github.com/khoahotran/account-service/pkg/logger"
)

type WarmAccountCacheUseCase struct {
	warmer service.AccountCacheWarmer
	logger logger.Logger
}

func NewWarmAccountCacheUseCase(w service.AccountCacheWarmer, log logger.Logger) *WarmAccountCacheUseCase {
	return &WarmAccountCacheUseCase{warmer: w, logger: log}
}

// Execute caches the account named by a registration event. Other event
// types and accounts that no longer resolve are skipped without error.
func (uc *WarmAccountCacheUseCase) Execute(ctx context.Context, payload service.AccountEvent) error {
	l := uc.logger.With(zap.String("account_id", payload.AccountID.String()), zap.String("event_type", payload.EventType))

	if payload.EventType != service.AccountEventTypeRegistered {
		l.Debug("Ignoring account event")
		return nil
	}

	if err := uc.warmer.Warm(ctx, payload.Email); err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			l.Warn("Account not found, skipping event")
			return nil
		}
		return apperror.NewInternal("failed to warm account cache", err)
	}

	l.Info("Warmed login cache for account")
	return nil
}
