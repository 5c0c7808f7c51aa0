package auth

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/account-service/internal/application/service"
	"github.com/khoahotran/account-service/internal/domain/account"
	"github.com/khoahotran/account-service/pkg/apperror"
	"github.com/khoahotran/account-service/pkg/logger"
)

var tracer = otel.Tracer("auth_usecase")

type LoginUseCase struct {
	accountRepo account.Repository
	hasher      service.PasswordHasher
	logger      logger.Logger
}

func NewLoginUseCase(repo account.Repository, hasher service.PasswordHasher, log logger.Logger) *LoginUseCase {
	return &LoginUseCase{
		accountRepo: repo,
		hasher:      hasher,
		logger:      log,
	}
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	Profile account.Profile
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "LoginUseCase.Execute")
	defer span.End()

	if input.Email == "" || input.Password == "" {
		err := apperror.NewInvalidInput("All fields are required", account.ErrMissingFields.Error())
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("account.email", input.Email))

	a, err := uc.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			appErr := apperror.NewNotFound("User not found", "account", input.Email)
			span.RecordError(appErr)
			return nil, appErr
		}
		appErr := apperror.NewInternal("failed to look up account", err)
		span.RecordError(appErr)
		return nil, appErr
	}

	// no stored hash can match a password signup would have refused
	matched := false
	if account.PasswordFits(input.Password) {
		matched, err = uc.hasher.Compare(input.Password, a.PasswordHash)
		if err != nil {
			appErr := apperror.NewInternal("stored password hash is unreadable", err)
			span.RecordError(appErr)
			return nil, appErr
		}
	}

	// wrong password and wrong email share one message
	if !matched {
		err := apperror.NewUnauthorized("Invalid email or password", "password mismatch")
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("account.id", a.ID.String()))
	return &LoginOutput{Profile: a.Profile()}, nil
}
