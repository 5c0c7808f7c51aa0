package auth

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/account-service/internal/application/service"
	"github.com/khoahotran/account-service/internal/domain/account"
	"github.com/khoahotran/account-service/pkg/apperror"
	"github.com/khoahotran/account-service/pkg/logger"
)

const compensationTimeout = 10 * time.Second

type SignupUseCase struct {
	accountRepo account.Repository
	hasher      service.PasswordHasher
	uploader    service.Uploader
	publisher   service.EventPublisher
	photoFolder string
	logger      logger.Logger
}

func NewSignupUseCase(
	repo account.Repository,
	hasher service.PasswordHasher,
	uploader service.Uploader,
	publisher service.EventPublisher,
	photoFolder string,
	log logger.Logger,
) *SignupUseCase {
	return &SignupUseCase{
		accountRepo: repo,
		hasher:      hasher,
		uploader:    uploader,
		publisher:   publisher,
		photoFolder: photoFolder,
		logger:      log,
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	// Photo is nil when the request carried no file.
	Photo io.Reader
}

type SignupOutput struct {
	AccountID uuid.UUID
	PhotoURL  string
}

func (uc *SignupUseCase) Execute(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	ctx, span := tracer.Start(ctx, "SignupUseCase.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("account.email", input.Email))

	if err := uc.validate(ctx, input); err != nil {
		span.RecordError(err)
		return nil, err
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		appErr := apperror.NewInternal("failed to hash password", err)
		span.RecordError(appErr)
		return nil, appErr
	}

	accountID := uuid.New()
	photoURL, err := uc.uploader.Upload(ctx, input.Photo, uc.photoFolder, accountID.String())
	if err != nil {
		appErr := apperror.NewInternal("failed to upload photo", err)
		span.RecordError(appErr)
		return nil, appErr
	}

	newAccount := &account.Account{
		ID:           accountID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		PhotoURL:     photoURL,
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.accountRepo.Save(ctx, newAccount); err != nil {
		go uc.discardPhoto(accountID, input.Email)
		if errors.Is(err, account.ErrEmailTaken) {
			appErr := apperror.NewConflict("Email already registered", "account", "email", input.Email)
			span.RecordError(appErr)
			return nil, appErr
		}
		appErr := apperror.NewInternal("failed to save account", err)
		span.RecordError(appErr)
		return nil, appErr
	}

	// Outlives the request; carries the trace but not the cancellation.
	publishCtx := trace.ContextWithSpanContext(context.Background(), span.SpanContext())
	go func() {
		event := service.AccountEvent{
			EventType:    service.AccountEventTypeRegistered,
			AccountID:    newAccount.ID,
			Email:        newAccount.Email,
			Name:         newAccount.Name,
			PhotoURL:     newAccount.PhotoURL,
			RegisteredAt: newAccount.CreatedAt,
		}
		if err := uc.publisher.PublishAccountEvent(publishCtx, event); err != nil {
			uc.logger.Error("Failed to publish 'account.registered' event", err, zap.String("account_id", newAccount.ID.String()))
		}
	}()

	uc.logger.Info("Account registered", zap.String("account_id", accountID.String()))
	return &SignupOutput{AccountID: accountID, PhotoURL: photoURL}, nil
}

func (uc *SignupUseCase) validate(ctx context.Context, input SignupInput) error {
	if input.Name == "" || input.Email == "" || input.Password == "" || input.Photo == nil {
		return apperror.NewInvalidInput("All fields are required", account.ErrMissingFields.Error())
	}
	if !account.ValidEmail(input.Email) {
		return apperror.NewInvalidInput("Invalid email format", account.ErrInvalidEmail.Error())
	}
	if !account.ValidPassword(input.Password) {
		return apperror.NewInvalidInput("Password must be at least 8 characters long", account.ErrPasswordTooShort.Error())
	}
	if !account.PasswordFits(input.Password) {
		return apperror.NewInvalidInput("Password must be at most 72 bytes long", account.ErrPasswordTooLong.Error())
	}

	_, err := uc.accountRepo.FindByEmail(ctx, input.Email)
	if err == nil {
		return apperror.NewConflict("Email already registered", "account", "email", input.Email)
	}
	if !errors.Is(err, account.ErrAccountNotFound) {
		return apperror.NewInternal("failed to check existing account", err)
	}
	return nil
}

// discardPhoto removes an uploaded photo whose account was never stored. A
// failed Save may still have committed, so the photo is kept unless the store
// confirms no account with this id owns the email.
func (uc *SignupUseCase) discardPhoto(accountID uuid.UUID, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), compensationTimeout)
	defer cancel()

	publicID := accountID.String()
	stored, err := uc.accountRepo.FindByEmail(ctx, email)
	switch {
	case err == nil && stored.ID == accountID:
		uc.logger.Warn("Account was stored despite save error, keeping photo", zap.String("account_id", publicID))
		return
	case err != nil && !errors.Is(err, account.ErrAccountNotFound):
		uc.logger.Warn("Cannot confirm account is absent, keeping photo", zap.String("public_id", publicID), zap.Error(err))
		return
	}

	if err := uc.uploader.Delete(ctx, uc.photoFolder, publicID); err != nil {
		uc.logger.Warn("Failed to delete orphaned photo", zap.String("public_id", publicID), zap.Error(err))
	}
}
