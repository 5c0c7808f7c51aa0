package account

import (
	"context"
	"errors"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrEmailTaken       = errors.New("email already registered")
	ErrAccountNotFound  = errors.New("account not found")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhotoURL     string    `json:"photo_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the public view of an account returned after login.
type Profile struct {
	Name     string
	Email    string
	PhotoURL string
}

func (a *Account) Profile() Profile {
	return Profile{Name: a.Name, Email: a.Email, PhotoURL: a.PhotoURL}
}

// Validate checks the persisted-record invariant: every field is set.
func (a *Account) Validate() error {
	if a.Name == "" || a.Email == "" || a.PasswordHash == "" || a.PhotoURL == "" {
		return ErrMissingFields
	}
	return nil
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// PasswordFits reports whether password can be hashed without truncation.
func PasswordFits(password string) bool {
	return len(password) <= MaxPasswordBytes
}

type Repository interface {
	// FindByEmail returns ErrAccountNotFound (wrapped) when no account matches.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// Save returns ErrEmailTaken (wrapped) when the email is already stored.
	Save(ctx context.Context, a *Account) error
}
