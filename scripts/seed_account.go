package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/account-service/internal/config"
	"github.com/khoahotran/account-service/internal/domain/account"
	"github.com/khoahotran/account-service/pkg/auth"
)

func main() {
	fmt.Println("adding account into database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	a := &account.Account{
		ID:        uuid.New(),
		Name:      os.Getenv("SEED_NAME"),
		Email:     os.Getenv("SEED_EMAIL"),
		PhotoURL:  os.Getenv("SEED_PHOTO_URL"),
		CreatedAt: time.Now().UTC(),
	}
	password := os.Getenv("SEED_PASSWORD")

	if !account.ValidEmail(a.Email) {
		log.Fatalf("invalid SEED_EMAIL %q", a.Email)
	}
	if !account.ValidPassword(password) {
		log.Fatalf("SEED_PASSWORD must be at least %d characters long", account.MinPasswordLength)
	}
	if !account.PasswordFits(password) {
		log.Fatalf("SEED_PASSWORD must be at most %d bytes long", account.MaxPasswordBytes)
	}

	a.PasswordHash, err = auth.NewBcryptHasher(cfg.Auth.BcryptCost).Hash(password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}
	if err := a.Validate(); err != nil {
		log.Fatalf("invalid account: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DB.DSN)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO accounts (id, name, email, password_hash, photo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash, photo_url = EXCLUDED.photo_url
	`
	_, err = pool.Exec(context.Background(), query, a.ID, a.Name, a.Email, a.PasswordHash, a.PhotoURL, a.CreatedAt)
	if err != nil {
		log.Fatalf("cannot add account: %v", err)
	}

	fmt.Printf("added or updated account '%s' successfully!\n", a.Email)
}
