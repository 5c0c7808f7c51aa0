package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/account-service/internal/domain/account"
	"github.com/khoahotran/account-service/pkg/logger"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var accountColumns = []string{"id", "name", "email", "password_hash", "photo_url", "created_at"}

type postgresAccountRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresAccountRepo(db *pgxpool.Pool, log logger.Logger) account.Repository {
	return &postgresAccountRepo{db: db, logger: log}
}

func (r *postgresAccountRepo) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	query, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find account query: %w", err)
	}

	a := &account.Account{}
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.PhotoURL,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %q: %w", email, account.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("error when query account: %w", err)
	}
	return a, nil
}

// Save relies on the unique index on accounts.email; a concurrent duplicate
// insert surfaces as ErrEmailTaken.
func (r *postgresAccountRepo) Save(ctx context.Context, a *account.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}

	query, args, err := psql.Insert("accounts").
		Columns(accountColumns...).
		Values(a.ID, a.Name, a.Email, a.PasswordHash, a.PhotoURL, a.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert account query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("account %q: %w", a.Email, account.ErrEmailTaken)
		}
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}
