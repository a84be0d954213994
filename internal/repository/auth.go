package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/feedgrid/feedgrid/internal/apperr"
)

// PostgresAuthRepository resolves API tokens to user ids. Tokens are stored
// hashed; plaintext tokens never touch the database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the
// given database connection.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserIDForTokenHash returns the user id owning the given token hash.
// An unknown hash yields apperr.ErrNotFound.
func (r *PostgresAuthRepository) UserIDForTokenHash(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM api_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: token", apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	return userID, nil
}
