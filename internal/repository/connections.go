package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/feedgrid/feedgrid/internal/apperr"
	"github.com/feedgrid/feedgrid/internal/models"
)

// PostgresConnectionRepository implements social connection persistence
// against a PostgreSQL database.
type PostgresConnectionRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresConnectionRepository creates a new PostgresConnectionRepository
// using the provided *sql.DB.
func NewPostgresConnectionRepository(db *sql.DB) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{DB: db}
}

const connectionColumns = `id, user_id, provider, page_id, page_name, ig_business_account_id, ig_username, access_token, token_expiry, connected_at`

func scanConnection(row interface{ Scan(...any) error }) (*models.SocialConnection, error) {
	var c models.SocialConnection
	err := row.Scan(&c.ID, &c.UserID, &c.Provider, &c.PageID, &c.PageName,
		&c.BusinessAccountID, &c.Username, &c.AccessToken, &c.TokenExpiry, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new connection and returns it with a generated ID.
// AccessToken must already be the encrypted blob.
func (r *PostgresConnectionRepository) Create(ctx context.Context, c models.SocialConnection) (*models.SocialConnection, error) {
	c.ID = uuid.NewString()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO social_connections (id, user_id, provider, page_id, page_name, ig_business_account_id, ig_username, access_token, token_expiry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING connected_at
	`, c.ID, c.UserID, c.Provider, c.PageID, c.PageName, c.BusinessAccountID,
		c.Username, c.AccessToken, c.TokenExpiry).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	return &c, nil
}

// GetByID fetches a connection by ID regardless of owner. Used by the feed
// path, which has no authenticated user.
func (r *PostgresConnectionRepository) GetByID(ctx context.Context, id string) (*models.SocialConnection, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+connectionColumns+` FROM social_connections WHERE id = $1
	`, id)
	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: connection %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return c, nil
}

// GetByOwner fetches a connection by ID scoped to its owning user.
func (r *PostgresConnectionRepository) GetByOwner(ctx context.Context, userID, id string) (*models.SocialConnection, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+connectionColumns+` FROM social_connections WHERE id = $1 AND user_id = $2
	`, id, userID)
	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: connection %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return c, nil
}

// ListByUser returns all connections owned by userID, newest first.
func (r *PostgresConnectionRepository) ListByUser(ctx context.Context, userID string) ([]models.SocialConnection, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+connectionColumns+` FROM social_connections WHERE user_id = $1 ORDER BY connected_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var connections []models.SocialConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connections = append(connections, *c)
	}
	return connections, rows.Err()
}

// ListExpiringBefore returns connections whose token expiry falls before
// cutoff. Used by the background refresher.
func (r *PostgresConnectionRepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.SocialConnection, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+connectionColumns+` FROM social_connections WHERE token_expiry < $1
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expiring connections: %w", err)
	}
	defer rows.Close()

	var connections []models.SocialConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connections = append(connections, *c)
	}
	return connections, rows.Err()
}

// UpdateToken replaces the stored encrypted token and its expiry.
// Concurrent refreshes race benignly here: last writer wins and every
// written token is independently valid.
func (r *PostgresConnectionRepository) UpdateToken(ctx context.Context, id, encryptedToken string, expiry time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE social_connections SET access_token = $1, token_expiry = $2 WHERE id = $3
	`, encryptedToken, expiry, id)
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: connection %s", apperr.ErrNotFound, id)
	}
	return nil
}

// Delete removes a connection owned by userID. Referencing widgets keep
// working with a NULL connection via ON DELETE SET NULL.
func (r *PostgresConnectionRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM social_connections WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: connection %s", apperr.ErrNotFound, id)
	}
	return nil
}
