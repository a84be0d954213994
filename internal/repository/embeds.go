package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/feedgrid/feedgrid/internal/apperr"
	"github.com/feedgrid/feedgrid/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const uniqueViolation = "23505"

// PostgresEmbedRepository implements widget embed persistence against a
// PostgreSQL database.
type PostgresEmbedRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresEmbedRepository creates a new PostgresEmbedRepository using the
// provided *sql.DB.
func NewPostgresEmbedRepository(db *sql.DB) *PostgresEmbedRepository {
	return &PostgresEmbedRepository{DB: db}
}

// Create inserts a new embed and returns it with a generated ID. Adding the
// same post URL twice to one widget yields apperr.ErrDuplicate; the same URL
// on different widgets is fine.
func (r *PostgresEmbedRepository) Create(ctx context.Context, e models.WidgetEmbed) (*models.WidgetEmbed, error) {
	e.ID = uuid.NewString()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO widget_embeds (id, widget_id, post_url, oembed_html, thumbnail_url, caption, author_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, e.ID, e.WidgetID, e.PostURL, e.HTML, e.Thumbnail, e.Caption, e.Author).Scan(&e.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, fmt.Errorf("%w: post already added to this widget", apperr.ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("create embed: %w", err)
	}
	return &e, nil
}

// ListRecent returns up to limit embeds for a widget, most recently added
// first.
func (r *PostgresEmbedRepository) ListRecent(ctx context.Context, widgetID string, limit int) ([]models.WidgetEmbed, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, widget_id, post_url, oembed_html, thumbnail_url, caption, author_name, created_at
		  FROM widget_embeds
		 WHERE widget_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2
	`, widgetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list embeds: %w", err)
	}
	defer rows.Close()

	var embeds []models.WidgetEmbed
	for rows.Next() {
		var e models.WidgetEmbed
		if err := rows.Scan(&e.ID, &e.WidgetID, &e.PostURL, &e.HTML,
			&e.Thumbnail, &e.Caption, &e.Author, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embed: %w", err)
		}
		embeds = append(embeds, e)
	}
	return embeds, rows.Err()
}

// Delete removes an embed from a widget.
func (r *PostgresEmbedRepository) Delete(ctx context.Context, widgetID, embedID string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM widget_embeds WHERE id = $1 AND widget_id = $2
	`, embedID, widgetID)
	if err != nil {
		return fmt.Errorf("delete embed: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: embed %s", apperr.ErrNotFound, embedID)
	}
	return nil
}
