// Package repository provides persistence implementations for widgets,
// social connections, embeds and the feed cache using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/feedgrid/feedgrid/internal/apperr"
	"github.com/feedgrid/feedgrid/internal/models"
)

// PostgresWidgetRepository implements widget persistence against PostgreSQL.
type PostgresWidgetRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresWidgetRepository creates a new PostgresWidgetRepository with the
// given database connection.
func NewPostgresWidgetRepository(db *sql.DB) *PostgresWidgetRepository {
	return &PostgresWidgetRepository{DB: db}
}

const widgetColumns = `id, user_id, connection_id, widget_type, name, layout, theme, post_count, is_active, created_at`

func scanWidget(row interface{ Scan(...any) error }) (*models.Widget, error) {
	var w models.Widget
	var connectionID sql.NullString
	err := row.Scan(&w.ID, &w.UserID, &connectionID, &w.Type, &w.Name,
		&w.Layout, &w.Theme, &w.PostCount, &w.Active, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	if connectionID.Valid {
		w.ConnectionID = &connectionID.String
	}
	return &w, nil
}

// Create inserts a new widget and returns it with a generated ID.
func (r *PostgresWidgetRepository) Create(ctx context.Context, w models.Widget) (*models.Widget, error) {
	w.ID = uuid.NewString()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO widgets (id, user_id, connection_id, widget_type, name, layout, theme, post_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		RETURNING created_at
	`, w.ID, w.UserID, w.ConnectionID, w.Type, w.Name, w.Layout, w.Theme, w.PostCount).Scan(&w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create widget: %w", err)
	}
	w.Active = true
	return &w, nil
}

// GetActive fetches a widget by ID only if it is active. An inactive widget
// yields the same apperr.ErrNotFound as a nonexistent one.
func (r *PostgresWidgetRepository) GetActive(ctx context.Context, widgetID string) (*models.Widget, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+widgetColumns+` FROM widgets WHERE id = $1 AND is_active = true
	`, widgetID)
	w, err := scanWidget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: widget %s", apperr.ErrNotFound, widgetID)
	}
	if err != nil {
		return nil, fmt.Errorf("get active widget: %w", err)
	}
	return w, nil
}

// GetByOwner fetches a widget by ID scoped to its owning user.
func (r *PostgresWidgetRepository) GetByOwner(ctx context.Context, userID, widgetID string) (*models.Widget, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+widgetColumns+` FROM widgets WHERE id = $1 AND user_id = $2
	`, widgetID, userID)
	w, err := scanWidget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: widget %s", apperr.ErrNotFound, widgetID)
	}
	if err != nil {
		return nil, fmt.Errorf("get widget: %w", err)
	}
	return w, nil
}

// ListByUser returns all widgets owned by userID, newest first.
func (r *PostgresWidgetRepository) ListByUser(ctx context.Context, userID string) ([]models.Widget, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+widgetColumns+` FROM widgets WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	defer rows.Close()

	var widgets []models.Widget
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan widget: %w", err)
		}
		widgets = append(widgets, *w)
	}
	return widgets, rows.Err()
}

// Update replaces the mutable widget attributes, scoped to the owner.
func (r *PostgresWidgetRepository) Update(ctx context.Context, w models.Widget) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE widgets
		   SET name = $1, layout = $2, theme = $3, post_count = $4, is_active = $5
		 WHERE id = $6 AND user_id = $7
	`, w.Name, w.Layout, w.Theme, w.PostCount, w.Active, w.ID, w.UserID)
	if err != nil {
		return fmt.Errorf("update widget: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: widget %s", apperr.ErrNotFound, w.ID)
	}
	return nil
}

// Delete removes a widget owned by userID. Embeds and the cache row go
// with it via foreign keys.
func (r *PostgresWidgetRepository) Delete(ctx context.Context, userID, widgetID string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM widgets WHERE id = $1 AND user_id = $2
	`, widgetID, userID)
	if err != nil {
		return fmt.Errorf("delete widget: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: widget %s", apperr.ErrNotFound, widgetID)
	}
	return nil
}
