package service

import (
	"context"
	"fmt"

	"github.com/feedgrid/feedgrid/internal/apperr"
	"github.com/feedgrid/feedgrid/internal/meta"
	"github.com/feedgrid/feedgrid/internal/models"
)

// WidgetRepository defines the persistence operations required by the
// WidgetService.
type WidgetRepository interface {
	Create(ctx context.Context, w models.Widget) (*models.Widget, error)
	GetByOwner(ctx context.Context, userID, widgetID string) (*models.Widget, error)
	ListByUser(ctx context.Context, userID string) ([]models.Widget, error)
	Update(ctx context.Context, w models.Widget) error
	Delete(ctx context.Context, userID, widgetID string) error
}

// EmbedRepository defines the persistence operations for embeds.
type EmbedRepository interface {
	Create(ctx context.Context, e models.WidgetEmbed) (*models.WidgetEmbed, error)
	Delete(ctx context.Context, widgetID, embedID string) error
}

// OEmbedAPI is the slice of the Graph client embed validation needs.
type OEmbedAPI interface {
	FetchOEmbed(ctx context.Context, postURL string) (meta.OEmbed, error)
}

// OEmbedClientSource returns the oEmbed client for the current configuration.
type OEmbedClientSource func() (OEmbedAPI, error)

// CreateWidgetParams carries the user-supplied widget attributes.
type CreateWidgetParams struct {
	ConnectionID *string `json:"connection_id"`
	Type         string  `json:"widget_type"`
	Name         string  `json:"name"`
	Layout       string  `json:"layout"`
	Theme        string  `json:"theme"`
	PostCount    int     `json:"post_count"`
}

// UpdateWidgetParams carries a partial widget update; nil fields are left
// unchanged.
type UpdateWidgetParams struct {
	Name      *string `json:"name"`
	Layout    *string `json:"layout"`
	Theme     *string `json:"theme"`
	PostCount *int    `json:"post_count"`
	Active    *bool   `json:"is_active"`
}

// WidgetService implements the authenticated widget management operations.
type WidgetService struct {
	widgets WidgetRepository
	embeds  EmbedRepository
	oembed  OEmbedClientSource
}

// NewWidgetService constructs a WidgetService.
func NewWidgetService(widgets WidgetRepository, embeds EmbedRepository, oembed OEmbedClientSource) *WidgetService {
	return &WidgetService{widgets: widgets, embeds: embeds, oembed: oembed}
}

// List returns all widgets owned by userID.
func (s *WidgetService) List(ctx context.Context, userID string) ([]models.Widget, error) {
	return s.widgets.ListByUser(ctx, userID)
}

// Create validates and stores a new widget, applying defaults for layout,
// theme and post count.
func (s *WidgetService) Create(ctx context.Context, userID string, params CreateWidgetParams) (*models.Widget, error) {
	if params.Name == "" || params.Type == "" {
		return nil, fmt.Errorf("%w: name and widget type are required", apperr.ErrInvalid)
	}

	widget := models.Widget{
		UserID:       userID,
		ConnectionID: params.ConnectionID,
		Type:         params.Type,
		Name:         params.Name,
		Layout:       params.Layout,
		Theme:        params.Theme,
		PostCount:    params.PostCount,
	}
	if widget.Layout == "" {
		widget.Layout = "grid"
	}
	if widget.Theme == "" {
		widget.Theme = "light"
	}
	if widget.PostCount <= 0 {
		widget.PostCount = 6
	}

	return s.widgets.Create(ctx, widget)
}

// Update applies a partial update to a widget owned by userID and returns
// the updated row.
func (s *WidgetService) Update(ctx context.Context, userID, widgetID string, params UpdateWidgetParams) (*models.Widget, error) {
	widget, err := s.widgets.GetByOwner(ctx, userID, widgetID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		widget.Name = *params.Name
	}
	if params.Layout != nil {
		widget.Layout = *params.Layout
	}
	if params.Theme != nil {
		widget.Theme = *params.Theme
	}
	if params.PostCount != nil {
		widget.PostCount = *params.PostCount
	}
	if params.Active != nil {
		widget.Active = *params.Active
	}

	if err := s.widgets.Update(ctx, *widget); err != nil {
		return nil, err
	}
	return widget, nil
}

// Delete removes a widget owned by userID.
func (s *WidgetService) Delete(ctx context.Context, userID, widgetID string) error {
	return s.widgets.Delete(ctx, userID, widgetID)
}

// AddEmbed validates a personal post URL, fetches its oEmbed representation
// and stores it on the widget. The widget must be owned by userID and be of
// the personal type. A URL already on the widget yields apperr.ErrDuplicate.
func (s *WidgetService) AddEmbed(ctx context.Context, userID, widgetID, postURL string) (*models.WidgetEmbed, error) {
	if !meta.IsValidPostURL(postURL) {
		return nil, fmt.Errorf("%w: invalid post url format", apperr.ErrInvalid)
	}

	widget, err := s.widgets.GetByOwner(ctx, userID, widgetID)
	if err != nil {
		return nil, err
	}
	if widget.Type != models.WidgetInstagramPersonal {
		return nil, fmt.Errorf("%w: widget does not accept embeds", apperr.ErrNotFound)
	}

	client, err := s.oembed()
	if err != nil {
		return nil, err
	}

	oembed, err := client.FetchOEmbed(ctx, postURL)
	if err != nil {
		return nil, err
	}

	return s.embeds.Create(ctx, models.WidgetEmbed{
		WidgetID:  widgetID,
		PostURL:   postURL,
		HTML:      oembed.HTML,
		Thumbnail: oembed.ThumbnailURL,
		Caption:   meta.ExtractCaption(oembed.HTML),
		Author:    oembed.AuthorName,
	})
}

// RemoveEmbed deletes an embed from a widget owned by userID.
func (s *WidgetService) RemoveEmbed(ctx context.Context, userID, widgetID, embedID string) error {
	if _, err := s.widgets.GetByOwner(ctx, userID, widgetID); err != nil {
		return err
	}
	return s.embeds.Delete(ctx, widgetID, embedID)
}
