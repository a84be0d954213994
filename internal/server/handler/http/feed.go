package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feedgrid/feedgrid/internal/models"
)

// FeedService defines the interface for the feed cache engine required by
// the FeedHandler.
type FeedService interface {
	// GetFeed resolves the public feed for a widget, serving from cache
	// within the freshness window and refetching otherwise.
	GetFeed(ctx context.Context, widgetID string) (*models.FeedResult, error)
}

// FeedHandler handles the public widget feed endpoint.
type FeedHandler struct {
	FeedService FeedService
}

// Feed handles GET /api/widgets/{widgetID}/feed. No authentication is
// required. An inactive widget produces the same 404 as a nonexistent one.
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetID")

	result, err := h.FeedService.GetFeed(r.Context(), widgetID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"widget":  result.Widget,
		"posts":   result.Posts,
		"cached":  result.Cached,
	})
}
