package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feedgrid/feedgrid/internal/middleware"
	"github.com/feedgrid/feedgrid/internal/models"
	"github.com/feedgrid/feedgrid/internal/service"
)

// WidgetService defines the interface for widget management operations
// required by the WidgetHandler.
type WidgetService interface {
	List(ctx context.Context, userID string) ([]models.Widget, error)
	Create(ctx context.Context, userID string, params service.CreateWidgetParams) (*models.Widget, error)
	Update(ctx context.Context, userID, widgetID string, params service.UpdateWidgetParams) (*models.Widget, error)
	Delete(ctx context.Context, userID, widgetID string) error
	AddEmbed(ctx context.Context, userID, widgetID, postURL string) (*models.WidgetEmbed, error)
	RemoveEmbed(ctx context.Context, userID, widgetID, embedID string) error
}

// WidgetHandler handles authenticated widget and embed management requests.
type WidgetHandler struct {
	WidgetService WidgetService
}

// List handles GET /api/widgets.
func (h *WidgetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	widgets, err := h.WidgetService.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if widgets == nil {
		widgets = []models.Widget{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"widgets": widgets})
}

// Create handles POST /api/widgets.
func (h *WidgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var params service.CreateWidgetParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	widget, err := h.WidgetService.Create(r.Context(), userID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"widget": widget})
}

// Update handles PUT /api/widgets/{widgetID}.
func (h *WidgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	widgetID := chi.URLParam(r, "widgetID")

	var params service.UpdateWidgetParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	widget, err := h.WidgetService.Update(r.Context(), userID, widgetID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"widget": widget})
}

// Delete handles DELETE /api/widgets/{widgetID}.
func (h *WidgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	widgetID := chi.URLParam(r, "widgetID")

	if err := h.WidgetService.Delete(r.Context(), userID, widgetID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AddEmbed handles POST /api/widgets/{widgetID}/embeds.
func (h *WidgetHandler) AddEmbed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	widgetID := chi.URLParam(r, "widgetID")

	var req struct {
		PostURL string `json:"post_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostURL == "" {
		http.Error(w, "post url is required", http.StatusBadRequest)
		return
	}

	embed, err := h.WidgetService.AddEmbed(r.Context(), userID, widgetID, req.PostURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"embed": embed})
}

// RemoveEmbed handles DELETE /api/widgets/{widgetID}/embeds/{embedID}.
func (h *WidgetHandler) RemoveEmbed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	widgetID := chi.URLParam(r, "widgetID")
	embedID := chi.URLParam(r, "embedID")

	if err := h.WidgetService.RemoveEmbed(r.Context(), userID, widgetID, embedID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
