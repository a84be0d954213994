package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feedgrid/feedgrid/internal/middleware"
	"github.com/feedgrid/feedgrid/internal/models"
)

// ConnectionService defines the interface for the social token lifecycle
// required by the SocialHandler.
type ConnectionService interface {
	// Initiate returns the provider authorization URL with a server-bound
	// anti-forgery state.
	Initiate(userID string) (string, error)
	// HandleCallback completes the OAuth flow and persists one connection.
	HandleCallback(ctx context.Context, state, code string) (*models.SocialConnection, error)
	// Refresh replaces the stored credential with a fresh token.
	Refresh(ctx context.Context, userID, connectionID string) error
	// List returns the user's connections without token material.
	List(ctx context.Context, userID string) ([]models.SocialConnection, error)
	// Disconnect deletes a connection.
	Disconnect(ctx context.Context, userID, connectionID string) error
}

// SocialHandler handles the OAuth connect flow and connection management.
type SocialHandler struct {
	ConnectionService ConnectionService
	// DashboardPath is where the callback redirects the browser.
	DashboardPath string
}

func (h *SocialHandler) dashboard(query string) string {
	path := h.DashboardPath
	if path == "" {
		path = "/dashboard/social"
	}
	return path + "?" + query
}

// Connect handles GET /api/social/connect. It redirects the authenticated
// user to the provider authorization dialog.
func (h *SocialHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	authURL, err := h.ConnectionService.Initiate(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /api/social/callback, the browser redirect from the
// provider. It is unauthenticated; the user is recovered from the bound
// state. Outcomes are reported to the dashboard via redirect query values.
func (h *SocialHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("error") != "" {
		http.Redirect(w, r, h.dashboard("error=access_denied"), http.StatusFound)
		return
	}
	code := query.Get("code")
	if code == "" {
		http.Redirect(w, r, h.dashboard("error=no_code"), http.StatusFound)
		return
	}

	_, err := h.ConnectionService.HandleCallback(r.Context(), query.Get("state"), code)
	if err != nil {
		http.Redirect(w, r, h.dashboard("error=connect_failed"), http.StatusFound)
		return
	}
	http.Redirect(w, r, h.dashboard("success=connected"), http.StatusFound)
}

// Connections handles GET /api/social/connections.
func (h *SocialHandler) Connections(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	connections, err := h.ConnectionService.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if connections == nil {
		connections = []models.SocialConnection{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": connections})
}

// Refresh handles POST /api/social/connections/{connectionID}/refresh.
func (h *SocialHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	connectionID := chi.URLParam(r, "connectionID")

	if err := h.ConnectionService.Refresh(r.Context(), userID, connectionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Disconnect handles DELETE /api/social/connections/{connectionID}.
func (h *SocialHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	connectionID := chi.URLParam(r, "connectionID")

	if err := h.ConnectionService.Disconnect(r.Context(), userID, connectionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
