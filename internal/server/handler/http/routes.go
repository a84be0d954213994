package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"

	"github.com/feedgrid/feedgrid/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the API.
//
// Public routes (no authentication):
//
//	GET /api/widgets/{widgetID}/feed → feedHandler.Feed
//	GET /api/social/callback         → socialHandler.Callback (browser redirect)
//
// Authenticated routes (bearer token):
//
//	GET    /api/widgets                              → widgetHandler.List
//	POST   /api/widgets                              → widgetHandler.Create
//	PUT    /api/widgets/{widgetID}                   → widgetHandler.Update
//	DELETE /api/widgets/{widgetID}                   → widgetHandler.Delete
//	POST   /api/widgets/{widgetID}/embeds            → widgetHandler.AddEmbed
//	DELETE /api/widgets/{widgetID}/embeds/{embedID}  → widgetHandler.RemoveEmbed
//	GET    /api/social/connect                       → socialHandler.Connect
//	GET    /api/social/connections                   → socialHandler.Connections
//	POST   /api/social/connections/{connectionID}/refresh → socialHandler.Refresh
//	DELETE /api/social/connections/{connectionID}    → socialHandler.Disconnect
func NewRouter(
	feedHandler *FeedHandler,
	widgetHandler *WidgetHandler,
	socialHandler *SocialHandler,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints: the feed is embedded on third-party pages and
		// the OAuth callback arrives as an anonymous browser redirect.
		r.Get("/widgets/{widgetID}/feed", feedHandler.Feed)
		r.Get("/social/callback", socialHandler.Callback)

		// Protected group: requires a valid API token
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(verifier))

			r.Get("/widgets", widgetHandler.List)
			r.Post("/widgets", widgetHandler.Create)
			r.Put("/widgets/{widgetID}", widgetHandler.Update)
			r.Delete("/widgets/{widgetID}", widgetHandler.Delete)
			r.Post("/widgets/{widgetID}/embeds", widgetHandler.AddEmbed)
			r.Delete("/widgets/{widgetID}/embeds/{embedID}", widgetHandler.RemoveEmbed)

			r.Get("/social/connect", socialHandler.Connect)
			r.Get("/social/connections", socialHandler.Connections)
			r.Post("/social/connections/{connectionID}/refresh", socialHandler.Refresh)
			r.Delete("/social/connections/{connectionID}", socialHandler.Disconnect)
		})
	})

	return r
}
