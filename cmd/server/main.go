// Package main initializes and starts the feedgrid HTTP server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and background runners.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/feedgrid/feedgrid/internal/config"
	"github.com/feedgrid/feedgrid/internal/db"
	"github.com/feedgrid/feedgrid/internal/logger"
	"github.com/feedgrid/feedgrid/internal/meta"
	"github.com/feedgrid/feedgrid/internal/oauthstate"
	"github.com/feedgrid/feedgrid/internal/repository"
	"github.com/feedgrid/feedgrid/internal/server/handler/http"
	"github.com/feedgrid/feedgrid/internal/service"
	"github.com/feedgrid/feedgrid/internal/vault"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Port
	dbName := options.DatabaseDSN

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(dbName)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Prune cold feed cache rows in the background.
	db.StartCachePruner(context.Background(), postgresDB,
		time.Hour,      // interval
		24*time.Hour,   // retention: rows untouched for a day
		zapLogger,
	)

	// Initialize the credential vault.
	credVault, err := vault.New(options.EncryptionSecret, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init vault", zap.Error(err))
	}

	// Graph API clients are built on demand and cached by configuration
	// fingerprint.
	graphFactory := meta.NewFactory(meta.Config{
		AppID:       options.MetaAppID,
		AppSecret:   options.MetaAppSecret,
		RedirectURI: options.MetaRedirectURI,
		GraphBase:   options.GraphAPIBase,
		Timeout:     options.UpstreamTimeout,
	})
	graphSource := func() (service.GraphAPI, error) { return graphFactory.Client() }
	mediaSource := func() (service.MediaAPI, error) { return graphFactory.Client() }
	oembedSource := func() (service.OEmbedAPI, error) { return graphFactory.Client() }

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	widgetRepo := repository.NewPostgresWidgetRepository(postgresDB)
	connectionRepo := repository.NewPostgresConnectionRepository(postgresDB)
	cacheRepo := repository.NewPostgresCacheRepository(postgresDB)
	embedRepo := repository.NewPostgresEmbedRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, credVault)
	connectionService := service.NewConnectionService(
		connectionRepo, credVault, oauthstate.NewStore(0), graphSource, zapLogger)
	feedService := service.NewFeedService(
		widgetRepo, connectionRepo, cacheRepo, embedRepo, mediaSource,
		credVault, options.CacheTTL, zapLogger)
	widgetService := service.NewWidgetService(widgetRepo, embedRepo, oembedSource)

	// Refresh soon-to-expire connection tokens in the background.
	connectionService.StartTokenRefresher(context.Background(),
		time.Hour,      // interval
		7*24*time.Hour, // lead window: refresh a week before expiry
	)

	// Create HTTP handlers for feed, widget and social endpoints.
	feedHandler := &http.FeedHandler{FeedService: feedService}
	widgetHandler := &http.WidgetHandler{WidgetService: widgetService}
	socialHandler := &http.SocialHandler{ConnectionService: connectionService}

	// Build the router with middleware and routes.
	router := http.NewRouter(feedHandler, widgetHandler, socialHandler, authService, zapLogger)

	// Create and start the HTTP server.
	server := &nethttp.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
