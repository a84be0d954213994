package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feedgrid/feedgrid/internal/meta"
	"github.com/feedgrid/feedgrid/internal/models"
)

// DefaultCacheTTL is the feed cache freshness window.
const DefaultCacheTTL = 15 * time.Minute

// WidgetReader resolves widgets for the public feed path.
type WidgetReader interface {
	GetActive(ctx context.Context, widgetID string) (*models.Widget, error)
}

// ConnectionReader resolves the credential behind a business widget.
type ConnectionReader interface {
	GetByID(ctx context.Context, id string) (*models.SocialConnection, error)
}

// CacheRepository defines the persistence operations for the feed cache.
type CacheRepository interface {
	Get(ctx context.Context, widgetID string) (*models.WidgetCache, error)
	Upsert(ctx context.Context, c models.WidgetCache) error
}

// EmbedReader lists manually added posts for personal widgets.
type EmbedReader interface {
	ListRecent(ctx context.Context, widgetID string, limit int) ([]models.WidgetEmbed, error)
}

// MediaAPI is the slice of the Graph client the feed engine needs.
type MediaAPI interface {
	ListMedia(ctx context.Context, businessAccountID, accessToken string, limit int) ([]meta.MediaItem, error)
}

// MediaClientSource returns the media client for the current configuration.
type MediaClientSource func() (MediaAPI, error)

// TokenDecrypter recovers the plaintext token from the stored blob.
type TokenDecrypter interface {
	Decrypt(blob string) (string, error)
}

// FeedService is the widget feed cache engine: it resolves widget and
// credential, decides cache-hit versus refetch, normalizes upstream
// payloads into the unified Post shape, and persists the refreshed cache.
type FeedService struct {
	widgets     WidgetReader
	connections ConnectionReader
	cache       CacheRepository
	embeds      EmbedReader
	media       MediaClientSource
	vault       TokenDecrypter
	log         *zap.Logger

	ttl time.Duration
	now func() time.Time
}

// NewFeedService constructs a FeedService. ttl <= 0 uses DefaultCacheTTL.
func NewFeedService(
	widgets WidgetReader,
	connections ConnectionReader,
	cache CacheRepository,
	embeds EmbedReader,
	media MediaClientSource,
	vault TokenDecrypter,
	ttl time.Duration,
	log *zap.Logger,
) *FeedService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &FeedService{
		widgets:     widgets,
		connections: connections,
		cache:       cache,
		embeds:      embeds,
		media:       media,
		vault:       vault,
		log:         log,
		ttl:         ttl,
		now:         time.Now,
	}
}

// GetFeed serves the public feed for a widget. An inactive widget is
// indistinguishable from a nonexistent one. A fresh cache row is returned
// as-is; otherwise the feed is refetched, the cache row is fully replaced,
// and the fresh payload is returned. On fetch failure the previous cache
// row is left untouched.
func (s *FeedService) GetFeed(ctx context.Context, widgetID string) (*models.FeedResult, error) {
	widget, err := s.widgets.GetActive(ctx, widgetID)
	if err != nil {
		return nil, err
	}

	summary := models.WidgetSummary{
		ID:     widget.ID,
		Name:   widget.Name,
		Layout: widget.Layout,
		Theme:  widget.Theme,
	}

	cached, err := s.cache.Get(ctx, widgetID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if cached != nil && now.Sub(cached.CachedAt) < s.ttl {
		return &models.FeedResult{Widget: summary, Posts: cached.Posts, Cached: true}, nil
	}

	// The request may be abandoned mid-fetch; finishing the fetch and the
	// cache write keeps the cache coherent for the next caller.
	fetchCtx := context.WithoutCancel(ctx)

	posts, err := s.fetchPosts(fetchCtx, widget)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Upsert(fetchCtx, models.WidgetCache{
		WidgetID: widgetID,
		Posts:    posts,
		CachedAt: now,
	}); err != nil {
		return nil, err
	}

	s.log.Debug("refreshed widget feed",
		zap.String("widget_id", widgetID),
		zap.Int("posts", len(posts)),
	)

	return &models.FeedResult{Widget: summary, Posts: posts, Cached: false}, nil
}

// fetchPosts builds the fresh payload for a widget by type. Unknown types
// produce an empty feed, not an error, and still get cached upstream.
func (s *FeedService) fetchPosts(ctx context.Context, widget *models.Widget) ([]models.Post, error) {
	switch widget.Type {
	case models.WidgetInstagramBusiness:
		return s.fetchBusinessPosts(ctx, widget)
	case models.WidgetInstagramPersonal:
		return s.fetchEmbedPosts(ctx, widget)
	default:
		return []models.Post{}, nil
	}
}

func (s *FeedService) fetchBusinessPosts(ctx context.Context, widget *models.Widget) ([]models.Post, error) {
	if widget.ConnectionID == nil {
		// The connection was deleted out from under the widget; degrade to
		// an empty feed rather than failing the embed.
		return []models.Post{}, nil
	}

	connection, err := s.connections.GetByID(ctx, *widget.ConnectionID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.vault.Decrypt(connection.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("widget %s credential: %w", widget.ID, err)
	}

	client, err := s.media()
	if err != nil {
		return nil, err
	}

	items, err := client.ListMedia(ctx, connection.BusinessAccountID, accessToken, widget.PostCount)
	if err != nil {
		return nil, fmt.Errorf("widget %s: %w", widget.ID, err)
	}

	return meta.NormalizeMedia(items), nil
}

func (s *FeedService) fetchEmbedPosts(ctx context.Context, widget *models.Widget) ([]models.Post, error) {
	embeds, err := s.embeds.ListRecent(ctx, widget.ID, widget.PostCount)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(embeds))
	for _, e := range embeds {
		posts = append(posts, models.Post{
			ID:        e.ID,
			Type:      models.PostTypeEmbed,
			HTML:      e.HTML,
			Thumbnail: e.Thumbnail,
			Caption:   e.Caption,
			Author:    e.Author,
		})
	}
	return posts, nil
}
